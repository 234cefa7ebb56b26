// Command terrariumd runs the granular/fluid continuum simulator as a
// TCP server: it loads a simconfig.Config, builds a world.World and a
// command.Dispatcher over it, and drives a transport.Listener's inbound
// envelope queue on the single serial physics/API task (spec.md §4.4,
// §5). Grounded on vi-fighter's cmd/vi-fighter/main.go top-level wiring
// shape (flag parsing, setupLogging, then a driving loop), generalized
// from its terminal/render loop to this server's network accept-and-
// dispatch loop.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lixenwraith/terrarium/internal/command"
	"github.com/lixenwraith/terrarium/internal/obslog"
	"github.com/lixenwraith/terrarium/internal/rules"
	"github.com/lixenwraith/terrarium/internal/scenario"
	"github.com/lixenwraith/terrarium/internal/simconfig"
	"github.com/lixenwraith/terrarium/internal/transport"
	"github.com/lixenwraith/terrarium/internal/world"
)

// idleInterval is how often the run loop checks the inbound queue for a
// pending envelope before giving the dispatcher another Idle() slice,
// bounding the latency a running simulation adds to a fresh connection.
const idleInterval = 4 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "path to a YAML config file overlaying the built-in defaults")
	flag.Parse()

	cfg, err := simconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terrariumd: loading config: %v\n", err)
		os.Exit(1)
	}

	logFile, err := obslog.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terrariumd: warning: %v\n", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		log.Printf("terrariumd: building world: %v", err)
		fmt.Fprintf(os.Stderr, "terrariumd: building world: %v\n", err)
		os.Exit(1)
	}

	listener, err := transport.NewListener(cfg.Server.BindAddr, cfg.Server.JSONTransport)
	if err != nil {
		log.Printf("terrariumd: bind failed: %v", err)
		fmt.Fprintf(os.Stderr, "terrariumd: bind failed: %v\n", err)
		os.Exit(1)
	}
	dispatcher.Listener = listener
	defer listener.Close()

	log.Printf("terrariumd: listening on %s (json=%v, world=%dx%d, rules=%s)",
		cfg.Server.BindAddr, cfg.Server.JSONTransport, cfg.World.Width, cfg.World.Height, cfg.World.Rules)

	runLoop(dispatcher, listener)
}

// buildDispatcher constructs a World from cfg.World/cfg.Scenario and
// wraps it in a fresh Dispatcher, applying every scalar and enum
// setting the config names before any command ever reaches it.
func buildDispatcher(cfg *simconfig.Config) (*command.Dispatcher, error) {
	w := world.New(cfg.World.Width, cfg.World.Height)

	if err := w.SetRules(rules.Variant(cfg.World.Rules)); err != nil {
		return nil, err
	}
	sys, ok := rules.ParsePressureSystem(cfg.World.PressureSystem)
	if !ok {
		return nil, fmt.Errorf("unknown pressure_system %q", cfg.World.PressureSystem)
	}
	w.SetPressureSystem(sys)
	w.SetGravity(cfg.World.Gravity)
	w.SetElasticity(cfg.World.Elasticity)
	w.SetPressureScale(cfg.World.PressureScale)
	w.SetWaterPressureThreshold(cfg.World.WaterPressureThreshold)
	w.SetDirtFragmentationFactor(cfg.World.DirtFragmentation)
	w.SetTimeReversalEnabled(cfg.World.TimeReversalEnabled)
	w.SetAddParticlesEnabled(cfg.World.AddParticlesEnabled)

	w.SetScenarioConfig(scenario.Config{
		QuadrantEnabled: cfg.Scenario.QuadrantEnabled,
		WaterColumn:     cfg.Scenario.WaterColumn,
		RightThrow:      cfg.Scenario.RightThrow,
		RainRate:        cfg.Scenario.RainRate,
		WallsEnabled:    cfg.Scenario.WallsEnabled,
	})

	return command.NewDispatcher(w), nil
}

// runLoop is the single serial physics/API task (spec.md §5): it reads
// one envelope at a time off the listener's bounded inbound queue,
// dispatches it, and writes the response back to the originating
// client; whenever no envelope is immediately available it gives the
// dispatcher's cooperative sim_run stepping a slice via Idle(), so a
// running simulation advances between requests without a second
// goroutine ever touching World.
func runLoop(d *command.Dispatcher, l *transport.Listener) {
	ticker := time.NewTicker(idleInterval)
	defer ticker.Stop()

	for {
		select {
		case in, ok := <-l.Inbound():
			if !ok {
				return
			}
			handleEnvelope(d, l, in)
		case <-ticker.C:
			d.Idle()
		}
	}
}

func handleEnvelope(d *command.Dispatcher, l *transport.Listener, in transport.Inbound) {
	okay, apiErr := d.Handle(in.Envelope.Type, in.Envelope.Payload)

	resp := &transport.Envelope{ID: in.Envelope.ID, Type: in.Envelope.Type + "_response"}
	if apiErr != nil {
		resp.Payload = mustMarshalError(apiErr)
	} else {
		resp.Payload = mustMarshal(okay)
	}
	l.Send(in.ClientID, resp)

	if in.Envelope.Type == "exit" {
		l.CloseClient(in.ClientID)
	}
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("terrariumd: marshaling response: %v", err)
		return []byte("{}")
	}
	return b
}

func mustMarshalError(err error) []byte {
	b, merr := json.Marshal(map[string]string{"message": err.Error()})
	if merr != nil {
		return []byte(`{"message":"internal error"}`)
	}
	return b
}
