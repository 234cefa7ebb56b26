// Package obslog configures the process-wide stdlib logger. Grounded on
// vi-fighter's cmd/vi-fighter/main.go setupLogging: rotate the existing
// file by timestamped rename once it exceeds a size threshold, then
// (re)open in append mode and redirect log.SetOutput at it. Kept on the
// standard library's log package rather than a third-party logger
// because the teacher itself reaches for log/os/io here rather than an
// ecosystem structured-logging library — there is no corpus precedent
// to generalize from (see DESIGN.md).
package obslog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/terrarium/internal/simconfig"
)

// Setup configures the process logger from cfg. An empty cfg.File
// disables logging (output goes to io.Discard), mirroring vi-fighter's
// debug-flag-gated behavior. Returns the opened file (nil if disabled)
// so the caller can defer its Close.
func Setup(cfg simconfig.LoggingConfig) (*os.File, error) {
	if cfg.File == "" {
		log.SetOutput(io.Discard)
		return nil, nil
	}

	dir := filepath.Dir(cfg.File)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create log directory: %v\n", err)
			log.SetOutput(io.Discard)
			return nil, err
		}
	}

	maxSize := cfg.MaxSizeBytes
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}

	if info, err := os.Stat(cfg.File); err == nil {
		if info.Size() > maxSize {
			timestamp := time.Now().Format("2006-01-02-15-04-05")
			rotated := fmt.Sprintf("%s-%s.log", cfg.File[:len(cfg.File)-len(filepath.Ext(cfg.File))], timestamp)
			if err := os.Rename(cfg.File, rotated); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to rotate log file: %v\n", err)
			}
		}
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to open log file: %v\n", err)
		log.SetOutput(io.Discard)
		return nil, err
	}

	log.SetOutput(f)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Printf("=== terrariumd started (level=%s) ===", cfg.Level)
	return f, nil
}
