package rules

import "sync"

// baseParams holds the scalar knobs spec.md §4.2 attaches to every Rules
// variant. Embedding this in RulesA/RulesB gives each variant its own copy
// (spec.md §9: "Concrete variants ... each own their scalar parameters"),
// eliminating the process-wide mutable statics the source used.
type baseParams struct {
	mu                     sync.RWMutex
	gravity                float64
	elasticityFactor       float64
	pressureScale          float64
	waterPressureThreshold float64
}

func newBaseParams() baseParams {
	return baseParams{
		gravity:                9.81,
		elasticityFactor:       0.8,
		pressureScale:          1.0,
		waterPressureThreshold: 0.01,
	}
}

func (b *baseParams) Gravity() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gravity
}

func (b *baseParams) SetGravity(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gravity = v
}

func (b *baseParams) ElasticityFactor() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.elasticityFactor
}

func (b *baseParams) SetElasticityFactor(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 2 {
		v = 2
	}
	b.elasticityFactor = v
}

func (b *baseParams) PressureScale() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pressureScale
}

func (b *baseParams) SetPressureScale(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v < 0 {
		v = 0
	}
	b.pressureScale = v
}

func (b *baseParams) WaterPressureThreshold() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.waterPressureThreshold
}

func (b *baseParams) SetWaterPressureThreshold(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waterPressureThreshold = v
}
