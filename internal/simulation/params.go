package simulation

import (
	"fmt"

	"github.com/yourusername/edge-lab/internal/config"
)

// Params are the model hyperparameters of the projection engine
type Params struct {
	// KFactor converts per-play rating differentials into points. It assumes ratings on
	// an EPA/play scale (magnitudes under 2.0) and must be re-derived for other scales.
	KFactor            float64
	BaselineScore      float64
	HomeFieldAdvantage float64
	Trials             int
	StdDev             float64
}

// DefaultParams returns the reference calibration
func DefaultParams() Params {
	return Params{
		KFactor:            35,
		BaselineScore:      21.5,
		HomeFieldAdvantage: 1.5,
		Trials:             2000,
		StdDev:             13.5,
	}
}

// FromConfig converts app config to engine params
func FromConfig(cfg *config.SimulationConfig) (Params, error) {
	if cfg == nil {
		return Params{}, fmt.Errorf("simulation config is required")
	}
	p := Params{
		KFactor:            cfg.KFactor,
		BaselineScore:      cfg.BaselineScore,
		HomeFieldAdvantage: cfg.HomeFieldAdvantage,
		Trials:             cfg.Trials,
		StdDev:             cfg.StdDev,
	}
	return p, p.Validate()
}

// Validate validates engine params
func (p Params) Validate() error {
	if p.Trials <= 0 {
		return fmt.Errorf("trials must be positive")
	}
	if p.StdDev < 0 {
		return fmt.Errorf("std dev cannot be negative")
	}
	if p.KFactor <= 0 {
		return fmt.Errorf("k factor must be positive")
	}
	return nil
}
