package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jcortez/swinglab/internal/domain/measure"
	"github.com/jcortez/swinglab/internal/domain/scoring"
)

// metricSpecWire is the external spec shape: a target range plus optional
// polarity and tolerance-shape flags. The flags are folded into a single
// enumerated shape during validation so every combination is handled
// explicitly; setting both is rejected rather than guessed at.
type metricSpecWire struct {
	Target    []float64 `koanf:"target"`
	Weight    float64   `koanf:"weight"`
	Invert    bool      `koanf:"invert"`
	AbsWindow bool      `koanf:"abs_window"`
}

type specsFile struct {
	Metrics map[string]metricSpecWire `koanf:"metrics"`
}

// LoadMetricSpecs reads the metric specification source. An empty path
// yields the built-in spec set.
func LoadMetricSpecs(path string) (map[string]scoring.Spec, error) {
	if path == "" {
		return DefaultMetricSpecs(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	var f specsFile
	if err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if len(f.Metrics) == 0 {
		return nil, fmt.Errorf("%w: no metrics defined in %s", ErrInvalidSpecs, path)
	}

	specs := make(map[string]scoring.Spec, len(f.Metrics))
	for name, wire := range f.Metrics {
		spec, err := wire.toSpec()
		if err != nil {
			return nil, fmt.Errorf("%w: metric %q: %v", ErrInvalidSpecs, name, err)
		}
		specs[name] = spec
	}
	return specs, nil
}

func (w metricSpecWire) toSpec() (scoring.Spec, error) {
	if len(w.Target) != 2 {
		return scoring.Spec{}, fmt.Errorf("target must be [min, max], got %d values", len(w.Target))
	}
	if w.Target[0] > w.Target[1] {
		return scoring.Spec{}, fmt.Errorf("target min %.3f > max %.3f", w.Target[0], w.Target[1])
	}
	if w.Weight < 0 {
		return scoring.Spec{}, fmt.Errorf("negative weight %.3f", w.Weight)
	}
	shape := scoring.ToleranceBand
	switch {
	case w.Invert && w.AbsWindow:
		return scoring.Spec{}, fmt.Errorf("invert and abs_window are mutually exclusive")
	case w.Invert:
		shape = scoring.ToleranceInverted
	case w.AbsWindow:
		shape = scoring.ToleranceCentered
	}
	return scoring.Spec{
		Min:    w.Target[0],
		Max:    w.Target[1],
		Weight: w.Weight,
		Shape:  shape,
	}, nil
}

// DefaultMetricSpecs is the built-in spec set covering every metric the
// computer produces. Targets reflect common amateur coaching ranges.
func DefaultMetricSpecs() map[string]scoring.Spec {
	return map[string]scoring.Spec{
		measure.MetricHeadDrift: {
			Min: 0, Max: 10, Weight: 1.2, Shape: scoring.ToleranceInverted,
		},
		measure.MetricAttackAngle: {
			Min: 5, Max: 20, Weight: 1.0, Shape: scoring.ToleranceBand,
		},
		measure.MetricHipShoulderSeparation: {
			Min: 20, Max: 45, Weight: 1.3, Shape: scoring.ToleranceBand,
		},
		measure.MetricBatLag: {
			Min: 60, Max: 95, Weight: 0.9, Shape: scoring.ToleranceCentered,
		},
		measure.MetricBatSpeed: {
			Min: 45, Max: 85, Weight: 1.1, Shape: scoring.ToleranceBand,
		},
		measure.MetricPelvisTilt: {
			Min: 5, Max: 15, Weight: 0.7, Shape: scoring.ToleranceCentered,
		},
		measure.MetricSwingPlane: {
			Min: 10, Max: 35, Weight: 0.8, Shape: scoring.ToleranceBand,
		},
		measure.MetricArmExtension: {
			Min: 55, Max: 80, Weight: 0.8, Shape: scoring.ToleranceBand,
		},
		measure.MetricTimeToContact: {
			Min: 100, Max: 180, Weight: 1.0, Shape: scoring.ToleranceInverted,
		},
		measure.MetricLaunchAngle: {
			Min: 10, Max: 30, Weight: 0.9, Shape: scoring.ToleranceBand,
		},
		measure.MetricShoulderAngle: {
			Min: 5, Max: 25, Weight: 0.6, Shape: scoring.ToleranceBand,
		},
	}
}
