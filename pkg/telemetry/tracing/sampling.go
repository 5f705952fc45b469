package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampler names accepted in telemetry.tracing.sampler. They follow the
// OTEL_TRACES_SAMPLER naming.
const (
	// SamplerAlways samples all traces
	SamplerAlways = "always"

	// SamplerNever samples no traces
	SamplerNever = "never"

	// SamplerRatio samples a fraction of root traces by trace ID
	SamplerRatio = "ratio"

	// SamplerParentBasedAlways follows the parent, sampling roots
	SamplerParentBasedAlways = "parentbased_always"

	// SamplerParentBasedRatio follows the parent, ratio-sampling roots
	SamplerParentBasedRatio = "parentbased_ratio"
)

// createSampler creates a sampler based on the strategy and ratio.
//
// The parent-based strategies respect the sampling decision carried in an
// incoming traceparent header, so a trace started by the agent is either
// sampled end to end or not at all.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	if err := ValidateSamplingConfig(SamplingConfig{Strategy: strategy, Ratio: ratio}); err != nil {
		return nil, err
	}

	switch strategy {
	case SamplerAlways:
		return sdktrace.AlwaysSample(), nil
	case SamplerNever:
		return sdktrace.NeverSample(), nil
	case SamplerRatio:
		return sdktrace.TraceIDRatioBased(ratio), nil
	case SamplerParentBasedAlways:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)), nil
	}
}

// SamplingConfig contains configuration for trace sampling.
type SamplingConfig struct {
	// Strategy is the sampler name
	Strategy string

	// Ratio is the sampling ratio for ratio strategies (0.0 to 1.0)
	Ratio float64
}

// ValidateSamplingConfig validates the sampling configuration.
func ValidateSamplingConfig(cfg SamplingConfig) error {
	switch cfg.Strategy {
	case SamplerAlways, SamplerNever, SamplerRatio, SamplerParentBasedAlways, SamplerParentBasedRatio:
	default:
		return fmt.Errorf("invalid sampling strategy: %s (valid: always, never, ratio, parentbased_always, parentbased_ratio)", cfg.Strategy)
	}

	if cfg.Strategy == SamplerRatio || cfg.Strategy == SamplerParentBasedRatio {
		if cfg.Ratio < 0.0 || cfg.Ratio > 1.0 {
			return fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", cfg.Ratio)
		}
	}

	return nil
}
