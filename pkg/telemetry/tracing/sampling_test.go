package tracing

import (
	"testing"
)

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{name: "always", strategy: SamplerAlways},
		{name: "never", strategy: SamplerNever},
		{name: "ratio 0%", strategy: SamplerRatio, ratio: 0.0},
		{name: "ratio 50%", strategy: SamplerRatio, ratio: 0.5},
		{name: "parent based always", strategy: SamplerParentBasedAlways},
		{name: "parent based ratio", strategy: SamplerParentBasedRatio, ratio: 0.1},
		{name: "ratio above 1", strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{name: "parent based negative ratio", strategy: SamplerParentBasedRatio, ratio: -0.1, wantErr: true},
		{name: "unknown", strategy: "sometimes", wantErr: true},
		{name: "empty", strategy: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if sampler == nil {
				t.Error("Expected sampler, got nil")
			}
		})
	}
}

func TestValidateSamplingConfig_RatioIgnoredForAlways(t *testing.T) {
	if err := ValidateSamplingConfig(SamplingConfig{Strategy: SamplerAlways, Ratio: 7}); err != nil {
		t.Errorf("Expected ratio to be ignored for always sampler, got %v", err)
	}
}
