package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scaler holds the per-feature statistics exported by the offline training
// run: mean and standard deviation for standard scaling, median for
// imputation of missing readings. Feature order is the training order.
type Scaler struct {
	Features []FeatureStats `json:"features"`
}

type FeatureStats struct {
	Name   string  `json:"name"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
}

func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scaler artifact: %w", err)
	}

	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scaler artifact: %w", err)
	}

	if len(s.Features) == 0 {
		return nil, fmt.Errorf("scaler artifact has no features")
	}
	for i, f := range s.Features {
		if f.Name == "" {
			return nil, fmt.Errorf("scaler artifact: feature %d has no name", i)
		}
		if f.Std <= 0 {
			return nil, fmt.Errorf("scaler artifact: feature %q has non-positive std", f.Name)
		}
	}

	return &s, nil
}

// Transform scales one already-imputed value for the feature at index i.
func (s *Scaler) Transform(i int, value float64) float64 {
	f := s.Features[i]
	return (value - f.Mean) / f.Std
}
