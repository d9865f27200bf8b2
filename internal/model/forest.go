package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Forest is a trained random-forest classifier flattened into node arrays,
// one set per tree. A node with Left[i] < 0 is a leaf; Value[i] holds the
// training-sample counts per class {not potable, potable} at that leaf.
type Forest struct {
	NumFeatures int    `json:"num_features"`
	Trees       []Tree `json:"trees"`
}

type Tree struct {
	Feature   []int        `json:"feature"`
	Threshold []float64    `json:"threshold"`
	Left      []int        `json:"left"`
	Right     []int        `json:"right"`
	Value     [][2]float64 `json:"value"`
}

func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forest artifact: %w", err)
	}

	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse forest artifact: %w", err)
	}

	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("forest artifact has no trees")
	}
	if f.NumFeatures <= 0 {
		return nil, fmt.Errorf("forest artifact has invalid feature count %d", f.NumFeatures)
	}
	for i, t := range f.Trees {
		n := len(t.Feature)
		if n == 0 || len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
			return nil, fmt.Errorf("forest artifact: tree %d has inconsistent node arrays", i)
		}
	}

	return &f, nil
}

// PredictProba returns the probability that the sample described by vec is
// potable: the mean of each tree's leaf class fraction, matching the
// semantics the classifier was evaluated with offline. Deterministic for a
// given vector.
func (f *Forest) PredictProba(vec []float64) (float64, error) {
	if len(vec) != f.NumFeatures {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(vec), f.NumFeatures)
	}

	var sum float64
	for i := range f.Trees {
		t := &f.Trees[i]
		node := 0
		for t.Left[node] >= 0 {
			if vec[t.Feature[node]] <= t.Threshold[node] {
				node = t.Left[node]
			} else {
				node = t.Right[node]
			}
		}
		neg, pos := t.Value[node][0], t.Value[node][1]
		total := neg + pos
		if total > 0 {
			sum += pos / total
		}
	}

	return sum / float64(len(f.Trees)), nil
}
