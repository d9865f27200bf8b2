package predict

import (
	"fmt"

	"github.com/sipca/backend/internal/model"
	"github.com/sipca/backend/internal/water"
)

// Classifier maps a normalized feature vector to a potability verdict by
// thresholding the forest's probability. The forest is read-only after
// startup, so a Classifier is safe for concurrent use.
type Classifier struct {
	forest    *model.Forest
	threshold float64
}

func NewClassifier(forest *model.Forest, threshold float64) *Classifier {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	return &Classifier{forest: forest, threshold: threshold}
}

func (c *Classifier) Classify(record water.Record, vec []float64) (water.Verdict, error) {
	proba, err := c.forest.PredictProba(vec)
	if err != nil {
		return water.Verdict{}, fmt.Errorf("failed to classify record %s: %w", record.ID, err)
	}

	potable := proba >= c.threshold
	confidence := proba
	if !potable {
		confidence = 1 - proba
	}

	return water.Verdict{
		RecordID:    record.ID,
		Record:      record,
		Potable:     potable,
		Probability: proba,
		Confidence:  confidence,
	}, nil
}

func (c *Classifier) Threshold() float64 {
	return c.threshold
}
