package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipca/backend/internal/model"
	"github.com/sipca/backend/internal/water"
)

// A stump on feature 0: negative values land on a 0.1 leaf, positive on 0.8.
func stumpForest() *model.Forest {
	return &model.Forest{
		NumFeatures: 2,
		Trees: []model.Tree{
			{
				Feature:   []int{0, -1, -1},
				Threshold: []float64{0, 0, 0},
				Left:      []int{1, -1, -1},
				Right:     []int{2, -1, -1},
				Value:     [][2]float64{{0, 0}, {9, 1}, {2, 8}},
			},
		},
	}
}

func TestClassify_Potable(t *testing.T) {
	c := NewClassifier(stumpForest(), 0.5)

	v, err := c.Classify(water.Record{ID: "r1"}, []float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, "r1", v.RecordID)
	assert.True(t, v.Potable)
	assert.InDelta(t, 0.8, v.Probability, 1e-9)
	assert.InDelta(t, 0.8, v.Confidence, 1e-9)
}

func TestClassify_NotPotable(t *testing.T) {
	c := NewClassifier(stumpForest(), 0.5)

	v, err := c.Classify(water.Record{ID: "r2"}, []float64{-1, 0})
	require.NoError(t, err)
	assert.False(t, v.Potable)
	assert.InDelta(t, 0.1, v.Probability, 1e-9)
	assert.InDelta(t, 0.9, v.Confidence, 1e-9, "confidence follows the predicted class")
}

func TestClassify_ThresholdShiftsDecision(t *testing.T) {
	c := NewClassifier(stumpForest(), 0.9)

	v, err := c.Classify(water.Record{}, []float64{1, 0})
	require.NoError(t, err)
	assert.False(t, v.Potable, "0.8 is below a 0.9 threshold")
}

func TestClassify_CarriesSourceRecord(t *testing.T) {
	c := NewClassifier(stumpForest(), 0.5)

	r := water.Record{ID: "r3"}
	r.Set(water.FieldPH, 5.9)

	v, err := c.Classify(r, []float64{1, 0})
	require.NoError(t, err)

	ph, ok := v.Record.Value(water.FieldPH)
	require.True(t, ok)
	assert.InDelta(t, 5.9, ph, 1e-9)
}

func TestNewClassifier_InvalidThresholdFallsBack(t *testing.T) {
	assert.InDelta(t, 0.5, NewClassifier(stumpForest(), 0).Threshold(), 1e-9)
	assert.InDelta(t, 0.5, NewClassifier(stumpForest(), 1.2).Threshold(), 1e-9)
}

func TestClassify_WrongVectorWidth(t *testing.T) {
	c := NewClassifier(stumpForest(), 0.5)
	_, err := c.Classify(water.Record{ID: "r4"}, []float64{1})
	assert.Error(t, err)
}
