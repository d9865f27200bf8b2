package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipca/backend/internal/model"
	"github.com/sipca/backend/internal/predict"
	"github.com/sipca/backend/internal/preprocess"
	"github.com/sipca/backend/internal/water"
)

func testPipeline(t *testing.T) (*preprocess.Normalizer, *predict.Classifier) {
	t.Helper()

	scaler := &model.Scaler{}
	for i, f := range water.Fields {
		scaler.Features = append(scaler.Features, model.FeatureStats{
			Name: string(f), Mean: 0, Std: 1, Median: float64(i + 1),
		})
	}
	n, err := preprocess.NewNormalizer(scaler)
	require.NoError(t, err)

	// Single constant leaf: every valid row predicts potable at 0.75.
	forest := &model.Forest{
		NumFeatures: len(water.Fields),
		Trees: []model.Tree{{
			Feature:   []int{-1},
			Threshold: []float64{0},
			Left:      []int{-1},
			Right:     []int{-1},
			Value:     [][2]float64{{1, 3}},
		}},
	}

	return n, predict.NewClassifier(forest, 0.5)
}

func validInput(id string) Input {
	r := water.Record{ID: id}
	r.Set(water.FieldPH, 7.0)
	return Input{Record: r}
}

func invalidInput(id string) Input {
	r := water.Record{ID: id}
	r.Set(water.FieldPH, 20)
	return Input{Record: r}
}

func TestRun_MixedRows(t *testing.T) {
	n, c := testPipeline(t)
	runner := NewRunner(n, c, 4)

	inputs := []Input{
		validInput("a"),
		invalidInput("b"),
		{Err: errors.New("row 3: column \"ph\" is not numeric")},
		validInput("d"),
	}

	results := runner.Run(context.Background(), inputs)
	require.Len(t, results, len(inputs))

	assert.Equal(t, StatusOK, results[0].Status)
	require.NotNil(t, results[0].Verdict)
	assert.Equal(t, "a", results[0].Verdict.RecordID)
	assert.InDelta(t, 0.75, results[0].Verdict.Probability, 1e-9)

	assert.Equal(t, StatusInvalid, results[1].Status)
	assert.Nil(t, results[1].Verdict)

	assert.Equal(t, StatusInvalid, results[2].Status)
	assert.Contains(t, results[2].Error, "not numeric")

	assert.Equal(t, StatusOK, results[3].Status)
}

func TestRun_PreservesInputOrder(t *testing.T) {
	n, c := testPipeline(t)
	runner := NewRunner(n, c, 8)

	var inputs []Input
	for i := 0; i < 200; i++ {
		inputs = append(inputs, validInput(fmt.Sprintf("rec-%d", i)))
	}

	results := runner.Run(context.Background(), inputs)
	require.Len(t, results, 200)
	for i, res := range results {
		assert.Equal(t, i, res.Index)
		require.NotNil(t, res.Verdict)
		assert.Equal(t, fmt.Sprintf("rec-%d", i), res.Verdict.RecordID)
	}
}

func TestRun_CancelledContextMarksRemaining(t *testing.T) {
	n, c := testPipeline(t)
	runner := NewRunner(n, c, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var inputs []Input
	for i := 0; i < 50; i++ {
		inputs = append(inputs, validInput(fmt.Sprintf("rec-%d", i)))
	}

	results := runner.Run(ctx, inputs)
	require.Len(t, results, 50)

	var errored int
	for _, res := range results {
		if res.Status == StatusError {
			errored++
		}
	}
	assert.Greater(t, errored, 0)
}

func TestStream_EmitsInOrder(t *testing.T) {
	n, c := testPipeline(t)
	runner := NewRunner(n, c, 8)

	var inputs []Input
	for i := 0; i < 100; i++ {
		if i%10 == 3 {
			inputs = append(inputs, invalidInput(fmt.Sprintf("rec-%d", i)))
		} else {
			inputs = append(inputs, validInput(fmt.Sprintf("rec-%d", i)))
		}
	}

	out := make(chan RowResult)
	go runner.Stream(context.Background(), inputs, out)

	next := 0
	for res := range out {
		assert.Equal(t, next, res.Index, "stream must emit rows in input order")
		next++
	}
	assert.Equal(t, len(inputs), next)
}

func TestNewRunner_ClampsWorkerCount(t *testing.T) {
	n, c := testPipeline(t)
	runner := NewRunner(n, c, 0)

	results := runner.Run(context.Background(), []Input{validInput("a")})
	require.Len(t, results, 1)
	assert.Equal(t, StatusOK, results[0].Status)
}
