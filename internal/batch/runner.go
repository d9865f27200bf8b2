package batch

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/sipca/backend/internal/preprocess"
	"github.com/sipca/backend/internal/predict"
	"github.com/sipca/backend/internal/water"
	"github.com/sipca/backend/pkg/logger"
)

type RowStatus string

const (
	StatusOK      RowStatus = "ok"
	StatusInvalid RowStatus = "invalid"
	StatusError   RowStatus = "error"
)

// Input is one row handed to the runner. A non-nil Err (typically a CSV
// parse failure) marks the row as already failed; it keeps its output slot
// without being predicted.
type Input struct {
	Record water.Record
	Err    error
}

// RowResult is the outcome for one input row. The output sequence always has
// the same length and order as the input; failed rows are carried as error
// markers instead of aborting the batch.
type RowResult struct {
	Index   int            `json:"index"`
	Status  RowStatus      `json:"status"`
	Verdict *water.Verdict `json:"verdict,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Runner applies normalize+classify across a collection of records with a
// bounded worker pool. Rows are independent, so computation is parallel;
// output order still matches input order.
type Runner struct {
	normalizer *preprocess.Normalizer
	classifier *predict.Classifier
	workers    int
}

func NewRunner(normalizer *preprocess.Normalizer, classifier *predict.Classifier, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		normalizer: normalizer,
		classifier: classifier,
		workers:    workers,
	}
}

// Run processes every input and returns results indexed like the input.
func (r *Runner) Run(ctx context.Context, inputs []Input) []RowResult {
	done := make(chan RowResult, len(inputs))
	r.dispatch(ctx, inputs, done)

	results := make([]RowResult, len(inputs))
	for res := range done {
		results[res.Index] = res
	}

	logger.Debug("Batch completed", zap.Int("rows", len(inputs)))

	return results
}

// Stream processes every input and emits results on out in input order as
// soon as each row's predecessors are done, so large uploads can render
// incrementally. out is closed when the batch finishes.
func (r *Runner) Stream(ctx context.Context, inputs []Input, out chan<- RowResult) {
	defer close(out)

	done := make(chan RowResult, len(inputs))
	go r.dispatch(ctx, inputs, done)

	pending := make(map[int]RowResult, r.workers)
	next := 0
	for res := range done {
		pending[res.Index] = res
		for {
			buffered, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			select {
			case out <- buffered:
			case <-ctx.Done():
				return
			}
			next++
		}
	}
}

// dispatch fans inputs out to workers and closes done once every row has a
// result. done must have capacity for all rows so workers never block on it.
func (r *Runner) dispatch(ctx context.Context, inputs []Input, done chan<- RowResult) {
	defer close(done)

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				done <- r.processRow(i, inputs[i])
			}
		}()
	}

	for i := range inputs {
		select {
		case <-ctx.Done():
			for j := i; j < len(inputs); j++ {
				done <- RowResult{Index: j, Status: StatusError, Error: ctx.Err().Error()}
			}
			close(jobs)
			wg.Wait()
			return
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}

func (r *Runner) processRow(index int, in Input) RowResult {
	if in.Err != nil {
		return RowResult{Index: index, Status: StatusInvalid, Error: in.Err.Error()}
	}

	vec, err := r.normalizer.Normalize(in.Record)
	if err != nil {
		var verr *preprocess.ValidationError
		if errors.As(err, &verr) {
			return RowResult{Index: index, Status: StatusInvalid, Error: verr.Error()}
		}
		return RowResult{Index: index, Status: StatusError, Error: err.Error()}
	}

	verdict, err := r.classifier.Classify(in.Record, vec)
	if err != nil {
		return RowResult{Index: index, Status: StatusError, Error: err.Error()}
	}

	return RowResult{Index: index, Status: StatusOK, Verdict: &verdict}
}
