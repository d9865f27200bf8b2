package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/alert"
	"github.com/sipca/backend/internal/batch"
	"github.com/sipca/backend/internal/metrics"
	"github.com/sipca/backend/internal/registry"
	"github.com/sipca/backend/pkg/logger"
)

// BatchHandler accepts a CSV upload of samples and predicts every row.
type BatchHandler struct {
	runner     *batch.Runner
	dispatcher *alert.Dispatcher
	store      registry.Store
	stream     *StreamHandler
	maxRows    int
}

func NewBatchHandler(runner *batch.Runner, dispatcher *alert.Dispatcher, store registry.Store, stream *StreamHandler, maxRows int) *BatchHandler {
	return &BatchHandler{
		runner:     runner,
		dispatcher: dispatcher,
		store:      store,
		stream:     stream,
		maxRows:    maxRows,
	}
}

func (h *BatchHandler) HandleBatch(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "CSV file upload is required (field \"file\")",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer file.Close()

	inputs, err := batch.DecodeCSV(file, h.maxRows)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if len(inputs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "CSV contains no data rows",
		})
	}

	logger.Info("Batch upload received",
		zap.String("filename", fileHeader.Filename),
		zap.Int("rows", len(inputs)),
	)

	start := time.Now()
	batchID := uuid.New().String()
	results := h.run(c.Context(), batchID, inputs)
	metrics.BatchDuration.Observe(time.Since(start).Seconds())

	counts := map[batch.RowStatus]int{}
	for _, res := range results {
		counts[res.Status]++
		metrics.BatchRows.WithLabelValues(string(res.Status)).Inc()
	}

	h.notifyAsync(results)

	return c.JSON(fiber.Map{
		"batch_id": batchID,
		"total":    len(results),
		"ok":       counts[batch.StatusOK],
		"invalid":  counts[batch.StatusInvalid],
		"errors":   counts[batch.StatusError],
		"results":  results,
	})
}

// run streams rows through the runner so connected dashboards see progress
// while the upload is still being processed.
func (h *BatchHandler) run(ctx context.Context, batchID string, inputs []batch.Input) []batch.RowResult {
	out := make(chan batch.RowResult)
	go h.runner.Stream(ctx, inputs, out)

	results := make([]batch.RowResult, 0, len(inputs))
	for res := range out {
		results = append(results, res)
		if h.stream != nil && (len(results)%25 == 0 || len(results) == len(inputs)) {
			h.stream.PublishProgress(Progress{
				BatchID:   batchID,
				Completed: len(results),
				Total:     len(inputs),
			})
		}
	}
	return results
}

// notifyAsync runs alert evaluation for each predicted row off the request
// path. The recipient list is read once per batch.
func (h *BatchHandler) notifyAsync(results []batch.RowResult) {
	if h.dispatcher == nil || h.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		recipients, err := h.store.List()
		if err != nil {
			logger.Error("Failed to list alert recipients", zap.Error(err))
			return
		}

		for _, res := range results {
			if res.Status != batch.StatusOK || res.Verdict == nil {
				continue
			}
			h.dispatcher.EvaluateAndNotify(ctx, *res.Verdict, recipients)
		}
	}()
}
