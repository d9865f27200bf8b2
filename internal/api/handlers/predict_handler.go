package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/alert"
	"github.com/sipca/backend/internal/cache/redis"
	"github.com/sipca/backend/internal/metrics"
	"github.com/sipca/backend/internal/predict"
	"github.com/sipca/backend/internal/preprocess"
	"github.com/sipca/backend/internal/registry"
	"github.com/sipca/backend/internal/storage/models"
	"github.com/sipca/backend/internal/storage/sqlite"
	"github.com/sipca/backend/internal/water"
	"github.com/sipca/backend/pkg/logger"
	"github.com/sipca/backend/pkg/utils"
)

// PredictHandler serves single-record potability predictions. Alert fan-out
// runs in the background; a slow Telegram API never delays the HTTP caller.
type PredictHandler struct {
	normalizer *preprocess.Normalizer
	classifier *predict.Classifier
	dispatcher *alert.Dispatcher
	store      registry.Store
	db         *sqlite.Client
	cache      *redis.Client
}

func NewPredictHandler(
	normalizer *preprocess.Normalizer,
	classifier *predict.Classifier,
	dispatcher *alert.Dispatcher,
	store registry.Store,
	db *sqlite.Client,
	cache *redis.Client,
) *PredictHandler {
	return &PredictHandler{
		normalizer: normalizer,
		classifier: classifier,
		dispatcher: dispatcher,
		store:      store,
		db:         db,
		cache:      cache,
	}
}

func (h *PredictHandler) HandlePredict(c *fiber.Ctx) error {
	start := time.Now()

	var record water.Record
	if err := c.BodyParser(&record); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	vec, err := h.normalizer.Normalize(record)
	if err != nil {
		var vErr *preprocess.ValidationError
		if errors.As(err, &vErr) {
			metrics.PredictionsTotal.WithLabelValues("invalid").Inc()
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "Record failed validation",
				"fields": vErr.Fields,
				"reason": vErr.Reason,
			})
		}
		logger.Error("Failed to normalize record", zap.Error(err))
		metrics.PredictionsTotal.WithLabelValues("error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process record",
		})
	}

	verdict, cached, err := h.classify(c.Context(), record, vec)
	if err != nil {
		logger.Error("Failed to classify record", zap.Error(err))
		metrics.PredictionsTotal.WithLabelValues("error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to classify record",
		})
	}

	latency := time.Since(start)
	metrics.PredictionsTotal.WithLabelValues("ok").Inc()
	metrics.PredictionDuration.Observe(latency.Seconds())

	h.persist(verdict, "api", latency)
	h.notifyAsync(verdict)

	return c.JSON(fiber.Map{
		"record_id":   verdict.RecordID,
		"potable":     verdict.Potable,
		"probability": verdict.Probability,
		"confidence":  verdict.Confidence,
		"cached":      cached,
		"latency_ms":  latency.Milliseconds(),
	})
}

func (h *PredictHandler) GetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	if h.db == nil {
		return c.JSON(fiber.Map{"history": []interface{}{}})
	}

	records, err := h.db.RecentPredictions(limit)
	if err != nil {
		logger.Error("Failed to load prediction history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	history := make([]fiber.Map, 0, len(records))
	for _, rec := range records {
		history = append(history, fiber.Map{
			"record_id":   rec.RecordID,
			"source":      rec.Source,
			"potable":     rec.Potable,
			"probability": rec.Probability,
			"confidence":  rec.Confidence,
			"latency_ms":  rec.LatencyMS,
			"created_at":  rec.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{"history": history})
}

// classify consults the verdict cache before running the forest. Cache
// failures degrade to a fresh prediction.
func (h *PredictHandler) classify(ctx context.Context, record water.Record, vec []float64) (water.Verdict, bool, error) {
	var hash string
	if h.cache != nil {
		hash = utils.HashString(fmt.Sprintf("%v", vec))
		if v, ok, err := h.cache.GetVerdict(ctx, hash); err == nil && ok {
			metrics.CacheHits.WithLabelValues("verdict").Inc()
			v.RecordID = record.ID
			v.Record = record
			return *v, true, nil
		}
		metrics.CacheMisses.WithLabelValues("verdict").Inc()
	}

	verdict, err := h.classifier.Classify(record, vec)
	if err != nil {
		return water.Verdict{}, false, err
	}

	if h.cache != nil {
		if err := h.cache.SetVerdict(ctx, hash, verdict, time.Hour); err != nil {
			logger.Debug("Failed to cache verdict", zap.Error(err))
		}
	}

	return verdict, false, nil
}

func (h *PredictHandler) persist(verdict water.Verdict, source string, latency time.Duration) {
	if h.db == nil {
		return
	}
	err := h.db.InsertPrediction(&models.PredictionRecord{
		ID:          uuid.New().String(),
		RecordID:    verdict.RecordID,
		Source:      source,
		Potable:     verdict.Potable,
		Probability: verdict.Probability,
		Confidence:  verdict.Confidence,
		LatencyMS:   int(latency.Milliseconds()),
		CreatedAt:   time.Now(),
	})
	if err != nil {
		logger.Error("Failed to persist prediction", zap.Error(err))
	}
}

func (h *PredictHandler) notifyAsync(verdict water.Verdict) {
	if h.dispatcher == nil || h.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		recipients, err := h.store.List()
		if err != nil {
			logger.Error("Failed to list alert recipients", zap.Error(err))
			return
		}
		h.dispatcher.EvaluateAndNotify(ctx, verdict, recipients)
	}()
}
