package alert

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/metrics"
	"github.com/sipca/backend/internal/registry"
	"github.com/sipca/backend/internal/storage/models"
	"github.com/sipca/backend/internal/storage/sqlite"
	"github.com/sipca/backend/internal/water"
	"github.com/sipca/backend/pkg/circuitbreaker"
	"github.com/sipca/backend/pkg/logger"
	"github.com/sipca/backend/pkg/retry"
)

// Sender is the outbound notification primitive. The dispatcher does not
// care what transport backs it.
type Sender interface {
	Send(ctx context.Context, address, text string) error
}

// Event describes one fired alert, for live dashboard streams.
type Event struct {
	RecordID   string    `json:"record_id"`
	Potable    bool      `json:"potable"`
	Confidence float64   `json:"confidence"`
	Fields     []string  `json:"fields,omitempty"`
	Recipients int       `json:"recipients"`
	Delivered  int       `json:"delivered"`
	Time       time.Time `json:"time"`
}

// Dispatcher checks verdicts against the policy and fans notifications out
// to every current recipient. Delivery is best effort: one recipient's
// failure never blocks the others and never reaches the prediction caller.
type Dispatcher struct {
	policy      Policy
	sender      Sender
	db          *sqlite.Client
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	sendTimeout time.Duration
	onEvent     func(Event)
}

type Option func(*Dispatcher)

// WithAlertLog records every delivery attempt in sqlite.
func WithAlertLog(db *sqlite.Client) Option {
	return func(d *Dispatcher) { d.db = db }
}

// WithEventSink publishes a summary of each fired alert (live streams).
func WithEventSink(fn func(Event)) Option {
	return func(d *Dispatcher) { d.onEvent = fn }
}

// WithSendTimeout bounds a single delivery attempt.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.sendTimeout = timeout }
}

// WithRetryable narrows which delivery errors are retried.
func WithRetryable(fn func(error) bool) Option {
	return func(d *Dispatcher) { d.retryConfig.Retryable = fn }
}

func NewDispatcher(policy Policy, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		policy: policy,
		sender: sender,
		cb: circuitbreaker.New("notifier", circuitbreaker.Config{
			MaxRequests:      5,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Logger:           logger.GetLogger(),
		}),
		retryConfig: retry.Config{
			MaxAttempts:    3,
			InitialDelay:   500 * time.Millisecond,
			MaxDelay:       5 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			Logger:         logger.GetLogger(),
		},
		sendTimeout: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// EvaluateAndNotify checks one verdict against the policy and, if triggered,
// sends one message per current recipient. Returns the number of successful
// deliveries. Failures are logged and skipped.
func (d *Dispatcher) EvaluateAndNotify(ctx context.Context, verdict water.Verdict, recipients []registry.Recipient) int {
	breach := d.policy.Evaluate(verdict)
	if !breach.Triggered {
		return 0
	}

	message := ComposeMessage(verdict, breach)

	logger.Info("Alert triggered",
		zap.String("record_id", verdict.RecordID),
		zap.Bool("potable", verdict.Potable),
		zap.Int("recipients", len(recipients)),
	)

	var delivered int64
	var wg sync.WaitGroup

	for _, rec := range recipients {
		rec := rec
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.deliver(ctx, verdict.RecordID, rec, message) {
				atomic.AddInt64(&delivered, 1)
			}
		}()
	}
	wg.Wait()

	if d.onEvent != nil {
		fields := make([]string, len(breach.Fields))
		for i, f := range breach.Fields {
			fields[i] = string(f)
		}
		d.onEvent(Event{
			RecordID:   verdict.RecordID,
			Potable:    verdict.Potable,
			Confidence: verdict.Confidence,
			Fields:     fields,
			Recipients: len(recipients),
			Delivered:  int(delivered),
			Time:       time.Now(),
		})
	}

	return int(delivered)
}

func (d *Dispatcher) deliver(ctx context.Context, recordID string, rec registry.Recipient, message string) bool {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	err := d.cb.Execute(sendCtx, func() error {
		return retry.Do(sendCtx, d.retryConfig, func() error {
			return d.sender.Send(sendCtx, rec.Address, message)
		})
	})

	if err != nil {
		metrics.AlertsFailed.Inc()
		logger.Warn("Alert delivery failed",
			zap.String("record_id", recordID),
			zap.String("recipient", rec.Identity),
			zap.Error(err),
		)
	} else {
		metrics.AlertsSent.Inc()
	}

	if d.db != nil {
		errText := ""
		if err != nil {
			errText = err.Error()
		}
		logErr := d.db.InsertAlert(&models.AlertRecord{
			ID:        uuid.New().String(),
			RecordID:  recordID,
			Recipient: rec.Identity,
			Delivered: err == nil,
			Message:   message,
			Error:     errText,
			CreatedAt: time.Now(),
		})
		if logErr != nil {
			logger.Warn("Failed to record alert", zap.Error(logErr))
		}
	}

	return err == nil
}

// ComposeMessage renders the human-readable alert text: the verdict, the
// confidence and every measurement that breached policy.
func ComposeMessage(v water.Verdict, b Breach) string {
	var sb strings.Builder

	sb.WriteString("Water quality alert")
	if v.RecordID != "" {
		sb.WriteString(fmt.Sprintf(" for sample %s", v.RecordID))
	}
	sb.WriteString("\n")

	if v.Potable {
		sb.WriteString(fmt.Sprintf("Verdict: POTABLE (confidence %.1f%%)\n", v.Confidence*100))
	} else {
		sb.WriteString(fmt.Sprintf("Verdict: NOT POTABLE (confidence %.1f%%)\n", v.Confidence*100))
	}

	for _, f := range b.Fields {
		if val, ok := v.Record.Value(f); ok {
			sb.WriteString(fmt.Sprintf("Out of safe range: %s = %.2f\n", f, val))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
