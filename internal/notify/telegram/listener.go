package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sipca/backend/internal/registry"
	"github.com/sipca/backend/pkg/logger"
)

// Listener long-polls the Bot API for subscription commands and keeps the
// recipient registry current. It runs for the life of the process, beside
// the HTTP server, and shares nothing with the prediction path except the
// registry.
type Listener struct {
	client      *Client
	store       registry.Store
	pollTimeout int
}

func NewListener(client *Client, store registry.Store, pollTimeoutSec int) *Listener {
	if pollTimeoutSec <= 0 {
		pollTimeoutSec = 30
	}
	return &Listener{
		client:      client,
		store:       store,
		pollTimeout: pollTimeoutSec,
	}
}

// Run polls until ctx is cancelled. Poll failures back off and retry; a
// broken Telegram connection must never take the process down.
func (l *Listener) Run(ctx context.Context) {
	logger.Info("Telegram subscription listener started")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			logger.Info("Telegram subscription listener stopped")
			return
		default:
		}

		updates, err := l.client.GetUpdates(ctx, offset, l.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Warn("Failed to poll Telegram updates", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			l.handleUpdate(ctx, u)
		}
	}
}

func (l *Listener) handleUpdate(ctx context.Context, u Update) {
	if u.Message == nil {
		return
	}

	command := strings.ToLower(strings.TrimSpace(u.Message.Text))
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}

	identity := strconv.FormatInt(u.Message.From.ID, 10)
	address := strconv.FormatInt(u.Message.Chat.ID, 10)
	name := u.Message.From.FirstName

	switch command {
	case "/start", "/subscribe":
		rec, err := l.store.Subscribe(identity, address, name)
		if err != nil {
			logger.Error("Failed to register subscriber", zap.String("identity", identity), zap.Error(err))
			return
		}

		logger.Info("Subscriber registered",
			zap.String("identity", rec.Identity),
			zap.String("name", rec.Name),
		)

		greeting := fmt.Sprintf("Hi %s! You are registered for water quality alerts. Send /stop to unsubscribe.", name)
		if err := l.client.Send(ctx, address, greeting); err != nil {
			logger.Warn("Failed to send greeting", zap.String("identity", identity), zap.Error(err))
		}

	case "/stop", "/unsubscribe":
		if err := l.store.Unsubscribe(identity); err != nil {
			logger.Error("Failed to unsubscribe", zap.String("identity", identity), zap.Error(err))
			return
		}

		logger.Info("Subscriber removed", zap.String("identity", identity))

		if err := l.client.Send(ctx, address, "You will no longer receive water quality alerts."); err != nil {
			logger.Warn("Failed to send farewell", zap.String("identity", identity), zap.Error(err))
		}
	}
}
