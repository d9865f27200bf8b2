package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sipca/backend/internal/cache/redis"
	"github.com/sipca/backend/internal/metrics"
	"github.com/sipca/backend/pkg/circuitbreaker"
	"github.com/sipca/backend/pkg/logger"
	"github.com/sipca/backend/pkg/retry"
	"github.com/sipca/backend/pkg/utils"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

const systemPrompt = `You are an expert assistant on water quality and potability analysis,
working inside a water quality prediction system for treatment plants.

Your knowledge covers:
- Physico-chemical water parameters: pH, hardness, dissolved solids, chloramines, sulfate, conductivity, organic carbon, trihalomethanes and turbidity
- Drinking water quality standards (WHO, EPA)
- Interpretation of water analysis results
- Machine learning applied to potability prediction

You must:
1. Answer clearly and professionally
2. Explain technical concepts in accessible terms
3. Give evidence-based recommendations
4. Flag values outside safe ranges
5. Be concise but complete

Safe reference ranges:
- pH: 6.5 - 8.5
- Hardness: 50 - 300 mg/L
- Solids: < 500 ppm (TDS)
- Chloramines: 0.2 - 4 ppm
- Sulfate: < 250 mg/L
- Conductivity: 50 - 800 uS/cm
- Trihalomethanes: < 80 ppb
- Turbidity: < 5 NTU`

// Assistant answers water-quality questions through an OpenAI-compatible
// chat API. The provider is a configuration choice: "openai" talks to the
// platform directly, "openrouter" reroutes the same protocol through
// OpenRouter's endpoint.
type Assistant struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	maxHistory  int
	cache       *redis.Client
	context     string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config

	mu        sync.Mutex
	histories map[string][]openai.ChatCompletionMessage
}

type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	MaxHistory  int
}

type Option func(*Assistant)

// WithCache caches replies for repeated identical prompts.
func WithCache(cache *redis.Client) Option {
	return func(a *Assistant) { a.cache = cache }
}

// WithReferenceContext appends fetched guideline text to the system prompt.
func WithReferenceContext(text string) Option {
	return func(a *Assistant) { a.context = text }
}

func NewAssistant(cfg Config, opts ...Option) (*Assistant, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	switch cfg.Provider {
	case "", "openai":
	case "openrouter":
		clientConfig.BaseURL = openRouterBaseURL
	default:
		return nil, fmt.Errorf("unsupported chat provider %q", cfg.Provider)
	}

	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 20
	}

	a := &Assistant{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxHistory:  cfg.MaxHistory,
		cb: circuitbreaker.New("chat", circuitbreaker.Config{
			MaxRequests:      5,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Logger:           logger.GetLogger(),
		}),
		retryConfig: retry.Config{
			MaxAttempts:    3,
			InitialDelay:   time.Second,
			MaxDelay:       20 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			Logger:         logger.GetLogger(),
		},
		histories: make(map[string][]openai.ChatCompletionMessage),
	}

	for _, opt := range opts {
		opt(a)
	}

	logger.Info("Chat assistant initialized",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
	)

	return a, nil
}

// Chat runs one turn of a conversation and returns the assistant's reply.
// Conversation history lives in memory per conversation ID, capped at
// maxHistory messages.
func (a *Assistant) Chat(ctx context.Context, conversationID, message string) (string, error) {
	history := a.snapshotHistory(conversationID)

	if a.cache != nil && len(history) == 0 {
		// Only first turns are cacheable; later turns depend on history.
		hash := utils.HashString(a.model + "|" + message)
		if reply, ok, err := a.cache.GetChatReply(ctx, hash); err == nil && ok {
			metrics.CacheHits.WithLabelValues("chat").Inc()
			a.appendTurn(conversationID, message, reply)
			return reply, nil
		}
		metrics.CacheMisses.WithLabelValues("chat").Inc()
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.systemContent(),
	})
	messages = append(messages, history...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var reply string
	err := a.cb.Execute(ctx, func() error {
		return retry.Do(ctx, a.retryConfig, func() error {
			resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       a.model,
				Messages:    messages,
				Temperature: a.temperature,
				MaxTokens:   a.maxTokens,
			})
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}
			reply = resp.Choices[0].Message.Content
			return nil
		})
	})
	if err != nil {
		metrics.ChatRequests.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.ChatRequests.WithLabelValues("ok").Inc()
	a.appendTurn(conversationID, message, reply)

	if a.cache != nil && len(history) == 0 {
		hash := utils.HashString(a.model + "|" + message)
		if err := a.cache.SetChatReply(ctx, hash, reply, time.Hour); err != nil {
			logger.Debug("Failed to cache chat reply", zap.Error(err))
		}
	}

	return reply, nil
}

// Reset drops a conversation's history.
func (a *Assistant) Reset(conversationID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.histories, conversationID)
}

func (a *Assistant) systemContent() string {
	if a.context == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\nReference material:\n" + a.context
}

func (a *Assistant) snapshotHistory(conversationID string) []openai.ChatCompletionMessage {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := a.histories[conversationID]
	out := make([]openai.ChatCompletionMessage, len(history))
	copy(out, history)
	return out
}

func (a *Assistant) appendTurn(conversationID, userMessage, reply string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := append(a.histories[conversationID],
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userMessage},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
	)

	if len(history) > a.maxHistory {
		history = history[len(history)-a.maxHistory:]
	}

	a.histories[conversationID] = history
}
