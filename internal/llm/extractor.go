package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ayash-Bera/nearby/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// MaxQueryLength bounds the fallback query, in characters.
const MaxQueryLength = 128

// SystemPrompt instructs the model to reply with a bare search phrase.
const SystemPrompt = `You turn a user's request into a short place-search query.
Reply with the search phrase only: at most 8 words, no punctuation, no quotes, no explanation.
Keep place names, cuisine or business type, and neighbourhood if present.
Example: "where can I get good ramen near Shibuya station tonight" -> ramen near Shibuya station`

var errEmptyResponse = errors.New("model returned no text")

// Extractor turns a free-text prompt into a search query. Implementations
// never fail; on any problem they return Truncate(prompt).
type Extractor interface {
	ExtractQuery(ctx context.Context, prompt string) string
	Provider() string
}

// Truncate returns the first MaxQueryLength characters of prompt as a
// prefix of the original bytes. Invalid UTF-8 bytes count as one character each.
func Truncate(prompt string) string {
	offset := 0
	for n := 0; n < MaxQueryLength && offset < len(prompt); n++ {
		_, size := utf8.DecodeRuneInString(prompt[offset:])
		offset += size
	}
	return prompt[:offset]
}

// Passthrough is used when model extraction is disabled.
type Passthrough struct{}

func (Passthrough) ExtractQuery(_ context.Context, prompt string) string {
	return Truncate(prompt)
}

func (Passthrough) Provider() string { return "disabled" }

// ModelExtractor asks a chat model for the query, with a per-call timeout.
type ModelExtractor struct {
	model    llms.Model
	provider string
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewModelExtractor creates an extractor backed by model.
func NewModelExtractor(model llms.Model, provider string, timeout time.Duration, logger *logrus.Logger) *ModelExtractor {
	return &ModelExtractor{
		model:    model,
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

func (e *ModelExtractor) Provider() string { return e.provider }

func (e *ModelExtractor) ExtractQuery(ctx context.Context, prompt string) string {
	start := time.Now()

	query, err := e.generate(ctx, prompt)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		} else if errors.Is(err, errEmptyResponse) {
			reason = "empty"
		}
		metrics.QueryFallbacks.WithLabelValues(reason).Inc()
		metrics.UpstreamFailures.WithLabelValues("llm", reason).Inc()

		e.logger.WithError(err).WithFields(logrus.Fields{
			"provider": e.provider,
			"reason":   reason,
			"elapsed":  time.Since(start).Milliseconds(),
		}).Warn("Query extraction failed, using prompt")
		return Truncate(prompt)
	}

	e.logger.WithFields(logrus.Fields{
		"provider": e.provider,
		"query":    query,
		"elapsed":  time.Since(start).Milliseconds(),
	}).Debug("Query extracted")

	return query
}

func (e *ModelExtractor) generate(ctx context.Context, prompt string) (query string, err error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// some clients dereference a missing message on an empty body
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model client panicked: %v", r)
		}
	}()

	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(SystemPrompt)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	resp, err := e.model.GenerateContent(ctx, messages,
		llms.WithTemperature(0),
		llms.WithMaxTokens(32),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("failed to generate content: %w", ctxErr)
		}
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", errEmptyResponse
	}

	query = cleanQuery(resp.Choices[0].Content)
	if query == "" {
		return "", errEmptyResponse
	}
	return query, nil
}

// cleanQuery keeps the first non-empty line and strips wrapping quotes.
func cleanQuery(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'`")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
