package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const systemPrompt = "You are a financial news sentiment analyst. You reply with JSON only."

const scoringPrompt = `Analyze the sentiment of the following financial news text.

Scoring guidelines:
- Use the full range from -1 to 1.
- Scores between -0.1 and 0.1 are only for truly neutral or mixed content.
- Clearly positive news scores 0.3 to 0.8, clearly negative news -0.3 to -0.8.
- Reserve magnitudes of 0.9 and above for extreme news such as crashes, scandals or major breakthroughs.

Text: %s

Respond only with valid JSON in this format:
{"sentiment_score": <float>, "interpretation": "<brief explanation>"}`

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-3-5-haiku-latest"

// ErrMalformedResponse is returned when the model reply carries no usable score.
var ErrMalformedResponse = errors.New("malformed sentiment response")

// Config holds the Anthropic scorer settings.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	BaseURL     string
	Concurrency int
}

type scoreReply struct {
	SentimentScore *float64 `json:"sentiment_score"`
	Interpretation string   `json:"interpretation"`
}

// AnthropicScorer scores texts with a Claude model, one request per text.
type AnthropicScorer struct {
	client anthropic.Client
	config Config
	logger *logrus.Logger
}

// NewAnthropicScorer creates a scorer. The API key is required.
func NewAnthropicScorer(cfg Config, logger *logrus.Logger) (*AnthropicScorer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger.WithFields(logrus.Fields{
		"model":      cfg.Model,
		"max_tokens": cfg.MaxTokens,
	}).Info("Anthropic sentiment scorer initialized")

	return &AnthropicScorer{
		client: anthropic.NewClient(opts...),
		config: cfg,
		logger: logger,
	}, nil
}

// ScoreTexts implements services.PolarityScorer. Any failed text fails the
// whole batch so the caller can fall back to another scorer.
func (a *AnthropicScorer) ScoreTexts(ctx context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Concurrency)
	for i, text := range texts {
		g.Go(func() error {
			score, err := a.scoreText(ctx, text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (a *AnthropicScorer) scoreText(ctx context.Context, text string) (float64, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.config.Model),
		MaxTokens: int64(a.config.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(scoringPrompt, text))),
		},
		Temperature: anthropic.Float(a.config.Temperature),
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("claude API call failed: %w", err)
	}

	var reply strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}

	score, interpretation, err := parseScore(reply.String())
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"model": a.config.Model,
			"reply": reply.String(),
		}).Warn("Unparseable sentiment reply")
		return 0, err
	}

	a.logger.WithFields(logrus.Fields{
		"score":          score,
		"interpretation": interpretation,
		"output_tokens":  resp.Usage.OutputTokens,
	}).Debug("Scored text")

	return score, nil
}

// parseScore extracts the JSON object from a reply, tolerating code fences or
// prose around it, and clamps the score into [-1, 1].
func parseScore(reply string) (float64, string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return 0, "", ErrMalformedResponse
	}

	var parsed scoreReply
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.SentimentScore == nil || math.IsNaN(*parsed.SentimentScore) {
		return 0, "", fmt.Errorf("%w: missing sentiment_score", ErrMalformedResponse)
	}

	return math.Max(-1, math.Min(1, *parsed.SentimentScore)), parsed.Interpretation, nil
}
