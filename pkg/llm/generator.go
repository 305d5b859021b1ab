package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

const (
	// ProviderGemini selects the Gemini backend.
	ProviderGemini = "gemini"
	// ProviderAnthropic selects the Anthropic backend.
	ProviderAnthropic = "anthropic"

	// GeminiModel is the default Gemini model.
	GeminiModel = "gemini-2.5-flash"
	// ClaudeModel is the default Anthropic model.
	ClaudeModel = "claude-sonnet-4-20250514"
	// MaxTokens bounds an Anthropic reply.
	MaxTokens = 4096
)

// ErrUnknownProvider is returned by NewGenerator for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown provider")

// Generator sends one prompt and returns the model's text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (text string, err error)
}

// GeneratorOptions configures a backend. BaseURL is only set by tests.
type GeneratorOptions struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewGenerator builds the backend named by opts.Provider. An empty provider means Gemini.
func NewGenerator(ctx context.Context, opts GeneratorOptions) (gen Generator, err error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderGemini:
		gen, err = NewGeminiGenerator(ctx, opts.APIKey, opts.Model, opts.BaseURL)
	case ProviderAnthropic:
		gen = NewAnthropicGenerator(opts.APIKey, opts.Model, opts.BaseURL)
	default:
		err = errors.Wrapf(ErrUnknownProvider, "%q", opts.Provider)
	}
	return gen, err
}

// GeminiGenerator calls the Gemini API through google.golang.org/genai.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini backend.
func NewGeminiGenerator(ctx context.Context, apiKey, model, baseURL string) (gen *GeminiGenerator, err error) {
	if model == "" {
		model = GeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	var client *genai.Client
	client, err = genai.NewClient(ctx, cfg)
	if err != nil {
		err = errors.Wrap(err, "failed to create Gemini client")
		return gen, err
	}

	gen = &GeminiGenerator{
		client: client,
		model:  model,
	}
	return gen, err
}

// Model returns the model name in use.
func (g *GeminiGenerator) Model() (model string) {
	model = g.model
	return model
}

// Generate sends prompt as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (text string, err error) {
	var resp *genai.GenerateContentResponse
	resp, err = g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		err = classifyError(errors.Wrap(err, "Gemini request failed"))
		return text, err
	}

	text = resp.Text()
	return text, err
}

// AnthropicGenerator calls the Messages API through anthropic-sdk-go.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
}

// NewAnthropicGenerator creates an Anthropic backend. The SDK's retries are disabled.
func NewAnthropicGenerator(apiKey, model, baseURL string) (gen *AnthropicGenerator) {
	if model == "" {
		model = ClaudeModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	gen = &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
	return gen
}

// Model returns the model name in use.
func (g *AnthropicGenerator) Model() (model string) {
	model = g.model
	return model
}

// Generate sends prompt as a single user message and joins the text blocks of the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (text string, err error) {
	var msg *anthropic.Message
	msg, err = g.client.Messages.New(ctx, anthropic.MessageNewParams{
		MaxTokens: MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Model: anthropic.Model(g.model),
	})
	if err != nil {
		err = classifyError(errors.Wrap(err, "Anthropic request failed"))
		return text, err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text = sb.String()
	return text, err
}
