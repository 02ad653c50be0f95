// File: internal/services/ai/openai_provider.go
package ai

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/iyunix/go-lingochat/internal/services/language"
)

const identifyPrompt = "Identify the language of the text the user sends. " +
	"Reply with the ISO 639-1 code only. If the language cannot be determined reply with und."

const translatePrompt = "Translate the text the user sends from %s to %s. " +
	"Return only the translation, without quotes or comments."

var isoCodePattern = regexp.MustCompile(`^[a-z]{2,3}$`)

type OpenAIProvider struct {
	config    *Config
	client    *openai.Client
	supported language.Set
	logger    Logger

	// readyPairs remembers language pairs whose model was already fetched.
	readyPairs sync.Map
}

func NewOpenAIProvider(config *Config, logger Logger) (*OpenAIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &OpenAIProvider{
		config:    config,
		client:    openai.NewClientWithConfig(clientConfig),
		supported: language.NewSet(config.Supported...),
		logger:    logger,
	}, nil
}

// Identify asks the model for the language of text. Answers that are not a
// plausible ISO code are reported as undetermined.
func (p *OpenAIProvider) Identify(ctx context.Context, text string) (string, error) {
	answer, err := p.complete(ctx, p.config.LanguageIDModel, identifyPrompt, text)
	if err != nil {
		return "", NewProviderError("identify", "failed to identify language", err)
	}

	code := language.Normalize(strings.Trim(answer, " \t\n.\"'`"))
	if !isoCodePattern.MatchString(code) {
		p.logger.Debug("unexpected identification answer", "answer", answer)
		return language.Undetermined, nil
	}
	return code, nil
}

// EnsureModel makes sure the translation model is available for the pair.
// The first call per pair fetches the model metadata; later calls are free.
func (p *OpenAIProvider) EnsureModel(ctx context.Context, source, target string) error {
	key := source + ">" + target
	if _, ok := p.readyPairs.Load(key); ok {
		return nil
	}

	p.logger.Info("fetching translation model", "model", p.config.TranslationModel, "source", source, "target", target)
	if _, err := p.client.GetModel(ctx, p.config.TranslationModel); err != nil {
		return NewModelError(p.config.TranslationModel, "translation model unavailable", err)
	}

	p.readyPairs.Store(key, struct{}{})
	return nil
}

func (p *OpenAIProvider) Translate(ctx context.Context, text, source, target string) (string, error) {
	prompt := fmt.Sprintf(translatePrompt, source, target)
	translation, err := p.complete(ctx, p.config.TranslationModel, prompt, text)
	if err != nil {
		return "", NewProviderError("translate", "failed to translate", err)
	}

	translation = strings.Trim(strings.TrimSpace(translation), "\"'")
	if translation == "" {
		return "", &AIError{Type: ErrTypeProvider, Operation: "translate", Message: "empty translation"}
	}
	return translation, nil
}

func (p *OpenAIProvider) Supports(code string) bool {
	return p.supported.Supports(code)
}

// Transcribe sends a recorded audio file to the speech to text model.
func (p *OpenAIProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.config.TranscriptionModel,
		FilePath: audioPath,
	})
	if err != nil {
		return "", NewProviderError("transcribe", "failed to transcribe audio", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (p *OpenAIProvider) complete(ctx context.Context, model, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: p.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
