package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultChatModel is the default completion model
	DefaultChatModel = "gpt-4o-mini"
	// DefaultTranscriptionModel is the default speech-to-text model
	DefaultTranscriptionModel = "whisper-1"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 60 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// systemPrompt frames the assistant for the dashboard's chat panel.
const systemPrompt = "You are the assistant panel of a personal productivity dashboard. " +
	"Help the user manage alarms, todos, reminders, notes and expenses. Be concise and helpful."

// OpenAIProvider implements CompletionProvider and Transcriber using the
// OpenAI API.
type OpenAIProvider struct {
	client             openai.Client
	chatModel          string
	transcriptionModel string
	logger             *zap.Logger
	debugMode          bool
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support.
func NewOpenAIProviderWithLogger(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultChatModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:             client,
		chatModel:          model,
		transcriptionModel: DefaultTranscriptionModel,
		logger:             logger,
		debugMode:          debugMode,
	}
}

// SetTranscriptionModel overrides the default transcription model.
func (p *OpenAIProvider) SetTranscriptionModel(model string) {
	if model != "" {
		p.transcriptionModel = model
	}
}

// Complete sends the conversation to the chat completions API and
// returns the assistant's reply.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	openAIMessages = append(openAIMessages, openai.SystemMessage(systemPrompt))

	for _, msg := range messages {
		switch msg.Role {
		case "assistant":
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		default:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		}
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "complete"),
			zap.String("model", p.chatModel),
			zap.Int("message_count", len(openAIMessages)),
		)
	}

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.chatModel),
		Messages: openAIMessages,
		// Temperature omitted - some models only support their default value
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "complete"),
				zap.String("model", p.chatModel),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to complete: %w", apiErr)
		}
		return "", fmt.Errorf("failed to complete: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "complete"),
			zap.String("model", p.chatModel),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}

// Transcribe sends captured audio to the Whisper transcription API.
func (p *OpenAIProvider) Transcribe(ctx context.Context, audio *bytes.Reader) (string, error) {
	if p.logger != nil && p.debugMode {
		p.logger.Debug("transcription_api_request",
			zap.String("model", p.transcriptionModel),
			zap.Int64("audio_bytes", audio.Size()),
		)
	}

	start := time.Now()
	resp, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(p.transcriptionModel),
		File:  audio,
	})
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("transcription_api_error",
				zap.String("model", p.transcriptionModel),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to transcribe: %w", apiErr)
		}
		return "", fmt.Errorf("failed to transcribe: %w", err)
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("transcription_api_response",
			zap.String("model", p.transcriptionModel),
			zap.Int("text_length", len(resp.Text)),
			zap.String("text_preview", SanitizeResponse(resp.Text, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return resp.Text, nil
}
