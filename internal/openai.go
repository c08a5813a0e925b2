package internal

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIClientInterface defines the interface for OpenAI client operations
type OpenAIClientInterface interface {
	CreateTranscription(ctx context.Context, file *os.File, model string) (string, error)
	CreateChatCompletion(ctx context.Context, model, system, user string) (string, error)
}

// OpenAIClient wraps the official OpenAI Go SDK. With a base URL configured
// it talks to any OpenAI-compatible provider, so model names are passed
// through verbatim.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client. baseURL may be empty to use
// the OpenAI default endpoint.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client}
}

// CreateTranscription implements the transcription method
func (c *OpenAIClient) CreateTranscription(ctx context.Context, file *os.File, model string) (string, error) {
	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(model),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// CreateChatCompletion implements the chat completion method
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, model, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// AI handles OpenAI API interactions for transcription and clip ranking
type AI struct {
	client            OpenAIClientInterface
	audio             *Audio
	whisperModel      string
	clipModel         string
	whisperLimit      int64
	transcribeTimeout time.Duration
	completeTimeout   time.Duration
	verbose           bool
	apiKey            string
	baseURL           string
	clientOnce        sync.Once
}

// NewAI creates a new AI processor
func NewAI(client OpenAIClientInterface, audio *Audio, config *Config) *AI {
	ai := NewAIWithKey(audio, config)
	ai.client = client
	return ai
}

// NewAIWithKey creates a new AI processor with lazy client initialization
func NewAIWithKey(audio *Audio, config *Config) *AI {
	return &AI{
		audio:             audio,
		whisperModel:      config.WhisperModel,
		clipModel:         config.ClipModel,
		whisperLimit:      WhisperLimit,
		transcribeTimeout: config.TranscribeTimeout,
		completeTimeout:   config.AnalyzeTimeout,
		verbose:           config.Verbose,
		apiKey:            config.OpenAIAPIKey,
		baseURL:           config.OpenAIBaseURL,
	}
}

// ensureClient initializes the OpenAI client if needed
func (ai *AI) ensureClient() error {
	if ai.client != nil {
		return nil
	}

	if ai.apiKey == "" {
		return ValidateOpenAIAPIKey("")
	}

	ai.clientOnce.Do(func() {
		ai.client = NewOpenAIClient(ai.apiKey, ai.baseURL)
	})

	return nil
}

// Transcribe transcribes audio using the Whisper API, splitting files that
// exceed the upload limit into chunks first.
func (ai *AI) Transcribe(ctx context.Context, audioFile string) (string, error) {
	if err := ai.ensureClient(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}

	if ai.verbose {
		fmt.Printf("Transcribing audio file: %s\n", audioFile)
	}

	info, err := os.Stat(audioFile)
	if err != nil {
		return "", fmt.Errorf("%w: getting audio file info: %w", ErrTranscriptionFailed, err)
	}

	fileSize := info.Size()
	numChunks := int(math.Ceil(float64(fileSize) / float64(ai.whisperLimit)))

	var chunks []string
	if numChunks > 1 {
		chunks, err = ai.audio.Split(ctx, audioFile, numChunks)
		if err != nil {
			return "", fmt.Errorf("%w: splitting audio: %w", ErrTranscriptionFailed, err)
		}
		defer cleanupFiles(chunks...)
	} else {
		chunks = []string{audioFile}
	}

	ctx, cancel := context.WithTimeout(ctx, ai.transcribeTimeout)
	defer cancel()

	transcript, err := ai.processAudioChunks(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	return transcript, nil
}

// processAudioChunks transcribes audio chunks sequentially
// NOTE: tried to do it concurrently but one chunk returned broken transcript
// not sure if issue with the invocation of the API or just a glitch
// trying it sequentially worked
func (ai *AI) processAudioChunks(ctx context.Context, chunks []string) (string, error) {
	numChunks := len(chunks)

	if ai.verbose {
		fmt.Printf("Transcribing chunks (%d)\n", numChunks)
	}

	var sb strings.Builder
	for i, chunkPath := range chunks {
		file, err := os.Open(chunkPath)
		if err != nil {
			return "", fmt.Errorf("opening chunk %s: %w", chunkPath, err)
		}

		text, err := ai.client.CreateTranscription(ctx, file, ai.whisperModel)
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close file %s: %v\n", chunkPath, closeErr)
		}
		if err != nil {
			return "", fmt.Errorf("transcribing chunk %d: %w", i+1, err)
		}

		sb.WriteString(text)
		if i < numChunks-1 {
			sb.WriteString("\n")
		}

		if ai.verbose {
			fmt.Printf("Transcribed chunk %d/%d\n", i+1, numChunks)
		}
	}

	return sb.String(), nil
}

// Complete sends a system/user prompt pair to the clip model.
func (ai *AI) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ai.ensureClient(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, ai.completeTimeout)
	defer cancel()

	content, err := ai.client.CreateChatCompletion(ctx, ai.clipModel, system, user)
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}

	return content, nil
}
