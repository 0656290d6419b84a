package voice

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

var ErrUnsupported = errors.New("voice transcription is not configured")

// Transcriber converts recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// NoopTranscriber is used when no speech backend is configured.
type NoopTranscriber struct{}

func (NoopTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	return "", ErrUnsupported
}

type audioClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAITranscriber sends audio to the Whisper transcription endpoint.
type OpenAITranscriber struct {
	client   audioClient
	language string
}

func NewOpenAITranscriber(apiKey string) *OpenAITranscriber {
	return &OpenAITranscriber{client: openai.NewClient(apiKey), language: "en"}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	response, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   audio,
		FilePath: filename,
		Language: t.language,
	})
	if err != nil {
		log.Errorf("transcription of %s failed: %v", filename, err)
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	log.Debugf("Transcribed %s: %q", filename, response.Text)
	return response.Text, nil
}
