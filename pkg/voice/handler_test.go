package voice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscriber struct {
	text     string
	err      error
	received string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	data, _ := io.ReadAll(audio)
	f.received = filename + ":" + string(data)
	return f.text, f.err
}

func audioRequest(t *testing.T) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", "clip.webm")
	require.NoError(t, err)
	_, err = part.Write([]byte("sound"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transaction/voice", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandler_Parse(t *testing.T) {
	handler := NewHandler(NoopTranscriber{})

	t.Run("should return the recognised fields", func(t *testing.T) {
		// given
		req := httptest.NewRequest(http.MethodPost, "/api/transaction/parse", strings.NewReader(`{"text":"spent 250 on travel"}`))
		w := httptest.NewRecorder()

		// when
		handler.Parse(w, req)

		// then
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"text":"spent 250 on travel","type":"expense","amount":"250","note":"On travel","category":"Travel"}`, w.Body.String())
	})

	t.Run("should reject empty text", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/transaction/parse", strings.NewReader(`{"text":"  "}`))
		w := httptest.NewRecorder()

		handler.Parse(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Voice(t *testing.T) {
	t.Run("should transcribe and parse the recording", func(t *testing.T) {
		// given
		transcriber := &fakeTranscriber{text: "salary 50 thousand"}
		w := httptest.NewRecorder()

		// when
		NewHandler(transcriber).Voice(w, audioRequest(t))

		// then
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "clip.webm:sound", transcriber.received)
		assert.Contains(t, w.Body.String(), `"amount":"50000"`)
		assert.Contains(t, w.Body.String(), `"type":"income"`)
	})

	t.Run("should answer not implemented without a backend", func(t *testing.T) {
		w := httptest.NewRecorder()

		NewHandler(NoopTranscriber{}).Voice(w, audioRequest(t))

		assert.Equal(t, http.StatusNotImplemented, w.Code)
	})

	t.Run("should report backend failures", func(t *testing.T) {
		w := httptest.NewRecorder()

		NewHandler(&fakeTranscriber{err: errors.New("quota")}).Voice(w, audioRequest(t))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("should require an audio file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/transaction/voice", strings.NewReader(""))
		w := httptest.NewRecorder()

		NewHandler(NoopTranscriber{}).Voice(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

type fakeAudioClient struct {
	request openai.AudioRequest
	err     error
}

func (f *fakeAudioClient) CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error) {
	f.request = request
	return openai.AudioResponse{Text: "paid 10 for tea"}, f.err
}

func TestOpenAITranscriber(t *testing.T) {
	t.Run("should request a whisper transcription", func(t *testing.T) {
		client := &fakeAudioClient{}
		transcriber := &OpenAITranscriber{client: client, language: "en"}

		text, err := transcriber.Transcribe(context.Background(), strings.NewReader("x"), "clip.webm")

		require.NoError(t, err)
		assert.Equal(t, "paid 10 for tea", text)
		assert.Equal(t, openai.Whisper1, client.request.Model)
		assert.Equal(t, "clip.webm", client.request.FilePath)
	})

	t.Run("should wrap client errors", func(t *testing.T) {
		cause := errors.New("unauthorized")
		transcriber := &OpenAITranscriber{client: &fakeAudioClient{err: cause}}

		_, err := transcriber.Transcribe(context.Background(), strings.NewReader("x"), "clip.webm")

		assert.ErrorIs(t, err, cause)
	})
}
