package voice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/rest"
	"github.com/spendlog/spendlog/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

const maxAudioSize = 10 << 20

type UtteranceDTO struct {
	Text string `json:"text"`
}

// ParsedDTO holds the recognised fields. Empty fields were not recognised.
type ParsedDTO struct {
	Text     string           `json:"text"`
	Type     transaction.Type `json:"type,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Note     string           `json:"note,omitempty"`
	Category string           `json:"category,omitempty"`
}

type Handler struct {
	transcriber Transcriber
}

func NewHandler(transcriber Transcriber) *Handler {
	return &Handler{transcriber: transcriber}
}

// Parse godoc
// @Summary Prefill a transaction from a sentence
// @Tags Transaction
// @Accept json
// @Produce json
// @Param text body UtteranceDTO true "Spoken or typed sentence"
// @Success 200 {object} ParsedDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/transaction/parse [post]
// @Security XUserId
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto UtteranceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(dto.Text) == "" {
		rest.WriteError(w, http.StatusBadRequest, "Text is required", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, toParsedDTO(dto.Text))
}

// Voice godoc
// @Summary Prefill a transaction from recorded speech
// @Tags Transaction
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "Recorded audio"
// @Success 200 {object} ParsedDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 501 {object} rest.ErrorResponse "Transcription not configured"
// @Router /api/transaction/voice [post]
// @Security XUserId
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioSize)
	file, header, err := r.FormFile("audio")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Audio file is required", err.Error())
		return
	}
	defer file.Close()

	text, err := h.transcriber.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			rest.WriteError(w, http.StatusNotImplemented, "Voice input is not supported", err.Error())
			return
		}
		rest.WriteError(w, http.StatusBadGateway, "Failed to transcribe audio", err.Error())
		return
	}
	log.Debugf("Voice input: %q", text)
	rest.WriteJSON(w, http.StatusOK, toParsedDTO(text))
}

func toParsedDTO(text string) ParsedDTO {
	draft := ParseUtterance(text)
	return ParsedDTO{
		Text:     text,
		Type:     draft.Type,
		Amount:   draft.Amount,
		Note:     draft.Note,
		Category: draft.Category,
	}
}
