package handler

import (
	"net/http"
	"time"

	"github.com/iho/edufinance/internal/adapter/http/dto"
	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/usecase"
)

const audioContentType = "audio/mpeg"

// AssistantHandler serves the AI assistant endpoints.
type AssistantHandler struct {
	assistantUC *usecase.AssistantUseCase
	now         func() time.Time
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(assistantUC *usecase.AssistantUseCase) *AssistantHandler {
	return &AssistantHandler{assistantUC: assistantUC, now: time.Now}
}

// Receipt reads an uploaded receipt into a transaction form pre-fill.
func (h *AssistantHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	img, err := readUpload(w, r, "image")
	if err != nil {
		respondError(w, err, "invalid upload")
		return
	}

	draft, err := h.assistantUC.ExtractReceipt(r.Context(), clientSession(r), img)
	if err != nil {
		respondError(w, err, "failed to read receipt")
		return
	}

	writeJSON(w, http.StatusOK, dto.DraftFromDomain(draft))
}

// Chat answers a message with the fast or search model.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	mode, err := domain.ParseChatMode(req.Mode)
	if err != nil {
		respondError(w, err, "invalid chat mode")
		return
	}

	text, err := h.assistantUC.Chat(r.Context(), clientSession(r), req.Message, mode)
	if err != nil {
		respondError(w, err, "failed to chat")
		return
	}

	writeJSON(w, http.StatusOK, dto.TextResponse{Text: text})
}

// Analysis answers a question about the ledger.
func (h *AssistantHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	var req dto.AnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	text, err := h.assistantUC.Analyze(r.Context(), clientSession(r), req.Query)
	if err != nil {
		respondError(w, err, "failed to analyze")
		return
	}

	writeJSON(w, http.StatusOK, dto.TextResponse{Text: text})
}

// Speech converts text to MP3 audio.
func (h *AssistantHandler) Speech(w http.ResponseWriter, r *http.Request) {
	var req dto.SpeechRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	audio, err := h.assistantUC.Speak(r.Context(), clientSession(r), req.Text)
	if err != nil {
		respondError(w, err, "failed to synthesize speech")
		return
	}

	writeFile(w, audioContentType, "", audio)
}

// SummaryAudio reads the summary of a period aloud.
func (h *AssistantHandler) SummaryAudio(w http.ResponseWriter, r *http.Request) {
	period, err := dto.PeriodFromQuery(r.URL.Query(), h.now())
	if err != nil {
		respondError(w, err, "invalid period")
		return
	}

	audio, err := h.assistantUC.SummaryAudio(r.Context(), clientSession(r), period)
	if err != nil {
		respondError(w, err, "failed to synthesize summary")
		return
	}

	writeFile(w, audioContentType, "", audio)
}

// Image generates an illustration from a prompt.
func (h *AssistantHandler) Image(w http.ResponseWriter, r *http.Request) {
	var req dto.ImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	size, err := domain.ParseImageSize(req.Size)
	if err != nil {
		respondError(w, err, "invalid image size")
		return
	}

	img, err := h.assistantUC.GenerateImage(r.Context(), clientSession(r), req.Prompt, size)
	if err != nil {
		respondError(w, err, "failed to generate image")
		return
	}

	writeJSON(w, http.StatusOK, dto.NewImageResponse(img))
}

// ImageEdit applies a prompt to an uploaded image.
func (h *AssistantHandler) ImageEdit(w http.ResponseWriter, r *http.Request) {
	img, err := readUpload(w, r, "image")
	if err != nil {
		respondError(w, err, "invalid upload")
		return
	}

	edited, err := h.assistantUC.EditImage(r.Context(), clientSession(r), img, r.FormValue("prompt"))
	if err != nil {
		respondError(w, err, "failed to edit image")
		return
	}

	writeJSON(w, http.StatusOK, dto.NewImageResponse(edited))
}
