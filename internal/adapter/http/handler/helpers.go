package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/iho/edufinance/internal/adapter/http/dto"
	"github.com/iho/edufinance/internal/domain"
	"github.com/iho/edufinance/internal/usecase"
)

const (
	// ClientSessionHeader identifies a browser tab for assistant requests.
	ClientSessionHeader = "X-Client-Session"

	maxBodyBytes   = 1 << 20
	maxUploadBytes = 10 << 20
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeFile writes a binary payload, as an attachment when filename is set.
func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// respondError writes err with the status mapDomainError picks. Details of
// server side failures are not echoed to the client.
func respondError(w http.ResponseWriter, err error, message string) {
	status := mapDomainError(err)

	switch {
	case errors.Is(err, usecase.ErrAIRequestFailed):
		writeError(w, status, usecase.ErrAIRequestFailed.Error(), "")
	case errors.Is(err, usecase.ErrSuperseded):
		writeError(w, status, "superseded", err.Error())
	case status >= http.StatusInternalServerError:
		writeError(w, status, message, "")
	default:
		writeError(w, status, message, err.Error())
	}
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrInvalidType),
		errors.Is(err, domain.ErrInvalidMethod),
		errors.Is(err, domain.ErrMissingClassification),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidLabel),
		errors.Is(err, domain.ErrDescriptionTooLong):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidPeriodMode),
		errors.Is(err, domain.ErrIncompleteRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrInvalidImageSize),
		errors.Is(err, domain.ErrInvalidChatMode),
		errors.Is(err, domain.ErrInvalidReportType):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrAIRequestFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// readUpload returns the bytes of a multipart file field.
func readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %q field", domain.ErrInvalidImage, field)
	}
	defer file.Close()

	return io.ReadAll(file)
}

// clientSession keys assistant request generations. Browsers send a
// per-tab header; otherwise the client address is used.
func clientSession(r *http.Request) string {
	if s := r.Header.Get(ClientSessionHeader); s != "" {
		return s
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
