package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"bidprep/services"
)

const maxUploadBytes = 10 << 20

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnparseableQuote), errors.Is(err, services.ErrNoBOMItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrTakeoffUnavailable), errors.Is(err, services.ErrDeliveryFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError logs err under the handler's name and writes it as JSON.
// Internal errors are logged in full but not echoed to the client.
func respondError(e *core.RequestEvent, handler string, err error) error {
	status := StatusFor(err)
	message := err.Error()

	logger := e.App.Logger().With("component", "api", "handler", handler, "status", status)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		logger.Error("request failed", "error", err)
		message = "Something went wrong. Please try again."
	} else {
		logger.Warn("request rejected", "error", err)
	}

	return e.JSON(status, ErrorResponse{
		Status:  status,
		Error:   http.StatusText(status),
		Message: message,
	})
}

// readJSON decodes the request body into dst. Malformed bodies are reported
// as invalid input.
func readJSON(e *core.RequestEvent, dst any) error {
	dec := json.NewDecoder(e.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", services.ErrInvalidInput, err)
	}
	return nil
}

// sendFile writes a download with the given content type.
func sendFile(e *core.RequestEvent, contentType, filename string, data []byte) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	e.Response.WriteHeader(http.StatusOK)
	_, err := e.Response.Write(data)
	return err
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
