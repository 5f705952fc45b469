package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"mercator-hq/procurement/pkg/tools"
)

// ErrorResponse is the body of a transport-level failure. Tool failures are
// reported inside tools.Result instead.
type ErrorResponse struct {
	Error tools.Error `json:"error"`
}

type toolHandler struct {
	registry     *tools.Registry
	maxBodyBytes int64
	logger       *slog.Logger
}

func (h *toolHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": h.registry.List()})
}

// call executes the named tool with the request body as arguments.
// A tool failure is still a 200 with IsError set, except that not_found
// and invalid_arguments map to 404 and 400 so plain HTTP clients can
// branch on the status.
func (h *toolHandler) call(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	args, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, tools.CodeInvalidArguments, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, tools.CodeInvalidArguments, "failed to read request body")
		return
	}

	result, err := h.registry.Execute(r.Context(), name, json.RawMessage(args))
	if errors.Is(err, tools.ErrNotFound) {
		writeError(w, http.StatusNotFound, tools.CodeNotFound, "unknown tool "+name)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Tool dispatch failed", "tool", name, "error", err)
		writeError(w, http.StatusInternalServerError, tools.CodeInternal, err.Error())
		return
	}

	writeJSON(w, statusFor(result), result)
}

func statusFor(result tools.Result) int {
	if !result.IsError || result.Error == nil {
		return http.StatusOK
	}
	switch result.Error.Code {
	case tools.CodeNotFound:
		return http.StatusNotFound
	case tools.CodeInvalidArguments:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	writeJSON(w, code, ErrorResponse{Error: tools.Error{Code: errCode, Message: message}})
}
