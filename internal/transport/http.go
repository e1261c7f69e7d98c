package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode"
)

const (
	defaultMaxBodyBytes = 64 << 10
	maxStudentIDLen     = 128
	studentPathValue    = "student"
)

// Routes registers the tool endpoints on mux.
func (d *Dispatcher) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/tools", d.handleListTools)
	mux.HandleFunc("POST /v1/students/{student}/tools/{tool}", d.handleTool)
	mux.HandleFunc("GET /v1/students/{student}/ws", d.handleWebSocket)
}

func (d *Dispatcher) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": ToolNames()})
}

// handleTool takes the tool arguments as the request body.
func (d *Dispatcher) handleTool(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentFromPath(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, failure(CodeInvalidArgs, "Request body too large.", nil))
			return
		}
		writeJSON(w, http.StatusBadRequest, failure(CodeInvalidArgs, "Could not read request body.", nil))
		return
	}

	resp := d.Dispatch(r.Context(), studentID, Request{
		ID:   r.Header.Get("X-Request-Id"),
		Tool: r.PathValue("tool"),
		Args: body,
	})
	writeJSON(w, statusFor(resp), resp)
}

func statusFor(resp Response) int {
	if resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case CodeUnknownTool:
		return http.StatusNotFound
	case CodeInvalidArgs, CodeMissingArgument:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func studentFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue(studentPathValue))
	if !validStudentID(id) {
		writeJSON(w, http.StatusBadRequest, failure(CodeInvalidArgs, "Invalid student id.", nil))
		return "", false
	}
	return id, true
}

func validStudentID(id string) bool {
	if id == "" || len(id) > maxStudentIDLen {
		return false
	}
	return strings.IndexFunc(id, unicode.IsControl) < 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
