package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	dErrors "examreg/pkg/domain-errors"
)

// Result is the response envelope every endpoint returns. Code 200 means
// success; any other code is an application-level failure regardless of
// what the caller does with the transport status.
type Result struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// WriteSuccess writes a 200 envelope with data.
func WriteSuccess(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, Result{
		Code:      http.StatusOK,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// WriteMessage writes a 200 envelope carrying only a human-readable message.
func WriteMessage(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusOK, Result{
		Code:      http.StatusOK,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
}

// WriteError translates a domain error into the envelope. Internal causes
// never leak; clients see only the domain message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	writeEnvelope(w, status, Result{
		Code:      status,
		Message:   dErrors.MessageOf(err),
		Timestamp: time.Now().UnixMilli(),
	})
}

func writeEnvelope(w http.ResponseWriter, status int, res Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

// Normalizer is implemented by request types that trim and canonicalize
// their fields before validation.
type Normalizer interface {
	Normalize()
}

// Validator is implemented by request types that check their own shape.
type Validator interface {
	Validate() error
}

// DecodeAndPrepare decodes the JSON body into T, then runs Normalize and
// Validate when the type implements them. On any failure it writes the
// error envelope and returns ok=false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode request body", "error", err)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if n, ok := any(&req).(Normalizer); ok {
		n.Normalize()
	}
	if v, ok := any(&req).(Validator); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}
