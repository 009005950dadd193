package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "examreg/pkg/domain-errors"
)

type sampleRequest struct {
	Name string `json:"name"`
}

func (r *sampleRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *sampleRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) Result {
	t.Helper()
	var res Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	res := decodeResult(t, rec)
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "success", res.Message)
	assert.NotZero(t, res.Timestamp)
}

func TestWriteErrorMapsDomainCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "order not found"), http.StatusNotFound},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "nope"), http.StatusForbidden},
		{"validation", dErrors.New(dErrors.CodeValidation, "bad phone"), http.StatusBadRequest},
		{"conflict", dErrors.New(dErrors.CodeConflict, "duplicate"), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			res := decodeResult(t, rec)
			assert.Equal(t, tt.status, res.Code)
			assert.Equal(t, dErrors.MessageOf(tt.err), res.Message)
		})
	}
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.Default()

	t.Run("decodes, normalizes, and validates", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  Zhang San  "}`))

		out, ok := DecodeAndPrepare[sampleRequest](rec, req, logger)
		require.True(t, ok)
		assert.Equal(t, "Zhang San", out.Name)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))

		_, ok := DecodeAndPrepare[sampleRequest](rec, req, logger)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("surfaces validation failures", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`))

		_, ok := DecodeAndPrepare[sampleRequest](rec, req, logger)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		res := decodeResult(t, rec)
		assert.Equal(t, "name is required", res.Message)
	})
}
