package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Code  string `json:"code" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
	Qty   int    `json:"qty" validate:"gte=1"`
}

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("get quotation: %w", ErrNotFound), http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("%w: can only submit DRAFT quotations", ErrConflict), http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		RespondError(rec, tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	}
}

func TestRespondError_InternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: password authentication failed"))

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Empty(t, body.Detail)
}

func TestValidate_FieldErrors(t *testing.T) {
	err := Validate(sampleRequest{Code: "TOOLONG", Email: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at most 5", verr.Fields["code"])
	assert.Equal(t, "must be a valid email address", verr.Fields["email"])
	assert.Equal(t, "must be at least 1", verr.Fields["qty"])

	rec := httptest.NewRecorder()
	RespondError(rec, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Errors, 3)

	require.NoError(t, Validate(sampleRequest{Code: "C1", Qty: 1}))
}

func TestDecodeJSON(t *testing.T) {
	var dst sampleRequest
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"A","qty":2}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "A", dst.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"A","unknown":1}`))
	err := DecodeJSON(req, &dst)
	assert.True(t, errors.Is(err, ErrValidation))
}
