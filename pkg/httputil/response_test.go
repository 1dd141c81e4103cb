package httputil

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/ottcore/pkg/errors"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"profile not found", errors.ProfileNotFound(), http.StatusNotFound, "ProfileNotFound"},
		{"profile required", errors.ProfileRequired(), http.StatusBadRequest, "ProfileRequired"},
		{"limit", errors.ProfileLimitExceeded(5), http.StatusConflict, "ProfileLimitExceeded"},
		{"duplicate", errors.DuplicateProfileName(), http.StatusConflict, "DuplicateProfileName"},
		{"expired", errors.TokenExpired(), http.StatusUnauthorized, "TokenExpired"},
		{"forbidden", errors.Forbidden("owner"), http.StatusForbidden, "FORBIDDEN"},
		{"uncoded not found", errors.NotFound("missing"), http.StatusNotFound, "NOT_FOUND"},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError, "InternalError"},
		{"internal app error", errors.Internal("db down"), http.StatusInternalServerError, "InternalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Describe(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestDescribe_HidesInternalMessages(t *testing.T) {
	_, body := Describe(errors.Wrap(errors.ErrorTypeInternal, "query failed", stderrors.New("password=hunter2")))

	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(rec, nil, errors.ContentNotFound())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"code":"ContentNotFound"`)
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Kids"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "Kids", v.Name)

	for _, body := range []string{`{"name":"Kids","extra":1}`, `{`, ``} {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeJSON(httptest.NewRecorder(), r, &v)
		assert.True(t, errors.IsBadRequest(err), body)
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=7&bad=x", nil)

	v, err := QueryInt(r, "limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = QueryInt(r, "missing", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	_, err = QueryInt(r, "bad", 20)
	assert.True(t, errors.HasCode(err, errors.CodeValidationFailed))
}
