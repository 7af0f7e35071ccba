package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{domain.InvalidInput("bad"), http.StatusBadRequest, `{"error":"invalid_input","detail":"bad"}`},
		{domain.NotFound("gone"), http.StatusNotFound, `{"error":"not_found","detail":"gone"}`},
		{domain.Conflict("dup"), http.StatusConflict, `{"error":"conflict","detail":"dup"}`},
		{domain.Unauthorized("no"), http.StatusUnauthorized, `{"error":"unauthorized","detail":"no"}`},
		{errors.New("db exploded"), http.StatusInternalServerError, `{"error":"internal","detail":"Internal server error"}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, observability.Nop(), tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.JSONEq(t, tc.body, rec.Body.String())
	}
}

func TestIntParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=x&big=500", nil)

	n, err := intParam(req, "limit", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = intParam(req, "missing", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	_, err = intParam(req, "bad", 10, 1, 100)
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))

	_, err = intParam(req, "big", 10, 1, 100)
	assert.Equal(t, "big must be an integer between 1 and 100", domain.MessageOf(err))
}
