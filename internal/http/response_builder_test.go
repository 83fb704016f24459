package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anjo/internal/core"
	"anjo/internal/session"
)

func TestResponseBuilderWritesJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().Status(http.StatusCreated).Header("X-Test", "1").JSON(map[string]int{"n": 2}).Write(rr)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Test"))
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":2}`, rr.Body.String())
}

func TestResponseBuilderWithoutBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(rr)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Content-Type"))
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", core.ErrInvalidAmount, http.StatusUnprocessableEntity, "INVALID_AMOUNT"},
		{"wrapped not found", fmt.Errorf("load: %w", core.ErrGoalNotFound), http.StatusNotFound, "GOAL_NOT_FOUND"},
		{"remote", core.ErrRemote.WithMessage("create transactions failed after retries").Wrap(errors.New("reset")), http.StatusBadGateway, "REMOTE_ERROR"},
		{"external", core.ErrExternal, http.StatusBadGateway, "EXTERNAL_ERROR"},
		{"internal", core.ErrInternal.Wrap(errors.New("disk full")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"timeout", fmt.Errorf("list: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "TIMEOUT"},
		{"token", session.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			FromError(tt.err).Write(rr)
			assert.Equal(t, tt.status, rr.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestInternalErrorsHideCause(t *testing.T) {
	rr := httptest.NewRecorder()
	FromError(core.ErrInternal.Wrap(errors.New("password=hunter2"))).Write(rr)
	assert.NotContains(t, rr.Body.String(), "hunter2")
}
