package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "pos-service/common/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew_MapsKindToStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, apperrors.Validation("bad").Code)
	assert.Equal(t, http.StatusNotFound, apperrors.NotFound("missing").Code)
	assert.Equal(t, http.StatusConflict, apperrors.Conflict("nope").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.InsufficientResource("short").Code)
	assert.Equal(t, http.StatusForbidden, apperrors.Forbidden("denied").Code)
	assert.Equal(t, http.StatusInternalServerError, apperrors.New("bogus", "x", nil).Code)
}

func TestKindOf_FollowsWrapChain(t *testing.T) {
	err := fmt.Errorf("post movement: %w", apperrors.InsufficientResource("insufficient stock for product %s", "abc"))

	assert.Equal(t, apperrors.KindInsufficientResource, apperrors.KindOf(err))
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientResource))
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(stderrors.New("boom")))
	assert.False(t, apperrors.Is(nil, apperrors.KindInternal))
}

func TestHandleGin(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    string
		wantMessage string
	}{
		{"domain error", apperrors.Conflict("order is already PAID"), http.StatusConflict, "conflict", "order is already PAID"},
		{"plain error hides text", stderrors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			apperrors.HandleGin(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body["error"])
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}
