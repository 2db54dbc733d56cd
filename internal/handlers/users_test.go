package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetUserStatusHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockUserStatusSetter(ctrl)
	handler := NewSetUserStatusHandler(mockSvc)
	id := uuid.New()
	target := "/api/v1/admin/users/" + id.String() + "/status"

	t.Run("suspend", func(t *testing.T) {
		mockSvc.EXPECT().SetUserActive(gomock.Any(), id, false).
			Return(&models.User{UserID: id, IsActive: false}, nil)

		rr := serve(handler, withURLParams(newRequest(http.MethodPut, target, `{"is_active":false}`), "id", id.String()))

		require.Equal(t, http.StatusOK, rr.Code)
		var u models.User
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
		assert.False(t, u.IsActive)
	})

	t.Run("unknown user", func(t *testing.T) {
		mockSvc.EXPECT().SetUserActive(gomock.Any(), id, true).
			Return(nil, apperr.New(apperr.NotFound, "user not found"))

		rr := serve(handler, withURLParams(newRequest(http.MethodPut, target, `{"is_active":true}`), "id", id.String()))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing state", func(t *testing.T) {
		rr := serve(handler, withURLParams(newRequest(http.MethodPut, target, `{}`), "id", id.String()))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rr := serve(handler, withURLParams(newRequest(http.MethodPut, "/api/v1/admin/users/x/status", `{"is_active":true}`), "id", "x"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
