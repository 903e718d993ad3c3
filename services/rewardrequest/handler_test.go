package rewardrequest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gameops-controlplane/pkg/middleware"
	"gameops-controlplane/services/event"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *testStack) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := newTestStack(t)

	engine := gin.New()
	engine.Use(middleware.Identity())
	engine.Use(middleware.Error())

	event.NewHandler(ts.catalog).Register(engine)
	NewHandler(ts.service).Register(engine)

	return engine, ts
}

func doRequest(engine *gin.Engine, method, path, userID, roles string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	if roles != "" {
		req.Header.Set(middleware.RolesHeader, roles)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func errorReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var payload struct {
		Error struct {
			Reason string `json:"reason"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Reason
}

func TestClaimEndpoint(t *testing.T) {
	engine, ts := newTestRouter(t)
	ev, rw := ts.seedReward(t, 10)
	claimPath := fmt.Sprintf("/events/v1/%s/rewards/%s/claim", ev.EventID, rw.RewardID)

	t.Run("anonymous claim is unauthorized", func(t *testing.T) {
		rec := doRequest(engine, http.MethodPost, claimPath, "", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("first claim creates a pending request", func(t *testing.T) {
		rec := doRequest(engine, http.MethodPost, claimPath, "user-1", "", "")
		require.Equal(t, http.StatusCreated, rec.Code)

		var req RewardRequest
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &req))
		require.Equal(t, StatusPending, req.Status)
		require.Equal(t, "user-1", req.UserID)
	})

	t.Run("second claim conflicts", func(t *testing.T) {
		rec := doRequest(engine, http.MethodPost, claimPath, "user-1", "", "")
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, ReasonDuplicateRewardRequest, errorReason(t, rec))
	})

	t.Run("unknown event is unprocessable", func(t *testing.T) {
		rec := doRequest(engine, http.MethodPost, "/events/v1/missing/rewards/missing/claim", "user-1", "", "")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, event.ReasonEventNotFound, errorReason(t, rec))
	})
}

func TestClaimEndpointConditionNotMet(t *testing.T) {
	engine, ts := newTestRouter(t)
	ev, rw := ts.seedReward(t, 99)
	claimPath := fmt.Sprintf("/events/v1/%s/rewards/%s/claim", ev.EventID, rw.RewardID)

	rec := doRequest(engine, http.MethodPost, claimPath, "user-1", "", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, ReasonRewardConditionNotMet, errorReason(t, rec))
}

func TestHistoryEndpoints(t *testing.T) {
	engine, ts := newTestRouter(t)
	ev, rw := ts.seedReward(t, 10)
	claimPath := fmt.Sprintf("/events/v1/%s/rewards/%s/claim", ev.EventID, rw.RewardID)

	rec := doRequest(engine, http.MethodPost, claimPath, "user-1", "", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("own history", func(t *testing.T) {
		rec := doRequest(engine, http.MethodGet, "/events/v1/rewards/requests/me", "user-1", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var result struct {
			Items []RewardRequest `json:"items"`
			Total int64           `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.EqualValues(t, 1, result.Total)
	})

	t.Run("other users see nothing of it", func(t *testing.T) {
		rec := doRequest(engine, http.MethodGet, "/events/v1/rewards/requests/me", "user-2", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var result struct {
			Total int64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.EqualValues(t, 0, result.Total)
	})

	t.Run("audit listing requires a back-office role", func(t *testing.T) {
		rec := doRequest(engine, http.MethodGet, "/events/v1/admin/rewards/requests", "user-1", "", "")
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = doRequest(engine, http.MethodGet, "/events/v1/admin/rewards/requests", "auditor-1", "AUDITOR", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestResolveEndpoint(t *testing.T) {
	engine, ts := newTestRouter(t)
	ev, rw := ts.seedReward(t, 10)
	claimPath := fmt.Sprintf("/events/v1/%s/rewards/%s/claim", ev.EventID, rw.RewardID)

	rec := doRequest(engine, http.MethodPost, claimPath, "user-1", "", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var req RewardRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &req))
	resolvePath := fmt.Sprintf("/events/v1/admin/rewards/requests/%s/resolve", req.RequestID)

	t.Run("auditor cannot resolve", func(t *testing.T) {
		rec := doRequest(engine, http.MethodPost, resolvePath, "auditor-1", "AUDITOR", `{"success":true}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("operator resolves", func(t *testing.T) {
		rec := doRequest(engine, http.MethodPost, resolvePath, "op-1", "OPERATOR", `{"success":true}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resolved RewardRequest
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
		require.Equal(t, StatusSuccess, resolved.Status)
	})

	t.Run("resolving twice is a bad request", func(t *testing.T) {
		rec := doRequest(engine, http.MethodPost, resolvePath, "op-1", "OPERATOR", `{"success":false}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, ReasonRewardRequestUpdateFault, errorReason(t, rec))
	})

	t.Run("admin passes operator checks", func(t *testing.T) {
		rec := doRequest(engine, http.MethodGet, "/events/v1/admin/rewards/requests", "admin-1", "ADMIN", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
