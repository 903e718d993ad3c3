package rewardrequest

import (
	"net/http"
	"strings"

	"gameops-controlplane/pkg/db/pagination"
	"gameops-controlplane/pkg/errutil"
	"gameops-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Handler exposes the claim endpoint to players and the audit/resolve
// endpoints to back-office roles.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/events/v1")

	v1.POST("/:eventId/rewards/:rewardId/claim", middleware.RequireAuth(), h.claim)
	v1.GET("/rewards/requests/me", middleware.RequireAuth(), h.listMine)

	admin := v1.Group("/admin")
	admin.GET("/rewards/requests",
		middleware.RequireRole(middleware.RoleAuditor, middleware.RoleOperator), h.listAll)
	admin.GET("/events/:eventId/rewards/requests",
		middleware.RequireRole(middleware.RoleAuditor, middleware.RoleOperator), h.listByEvent)
	admin.POST("/rewards/requests/:requestId/resolve",
		middleware.RequireRole(middleware.RoleOperator), h.resolve)
}

// historyQuery is the shared query shape of the listing endpoints.
type historyQuery struct {
	Status string `form:"status"`
	pagination.Params
}

func (q historyQuery) status() Status {
	return Status(strings.ToUpper(strings.TrimSpace(q.Status)))
}

func (h *Handler) claim(c *gin.Context) {
	req, err := h.service.CreateRewardRequest(
		c.Request.Context(),
		middleware.UserID(c),
		c.Param("eventId"),
		c.Param("rewardId"),
	)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *Handler) listMine(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query parameters", err))
		return
	}

	result, err := h.service.FindRewardRequestsByUserID(
		c.Request.Context(), middleware.UserID(c), q.status(), q.Params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listAll(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query parameters", err))
		return
	}

	result, err := h.service.FindAllRewardRequests(c.Request.Context(), q.status(), q.Params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listByEvent(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query parameters", err))
		return
	}

	result, err := h.service.FindRewardRequestsByEventID(
		c.Request.Context(), c.Param("eventId"), q.status(), q.Params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) resolve(c *gin.Context) {
	var in ResolveInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	req, err := h.service.ProcessRewardRequest(c.Request.Context(), c.Param("requestId"), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, req)
}
