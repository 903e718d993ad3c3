package event

import (
	"net/http"
	"time"

	"gameops-controlplane/pkg/errutil"
	"gameops-controlplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Handler is the HTTP boundary of the catalog. Write routes are guarded by
// operator roles; read routes are public so the storefront can render the
// event list without a session.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/events/v1")

	v1.GET("", h.listEvents)
	v1.GET("/active/current", h.listActiveEvents)
	v1.GET("/:eventId", h.getEvent)
	v1.GET("/:eventId/rewards", h.listRewards)

	admin := v1.Group("/admin", middleware.RequireRole(middleware.RoleOperator))
	admin.POST("", h.createEvent)
	admin.POST("/:eventId/rewards", h.addReward)
}

func (h *Handler) createEvent(c *gin.Context) {
	var in CreateEventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	ev, err := h.service.CreateEvent(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (h *Handler) addReward(c *gin.Context) {
	var in AddRewardInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	rw, err := h.service.AddReward(c.Request.Context(), c.Param("eventId"), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, rw)
}

func (h *Handler) listEvents(c *gin.Context) {
	var filter ListEventsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query parameters", err))
		return
	}

	result, err := h.service.ListEvents(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listActiveEvents(c *gin.Context) {
	items, err := h.service.ListActiveEvents(c.Request.Context(), time.Now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) getEvent(c *gin.Context) {
	ev, err := h.service.GetEventWithRewards(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *Handler) listRewards(c *gin.Context) {
	items, err := h.service.ListRewardsByEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
