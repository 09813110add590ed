package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/aniladanir/reservation-intake-service/docs"
	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"github.com/aniladanir/reservation-intake-service/internal/service"
)

const (
	requestIDHeader          = "X-Request-ID"
	defaultConversationLimit = 50
)

// Config holds the webhook credentials shared by all platforms.
type Config struct {
	AppSecret    string
	VerifyToken  string
	MaxBodyBytes int64
}

type Handler struct {
	cfg        Config
	dispatcher service.Dispatcher
	workflow   service.ReservationWorkflow
	logger     *slog.Logger
	router     *gin.Engine
	server     *http.Server
	now        func() time.Time
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type notificationsResponse struct {
	UnreadCount   int64                 `json:"unread_count"`
	Notifications []domain.Notification `json:"notifications"`
}

type markedResponse struct {
	Marked int64 `json:"marked"`
}

// @title Reservation Intake API
// @version 1.0
// @description Webhook intake for Instagram, Messenger and WhatsApp plus the operator reservation API
// @host localhost:8080
// @BasePath /
func NewHttpHandler(addr string, cfg Config, dispatcher service.Dispatcher, workflow service.ReservationWorkflow, logger *slog.Logger) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = MaxRequestBodySize
	}

	h := &Handler{
		cfg:        cfg,
		dispatcher: dispatcher,
		workflow:   workflow,
		logger:     logger,
		now:        time.Now,
	}

	// create router
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())

	// register routes
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/webhooks/:platform", h.verifyWebhook)
	router.POST("/webhooks/:platform", h.receiveWebhook)

	router.GET("/reservations", h.listReservations)
	router.POST("/reservations/:id/confirm", h.confirmReservation)
	router.POST("/reservations/:id/reject", h.rejectReservation)

	router.GET("/conversations/:platform/:customerId", h.getConversation)

	router.GET("/notifications", h.listNotifications)
	router.POST("/notifications/read", h.markAllNotificationsRead)
	router.POST("/notifications/:id/read", h.markNotificationRead)

	h.router = router

	// create http server
	h.server = &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return h
}

func (h *Handler) Run() error {
	return h.server.ListenAndServe()
}

func (h *Handler) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// ServeHTTP lets the handler be driven without a listening server.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestId", requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		h.logger.Debug("request served",
			"requestId", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Health godoc
// @Summary Liveness check
// @Tags System
// @Produce json
// @Success 200 {object} statusResponse
// @Router /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Status: "healthy"})
}

// ListReservations godoc
// @Summary List reservations
// @Description Pending reservations are ordered by creation, decided ones by their last update, newest first
// @Tags Reservations
// @Produce json
// @Param status query string false "pending, confirmed or rejected; all when omitted"
// @Success 200 {array} domain.Reservation
// @Failure 400 {object} errorResponse
// @Router /reservations [get]
func (h *Handler) listReservations(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		list []domain.Reservation
		err  error
	)
	switch status := domain.ReservationStatus(c.Query("status")); status {
	case "":
		list, err = h.workflow.ListAll(ctx)
	case domain.StatusPending:
		list, err = h.workflow.ListPending(ctx)
	case domain.StatusConfirmed:
		list, err = h.workflow.ListConfirmed(ctx)
	case domain.StatusRejected:
		list, err = h.workflow.ListRejected(ctx)
	default:
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown status " + string(status)})
		return
	}
	if err != nil {
		h.internalError(c, "failed to list reservations", err)
		return
	}
	if list == nil {
		list = []domain.Reservation{}
	}

	c.JSON(http.StatusOK, list)
}

// ConfirmReservation godoc
// @Summary Confirm a pending reservation
// @Tags Reservations
// @Produce json
// @Param id path int true "reservation id"
// @Success 200 {object} domain.Reservation
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /reservations/{id}/confirm [post]
func (h *Handler) confirmReservation(c *gin.Context) {
	h.transition(c, domain.StatusConfirmed)
}

// RejectReservation godoc
// @Summary Reject a pending reservation
// @Tags Reservations
// @Produce json
// @Param id path int true "reservation id"
// @Success 200 {object} domain.Reservation
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /reservations/{id}/reject [post]
func (h *Handler) rejectReservation(c *gin.Context) {
	h.transition(c, domain.StatusRejected)
}

func (h *Handler) transition(c *gin.Context, status domain.ReservationStatus) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	res, err := h.workflow.Transition(c.Request.Context(), id, status)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case err != nil:
		h.internalError(c, "failed to update reservation", err)
	default:
		c.JSON(http.StatusOK, res)
	}
}

// GetConversation godoc
// @Summary Message history of one customer
// @Description Inbound messages and delivered replies, newest first
// @Tags Conversations
// @Produce json
// @Param platform path string true "instagram, messenger or whatsapp"
// @Param customerId path string true "platform customer id"
// @Param limit query int false "maximum entries, default 50"
// @Success 200 {array} domain.HistoryEntry
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /conversations/{platform}/{customerId} [get]
func (h *Handler) getConversation(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	limit := defaultConversationLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
	}

	history, err := h.dispatcher.Conversation(c.Request.Context(), platform, c.Param("customerId"), limit)
	if err != nil {
		h.internalError(c, "failed to load conversation", err)
		return
	}
	if history == nil {
		history = []domain.HistoryEntry{}
	}

	c.JSON(http.StatusOK, history)
}

// ListNotifications godoc
// @Summary List unread operator notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} notificationsResponse
// @Router /notifications [get]
func (h *Handler) listNotifications(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := h.workflow.UnreadNotifications(ctx)
	if err != nil {
		h.internalError(c, "failed to list notifications", err)
		return
	}
	if list == nil {
		list = []domain.Notification{}
	}

	count, err := h.workflow.UnreadCount(ctx)
	if err != nil {
		h.internalError(c, "failed to count notifications", err)
		return
	}

	c.JSON(http.StatusOK, notificationsResponse{UnreadCount: count, Notifications: list})
}

// MarkNotificationRead godoc
// @Summary Mark one notification as read
// @Tags Notifications
// @Produce json
// @Param id path int true "notification id"
// @Success 200 {object} statusResponse
// @Failure 404 {object} errorResponse
// @Router /notifications/{id}/read [post]
func (h *Handler) markNotificationRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	err := h.workflow.MarkNotificationRead(c.Request.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case err != nil:
		h.internalError(c, "failed to mark notification read", err)
	default:
		c.JSON(http.StatusOK, statusResponse{Status: "ok"})
	}
}

// MarkAllNotificationsRead godoc
// @Summary Mark every unread notification as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} markedResponse
// @Router /notifications/read [post]
func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	n, err := h.workflow.MarkAllNotificationsRead(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to mark notifications read", err)
		return
	}
	c.JSON(http.StatusOK, markedResponse{Marked: n})
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "requestId", c.GetString("requestId"), "error", err.Error())
	c.JSON(http.StatusInternalServerError, errorResponse{Error: msg})
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
