package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"github.com/aniladanir/reservation-intake-service/internal/metrics"
	"github.com/aniladanir/reservation-intake-service/internal/normalizer"
	"github.com/aniladanir/reservation-intake-service/internal/signature"
)

const MaxRequestBodySize = 1 << 20 // 1 MiB

// VerifyWebhook godoc
// @Summary Webhook subscription handshake
// @Description Echoes hub.challenge when hub.verify_token matches the configured token
// @Tags Webhooks
// @Produce plain
// @Param platform path string true "instagram, messenger or whatsapp"
// @Param hub.mode query string true "must be subscribe"
// @Param hub.verify_token query string true "verify token"
// @Param hub.challenge query string true "challenge to echo"
// @Success 200 {string} string
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /webhooks/{platform} [get]
func (h *Handler) verifyWebhook(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	if c.Query("hub.mode") != "subscribe" || !signature.ValidateVerifyToken(c.Query("hub.verify_token"), h.cfg.VerifyToken) {
		h.logger.Warn("webhook verification rejected", "platform", platform)
		c.JSON(http.StatusForbidden, errorResponse{Error: "verification failed"})
		return
	}

	h.logger.Info("webhook verified", "platform", platform)
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// ReceiveWebhook godoc
// @Summary Receive platform messages
// @Description Verifies X-Hub-Signature-256, normalizes the payload and dispatches every message it carries
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param platform path string true "instagram, messenger or whatsapp"
// @Param X-Hub-Signature-256 header string true "sha256=<hex hmac of the body>"
// @Success 200 {object} statusResponse
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 413 {object} errorResponse
// @Router /webhooks/{platform} [post]
func (h *Handler) receiveWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	logger := h.logger.With("platform", platform, "requestId", c.GetString("requestId"))

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.WebhookRequests.WithLabelValues(string(platform), "too_large").Inc()
			logger.Warn("webhook body too large", "limit", tooLarge.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		logger.Error("failed to read webhook body", "error", err.Error())
		c.JSON(http.StatusBadRequest, errorResponse{Error: "error reading request body"})
		return
	}

	if h.cfg.AppSecret == "" || !signature.Verify(raw, c.GetHeader(signature.HeaderName), h.cfg.AppSecret) {
		metrics.WebhookRequests.WithLabelValues(string(platform), "bad_signature").Inc()
		logger.Warn("webhook signature rejected", "signaturePresent", c.GetHeader(signature.HeaderName) != "")
		c.JSON(http.StatusForbidden, errorResponse{Error: "invalid signature"})
		return
	}

	messages, err := normalizer.Normalize(platform, raw, h.now().UTC())
	if err != nil {
		metrics.WebhookRequests.WithLabelValues(string(platform), "bad_payload").Inc()
		logger.Warn("webhook payload rejected", "error", err.Error())
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	metrics.WebhookRequests.WithLabelValues(string(platform), "accepted").Inc()

	for _, msg := range messages {
		out, err := h.dispatcher.Dispatch(ctx, msg)
		if err != nil {
			logger.Error("failed to dispatch message", "customerId", msg.CustomerID, "error", err.Error())
			continue
		}
		logger.Info("message dispatched",
			"customerId", msg.CustomerID,
			"intent", out.Intent.String(),
			"duplicate", out.Duplicate)
	}

	c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}
