package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"remindme/internal/application/dto"
	"remindme/internal/application/service"
	"remindme/internal/infrastructure/qstash"
	"remindme/internal/pkg/logger"
	"remindme/internal/pkg/metrics"
)

// WebhookHandler serves the callbacks the delayed-callback service delivers
// in event mode: per-alert triggers and the periodic cleanup sweep.
type WebhookHandler struct {
	receiver *qstash.Receiver
	engine   service.EngineService
	log      logger.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(receiver *qstash.Receiver, engine service.EngineService, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		receiver: receiver,
		engine:   engine,
		log:      log,
	}
}

// HandleAlert handles POST /webhooks/reminder-alert. The signature is checked
// over the raw body before the payload is even parsed; nothing about an
// unauthenticated request may reach the engine.
func (h *WebhookHandler) HandleAlert(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "cannot read request body"})
	}

	if err := h.receiver.Verify(body, c.Request().Header.Get(qstash.SignatureHeader)); err != nil {
		h.log.Warn("Rejected alert callback with invalid signature")
		metrics.IncWebhookTrigger("rejected")
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid signature"})
	}

	var cb dto.AlertCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed callback body"})
	}

	resp, err := h.engine.FireReminder(c.Request().Context(), cb)
	if err != nil {
		h.log.Error(fmt.Sprintf("Failed to process alert callback for reminder %d", cb.ReminderID), err)
		metrics.IncWebhookTrigger("error")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to process callback"})
	}

	metrics.IncWebhookTrigger(resp.Status)
	return c.JSON(http.StatusOK, resp)
}

// HandleCleanup handles POST /webhooks/cleanup, the event-mode counterpart of
// the polling cleanup cron.
func (h *WebhookHandler) HandleCleanup(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "cannot read request body"})
	}

	if err := h.receiver.Verify(body, c.Request().Header.Get(qstash.SignatureHeader)); err != nil {
		h.log.Warn("Rejected cleanup callback with invalid signature")
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid signature"})
	}

	resp, err := h.engine.RunCleanup(c.Request().Context())
	if err != nil {
		h.log.Error("Cleanup sweep triggered by callback failed", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "cleanup failed"})
	}

	h.log.Info(fmt.Sprintf("Cleanup sweep checked %d reminders, deactivated %d", resp.Checked, resp.Deactivated))
	return c.JSON(http.StatusOK, resp)
}
