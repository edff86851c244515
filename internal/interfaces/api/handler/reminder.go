package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"remindme/internal/application/dto"
	"remindme/internal/application/service"
	appErrors "remindme/internal/pkg/errors"
	"remindme/internal/pkg/logger"
)

// ReminderHandler serves the reminder CRUD API.
type ReminderHandler struct {
	reminderService service.ReminderService
	log             logger.Logger
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(reminderService service.ReminderService, log logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
		log:             log,
	}
}

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

// Create handles POST /api/reminders.
func (h *ReminderHandler) Create(c echo.Context) error {
	var req dto.CreateReminderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}

	resp, err := h.reminderService.CreateReminder(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// List handles GET /api/reminders.
func (h *ReminderHandler) List(c echo.Context) error {
	resp, err := h.reminderService.ListReminders(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/reminders/:id.
func (h *ReminderHandler) Get(c echo.Context) error {
	id, ok := h.pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid reminder id"})
	}

	resp, err := h.reminderService.GetReminder(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update handles PUT /api/reminders/:id.
func (h *ReminderHandler) Update(c echo.Context) error {
	id, ok := h.pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid reminder id"})
	}

	var req dto.UpdateReminderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}

	resp, err := h.reminderService.UpdateReminder(c.Request().Context(), id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /api/reminders/:id.
func (h *ReminderHandler) Delete(c echo.Context) error {
	id, ok := h.pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid reminder id"})
	}

	if err := h.reminderService.DeleteReminder(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkDelete handles DELETE /api/reminders.
func (h *ReminderHandler) BulkDelete(c echo.Context) error {
	var req dto.BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}

	resp, err := h.reminderService.DeleteReminders(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// pathID parses the :id path parameter.
func (h *ReminderHandler) pathID(c echo.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// fail maps service errors onto HTTP statuses. Validation problems carry the
// service message so callers can see which field was rejected.
func (h *ReminderHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, appErrors.ErrReminderNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: appErrors.ErrReminderNotFound.Error()})
	case errors.Is(err, appErrors.ErrValidation), errors.Is(err, appErrors.ErrCronParse):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.log.Error("Unhandled service error in reminder API", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: appErrors.ErrInternalServer.Error()})
	}
}
