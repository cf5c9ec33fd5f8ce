package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/api/metrics"
	"github.com/eventsphere/eventsphere/internal/core/ports"
)

// EventHandler serves event reads and organizer-side creation.
type EventHandler struct {
	events        ports.EventService
	notifications ports.NotificationService
}

func NewEventHandler(events ports.EventService, notifications ports.NotificationService) *EventHandler {
	return &EventHandler{events: events, notifications: notifications}
}

// Create handles POST /events. The caller becomes the organizer.
//
// @Summary      Create an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      eventRequest  true  "Event"
// @Success      201   {object}  eventResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req eventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toEventInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	event, err := h.events.CreateEvent(c.Request().Context(), in, p.UserID)
	if err != nil {
		return err
	}

	metrics.EventsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, toEventResponse(*event))
}

// Get handles GET /events/:id.
//
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event ID"
// @Success      200  {object}  eventResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /events/{id} [get]
func (h *EventHandler) Get(c echo.Context) error {
	event, err := h.events.FetchEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(*event))
}

// Notifications handles GET /events/:id/notifications.
//
// @Summary      List notifications of an event
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event ID"
// @Success      200  {array}   domain.Notification
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /events/{id}/notifications [get]
func (h *EventHandler) Notifications(c echo.Context) error {
	list, err := h.notifications.FetchByEventID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// MarkNotificationRead handles PATCH /notifications/:id/read.
//
// @Summary      Mark a notification as read
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /notifications/{id}/read [patch]
func (h *EventHandler) MarkNotificationRead(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.Request().Context(), c.Param("id"), p); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
