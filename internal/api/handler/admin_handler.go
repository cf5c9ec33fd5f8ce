package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/api/metrics"
	"github.com/eventsphere/eventsphere/internal/core/ports"
)

// AdminHandler serves the ADMIN-only management routes. Role enforcement is
// done by middleware.RequireRole on the route group.
type AdminHandler struct {
	users         ports.UserService
	events        ports.EventService
	notifications ports.NotificationService
}

func NewAdminHandler(users ports.UserService, events ports.EventService, notifications ports.NotificationService) *AdminHandler {
	return &AdminHandler{users: users, events: events, notifications: notifications}
}

// ListEvents handles GET /admin/events.
//
// @Summary      List all events
// @Description  Ordered by name, descending.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   eventResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/events [get]
func (h *AdminHandler) ListEvents(c echo.Context) error {
	events, err := h.events.FetchAllSortedDesc(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponses(events))
}

// CreateEvent handles POST /admin/events. The admin becomes the organizer.
//
// @Summary      Create an event
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      eventRequest  true  "Event"
// @Success      201   {object}  eventResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/events [post]
func (h *AdminHandler) CreateEvent(c echo.Context) error {
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

// UpdateEvent handles PUT /admin/events/:id.
//
// @Summary      Update an event
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Event ID"
// @Param        body  body      eventRequest  true  "Event"
// @Success      200   {object}  eventResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/events/{id} [put]
func (h *AdminHandler) UpdateEvent(c echo.Context) error {
	var req eventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toEventInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	event, err := h.events.UpdateEvent(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(*event))
}

// DeleteEvent handles DELETE /admin/events/:id.
//
// @Summary      Delete an event
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Event ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /admin/events/{id} [delete]
func (h *AdminHandler) DeleteEvent(c echo.Context) error {
	if err := h.events.DeleteEvent(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListParticipants handles GET /admin/events/:id/participants.
//
// @Summary      List participants of an event
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event ID"
// @Success      200  {array}   participantResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/events/{id}/participants [get]
func (h *AdminHandler) ListParticipants(c echo.Context) error {
	users, err := h.events.FetchParticipants(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toParticipantResponses(users))
}

// AddParticipant handles POST /admin/events/:id/participants.
//
// @Summary      Add a participant by email
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Event ID"
// @Param        body  body      participantRequest  true  "Participant"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/events/{id}/participants [post]
func (h *AdminHandler) AddParticipant(c echo.Context) error {
	var req participantRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.events.AddParticipant(c.Request().Context(), c.Param("id"), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "participant added"})
}

// RemoveParticipant handles DELETE /admin/events/:id/participants/:email.
//
// @Summary      Remove a participant
// @Tags         admin
// @Security     BearerAuth
// @Param        id     path  string  true  "Event ID"
// @Param        email  path  string  true  "Participant email"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /admin/events/{id}/participants/{email} [delete]
func (h *AdminHandler) RemoveParticipant(c echo.Context) error {
	if err := h.events.RemoveParticipant(c.Request().Context(), c.Param("id"), c.Param("email")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListNotifications handles GET /admin/notifications.
//
// @Summary      List all notifications
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Notification
// @Failure      403  {object}  errorResponse
// @Router       /admin/notifications [get]
func (h *AdminHandler) ListNotifications(c echo.Context) error {
	list, err := h.notifications.FetchAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// CreateNotification handles POST /admin/notifications. Posting the same
// content for the same author and event again marks it unread.
//
// @Summary      Post a notification to an event
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      notificationRequest  true  "Notification"
// @Success      201   {object}  domain.Notification
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/notifications [post]
func (h *AdminHandler) CreateNotification(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req notificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	author := req.UserID
	if author == "" {
		author = p.UserID
	}

	n, err := h.notifications.CreateNotification(c.Request().Context(), ports.NotificationInput{
		Content: req.Content,
		UserID:  author,
		EventID: req.EventID,
	})
	if err != nil {
		return err
	}

	metrics.NotificationsPostedTotal.Inc()
	return c.JSON(http.StatusCreated, n)
}

// DeleteNotification handles DELETE /admin/notifications/:id.
//
// @Summary      Delete a notification
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Notification ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /admin/notifications/{id} [delete]
func (h *AdminHandler) DeleteNotification(c echo.Context) error {
	if err := h.notifications.DeleteNotification(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUser handles DELETE /admin/users/:email.
//
// @Summary      Delete a user
// @Tags         admin
// @Security     BearerAuth
// @Param        email  path  string  true  "User email"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /admin/users/{email} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.users.DeleteUser(c.Request().Context(), c.Param("email")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
