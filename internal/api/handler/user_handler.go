package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/core/ports"
)

// UserHandler serves the authenticated user's own resources.
type UserHandler struct {
	users         ports.UserService
	events        ports.EventService
	notifications ports.NotificationService
	auth          ports.AuthService
}

func NewUserHandler(users ports.UserService, events ports.EventService, notifications ports.NotificationService, auth ports.AuthService) *UserHandler {
	return &UserHandler{users: users, events: events, notifications: notifications, auth: auth}
}

// Dashboard returns the caller's name and granted authorities.
//
// @Summary      Dashboard
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  errorResponse
// @Router       /dashboard [get]
func (h *UserHandler) Dashboard(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	isAdmin, err := h.users.IsAdmin(c.Request().Context(), p)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dashboardResponse{
		Username:    p.Username,
		Authorities: p.Authorities,
		IsAdmin:     isAdmin,
	})
}

// Me returns the caller's profile.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.UserView
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	view, err := h.users.FetchUser(c.Request().Context(), p.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateMe overwrites the caller's username and password. The password is
// stored as sent.
//
// @Summary      Update current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.users.UpdateUser(c.Request().Context(), ports.UpdateUserInput{
		Username: req.Username,
		Email:    p.Email,
		Password: req.Password,
	}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "profile updated"})
}

// DeleteMe removes the caller's account and revokes the current token.
//
// @Summary      Delete current user
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/me [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.users.DeleteUser(ctx, p.Email); err != nil {
		return err
	}

	tokenID, expiresAt := ctxToken(c)
	if err := h.auth.Logout(ctx, tokenID, expiresAt); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MyEvents lists events the caller participates in, soonest first.
//
// @Summary      Events I participate in
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   eventResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/me/events [get]
func (h *UserHandler) MyEvents(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	events, err := h.events.FindEventsByUserIDSortedByDate(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponses(events))
}

// MyOrganizedEvents lists events the caller organizes with participant counts.
//
// @Summary      Events I organize
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   organizedEventResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/me/events/organized [get]
func (h *UserHandler) MyOrganizedEvents(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	counts, err := h.events.FindEventsWithParticipantCountByOrganizerID(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}

	out := make([]organizedEventResponse, 0, len(counts))
	for _, ec := range counts {
		out = append(out, organizedEventResponse{Event: toEventResponse(ec.Event), Participants: ec.Participants})
	}
	return c.JSON(http.StatusOK, out)
}

// MyNotifications lists notifications authored by the caller.
//
// @Summary      Notifications I posted
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Notification
// @Failure      401  {object}  errorResponse
// @Router       /users/me/notifications [get]
func (h *UserHandler) MyNotifications(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	list, err := h.notifications.FetchByUserID(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// MyUnreadCounts returns per-event unread notification counts for events the
// caller participates in.
//
// @Summary      Unread notification counts
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.EventUnreadCount
// @Failure      401  {object}  errorResponse
// @Router       /users/me/notifications/unread-counts [get]
func (h *UserHandler) MyUnreadCounts(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	counts, err := h.notifications.FindEventIDsWithUnreadNotificationCounts(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}
