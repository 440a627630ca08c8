package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkorobov/roomcast-server/internal/auth"
	"github.com/mkorobov/roomcast-server/internal/core"
	"github.com/mkorobov/roomcast-server/internal/store"
)

// AdminHandlers provides HTTP handlers for the admin endpoints. Routing puts
// all of them behind AdminMiddleware.
type AdminHandlers struct {
	store store.Store
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(st store.Store, hub *core.Hub, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// ListUsers lists all users with their roles.
// GET /admin/users
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// DeleteUser removes a user and everything they own.
// DELETE /admin/users/:userId
func (h *AdminHandlers) DeleteUser(c *gin.Context) {
	userID := c.Param("userId")

	if err := h.store.DeleteUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to delete user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("user_id", userID).Msg("user deleted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PromoteAdmin replaces the user's roles with the admin role.
// POST /admin/users/:userId/promoteadmin
func (h *AdminHandlers) PromoteAdmin(c *gin.Context) {
	h.replaceRoles(c, auth.RoleAdmin)
}

// DemoteAdmin replaces the user's roles with the regular user role.
// POST /admin/users/:userId/demoteadmin
func (h *AdminHandlers) DemoteAdmin(c *gin.Context) {
	h.replaceRoles(c, auth.RoleUser)
}

func (h *AdminHandlers) replaceRoles(c *gin.Context, roleName string) {
	userID := c.Param("userId")

	if err := h.store.ReplaceRoles(c.Request.Context(), userID, roleName); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user or role not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Str("role", roleName).Msg("failed to replace roles")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("user_id", userID).Str("role", roleName).Msg("roles replaced")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StatisticsResponse is the admin dashboard payload.
type StatisticsResponse struct {
	*store.Statistics
	ConnectedUsers int `json:"connectedUsers"`
}

// Statistics returns aggregate counts plus the live distinct-user count.
// GET /admin/statistics
func (h *AdminHandlers) Statistics(c *gin.Context) {
	stats, err := h.store.Statistics(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to compute statistics")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, StatisticsResponse{
		Statistics:     stats,
		ConnectedUsers: h.hub.ConnectedUsers(),
	})
}

// MonthlyUsers returns per-month registration counts.
// GET /admin/statistics/monthly-users
func (h *AdminHandlers) MonthlyUsers(c *gin.Context) {
	counts, err := h.store.MonthlyUserStats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to compute monthly user stats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, counts)
}
