package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkorobov/roomcast-server/internal/store"
)

// RoleHandlers provides HTTP handlers for role management.
type RoleHandlers struct {
	store store.RoleStore
	log   *zerolog.Logger
}

// NewRoleHandlers creates a new role handlers instance.
func NewRoleHandlers(st store.RoleStore, logger *zerolog.Logger) *RoleHandlers {
	return &RoleHandlers{
		store: st,
		log:   logger,
	}
}

// CreateRoleRequest represents the create role request body.
type CreateRoleRequest struct {
	Name string `json:"name" binding:"required,min=1,max=32"`
}

// CreateRole creates a new role.
// POST /roles
func (h *RoleHandlers) CreateRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create role request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	role, err := h.store.CreateRole(c.Request.Context(), req.Name)
	if err != nil {
		h.log.Error().Err(err).Str("role", req.Name).Msg("failed to create role")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not create role"})
		return
	}

	c.JSON(http.StatusCreated, role)
}

// ListRoles lists all roles.
// GET /roles
func (h *RoleHandlers) ListRoles(c *gin.Context) {
	roles, err := h.store.ListRoles(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list roles")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, roles)
}

// AssignRole grants a role to a user.
// POST /users/:userId/roles/:roleId
func (h *RoleHandlers) AssignRole(c *gin.Context) {
	userID, roleID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	if err := h.store.AssignRole(c.Request.Context(), userID, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user or role not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Int64("role_id", roleID).Msg("failed to assign role")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetSoleRole revokes the user's roles and grants only the given one. The
// swap is transactional, so the user never ends up role-less.
// PUT /users/:userId/roles/:roleId
func (h *RoleHandlers) SetSoleRole(c *gin.Context) {
	userID, roleID, ok := h.pathIDs(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	roles, err := h.store.ListRoles(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list roles")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	var roleName string
	for _, r := range roles {
		if r.ID == roleID {
			roleName = r.Name
			break
		}
	}
	if roleName == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "role not found"})
		return
	}

	if err := h.store.ReplaceRoles(ctx, userID, roleName); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user or role not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Int64("role_id", roleID).Msg("failed to replace roles")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveRole revokes a role from a user.
// DELETE /users/:userId/roles/:roleId
func (h *RoleHandlers) RemoveRole(c *gin.Context) {
	userID, roleID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	if err := h.store.RemoveRole(c.Request.Context(), userID, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "role assignment not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Int64("role_id", roleID).Msg("failed to remove role")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListUserRoles lists the roles assigned to one user.
// GET /users/:userId/roles
func (h *RoleHandlers) ListUserRoles(c *gin.Context) {
	userID := c.Param("userId")

	roles, err := h.store.ListUserRoles(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to list user roles")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, roles)
}

func (h *RoleHandlers) pathIDs(c *gin.Context) (string, int64, bool) {
	userID := c.Param("userId")
	roleID, err := strconv.ParseInt(c.Param("roleId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid role id"})
		return "", 0, false
	}
	return userID, roleID, true
}
