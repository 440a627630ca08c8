package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkorobov/roomcast-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=64"`
	Owner string `json:"owner" binding:"required"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Owner       string `json:"owner"`
	MemberCount *int   `json:"memberCount,omitempty"`
}

// MemberRequest carries the user to add to a room.
type MemberRequest struct {
	ID string `json:"id" binding:"required"`
}

// CreateRoom creates a room owned by the given user, who becomes its first
// member.
// POST /room
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.store.CreateRoom(c.Request.Context(), req.Name, req.Owner)
	if err != nil {
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not create room"})
		return
	}

	h.log.Info().Str("room_id", room.ID).Str("room_name", room.Name).Msg("room created")
	c.JSON(http.StatusOK, RoomResponse{ID: room.ID, Name: room.Name, Owner: room.OwnerID})
}

// ListRooms lists all rooms with member counts.
// GET /rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		count := room.MemberCount
		response = append(response, RoomResponse{
			ID:          room.ID,
			Name:        room.Name,
			Owner:       room.OwnerID,
			MemberCount: &count,
		})
	}
	c.JSON(http.StatusOK, response)
}

// GetRoom retrieves one room.
// GET /rooms/:roomId
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")

	room, err := h.store.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, RoomResponse{ID: room.ID, Name: room.Name, Owner: room.OwnerID})
}

// AddMember adds a user to a room's persisted membership.
// POST /rooms/:roomId/members
func (h *RoomHandlers) AddMember(c *gin.Context) {
	roomID := c.Param("roomId")

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid add member request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.AddMember(c.Request.Context(), roomID, req.ID); err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Str("user_id", req.ID).Msg("failed to add member")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not add member to room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListMembers lists the user IDs of a room's persisted members.
// GET /rooms/:roomId/members
func (h *RoomHandlers) ListMembers(c *gin.Context) {
	roomID := c.Param("roomId")

	members, err := h.store.ListMembers(c.Request.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to list members")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if members == nil {
		members = []string{}
	}

	c.JSON(http.StatusOK, members)
}

// RemoveMember removes a user from a room's persisted membership.
// DELETE /rooms/:roomId/members/:userId
func (h *RoomHandlers) RemoveMember(c *gin.Context) {
	roomID := c.Param("roomId")
	userID := c.Param("userId")

	if err := h.store.RemoveMember(c.Request.Context(), roomID, userID); err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Str("user_id", userID).Msg("failed to remove member")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not remove member from room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
