package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkorobov/roomcast-server/internal/core"
	"github.com/mkorobov/roomcast-server/internal/store"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageHandlers provides HTTP handlers for the message pipeline.
type MessageHandlers struct {
	pipeline *core.Pipeline
	store    store.MessageStore
	log      *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(pipeline *core.Pipeline, st store.MessageStore, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		pipeline: pipeline,
		store:    st,
		log:      logger,
	}
}

// PostMessage persists a message and broadcasts it to the room channel.
// The response reports persistence only; a failed broadcast is logged by the
// pipeline and never turns a stored message into an HTTP error.
// POST /messages
func (h *MessageHandlers) PostMessage(c *gin.Context) {
	var input store.MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.log.Debug().Err(err).Msg("invalid message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.pipeline.Submit(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMessage) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Error().Err(err).Str("room_id", input.RoomID).Msg("failed to persist message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetRoomMessages lists a room's messages in insertion order.
// GET /rooms/:roomId/messages
func (h *MessageHandlers) GetRoomMessages(c *gin.Context) {
	roomID := c.Param("roomId")

	messages, err := h.store.ListMessages(c.Request.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messages)
}
