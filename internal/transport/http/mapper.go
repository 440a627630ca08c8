package http

import (
	"encoding/json"
	"time"

	"github.com/mkorobov/roomcast-server/internal/core"
	"github.com/mkorobov/roomcast-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeAuthenticate:
		var auth proto.AuthenticateData
		if err := json.Unmarshal(inbound.Data, &auth); err != nil {
			return nil, nil, err
		}
		if auth.UserID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "user_id is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandAuthenticate,
			UserID: auth.UserID,
		}, nil, nil
	case proto.InboundTypeJoin, proto.InboundTypeLeave:
		var room proto.RoomData
		if err := json.Unmarshal(inbound.Data, &room); err != nil {
			return nil, nil, err
		}
		if room.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		kind := core.CommandJoinRoom
		if inbound.Type == proto.InboundTypeLeave {
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, Room: room.Room}, nil, nil
	case proto.InboundTypeAck:
		var ack proto.AckData
		if err := json.Unmarshal(inbound.Data, &ack); err != nil {
			return nil, nil, err
		}
		if ack.DeliveryID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "delivery_id is required"}, nil
		}
		return &core.Command{Kind: core.CommandAck, DeliveryID: ack.DeliveryID}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventChatMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: core.EventNameChatMessage,
			Data: proto.ChatMessageData{
				DeliveryID: event.DeliveryID,
				Message:    messagePayload(event.Message),
			},
		}
	case core.EventPresence:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: core.EventNamePresence,
			Data:  event.ConnectedUsers,
		}
	case core.EventJoinAck, core.EventLeaveAck:
		return proto.Outbound{
			Type: proto.OutboundTypeAck,
			Data: proto.EventResponse{Status: event.Status},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func messagePayload(msg *core.Message) proto.MessagePayload {
	if msg == nil {
		return proto.MessagePayload{}
	}
	return proto.MessagePayload{
		ID:      msg.ID,
		Content: msg.Content,
		Created: msg.Created.Format(time.RFC3339),
		RoomID:  msg.RoomID,
		User: proto.UserPayload{
			ID:    msg.User.ID,
			Name:  msg.User.Name,
			Email: msg.User.Email,
			Roles: msg.User.Roles,
		},
	}
}
