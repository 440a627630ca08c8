// Command ws_chat is a manual probe for the WebSocket endpoint. It
// authenticates, joins a room, prints everything the server sends, and
// acknowledges chat message deliveries automatically.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mkorobov/roomcast-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	user := flag.String("user", "", "user id to authenticate as")
	room := flag.String("room", "general", "room to join")
	noAck := flag.Bool("no-ack", false, "do not acknowledge deliveries (to watch retries)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, data any) error {
		payload, marshalErr := json.Marshal(data)
		if marshalErr != nil {
			return fmt.Errorf("marshal %s: %w", msgType, marshalErr)
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); writeErr != nil {
			return fmt.Errorf("send %s: %w", msgType, writeErr)
		}
		return nil
	}

	if *user != "" {
		if err := send(proto.InboundTypeAuthenticate, proto.AuthenticateData{UserID: *user}); err != nil {
			return err
		}
	}
	if err := send(proto.InboundTypeJoin, proto.RoomData{Room: *room}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s, room %s. Ctrl+C to exit.\n", *addr, *room)

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		switch {
		case outbound.Error != nil:
			fmt.Printf("error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
		case outbound.Event == "chat message":
			var chat proto.ChatMessageData
			if err := json.Unmarshal(outbound.Data, &chat); err != nil {
				fmt.Printf("chat message (unparsed): %s\n", string(outbound.Data))
				continue
			}
			fmt.Printf("[%s] %s: %s\n", chat.Message.RoomID, chat.Message.User.Name, chat.Message.Content)
			if !*noAck {
				if err := send(proto.InboundTypeAck, proto.AckData{DeliveryID: chat.DeliveryID}); err != nil {
					return err
				}
			}
		case outbound.Event == "user-connection-update":
			fmt.Printf("connected users: %s\n", string(outbound.Data))
		default:
			fmt.Printf("%s: %s\n", outbound.Type, string(outbound.Data))
		}
	}
}
