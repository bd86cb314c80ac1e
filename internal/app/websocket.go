package app

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/tinytelemetry/msglog/internal/model"
)

// WebSocket commands accepted in the "command" field of a text frame.
const (
	CommandGetStatus    = "get_status"
	CommandGetHistory   = "get_history"
	CommandClearHistory = "clear_history"
	CommandLogMessage   = "log_message"
)

// HandleWebSocket demultiplexes one frame from client id. Frames that are
// not UTF-8 JSON objects with a string command, and log_message frames
// without string message_type and content, are dropped without a reply.
// Unknown commands get an ErrorResponse and are not recorded.
func (s *Service) HandleWebSocket(id uint32, payload []byte) {
	if !utf8.Valid(payload) {
		return
	}
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(payload, &frame); err != nil {
		return
	}
	command, ok := stringField(frame, "command")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch command {
	case CommandGetStatus:
		s.record(model.NewEvent("WebSocket:GetStatus", model.ChannelWebsocket, model.WebsocketPushA, "Status requested"))
		s.commit()
		s.pushJSON(id, s.state.Status())

	case CommandGetHistory:
		s.record(model.NewEvent("WebSocket:GetHistory", model.ChannelWebsocket, model.WebsocketPushA, "History requested"))
		s.commit()
		s.pushJSON(id, s.state.HistoryCopy())

	case CommandClearHistory:
		s.clear(model.NewEvent("WebSocket:Clear", model.ChannelWebsocket, model.WebsocketPushA, "History cleared"))
		s.commit()
		s.pushJSON(id, model.SuccessResponse{Success: true, Message: "History cleared successfully"})

	case CommandLogMessage:
		msgType, ok := stringField(frame, "message_type")
		if !ok {
			return
		}
		content, ok := stringField(frame, "content")
		if !ok {
			return
		}
		s.record(model.NewEvent("WebSocket:Custom", model.ChannelWebsocket, model.WebsocketPushB,
			fmt.Sprintf("Type: %s, Content: %s", msgType, content)))
		s.commit()
		s.pushJSON(id, model.SuccessResponse{Success: true, Message: "Custom message logged successfully"})

	default:
		s.pushJSON(id, unknownCommand(command))
	}
}

func unknownCommand(command string) model.ErrorResponse {
	return model.ErrorResponse{
		Success: false,
		Code:    400,
		Message: "Unknown command: " + command,
	}
}

func stringField(frame map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := frame[key]
	if !ok || len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}
