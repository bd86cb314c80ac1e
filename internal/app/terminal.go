package app

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/tinytelemetry/msglog/internal/model"
)

// HandleTerminalCommand runs one operator command typed on the server's
// stdin and returns the JSON reply to print. Blank lines are ignored.
//
//	status                   current StatusResponse
//	history                  current HistoryResponse
//	clear                    clear history and counters
//	log <type> <content...>  record a custom message
func (s *Service) HandleTerminalCommand(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var reply any
	switch fields[0] {
	case "status":
		s.record(model.NewEvent("Terminal", model.ChannelTerminal, model.TerminalCommand, line))
		reply = s.state.Status()
	case "history":
		s.record(model.NewEvent("Terminal", model.ChannelTerminal, model.TerminalCommand, line))
		reply = s.state.HistoryCopy()
	case "clear":
		s.clear(model.NewEvent("Terminal", model.ChannelTerminal, model.TerminalCommand, "History cleared"))
		reply = model.SuccessResponse{Success: true, Message: "History cleared successfully"}
	case "log":
		if len(fields) < 3 {
			reply = model.ErrorResponse{Success: false, Code: 400, Message: "usage: log <type> <content>"}
			break
		}
		rest := strings.TrimSpace(strings.TrimSpace(line)[len(fields[0]):])
		content := strings.TrimSpace(rest[len(fields[1]):])
		s.record(model.NewEvent("Terminal", model.ChannelTerminal, model.Other(fields[1]), content))
		reply = model.SuccessResponse{Success: true, Message: "Custom message logged successfully"}
	default:
		s.record(model.NewEvent("Terminal", model.ChannelTerminal, model.TerminalCommand, line))
		reply = unknownCommand(fields[0])
	}
	s.commit()

	out, err := json.Marshal(reply)
	if err != nil {
		log.Printf("app: marshal terminal reply: %v", err)
		return "", false
	}
	return string(out), true
}
