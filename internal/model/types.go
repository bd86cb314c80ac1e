package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ChannelKind classifies the transport an event arrived on.
type ChannelKind uint8

const (
	ChannelWebsocket ChannelKind = iota
	ChannelHttpApi
	ChannelInternal
	ChannelExternal
	ChannelTimer
	ChannelTerminal
)

var channelNames = [...]string{
	ChannelWebsocket: "Websocket",
	ChannelHttpApi:   "HttpApi",
	ChannelInternal:  "Internal",
	ChannelExternal:  "External",
	ChannelTimer:     "Timer",
	ChannelTerminal:  "Terminal",
}

// Channels lists every channel kind in declaration order.
func Channels() []ChannelKind {
	return []ChannelKind{
		ChannelWebsocket, ChannelHttpApi, ChannelInternal,
		ChannelExternal, ChannelTimer, ChannelTerminal,
	}
}

// String returns the display name stored in log entries and channel stats.
func (c ChannelKind) String() string {
	if int(c) < len(channelNames) {
		return channelNames[c]
	}
	return fmt.Sprintf("ChannelKind(%d)", uint8(c))
}

// ParseChannel resolves a display name back to its ChannelKind.
func ParseChannel(name string) (ChannelKind, error) {
	for i, n := range channelNames {
		if n == name {
			return ChannelKind(i), nil
		}
	}
	return 0, fmt.Errorf("model: unknown channel %q", name)
}

func (c ChannelKind) MarshalJSON() ([]byte, error) {
	if int(c) >= len(channelNames) {
		return nil, fmt.Errorf("model: invalid channel %d", uint8(c))
	}
	return json.Marshal(c.String())
}

func (c *ChannelKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("model: channel: %w", err)
	}
	parsed, err := ParseChannel(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type eventKind uint8

const (
	kindWebsocketOpen eventKind = iota
	kindWebsocketClose
	kindWebsocketPushA
	kindWebsocketPushB
	kindHttpGet
	kindHttpPost
	kindTimerTick
	kindLocalRequest
	kindRemoteRequest
	kindResponseReceived
	kindTerminalCommand
	kindOther
)

var eventKindNames = [...]string{
	kindWebsocketOpen:    "WebsocketOpen",
	kindWebsocketClose:   "WebsocketClose",
	kindWebsocketPushA:   "WebsocketPushA",
	kindWebsocketPushB:   "WebsocketPushB",
	kindHttpGet:          "HttpGet",
	kindHttpPost:         "HttpPost",
	kindTimerTick:        "TimerTick",
	kindLocalRequest:     "LocalRequest",
	kindRemoteRequest:    "RemoteRequest",
	kindResponseReceived: "ResponseReceived",
	kindTerminalCommand:  "TerminalCommand",
	kindOther:            "Other",
}

// EventType names what happened. All variants are fixed except Other,
// which carries a caller-supplied tag.
type EventType struct {
	kind  eventKind
	other string
}

var (
	WebsocketOpen    = EventType{kind: kindWebsocketOpen}
	WebsocketClose   = EventType{kind: kindWebsocketClose}
	WebsocketPushA   = EventType{kind: kindWebsocketPushA}
	WebsocketPushB   = EventType{kind: kindWebsocketPushB}
	HttpGet          = EventType{kind: kindHttpGet}
	HttpPost         = EventType{kind: kindHttpPost}
	TimerTick        = EventType{kind: kindTimerTick}
	LocalRequest     = EventType{kind: kindLocalRequest}
	RemoteRequest    = EventType{kind: kindRemoteRequest}
	ResponseReceived = EventType{kind: kindResponseReceived}
	TerminalCommand  = EventType{kind: kindTerminalCommand}
)

// Other builds the open variant carrying name.
func Other(name string) EventType {
	return EventType{kind: kindOther, other: name}
}

// String renders the type as stored in LogEntry.TypeName. The open variant
// renders as Other("tag").
func (t EventType) String() string {
	if t.kind == kindOther {
		return "Other(" + quoteTag(t.other) + ")"
	}
	return eventKindNames[t.kind]
}

// quoteTag double-quotes s the way persisted type names always have: the
// usual backslash escapes, \u{hex} for non-graphic runes and combining marks,
// everything else (non-ASCII spaces included) written raw.
func quoteTag(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if !unicode.IsGraphic(r) || unicode.In(r, unicode.Mn, unicode.Me) {
				b.WriteString(`\u{`)
				b.WriteString(strconv.FormatInt(int64(r), 16))
				b.WriteByte('}')
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Event is one inbound occurrence to be recorded. It is built per call and
// never retained; the ledger keeps a LogEntry instead.
type Event struct {
	Source  string
	Channel ChannelKind
	Type    EventType
	Content *string
}

// NewEvent builds an Event with content set.
func NewEvent(source string, channel ChannelKind, typ EventType, content string) Event {
	return Event{Source: source, Channel: channel, Type: typ, Content: &content}
}

// LogEntry is an immutable ledger record. Content is nil when content
// logging was disabled at the time the entry was written.
type LogEntry struct {
	Source    string  `json:"source"`
	Channel   string  `json:"channel"`
	TypeName  string  `json:"type_name"`
	Content   *string `json:"content"`
	Timestamp uint64  `json:"timestamp"`
}

// ChannelStat is one (channel name, count) pair. It encodes as a two
// element JSON array.
type ChannelStat struct {
	Channel string
	Count   uint64
}

func (s ChannelStat) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Channel, s.Count})
}

func (s *ChannelStat) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("model: channel stat: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("model: channel stat: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.Channel); err != nil {
		return fmt.Errorf("model: channel stat name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.Count); err != nil {
		return fmt.Errorf("model: channel stat count: %w", err)
	}
	return nil
}

// StatusResponse summarizes the ledger at a point in time.
type StatusResponse struct {
	ClientCount  uint64        `json:"client_count"`
	MessageCount uint64        `json:"message_count"`
	ChannelStats []ChannelStat `json:"channel_stats"`
}

// HistoryResponse carries the full retained ledger, oldest first.
type HistoryResponse struct {
	Entries []LogEntry `json:"entries"`
}

// SuccessResponse acknowledges a mutating call.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse reports a rejected WebSocket command.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AppConfig is the process-wide ledger configuration, loaded once at start.
type AppConfig struct {
	MaxHistory int  `json:"max_history"`
	LogContent bool `json:"log_content"`
}

// DefaultAppConfig returns the default ledger configuration.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		MaxHistory: DefaultMaxHistory,
		LogContent: true,
	}
}
