// Package app binds the ledger to its transports. Every inbound call is
// recorded as an event, applied to the state under one lock, persisted,
// and optionally pushed to connected WebSocket clients.
package app

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/msglog/internal/ledger"
	"github.com/tinytelemetry/msglog/internal/metrics"
	"github.com/tinytelemetry/msglog/internal/model"
)

// LocalCaller is the caller name recorded for same-process calls.
const LocalCaller = "local"

// Persister stores a full copy of the state after each mutation.
type Persister interface {
	Save(st *ledger.State) error
}

// Service serializes all access to one ledger.State.
type Service struct {
	mu      sync.Mutex
	state   *ledger.State
	persist Persister
	pusher  model.Pusher
}

var (
	_ model.HTTPHandler      = (*Service)(nil)
	_ model.RemoteHandler    = (*Service)(nil)
	_ model.WebSocketHandler = (*Service)(nil)
)

// New wraps st. persist may be nil for an in-memory service.
func New(st *ledger.State, persist Persister) *Service {
	return &Service{state: st, persist: persist}
}

// SetPusher installs the push transport. Until set, pushes are skipped.
func (s *Service) SetPusher(p model.Pusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pusher = p
}

// Initialize records the startup entry and writes the first snapshot.
func (s *Service) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Init()
	metrics.EventsTotal.WithLabelValues(model.ChannelInternal.String()).Inc()
	s.commit()
	log.Printf("app: message log initialized (max-history=%d, log-content=%t)", s.state.Config.MaxHistory, s.state.Config.LogContent)
}

// Inspect runs fn with the state locked. fn must not mutate st.
func (s *Service) Inspect(fn func(st *ledger.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func (s *Service) GetStatus() model.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(model.NewEvent("HTTP:GET", model.ChannelHttpApi, model.HttpGet, "Status request"))
	resp := s.state.Status()
	s.commit()
	return resp
}

func (s *Service) GetHistory() model.HistoryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(model.NewEvent("HTTP:GET", model.ChannelHttpApi, model.HttpGet, "History request"))
	resp := s.state.HistoryCopy()
	s.commit()
	return resp
}

func (s *Service) ClearHistory() model.SuccessResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear(model.NewEvent("HTTP:POST", model.ChannelHttpApi, model.HttpPost, "History cleared"))
	s.commit()
	return model.SuccessResponse{Success: true, Message: "History cleared successfully"}
}

func (s *Service) LogCustomMessage(messageType, content string) model.SuccessResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(model.NewEvent("HTTP:Custom", model.ChannelHttpApi, model.Other(messageType), content))
	s.commit()
	return model.SuccessResponse{Success: true, Message: "Custom message logged successfully"}
}

func (s *Service) ExternalGetStatus() model.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(model.NewEvent("External:GetStatus", model.ChannelExternal, model.ResponseReceived, "Status requested externally"))
	resp := s.state.Status()
	s.commit()
	return resp
}

func (s *Service) ExternalGetHistory() model.HistoryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(model.NewEvent("External:GetHistory", model.ChannelExternal, model.ResponseReceived, "History requested externally"))
	resp := s.state.HistoryCopy()
	s.commit()
	return resp
}

func (s *Service) ExternalClearHistory() model.SuccessResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear(model.NewEvent("External:ClearHistory", model.ChannelExternal, model.ResponseReceived, "History cleared externally"))
	s.commit()
	return model.SuccessResponse{Success: true, Message: "History cleared successfully"}
}

// LogExternalMessage records a message sent by caller, another process.
func (s *Service) LogExternalMessage(caller, messageType, content string) model.SuccessResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(model.NewEvent("External:"+caller, model.ChannelExternal, model.Other(messageType), content))
	s.commit()
	return model.SuccessResponse{Success: true, Message: "Message logged successfully"}
}

// LogLocalMessage is the same-process form of LogExternalMessage.
func (s *Service) LogLocalMessage(messageType, content string) model.SuccessResponse {
	return s.LogExternalMessage(LocalCaller, messageType, content)
}

// HandleTimer records a tick and pushes the resulting status to every
// registered client.
func (s *Service) HandleTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(model.NewEvent("Timer", model.ChannelTimer, model.TimerTick, "Timer event received"))
	s.commit()

	ids := s.state.ClientIDs()
	if len(ids) == 0 {
		return
	}
	payload, err := json.Marshal(s.state.Status())
	if err != nil {
		log.Printf("app: marshal status: %v", err)
		return
	}
	for _, id := range ids {
		s.push(id, payload)
	}
}

// ClientConnected registers a WebSocket client.
func (s *Service) ClientConnected(id uint32, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AddClient(id, path)
	s.record(model.NewEvent("WebSocket:Open", model.ChannelWebsocket, model.WebsocketOpen,
		fmt.Sprintf("Client %d connected on %s", id, path)))
	s.commit()
}

// ClientDisconnected drops a WebSocket client.
func (s *Service) ClientDisconnected(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.RemoveClient(id)
	s.record(model.NewEvent("WebSocket:Close", model.ChannelWebsocket, model.WebsocketClose,
		fmt.Sprintf("Client %d disconnected", id)))
	s.commit()
}

// record dispatches ev to the ledger. Caller holds s.mu.
func (s *Service) record(ev model.Event) {
	s.state.LogEvent(ev)
	metrics.EventsTotal.WithLabelValues(ev.Channel.String()).Inc()
}

// clear empties the ledger and records ev as the first entry after it.
func (s *Service) clear(ev model.Event) {
	s.state.Clear()
	metrics.HistoryClears.Inc()
	s.record(ev)
}

// commit persists the state and refreshes gauges. Caller holds s.mu.
func (s *Service) commit() {
	metrics.HistorySize.Set(float64(len(s.state.History)))
	metrics.ConnectedClients.Set(float64(len(s.state.Clients)))

	if s.persist == nil {
		return
	}
	start := time.Now()
	err := s.persist.Save(s.state)
	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SnapshotFailures.Inc()
		log.Printf("app: snapshot failed: %v", err)
	}
}

// push hands payload to the push transport without waiting.
func (s *Service) push(id uint32, payload []byte) {
	if s.pusher == nil {
		return
	}
	if s.pusher.Push(id, payload) {
		metrics.PushesTotal.WithLabelValues("queued").Inc()
		return
	}
	metrics.PushesTotal.WithLabelValues("dropped").Inc()
	log.Printf("app: push to client %d dropped", id)
}

func (s *Service) pushJSON(id uint32, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("app: marshal push for client %d: %v", id, err)
		return
	}
	s.push(id, payload)
}
