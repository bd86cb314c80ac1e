package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytelemetry/msglog/internal/ledger"
	"github.com/tinytelemetry/msglog/internal/metrics"
	"github.com/tinytelemetry/msglog/internal/model"
)

type pushed struct {
	id      uint32
	payload string
}

type fakePusher struct {
	mu     sync.Mutex
	pushes []pushed
	full   bool
}

func (p *fakePusher) Push(id uint32, payload []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.full {
		return false
	}
	p.pushes = append(p.pushes, pushed{id: id, payload: string(payload)})
	return true
}

func (p *fakePusher) all() []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushed(nil), p.pushes...)
}

type fakePersister struct {
	saves   int
	lastLen int
	err     error
}

func (p *fakePersister) Save(st *ledger.State) error {
	p.saves++
	p.lastLen = len(st.History)
	return p.err
}

func newTestService(t *testing.T, cfg model.AppConfig) (*Service, *fakePusher, *fakePersister) {
	t.Helper()
	st := ledger.New(cfg)
	st.SetClock(func() (time.Time, error) { return time.Unix(1_700_000_000, 0), nil })
	persist := &fakePersister{}
	svc := New(st, persist)
	pusher := &fakePusher{}
	svc.SetPusher(pusher)
	svc.Initialize()
	return svc, pusher, persist
}

func history(t *testing.T, svc *Service) []model.LogEntry {
	t.Helper()
	var out []model.LogEntry
	svc.Inspect(func(st *ledger.State) { out = st.HistoryCopy().Entries })
	return out
}

func last(t *testing.T, svc *Service) model.LogEntry {
	t.Helper()
	h := history(t, svc)
	require.NotEmpty(t, h)
	return h[len(h)-1]
}

func TestInitializeLogsStartup(t *testing.T) {
	svc, _, persist := newTestService(t, model.DefaultAppConfig())

	h := history(t, svc)
	require.Len(t, h, 1)
	assert.Equal(t, `Other("Initialization")`, h[0].TypeName)
	assert.Equal(t, 1, persist.saves)
}

func TestGetStatusRecordsRequestFirst(t *testing.T) {
	svc, _, persist := newTestService(t, model.DefaultAppConfig())

	status := svc.GetStatus()

	assert.Equal(t, uint64(2), status.MessageCount, "status includes its own request entry")
	assert.Equal(t, []model.ChannelStat{
		{Channel: "Internal", Count: 1},
		{Channel: "HttpApi", Count: 1},
	}, status.ChannelStats)
	e := last(t, svc)
	assert.Equal(t, "HTTP:GET", e.Source)
	assert.Equal(t, "HttpGet", e.TypeName)
	assert.Equal(t, "Status request", *e.Content)
	assert.Equal(t, 2, persist.saves)
}

func TestGetHistory(t *testing.T) {
	svc, _, _ := newTestService(t, model.DefaultAppConfig())

	resp := svc.GetHistory()
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "History request", *resp.Entries[1].Content)
}

func TestClearHistoryLeavesOnlyClearEvent(t *testing.T) {
	svc, _, persist := newTestService(t, model.DefaultAppConfig())
	svc.GetStatus()
	svc.LogCustomMessage("note", "hello")
	before := testutil.ToFloat64(metrics.HistoryClears)

	resp := svc.ClearHistory()

	assert.Equal(t, model.SuccessResponse{Success: true, Message: "History cleared successfully"}, resp)
	h := history(t, svc)
	require.Len(t, h, 1)
	assert.Equal(t, "HTTP:POST", h[0].Source)
	assert.Equal(t, "HttpPost", h[0].TypeName)
	assert.Equal(t, 1, persist.lastLen)

	var stats []model.ChannelStat
	svc.Inspect(func(st *ledger.State) { stats = st.Status().ChannelStats })
	assert.Equal(t, []model.ChannelStat{{Channel: "HttpApi", Count: 1}}, stats)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HistoryClears))
}

func TestLogCustomMessage(t *testing.T) {
	svc, _, _ := newTestService(t, model.DefaultAppConfig())

	resp := svc.LogCustomMessage("deploy", "v1.2.3")

	assert.True(t, resp.Success)
	assert.Equal(t, "Custom message logged successfully", resp.Message)
	e := last(t, svc)
	assert.Equal(t, "HTTP:Custom", e.Source)
	assert.Equal(t, `Other("deploy")`, e.TypeName)
	assert.Equal(t, "v1.2.3", *e.Content)
}

func TestExternalCalls(t *testing.T) {
	svc, _, _ := newTestService(t, model.DefaultAppConfig())

	status := svc.ExternalGetStatus()
	assert.Equal(t, uint64(2), status.MessageCount)
	assert.Equal(t, "External:GetStatus", last(t, svc).Source)
	assert.Equal(t, "ResponseReceived", last(t, svc).TypeName)

	h := svc.ExternalGetHistory()
	assert.Len(t, h.Entries, 3)

	resp := svc.LogExternalMessage("node-a:42", "alert", "disk full")
	assert.Equal(t, "Message logged successfully", resp.Message)
	e := last(t, svc)
	assert.Equal(t, "External:node-a:42", e.Source)
	assert.Equal(t, "External", e.Channel)
	assert.Equal(t, `Other("alert")`, e.TypeName)

	svc.LogLocalMessage("note", "same process")
	assert.Equal(t, "External:local", last(t, svc).Source)

	clr := svc.ExternalClearHistory()
	assert.True(t, clr.Success)
	h2 := history(t, svc)
	require.Len(t, h2, 1)
	assert.Equal(t, "History cleared externally", *h2[0].Content)
}

func TestRedactionHonoredByHandlers(t *testing.T) {
	svc, _, _ := newTestService(t, model.AppConfig{MaxHistory: 10, LogContent: false})
	svc.LogCustomMessage("secret", "password")

	for _, e := range history(t, svc) {
		assert.Nil(t, e.Content)
	}
}

func TestTimerPushesIdenticalStatusToAllClients(t *testing.T) {
	svc, pusher, _ := newTestService(t, model.DefaultAppConfig())
	svc.ClientConnected(1, "/")
	svc.ClientConnected(2, "/")

	svc.HandleTimer()

	got := pusher.all()
	require.Len(t, got, 2)
	assert.Equal(t, uint32(1), got[0].id)
	assert.Equal(t, uint32(2), got[1].id)
	assert.Equal(t, got[0].payload, got[1].payload)

	var status model.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(got[0].payload), &status))
	assert.Equal(t, uint64(2), status.ClientCount)
	assert.Equal(t, "TimerTick", last(t, svc).TypeName)
}

func TestTimerWithoutClientsPushesNothing(t *testing.T) {
	svc, pusher, _ := newTestService(t, model.DefaultAppConfig())
	svc.HandleTimer()
	assert.Empty(t, pusher.all())
	assert.Equal(t, "Timer", last(t, svc).Source)
}

func TestClientLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t, model.DefaultAppConfig())

	svc.ClientConnected(5, "/")
	assert.Equal(t, "WebsocketOpen", last(t, svc).TypeName)
	var count uint64
	svc.Inspect(func(st *ledger.State) { count = st.Status().ClientCount })
	assert.Equal(t, uint64(1), count)

	svc.ClientDisconnected(5)
	assert.Equal(t, "WebsocketClose", last(t, svc).TypeName)
	svc.Inspect(func(st *ledger.State) { count = st.Status().ClientCount })
	assert.Equal(t, uint64(0), count)
}

func TestSnapshotFailureIsNotFatal(t *testing.T) {
	svc, _, persist := newTestService(t, model.DefaultAppConfig())
	persist.err = errors.New("disk gone")
	before := testutil.ToFloat64(metrics.SnapshotFailures)

	resp := svc.LogCustomMessage("a", "b")

	assert.True(t, resp.Success)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SnapshotFailures))
}

func TestDroppedPushCounted(t *testing.T) {
	svc, pusher, _ := newTestService(t, model.DefaultAppConfig())
	svc.ClientConnected(1, "/")
	pusher.full = true
	before := testutil.ToFloat64(metrics.PushesTotal.WithLabelValues("dropped"))

	svc.HandleTimer()

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PushesTotal.WithLabelValues("dropped")))
}

func TestNilPersisterAndPusher(t *testing.T) {
	svc := New(ledger.New(model.DefaultAppConfig()), nil)
	svc.Initialize()
	svc.ClientConnected(1, "/")
	svc.HandleTimer()
	svc.HandleWebSocket(1, []byte(`{"command":"get_status"}`))
	assert.Len(t, history(t, svc), 4)
}
