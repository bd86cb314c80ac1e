package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tinytelemetry/msglog/internal/ledger"
	"github.com/tinytelemetry/msglog/internal/model"
)

func TestLoadMissingReportsAbsent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nested", "state.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	st, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok || st != nil {
		t.Fatalf("Load = %v, %v, want nil, false", st, ok)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	st := ledger.New(model.AppConfig{MaxHistory: 5, LogContent: true})
	st.Init()
	st.LogEvent(model.NewEvent("Timer", model.ChannelTimer, model.TimerTick, "tick"))
	st.AddClient(9, "/")

	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("tmp file left behind: %v", err)
	}

	loaded, ok, err := s.Load()
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if len(loaded.History) != 2 {
		t.Fatalf("history len = %d, want 2", len(loaded.History))
	}
	if loaded.History[1].TypeName != "TimerTick" {
		t.Errorf("type = %q, want TimerTick", loaded.History[1].TypeName)
	}
	if loaded.Count(model.ChannelTimer) != 1 || loaded.Count(model.ChannelInternal) != 1 {
		t.Errorf("counts = %+v", loaded.Counts)
	}
	if loaded.Config.MaxHistory != 5 {
		t.Errorf("max history = %d, want 5", loaded.Config.MaxHistory)
	}
	if ids := loaded.ClientIDs(); len(ids) != 1 || ids[0] != 9 {
		t.Errorf("clients = %v, want [9]", ids)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	st := ledger.New(model.DefaultAppConfig())
	st.Init()
	if err := s.Save(st); err != nil {
		t.Fatalf("Save 1: %v", err)
	}
	st.Clear()
	if err := s.Save(st); err != nil {
		t.Fatalf("Save 2: %v", err)
	}

	loaded, ok, err := s.Load()
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if len(loaded.History) != 0 || len(loaded.Counts) != 0 {
		t.Fatalf("loaded = %+v, want empty", loaded)
	}
}

func TestLoadCorruptAndQuarantine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"message_history":[`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, _, err = s.Load()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Load err = %v, want ErrCorrupt", err)
	}

	moved, err := s.Quarantine()
	if err != nil {
		t.Fatalf("Quarantine: %v", err)
	}
	if _, err := os.Stat(moved); err != nil {
		t.Fatalf("quarantined file missing: %v", err)
	}
	if _, ok, err := s.Load(); ok || err != nil {
		t.Fatalf("Load after quarantine = %v, %v, want false, nil", ok, err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
