package cache

import (
	"context"
	"errors"
	"testing"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fetchOK(data string) Fetcher {
	return func(context.Context) ([]byte, error) { return []byte(data), nil }
}

func fetchErr(err error) Fetcher {
	return func(context.Context) ([]byte, error) { return nil, err }
}

func TestSetGetDelete(t *testing.T) {
	s := openMem(t)

	if _, ok, err := s.Get("missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}
	if err := s.Set(KeyEvalDetails, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(KeyEvalDetails)
	if err != nil || !ok || string(got) != `{"a":1}` {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}

	got[0] = 'X'
	again, _, _ := s.Get(KeyEvalDetails)
	if string(again) != `{"a":1}` {
		t.Errorf("caller mutation leaked into cache: %q", again)
	}

	if err := s.Delete(KeyEvalDetails); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(KeyEvalDetails); ok {
		t.Error("value survived Delete")
	}
}

func TestLoad(t *testing.T) {
	refreshErr := errors.New("backend down")

	tests := []struct {
		name      string
		seed      string
		fetch     Fetcher
		wantData  string
		wantStale bool
		wantErr   error
	}{
		{name: "fresh without cache", fetch: fetchOK("new"), wantData: "new"},
		{name: "fresh replaces cache", seed: "old", fetch: fetchOK("new"), wantData: "new"},
		{name: "stale on failure", seed: "old", fetch: fetchErr(refreshErr), wantData: "old", wantStale: true, wantErr: refreshErr},
		{name: "error without cache", fetch: fetchErr(refreshErr), wantErr: refreshErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openMem(t)
			if tt.seed != "" {
				if err := s.Set(KeyEDASamples, []byte(tt.seed)); err != nil {
					t.Fatalf("Set: %v", err)
				}
			}
			entry, err := s.Load(context.Background(), KeyEDASamples, tt.fetch)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if string(entry.Data) != tt.wantData || entry.Stale != tt.wantStale {
				t.Errorf("entry = {%q stale=%v}, want {%q stale=%v}", entry.Data, entry.Stale, tt.wantData, tt.wantStale)
			}
		})
	}
}

func TestLoadStoresFreshData(t *testing.T) {
	s := openMem(t)
	if _, err := s.Load(context.Background(), KeyEngineOverview, fetchOK("v1")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, err := s.Load(context.Background(), KeyEngineOverview, fetchErr(errors.New("offline")))
	if err == nil || !entry.Stale || string(entry.Data) != "v1" {
		t.Errorf("second Load = {%q stale=%v}, %v", entry.Data, entry.Stale, err)
	}
}

func TestClear(t *testing.T) {
	s := openMem(t)
	for _, k := range []string{KeyEvalDetails, KeyEDASamples} {
		if err := s.Set(k, []byte("x")); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range []string{KeyEvalDetails, KeyEDASamples} {
		if _, ok, _ := s.Get(k); ok {
			t.Errorf("%s survived Clear", k)
		}
	}
}

func TestPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(KeyAnalysisLog, []byte("[]")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, ok, err := s.Get(KeyAnalysisLog)
	if err != nil || !ok || string(got) != "[]" {
		t.Errorf("Get after reopen = %q, %v, %v", got, ok, err)
	}
}

func TestClosed(t *testing.T) {
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := s.Set("k", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close = %v", err)
	}
	if _, _, err := s.Get("k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close = %v", err)
	}
}
