package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func sampleRecord() Record {
	return Record{
		ID:              "0b6f1c2e-6a43-4a57-9d55-8c1d2a3f4b5c",
		FirstName:       "Anna",
		PSNumber:        "PS123",
		TotalScore:      150,
		Percentage:      75,
		PlayTimeSeconds: 84,
		Passed:          true,
		CompletedAt:     "2026-03-01T10:00:00Z",
	}
}

func TestRecordJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "first_name", "ps_number", "total_score", "percentage", "play_time_seconds", "passed", "completed_at"} {
		if _, ok := m[key]; !ok {
			t.Errorf("Expected field %q in %s", key, data)
		}
	}
	if len(m) != 8 {
		t.Errorf("Expected 8 fields, got %d", len(m))
	}
}

func TestRESTStoreSave(t *testing.T) {
	var got Record
	var headers http.Header
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		headers = r.Header.Clone()
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Bad body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	st := NewRESTStore(srv.URL+"/", "secret", "", srv.Client())
	if err := st.Save(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if path != "/rest/v1/game_results" {
		t.Errorf("Expected default table path, got %s", path)
	}
	if headers.Get("apikey") != "secret" {
		t.Errorf("Expected apikey header, got %q", headers.Get("apikey"))
	}
	if headers.Get("Authorization") != "Bearer secret" {
		t.Errorf("Expected bearer token, got %q", headers.Get("Authorization"))
	}
	if headers.Get("Prefer") != "return=minimal" {
		t.Errorf("Expected Prefer header, got %q", headers.Get("Prefer"))
	}
	if got != sampleRecord() {
		t.Errorf("Expected %+v, got %+v", sampleRecord(), got)
	}
}

func TestRESTStoreRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	st := NewRESTStore(srv.URL, "", "results", srv.Client())
	err := st.Save(context.Background(), sampleRecord())
	if err == nil {
		t.Fatal("Expected error for 401")
	}
}

func TestFileStoreAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	st := NewFileStore(path, FileOptions{})

	first := sampleRecord()
	second := sampleRecord()
	second.FirstName = "Ben"
	second.Passed = false
	for _, rec := range []Record{first, second} {
		if err := st.Save(context.Background(), rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("Bad line %q: %v", sc.Text(), err)
		}
		lines = append(lines, rec)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[1].FirstName != "Ben" || lines[1].Passed {
		t.Errorf("Unexpected second line %+v", lines[1])
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{"default", Options{}, "store.Discard", false},
		{"none", Options{Driver: "none"}, "store.Discard", false},
		{"file", Options{Driver: "file", Path: filepath.Join(t.TempDir(), "r.jsonl")}, "*store.FileStore", false},
		{"file without path", Options{Driver: "file"}, "", true},
		{"rest", Options{Driver: "REST", URL: "http://localhost:54321"}, "*store.RESTStore", false},
		{"rest without url", Options{Driver: "rest"}, "", true},
		{"unknown", Options{Driver: "mongo"}, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, err := Open(tc.opts)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %T", st)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if got := typeName(st); got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}

	if _, err := Open(Options{Driver: "mongo"}); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Expected ErrUnknownDriver, got %v", err)
	}
}

func typeName(st Store) string {
	switch st.(type) {
	case Discard:
		return "store.Discard"
	case *FileStore:
		return "*store.FileStore"
	case *RESTStore:
		return "*store.RESTStore"
	default:
		return "other"
	}
}

type memStore struct {
	mu    sync.Mutex
	saved []Record
	err   error
	delay time.Duration
}

func (m *memStore) Save(ctx context.Context, rec Record) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, rec)
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestRecorderSavesInBackground(t *testing.T) {
	mem := &memStore{delay: 200 * time.Millisecond}
	rec := NewRecorder(mem, time.Second, quietLogger())

	start := time.Now()
	rec.Submit(sampleRecord())
	rec.Submit(sampleRecord())
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Submit blocked on the store")
	}

	if err := rec.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if len(mem.saved) != 2 {
		t.Errorf("Expected 2 saved records, got %d", len(mem.saved))
	}
}

func TestRecorderSwallowsErrors(t *testing.T) {
	mem := &memStore{err: errors.New("boom")}
	rec := NewRecorder(mem, time.Second, quietLogger())
	rec.Submit(sampleRecord())
	if err := rec.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestRecorderWaitHonorsContext(t *testing.T) {
	mem := &memStore{delay: time.Second}
	rec := NewRecorder(mem, 5*time.Second, quietLogger())
	rec.Submit(sampleRecord())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := rec.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestRecorderDropsAfterWait(t *testing.T) {
	mem := &memStore{delay: 10 * time.Millisecond}
	rec := NewRecorder(mem, time.Second, quietLogger())
	rec.Submit(sampleRecord())

	// A late session finishing while the process shuts down
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				rec.Submit(sampleRecord())
				time.Sleep(time.Millisecond)
			}
		}
	}()

	time.Sleep(20 * time.Millisecond)
	if err := rec.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	mem.mu.Lock()
	saved := len(mem.saved)
	mem.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()

	mem.mu.Lock()
	defer mem.mu.Unlock()
	if len(mem.saved) != saved {
		t.Errorf("Expected %d saved records after Wait, got %d", saved, len(mem.saved))
	}
	if saved == 0 {
		t.Error("Expected records submitted before Wait to be saved")
	}
}
