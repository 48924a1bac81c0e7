package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"qrattend/internal/model"
	"qrattend/internal/queue"
)

var rec = model.AttendanceRecord{
	ID:          "student-001-abc",
	StudentID:   "student-001",
	StudentName: "Alice Johnson",
	RollNumber:  "CS001",
	Timestamp:   time.Date(2026, 10, 14, 7, 20, 0, 0, time.UTC),
	Date:        "2026-10-14",
	Status:      model.StatusLate,
}

type results struct {
	mu  sync.Mutex
	got []string
}

func (r *results) ObserveNotification(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, result)
}

func TestSend(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := New(srv.URL).Send(context.Background(), NotificationFor(rec)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.RecordID != rec.ID || got.Status != model.StatusLate || got.Message != "Alice Johnson marked as late" {
		t.Fatalf("webhook body = %+v", got)
	}
}

func TestSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := New(srv.URL).Send(context.Background(), NotificationFor(rec)); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestSkipMode(t *testing.T) {
	c := New("")
	if !c.Skip {
		t.Fatal("empty url should skip")
	}
	if err := c.Send(context.Background(), NotificationFor(rec)); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
	}))
	defer srv.Close()

	body, _ := json.Marshal(rec)
	msgs := make(chan queue.Message, 3)
	msgs <- queue.Message{Type: queue.TypeAttendanceMarked, Body: body}
	msgs <- queue.Message{Type: "other", Body: body}
	msgs <- queue.Message{Type: queue.TypeAttendanceMarked, Body: []byte("{broken")}
	close(msgs)

	obs := &results{}
	Run(context.Background(), msgs, New(srv.URL), obs)

	if hits != 1 {
		t.Fatalf("webhook hits = %d, want 1", hits)
	}
	if len(obs.got) != 2 || obs.got[0] != "sent" || obs.got[1] != "invalid" {
		t.Fatalf("results = %v", obs.got)
	}
}
