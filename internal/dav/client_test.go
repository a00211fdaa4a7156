package dav

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gcalevent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putRecorder struct {
	mu        sync.Mutex
	path      string
	body      string
	user      string
	pass      string
	userAgent string
}

func newDAVServer(t *testing.T, status int) (*httptest.Server, *putRecorder) {
	t.Helper()
	rec := &putRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		user, pass, _ := r.BasicAuth()

		rec.mu.Lock()
		rec.path = r.URL.Path
		rec.body = string(body)
		rec.user = user
		rec.pass = pass
		rec.userAgent = r.Header.Get("User-Agent")
		rec.mu.Unlock()

		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClient(context.Background(), logger, Options{
		Endpoint:     endpoint,
		Username:     "alice",
		Password:     "app-password",
		CalendarPath: "/alice/calendars/work/",
	})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) }
	return c
}

func standup() models.EventSpec {
	return models.EventSpec{
		CalendarID: "c1",
		Summary:    "Standup",
		Start:      "2024-01-01T09:00:00",
		End:        "2024-01-01T09:15:00",
		TimeZone:   "UTC",
	}
}

func TestMirror_PutsEvent(t *testing.T) {
	srv, rec := newDAVServer(t, http.StatusCreated)
	c := newTestClient(t, srv.URL+"/")

	err := c.Mirror(context.Background(), standup(), &models.CreatedEvent{ID: "evt1", ICalUID: "uid-1"})
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "/alice/calendars/work/uid-1.ics", rec.path)
	assert.Equal(t, "alice", rec.user)
	assert.Equal(t, "app-password", rec.pass)
	assert.Equal(t, "gcalevent/1.0", rec.userAgent)
	assert.Contains(t, rec.body, "SUMMARY:Standup")
	assert.Contains(t, rec.body, "UID:uid-1")
	assert.Contains(t, rec.body, "20240101T090000Z")
}

func TestMirror_ServerRejects(t *testing.T) {
	srv, _ := newDAVServer(t, http.StatusForbidden)
	c := newTestClient(t, srv.URL+"/")

	err := c.Mirror(context.Background(), standup(), &models.CreatedEvent{ID: "evt1", ICalUID: "uid-1"})
	assert.Error(t, err)
}

func TestMirror_InvalidTimes(t *testing.T) {
	srv, rec := newDAVServer(t, http.StatusCreated)
	c := newTestClient(t, srv.URL+"/")

	spec := standup()
	spec.Start = "soon"
	err := c.Mirror(context.Background(), spec, &models.CreatedEvent{ICalUID: "uid-1"})
	assert.Error(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.path, "nothing should be uploaded")
}

func TestName(t *testing.T) {
	c := newTestClient(t, "https://dav.example.com/")
	assert.Equal(t, "caldav:/alice/calendars/work/", c.Name())
}
