package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sharepal/cmd/internal/share"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestMux(t *testing.T) (*http.ServeMux, *share.Engine) {
	t.Helper()

	log := testLogger()
	engine := share.NewEngine(
		log,
		share.NewInMemorySlotStore(),
		share.NewInMemoryRegistry(),
		share.NewRateLimiter(50, time.Minute),
		share.NewHub(log),
		share.NewMetrics(prometheus.NewRegistry()),
	)
	ws := share.NewWSGateway(log, engine)

	mux := http.NewServeMux()
	registerHTTP(mux, log, engine, ws, time.Now().Add(-time.Minute))
	return mux, engine
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)

	for path, want := range map[string]string{"/healthz": "ok\n", "/readyz": "ready\n"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status=%d", path, rec.Code)
		}
		if rec.Body.String() != want {
			t.Errorf("%s: body=%q want %q", path, rec.Body.String(), want)
		}
	}
}

func TestHealthReportsSlotState(t *testing.T) {
	t.Parallel()

	mux, engine := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	var h healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != "OK" || h.HasSharedText || h.HasSharedFile || h.ConnectedUsers != 0 {
		t.Fatalf("unexpected health: %+v", h)
	}
	if h.UptimeSeconds <= 0 {
		t.Fatalf("uptime=%v", h.UptimeSeconds)
	}

	sess := share.Session{SessionID: "s1", DisplayName: "alice"}
	if _, rej := engine.ShareText(sess, "hello"); rej != nil {
		t.Fatalf("share rejected: %+v", rej)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if err := json.NewDecoder(rec.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !h.HasSharedText || h.HasSharedFile {
		t.Fatalf("unexpected health after share: %+v", h)
	}
}

func TestStatsSummarizesWithoutPayloads(t *testing.T) {
	t.Parallel()

	mux, engine := newTestMux(t)

	sess := share.Session{SessionID: "s1", DisplayName: "alice"}
	if _, rej := engine.ShareText(sess, "hello world"); rej != nil {
		t.Fatalf("share text rejected: %+v", rej)
	}
	if _, rej := engine.ShareFile(sess, share.FileInput{
		FileName:      "notes.txt",
		FileSizeBytes: 11,
		MimeType:      "text/plain",
		Payload:       "aGVsbG8gd29ybGQ=",
	}); rej != nil {
		t.Fatalf("share file rejected: %+v", rej)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	body := rec.Body.String()

	var s statsResponse
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.CurrentSharedText == nil || s.CurrentSharedText.UserName != "alice" ||
		s.CurrentSharedText.ContentLength != len("hello world") {
		t.Fatalf("unexpected text summary: %+v", s.CurrentSharedText)
	}
	if s.CurrentSharedFile == nil || s.CurrentSharedFile.FileName != "notes.txt" ||
		s.CurrentSharedFile.FileSize != 11 {
		t.Fatalf("unexpected file summary: %+v", s.CurrentSharedFile)
	}

	// Payload bytes must never leak through the stats surface.
	if strings.Contains(body, "aGVsbG8gd29ybGQ=") || strings.Contains(body, "hello world") {
		t.Fatalf("stats leaked slot contents: %s", body)
	}
}

func TestMetricsEndpointRegistered(t *testing.T) {
	t.Parallel()

	mux, _ := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}
