package share

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	v1 "sharepal/shared/contracts/share/v1"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestEngine(t *testing.T, limiter *RateLimiter) (*Engine, *InMemorySlotStore) {
	t.Helper()

	log := testLogger()
	store := NewInMemorySlotStore()
	e := NewEngine(
		log,
		store,
		NewInMemoryRegistry(),
		limiter,
		NewHub(log),
		NewMetrics(prometheus.NewRegistry()),
	)
	return e, store
}

func connectTestSession(t *testing.T, e *Engine, name string, queue int) (Session, *Client) {
	t.Helper()

	client := NewClient(NewSessionID(time.Now().UTC()), name, queue)
	sess := e.Connect(client, "client-"+name)
	return sess, client
}

func awaitType(t *testing.T, c *Client, typ string) v1.Envelope {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case env := <-c.Send:
			if env.Type == typ {
				return env
			}
		case <-deadline:
			t.Fatalf("%s: timeout waiting for %s", c.SessionID, typ)
		}
	}
}

func decodePayload[T any](t *testing.T, env v1.Envelope) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		t.Fatalf("decode %s payload: %v", env.Type, err)
	}
	return out
}

func TestEngine_ShareText_BroadcastsToAllIncludingRequester(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t, nil)
	sessA, clientA := connectTestSession(t, e, "alice", 64)
	_, clientB := connectTestSession(t, e, "bob", 64)

	rec, rej := e.ShareText(sessA, "hello")
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}

	for _, c := range []*Client{clientA, clientB} {
		env := awaitType(t, c, v1.TypeSharedTextUpdated)
		p := decodePayload[v1.TextSharePayload](t, env)
		if p.ID != rec.ID || p.Content != "hello" || p.UserName != "alice" {
			t.Fatalf("%s: unexpected update: %+v", c.SessionID, p)
		}
	}

	got, ok := store.GetText()
	if !ok || got.ID != rec.ID {
		t.Fatalf("store must hold the acknowledged record: ok=%v id=%s want=%s", ok, got.ID, rec.ID)
	}
}

func TestEngine_ShareText_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		content  string
		wantCode string
	}{
		{name: "empty content", content: "", wantCode: CodeInvalidContent},
		{name: "exactly at ceiling", content: strings.Repeat("a", maxTextBytes), wantCode: ""},
		{name: "one byte over", content: strings.Repeat("a", maxTextBytes+1), wantCode: CodeInvalidContent},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, store := newTestEngine(t, nil)
			sess, _ := connectTestSession(t, e, "alice", 64)

			before, hadBefore := store.GetText()

			rec, rej := e.ShareText(sess, tc.content)
			if tc.wantCode == "" {
				if rej != nil {
					t.Fatalf("expected acceptance, got %+v", rej)
				}
				if rec.ID == "" {
					t.Fatalf("accepted share must carry an id")
				}
				return
			}

			if rej == nil || rej.Code != tc.wantCode {
				t.Fatalf("expected rejection code %q, got %+v", tc.wantCode, rej)
			}

			after, hasAfter := store.GetText()
			if hadBefore != hasAfter || before.ID != after.ID {
				t.Fatalf("rejected share must not change state")
			}
		})
	}
}

func TestEngine_ShareFile_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		in       FileInput
		wantCode string
	}{
		{
			name:     "missing file name",
			in:       FileInput{Payload: "cGF5bG9hZA=="},
			wantCode: CodeInvalidContent,
		},
		{
			name:     "empty payload",
			in:       FileInput{FileName: "cat.png"},
			wantCode: CodeInvalidContent,
		},
		{
			name:     "exactly at ceiling",
			in:       FileInput{FileName: "big.bin", Payload: strings.Repeat("a", maxFilePayloadBytes)},
			wantCode: "",
		},
		{
			name:     "one byte over",
			in:       FileInput{FileName: "big.bin", Payload: strings.Repeat("a", maxFilePayloadBytes+1)},
			wantCode: CodeInvalidContent,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, store := newTestEngine(t, nil)
			sess, _ := connectTestSession(t, e, "alice", 64)

			rec, rej := e.ShareFile(sess, tc.in)
			if tc.wantCode == "" {
				if rej != nil {
					t.Fatalf("expected acceptance, got %+v", rej)
				}
				if rec.MimeType != defaultMimeType {
					t.Fatalf("missing mime type must default: got %q", rec.MimeType)
				}
				return
			}

			if rej == nil || rej.Code != tc.wantCode {
				t.Fatalf("expected rejection code %q, got %+v", tc.wantCode, rej)
			}
			if _, ok := store.GetFile(); ok {
				t.Fatalf("rejected share must not change state")
			}
		})
	}
}

func TestEngine_RateLimit_51stContentOpRejected(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t, NewRateLimiter(50, time.Minute))
	sess, _ := connectTestSession(t, e, "alice", 4096)

	var lastAccepted TextShare
	for i := 0; i < 50; i++ {
		rec, rej := e.ShareText(sess, "msg-"+strconv.Itoa(i))
		if rej != nil {
			t.Fatalf("share %d should be allowed, got %+v", i+1, rej)
		}
		lastAccepted = rec
	}

	_, rej := e.ShareText(sess, "over-budget")
	if rej == nil || rej.Code != CodeRateLimited {
		t.Fatalf("51st op must be rate limited, got %+v", rej)
	}

	got, ok := store.GetText()
	if !ok || got.ID != lastAccepted.ID {
		t.Fatalf("throttled attempt must leave state unchanged: got id=%s want=%s", got.ID, lastAccepted.ID)
	}
}

func TestEngine_Clear_BroadcastsEvenWhenEmpty(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t, nil)
	sessA, clientA := connectTestSession(t, e, "alice", 64)
	_, clientB := connectTestSession(t, e, "bob", 64)

	if _, ok := store.GetText(); ok {
		t.Fatalf("precondition: text slot empty")
	}

	e.ClearText(sessA)

	for _, c := range []*Client{clientA, clientB} {
		env := awaitType(t, c, v1.TypeSharedTextCleared)
		p := decodePayload[v1.ClearedPayload](t, env)
		if p.ClearedBy != "alice" {
			t.Fatalf("clearedBy=%q want alice", p.ClearedBy)
		}
	}
}

func TestEngine_Scenario_HelloWorldClear(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t, nil)
	sessA, clientA := connectTestSession(t, e, "alice", 64)
	sessB, clientB := connectTestSession(t, e, "bob", 64)

	// A shares "hello": everyone, including A, sees it with owner A.
	if _, rej := e.ShareText(sessA, "hello"); rej != nil {
		t.Fatalf("share hello: %+v", rej)
	}
	for _, c := range []*Client{clientA, clientB} {
		p := decodePayload[v1.TextSharePayload](t, awaitType(t, c, v1.TypeSharedTextUpdated))
		if p.Content != "hello" || p.UserName != "alice" {
			t.Fatalf("%s: got %+v", c.SessionID, p)
		}
	}

	// B shares "world": replaces, never merges.
	if _, rej := e.ShareText(sessB, "world"); rej != nil {
		t.Fatalf("share world: %+v", rej)
	}
	for _, c := range []*Client{clientA, clientB} {
		p := decodePayload[v1.TextSharePayload](t, awaitType(t, c, v1.TypeSharedTextUpdated))
		if p.Content != "world" || p.UserName != "bob" {
			t.Fatalf("%s: got %+v", c.SessionID, p)
		}
	}
	if got, _ := store.GetText(); got.Content != "world" {
		t.Fatalf("store content=%q want world", got.Content)
	}

	// A clears: everyone learns who cleared; slot is empty.
	e.ClearText(sessA)
	for _, c := range []*Client{clientA, clientB} {
		p := decodePayload[v1.ClearedPayload](t, awaitType(t, c, v1.TypeSharedTextCleared))
		if p.ClearedBy != "alice" {
			t.Fatalf("%s: clearedBy=%q", c.SessionID, p.ClearedBy)
		}
	}
	if _, ok := store.GetText(); ok {
		t.Fatalf("text slot must be empty after clear")
	}
}

func TestEngine_Connect_DeliversSnapshotOnceBeforeLaterBroadcasts(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, nil)
	sessA, _ := connectTestSession(t, e, "alice", 64)

	if _, rej := e.ShareText(sessA, "existing text"); rej != nil {
		t.Fatalf("share text: %+v", rej)
	}
	if _, rej := e.ShareFile(sessA, FileInput{FileName: "doc.pdf", Payload: "cGRm"}); rej != nil {
		t.Fatalf("share file: %+v", rej)
	}

	_, clientB := connectTestSession(t, e, "bob", 64)

	// The joiner gets the presence update, then both current records,
	// before any subsequent broadcast.
	count := decodePayload[v1.UserCountPayload](t, awaitType(t, clientB, v1.TypeUserCount))
	if count.Count != 2 {
		t.Fatalf("user-count=%d want 2", count.Count)
	}

	text := decodePayload[v1.TextSharePayload](t, awaitType(t, clientB, v1.TypeCurrentSharedText))
	if text.Content != "existing text" {
		t.Fatalf("snapshot text=%q", text.Content)
	}
	file := decodePayload[v1.FileSharePayload](t, awaitType(t, clientB, v1.TypeCurrentSharedFile))
	if file.FileName != "doc.pdf" {
		t.Fatalf("snapshot file=%q", file.FileName)
	}

	// A subsequent share arrives as an update, not a second snapshot.
	if _, rej := e.ShareText(sessA, "newer"); rej != nil {
		t.Fatalf("share newer: %+v", rej)
	}
	env := awaitType(t, clientB, v1.TypeSharedTextUpdated)
	p := decodePayload[v1.TextSharePayload](t, env)
	if p.Content != "newer" {
		t.Fatalf("update content=%q want newer", p.Content)
	}
}

func TestEngine_Disconnect_BroadcastsUpdatedCount(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, nil)
	sessA, clientA := connectTestSession(t, e, "alice", 64)
	_, _ = connectTestSession(t, e, "bob", 64)

	// Drain A's queue up to the second join's presence update.
	for {
		p := decodePayload[v1.UserCountPayload](t, awaitType(t, clientA, v1.TypeUserCount))
		if p.Count == 2 {
			break
		}
	}

	e.Disconnect(sessA.SessionID)

	if e.SessionCount() != 1 {
		t.Fatalf("count=%d want 1 after disconnect", e.SessionCount())
	}
}

func TestEngine_ConcurrentShares_SingleObservedOrder(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t, nil)
	_, obs1 := connectTestSession(t, e, "obs1", 1024)
	_, obs2 := connectTestSession(t, e, "obs2", 1024)
	sess, _ := connectTestSession(t, e, "writer", 1024)

	const writers = 40

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		i := i
		go func() {
			defer wg.Done()
			if _, rej := e.ShareText(sess, "v"+strconv.Itoa(i)); rej != nil {
				t.Errorf("share %d rejected: %+v", i, rej)
			}
		}()
	}
	wg.Wait()

	collect := func(c *Client) []string {
		var out []string
		for len(out) < writers {
			env := awaitType(t, c, v1.TypeSharedTextUpdated)
			p := decodePayload[v1.TextSharePayload](t, env)
			out = append(out, p.Content)
		}
		return out
	}

	seq1 := collect(obs1)
	seq2 := collect(obs2)

	for i := range seq1 {
		if seq1[i] != seq2[i] {
			t.Fatalf("observers diverge at %d: %q vs %q", i, seq1[i], seq2[i])
		}
	}

	got, ok := store.GetText()
	if !ok {
		t.Fatalf("slot must be present")
	}
	if got.Content != seq1[len(seq1)-1] {
		t.Fatalf("final store content %q must equal last broadcast %q", got.Content, seq1[len(seq1)-1])
	}
}
