// Package main provides a CI-friendly WebSocket smoke test for the SharePAL server.
//
// It validates:
//   - handshake + subprotocol selection
//   - user-count presence broadcast on join
//   - share-text -> ack with share id
//   - fanout of shared-text-updated to another client
//   - snapshot push of the current text share to a late joiner
//   - clear-shared-text fanout with clearedBy
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	v1 "sharepal/shared/contracts/share/v1"

	"github.com/coder/websocket"
)

const (
	defaultSubprotocol = "sharepal.v1"
	maxReadBytes       = 16 << 20
)

type smokeClient struct {
	name string
	conn *websocket.Conn

	inbox chan v1.Envelope
	errCh chan error
}

func main() {
	var (
		wsURL   = flag.String("url", "ws://127.0.0.1:3001/ws", "WebSocket URL")
		origin  = flag.String("origin", "http://localhost", "Origin header to send (browser-like WS handshake)")
		name    = flag.String("name", "smoke", "Display name prefix for the two test clients")
		text    = flag.String("text", "hello sharepal", "Text content to share")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateWSURL(*wsURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	root := context.Background()

	a := mustConnect(root, *name+"-a", *wsURL, *origin, *timeout)
	defer closeWS(a.conn)

	if *verbose {
		fmt.Printf("connected: %s\n", a.name)
	}

	mustAwaitUserCount(root, a, *timeout)

	shareID := mustShareText(root, a, *text, *timeout)
	if *verbose {
		fmt.Printf("share accepted: id=%s\n", shareID)
	}

	mustAwaitTextUpdate(root, a, shareID, *text, *timeout)

	// A late joiner must receive the current text share as a snapshot push.
	b := mustConnect(root, *name+"-b", *wsURL, *origin, *timeout)
	defer closeWS(b.conn)

	mustAwaitSnapshotText(root, b, shareID, *text, *timeout)

	mustClearText(root, a, *timeout)
	mustAwaitTextCleared(root, b, *name+"-a", *timeout)

	fmt.Println("ws-smoke: OK")
}

func mustConnect(ctx context.Context, name, wsURL, origin string, timeout time.Duration) *smokeClient {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u, _ := url.Parse(wsURL)
	q := u.Query()
	q.Set("displayName", name)
	u.RawQuery = q.Encode()

	hdr := http.Header{}
	if origin != "" {
		hdr.Set("Origin", origin)
	}

	conn, _, err := websocket.Dial(dialCtx, u.String(), &websocket.DialOptions{
		Subprotocols: []string{defaultSubprotocol},
		HTTPHeader:   hdr,
	})
	if err != nil {
		fatalf("%s: dial: %v", name, err)
	}
	conn.SetReadLimit(maxReadBytes)

	c := &smokeClient{
		name:  name,
		conn:  conn,
		inbox: make(chan v1.Envelope, 64),
		errCh: make(chan error, 1),
	}

	go func() {
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				c.errCh <- err
				return
			}
			var env v1.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				c.errCh <- err
				return
			}
			c.inbox <- env
		}
	}()

	return c
}

func (c *smokeClient) send(ctx context.Context, env v1.Envelope, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return c.conn.Write(wctx, websocket.MessageText, b)
}

func (c *smokeClient) await(ctx context.Context, typ string, timeout time.Duration) (v1.Envelope, error) {
	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return v1.Envelope{}, ctx.Err()
		case err := <-c.errCh:
			return v1.Envelope{}, err
		case <-deadline:
			return v1.Envelope{}, fmt.Errorf("timeout waiting for %s", typ)
		case env := <-c.inbox:
			if env.Type == typ {
				return env, nil
			}
			// Ignore unrelated traffic (user-count churn etc).
		}
	}
}

func mustAwaitUserCount(ctx context.Context, c *smokeClient, timeout time.Duration) {
	env, err := c.await(ctx, v1.TypeUserCount, timeout)
	if err != nil {
		fatalf("%s: await user-count: %v", c.name, err)
	}
	var p v1.UserCountPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		fatalf("%s: user-count payload: %v", c.name, err)
	}
	if p.Count < 1 {
		fatalf("%s: user-count=%d, want >= 1", c.name, p.Count)
	}
}

func mustShareText(ctx context.Context, c *smokeClient, text string, timeout time.Duration) string {
	payload, _ := json.Marshal(v1.ShareTextPayload{Content: text})
	req := v1.Envelope{
		V:       v1.Version,
		Type:    v1.TypeShareText,
		ID:      fmt.Sprintf("smoke-%d", time.Now().UnixNano()),
		TS:      time.Now().UTC(),
		Payload: payload,
	}
	if err := c.send(ctx, req, timeout); err != nil {
		fatalf("%s: send share-text: %v", c.name, err)
	}

	env, err := c.await(ctx, v1.TypeShareAck, timeout)
	if err != nil {
		fatalf("%s: await ack: %v", c.name, err)
	}
	var ack v1.ShareAckPayload
	if err := json.Unmarshal(env.Payload, &ack); err != nil {
		fatalf("%s: ack payload: %v", c.name, err)
	}
	if !ack.Success {
		fatalf("%s: share rejected: code=%s err=%s", c.name, ack.Code, ack.Error)
	}
	if ack.RequestID != req.ID {
		fatalf("%s: ack correlation mismatch: got=%s want=%s", c.name, ack.RequestID, req.ID)
	}
	if ack.ShareID == "" {
		fatalf("%s: ack missing share id", c.name)
	}
	return ack.ShareID
}

func mustAwaitTextUpdate(ctx context.Context, c *smokeClient, shareID, text string, timeout time.Duration) {
	env, err := c.await(ctx, v1.TypeSharedTextUpdated, timeout)
	if err != nil {
		fatalf("%s: await shared-text-updated: %v", c.name, err)
	}
	var p v1.TextSharePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		fatalf("%s: update payload: %v", c.name, err)
	}
	if p.ID != shareID || p.Content != text {
		fatalf("%s: update mismatch: id=%s content=%q", c.name, p.ID, p.Content)
	}
}

func mustAwaitSnapshotText(ctx context.Context, c *smokeClient, shareID, text string, timeout time.Duration) {
	env, err := c.await(ctx, v1.TypeCurrentSharedText, timeout)
	if err != nil {
		fatalf("%s: await current-shared-text: %v", c.name, err)
	}
	var p v1.TextSharePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		fatalf("%s: snapshot payload: %v", c.name, err)
	}
	if p.ID != shareID || p.Content != text {
		fatalf("%s: snapshot mismatch: id=%s content=%q", c.name, p.ID, p.Content)
	}
}

func mustClearText(ctx context.Context, c *smokeClient, timeout time.Duration) {
	req := v1.Envelope{
		V:    v1.Version,
		Type: v1.TypeClearSharedText,
		ID:   fmt.Sprintf("smoke-clear-%d", time.Now().UnixNano()),
		TS:   time.Now().UTC(),
	}
	if err := c.send(ctx, req, timeout); err != nil {
		fatalf("%s: send clear: %v", c.name, err)
	}
}

func mustAwaitTextCleared(ctx context.Context, c *smokeClient, clearedBy string, timeout time.Duration) {
	env, err := c.await(ctx, v1.TypeSharedTextCleared, timeout)
	if err != nil {
		fatalf("%s: await cleared: %v", c.name, err)
	}
	var p v1.ClearedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		fatalf("%s: cleared payload: %v", c.name, err)
	}
	if p.ClearedBy != clearedBy {
		fatalf("%s: clearedBy=%q want %q", c.name, p.ClearedBy, clearedBy)
	}
}

func validateWSURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return errors.New("scheme must be ws or wss")
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func closeWS(conn *websocket.Conn) {
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ws-smoke: "+format+"\n", args...)
	os.Exit(1)
}
