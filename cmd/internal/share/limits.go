package share

import "time"

// Content limits.
// Keep these aligned with docs and the frontend upload guards.
const (
	// Max shared text size in bytes (hard limit, inclusive).
	maxTextBytes = 100_000

	// Max encoded file payload size in bytes (hard limit, inclusive).
	maxFilePayloadBytes = 10_000_000

	// Max bytes per websocket frame read. Must clear the file payload
	// ceiling plus envelope overhead.
	maxFrameBytes = 16 << 20 // 16 MiB

	// Fallback when a client does not report a file type.
	defaultMimeType = "application/octet-stream"
)

const (
	// Heartbeat defaults (can be overridden by env in ws_gateway.go).
	heartbeatInterval = 25 * time.Second
	heartbeatTimeout  = 5 * time.Second

	// Per-session content-op rate limit (share requests per window).
	contentRateEvents = 50
	contentRateWindow = 60 * time.Second

	// Per-connection inbound envelope limit at the transport entry.
	transportRateEvents = 100
	transportRateWindow = 60 * time.Second
)
