// Package v1 defines the SharePAL wire protocol v1 contract.
//
// This package is intentionally stable and dependency-light.
// It is shared between server and clients to keep the wire protocol authoritative.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Version is the protocol version identifier embedded into every envelope.
const Version = "v1"

// Type constants (wire-stable).
const (
	// TypeShareText replaces the current shared text slot (client -> server).
	TypeShareText = "share-text"
	// TypeShareCode is a legacy alias for TypeShareText kept for older clients.
	TypeShareCode = "share-code"
	// TypeShareFile replaces the current shared file slot (client -> server).
	TypeShareFile = "share-file"

	// TypeShareAck acknowledges a share request (server -> requester only).
	TypeShareAck = "share-ack"

	// TypeClearSharedText empties the text slot (client -> server, no ack).
	TypeClearSharedText = "clear-shared-text"
	// TypeClearSharedFile empties the file slot (client -> server, no ack).
	TypeClearSharedFile = "clear-shared-file"

	// TypeGetCurrentContent requests a point-to-point snapshot (client -> server).
	TypeGetCurrentContent = "get-current-content"
	// TypeCurrentContent answers TypeGetCurrentContent (server -> requester only).
	TypeCurrentContent = "current-content"

	// TypeSharedTextUpdated broadcasts a newly installed text share (server -> all).
	TypeSharedTextUpdated = "shared-text-updated"
	// TypeSharedFileUpdated broadcasts a newly installed file share (server -> all).
	TypeSharedFileUpdated = "shared-file-updated"

	// TypeSharedTextCleared broadcasts that the text slot was emptied (server -> all).
	TypeSharedTextCleared = "shared-text-cleared"
	// TypeSharedFileCleared broadcasts that the file slot was emptied (server -> all).
	TypeSharedFileCleared = "shared-file-cleared"

	// TypeUserCount broadcasts the connected-session count (server -> all).
	TypeUserCount = "user-count"

	// TypeCurrentSharedText delivers the text slot to a newly joined session only.
	TypeCurrentSharedText = "current-shared-text"
	// TypeCurrentSharedFile delivers the file slot to a newly joined session only.
	TypeCurrentSharedFile = "current-shared-file"

	// TypeError is a generic error envelope (server -> client).
	TypeError = "error"
)

// Envelope is the canonical wire wrapper.
type Envelope struct {
	V       string          `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	TS      time.Time       `json:"ts,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate performs strict structural validation for an Envelope.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.V) == "" {
		return errors.New("missing field: v")
	}
	if e.V != Version {
		return fmt.Errorf("unsupported protocol version: %q", e.V)
	}
	if strings.TrimSpace(e.Type) == "" {
		return errors.New("missing field: type")
	}

	switch e.Type {
	case TypeShareText,
		TypeShareCode,
		TypeShareFile,
		TypeShareAck,
		TypeClearSharedText,
		TypeClearSharedFile,
		TypeGetCurrentContent,
		TypeCurrentContent,
		TypeSharedTextUpdated,
		TypeSharedFileUpdated,
		TypeSharedTextCleared,
		TypeSharedFileCleared,
		TypeUserCount,
		TypeCurrentSharedText,
		TypeCurrentSharedFile,
		TypeError:
		return nil
	default:
		return fmt.Errorf("unknown type: %q", e.Type)
	}
}

// ---- Payloads ----

// ShareTextPayload requests replacing the shared text slot.
type ShareTextPayload struct {
	Content string `json:"content"`
}

// ShareFilePayload requests replacing the shared file slot.
// Content is the binary-safe (base64) encoded file payload.
type ShareFilePayload struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize,omitempty"`
	FileType string `json:"fileType,omitempty"`
	Content  string `json:"content"`
}

// ShareAckPayload is the synchronous result of a share request.
// RequestID correlates the ack back to the originating envelope.
type ShareAckPayload struct {
	RequestID string `json:"requestId"`
	Kind      string `json:"kind"`
	Success   bool   `json:"success"`
	ShareID   string `json:"shareId,omitempty"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TextSharePayload is the full text record carried by shared-text-updated
// and current-shared-text.
type TextSharePayload struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
}

// FileSharePayload is the full file record carried by shared-file-updated
// and current-shared-file.
type FileSharePayload struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	FileSize  int64     `json:"fileSize"`
	FileType  string    `json:"fileType"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
}

// ClearedPayload identifies who emptied a slot.
type ClearedPayload struct {
	ClearedBy string `json:"clearedBy"`
}

// UserCountPayload carries the connected-session count.
type UserCountPayload struct {
	Count int `json:"count"`
}

// CurrentContentPayload answers get-current-content with both slots at once.
// Absent slots are null.
type CurrentContentPayload struct {
	SharedText     *TextSharePayload `json:"sharedText"`
	SharedFile     *FileSharePayload `json:"sharedFile"`
	ConnectedUsers int               `json:"connectedUsers"`
}

// ErrorPayload is a generic error response payload.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
