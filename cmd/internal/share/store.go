package share

import "time"

// TextShare is the record occupying the text slot.
// Owner fields are denormalized at share time so the record outlives its session.
type TextShare struct {
	ID        string
	Content   string
	OwnerID   string
	OwnerName string
	CreatedAt time.Time
}

// FileShare is the record occupying the file slot.
// Payload is the binary-safe (base64) encoded file content as received.
type FileShare struct {
	ID            string
	FileName      string
	FileSizeBytes int64
	MimeType      string
	Payload       string
	OwnerID       string
	OwnerName     string
	CreatedAt     time.Time
}

// Owner identifies the session installing a share, snapshotted into the record.
type Owner struct {
	ID   string
	Name string
}

// FileInput describes an incoming file share before it is installed.
type FileInput struct {
	FileName      string
	FileSizeBytes int64
	MimeType      string
	Payload       string
}

// Snapshot is a point-in-time read of both slots, used for join-time catch-up.
type Snapshot struct {
	Text *TextShare
	File *FileShare
}

// SlotStore holds the single current text record and single current file record.
//
// Requirements:
//   - Set unconditionally replaces the slot and returns the installed record
//     with a fresh unique id (last write wins, no merge).
//   - The two slots are independent.
//   - Mutations are atomic with respect to concurrent callers; the id returned
//     to a caller is exactly the id of the record that call installed.
//   - Operations never fail on valid input; validation is the Engine's job.
type SlotStore interface {
	SetText(content string, owner Owner, now time.Time) TextShare
	ClearText()
	GetText() (TextShare, bool)

	SetFile(in FileInput, owner Owner, now time.Time) FileShare
	ClearFile()
	GetFile() (FileShare, bool)

	Snapshot() Snapshot
}
