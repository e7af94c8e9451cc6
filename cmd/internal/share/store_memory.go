package share

import (
	"sync"
	"time"
)

// InMemorySlotStore is the process-lifetime implementation of SlotStore.
// State is lost on restart; that is the documented contract, not a bug.
type InMemorySlotStore struct {
	mu   sync.Mutex
	text *TextShare
	file *FileShare
}

// NewInMemorySlotStore constructs an empty slot store.
func NewInMemorySlotStore() *InMemorySlotStore {
	return &InMemorySlotStore{}
}

// SetText replaces the text slot and returns the installed record.
func (s *InMemorySlotStore) SetText(content string, owner Owner, now time.Time) TextShare {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rec := TextShare{
		ID:        NewShareID(now),
		Content:   content,
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
		CreatedAt: now,
	}

	s.mu.Lock()
	s.text = &rec
	s.mu.Unlock()

	return rec
}

// ClearText empties the text slot (no-op when already empty).
func (s *InMemorySlotStore) ClearText() {
	s.mu.Lock()
	s.text = nil
	s.mu.Unlock()
}

// GetText returns the current text record, if any.
func (s *InMemorySlotStore) GetText() (TextShare, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.text == nil {
		return TextShare{}, false
	}
	return *s.text, true
}

// SetFile replaces the file slot and returns the installed record.
func (s *InMemorySlotStore) SetFile(in FileInput, owner Owner, now time.Time) FileShare {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rec := FileShare{
		ID:            NewShareID(now),
		FileName:      in.FileName,
		FileSizeBytes: in.FileSizeBytes,
		MimeType:      in.MimeType,
		Payload:       in.Payload,
		OwnerID:       owner.ID,
		OwnerName:     owner.Name,
		CreatedAt:     now,
	}

	s.mu.Lock()
	s.file = &rec
	s.mu.Unlock()

	return rec
}

// ClearFile empties the file slot (no-op when already empty).
func (s *InMemorySlotStore) ClearFile() {
	s.mu.Lock()
	s.file = nil
	s.mu.Unlock()
}

// GetFile returns the current file record, if any.
func (s *InMemorySlotStore) GetFile() (FileShare, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return FileShare{}, false
	}
	return *s.file, true
}

// Snapshot reads both slots under one lock acquisition.
func (s *InMemorySlotStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	if s.text != nil {
		t := *s.text
		snap.Text = &t
	}
	if s.file != nil {
		f := *s.file
		snap.File = &f
	}
	return snap
}
