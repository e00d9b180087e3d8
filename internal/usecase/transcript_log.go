package usecase

import (
	"sync"
	"time"

	"streamfront/internal/domain"
)

// TranscriptLog is the ordered, append/extend chat record. Only the tail
// entry, and only while an assistant turn is open, is ever extended in place;
// all other mutation is append-only.
type TranscriptLog struct {
	mu       sync.Mutex
	entries  []domain.TranscriptEntry
	openTurn bool
	now      func() time.Time
}

func NewTranscriptLog(now func() time.Time) *TranscriptLog {
	if now == nil {
		now = time.Now
	}
	return &TranscriptLog{now: now}
}

// Append adds a new entry for the given role and returns it.
func (l *TranscriptLog) Append(role domain.Role, content string) domain.TranscriptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := domain.NewTranscriptEntry(role, content, l.now())
	l.entries = append(l.entries, entry)
	return entry
}

// AppendAssistantChunk folds one reply token into the transcript. While an
// assistant turn is open and the tail entry is assistant-authored the chunk
// extends that entry; otherwise a new assistant entry is opened, so an orphan
// token is never dropped. extended reports which of the two happened.
func (l *TranscriptLog) AppendAssistantChunk(chunk string) (entry domain.TranscriptEntry, extended bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.openTurn && len(l.entries) > 0 {
		tail := &l.entries[len(l.entries)-1]
		if tail.Role == domain.RoleAssistant {
			tail.Content += chunk
			return *tail, true
		}
	}

	e := domain.NewTranscriptEntry(domain.RoleAssistant, chunk, l.now())
	l.entries = append(l.entries, e)
	l.openTurn = true
	return e, false
}

// ExtendLast appends chunk to the tail entry's content if the tail exists and
// is assistant-authored; otherwise it is a no-op. ok reports whether the tail
// was extended.
func (l *TranscriptLog) ExtendLast(chunk string) (domain.TranscriptEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return domain.TranscriptEntry{}, false
	}
	tail := &l.entries[len(l.entries)-1]
	if tail.Role != domain.RoleAssistant {
		return domain.TranscriptEntry{}, false
	}
	tail.Content += chunk
	return *tail, true
}

// CloseTurn marks the current assistant turn finished. Subsequent assistant
// chunks open a new entry.
func (l *TranscriptLog) CloseTurn() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.openTurn = false
}

// Clear resets the log to empty, used on a fresh connection.
func (l *TranscriptLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.openTurn = false
}

// Entries returns a snapshot copy of the log.
func (l *TranscriptLog) Entries() []domain.TranscriptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.TranscriptEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *TranscriptLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
