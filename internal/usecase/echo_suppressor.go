package usecase

import "sync"

// EchoSuppressor matches inbound echoed user text against locally pending
// submissions so the client does not render its own messages twice.
//
// Matching is by exact value: TryMatch removes the first pending record equal
// to text. Unmatched records stay pending indefinitely; with duplicate
// identical submissions the records are indistinguishable, so which one a
// given echo consumes is not observable.
type EchoSuppressor struct {
	mu      sync.Mutex
	pending []string
}

func NewEchoSuppressor() *EchoSuppressor {
	return &EchoSuppressor{}
}

// RecordSent registers one locally submitted text awaiting echo confirmation.
func (s *EchoSuppressor) RecordSent(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, text)
}

// TryMatch reports whether text matched a pending record, removing only that
// record on success.
func (s *EchoSuppressor) TryMatch(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, candidate := range s.pending {
		if candidate == text {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (s *EchoSuppressor) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
