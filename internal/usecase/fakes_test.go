package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"streamfront/internal/domain"
	"streamfront/internal/ports"
)

type fakePlaybackSession struct {
	mu       sync.Mutex
	stopped  bool
	spectrum []float64
}

func (s *fakePlaybackSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *fakePlaybackSession) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *fakePlaybackSession) Spectrum() ([]float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.spectrum == nil {
		return nil, false
	}
	return s.spectrum, true
}

type startedPlayback struct {
	payload   []byte
	done      func(error)
	session   *fakePlaybackSession
	completed bool
}

type fakeStarter struct {
	mu      sync.Mutex
	starts  []*startedPlayback
	failing map[string]error
}

func newFakeStarter() *fakeStarter {
	return &fakeStarter{failing: map[string]error{}}
}

func (f *fakeStarter) failOn(payload string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[payload] = err
}

func (f *fakeStarter) Start(payload []byte, done func(error)) (ports.PlaybackSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failing[string(payload)]; ok {
		return nil, err
	}
	started := &startedPlayback{
		payload: append([]byte(nil), payload...),
		done:    done,
		session: &fakePlaybackSession{},
	}
	f.starts = append(f.starts, started)
	return started.session, nil
}

// completeNext resolves the oldest unfinished session's terminal callback.
func (f *fakeStarter) completeNext(err error) {
	f.mu.Lock()
	var target *startedPlayback
	for _, started := range f.starts {
		if !started.completed {
			target = started
			break
		}
	}
	if target != nil {
		target.completed = true
	}
	f.mu.Unlock()

	if target == nil {
		panic("no unfinished playback session")
	}
	target.done(err)
}

func (f *fakeStarter) startedPayloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.starts))
	for _, started := range f.starts {
		out = append(out, string(started.payload))
	}
	return out
}

func (f *fakeStarter) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, started := range f.starts {
		if !started.completed && !started.session.Stopped() {
			n++
		}
	}
	return n
}

type sinkError struct {
	code   domain.ErrorCode
	detail string
}

type fakeSink struct {
	mu         sync.Mutex
	appended   []domain.TranscriptEntry
	extended   []string
	states     []domain.PresentationState
	rejections []time.Duration
	engineErrs []sinkError
}

func (s *fakeSink) TranscriptAppended(entry domain.TranscriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, entry)
}

func (s *fakeSink) TranscriptExtended(entry domain.TranscriptEntry, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extended = append(s.extended, chunk)
}

func (s *fakeSink) PresentationChanged(state domain.PresentationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
}

func (s *fakeSink) SubmissionRejected(remaining time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejections = append(s.rejections, remaining)
}

func (s *fakeSink) EngineError(code domain.ErrorCode, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engineErrs = append(s.engineErrs, sinkError{code: code, detail: detail})
}

func (s *fakeSink) snapshotAppended() []domain.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TranscriptEntry, len(s.appended))
	copy(out, s.appended)
	return out
}

func (s *fakeSink) snapshotStates() []domain.PresentationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PresentationState, len(s.states))
	copy(out, s.states)
	return out
}

func (s *fakeSink) snapshotErrors() []sinkError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sinkError, len(s.engineErrs))
	copy(out, s.engineErrs)
	return out
}

type fakeStream struct {
	mu        sync.Mutex
	messages  chan string
	sent      []string
	sendErr   error
	waitErr   error
	closeOnce sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{messages: make(chan string, 16)}
}

func (s *fakeStream) SendText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, text)
	return nil
}

func (s *fakeStream) Messages() <-chan string { return s.messages }

func (s *fakeStream) Wait() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitErr
}

func (s *fakeStream) Close() error {
	s.closeOnce.Do(func() { close(s.messages) })
	return nil
}

func (s *fakeStream) sentTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

type fakeDialer struct {
	mu       sync.Mutex
	streams  []*fakeStream
	dialErr  error
	lastCfg  ports.StreamConfig
	dialSeen int
}

func (d *fakeDialer) Dial(_ context.Context, cfg ports.StreamConfig) (ports.StreamSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastCfg = cfg
	d.dialSeen++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	if len(d.streams) == 0 {
		return nil, errors.New("no stream configured")
	}
	stream := d.streams[0]
	d.streams = d.streams[1:]
	return stream, nil
}
