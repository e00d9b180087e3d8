package usecase

import (
	"sync"

	"streamfront/internal/domain"
	"streamfront/internal/ports"
)

// Sequencer plays audio fragments gaplessly, in strict FIFO arrival order,
// with at most one playback session live at any instant.
//
// Enqueue implicitly pumps the queue: there is no separate start call.
// Advance happens only when the current session's terminal callback resolves;
// a fragment that fails to decode or play is skipped, never stalled on.
// Clear is the only cancellation primitive and is safe in any state.
//
// The registered transition observer fires exactly once per Idle<->Playing
// transition, never once per fragment.
type Sequencer struct {
	starter ports.PlaybackStarter
	sink    ports.EventSink

	mu           sync.Mutex
	onTransition func(playing bool)
	queue        [][]byte
	current      ports.PlaybackSession
	gen          uint64
	playing      bool
}

func NewSequencer(starter ports.PlaybackStarter, sink ports.EventSink) *Sequencer {
	return &Sequencer{starter: starter, sink: sink}
}

// SetTransitionObserver registers the Idle<->Playing edge callback. It must
// be set before the first Enqueue.
func (s *Sequencer) SetTransitionObserver(fn func(playing bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTransition = fn
}

// Enqueue appends one fragment to the queue tail and, if nothing is playing,
// immediately begins playback of the head.
func (s *Sequencer) Enqueue(payload []byte) {
	s.mu.Lock()
	s.queue = append(s.queue, payload)
	var failures []error
	changed := false
	if s.current == nil {
		changed, failures = s.advanceLocked()
	}
	notify, playing := s.transitionLocked(changed)
	s.mu.Unlock()

	s.report(failures)
	if notify != nil {
		notify(playing)
	}
}

// Clear drops all queued fragments, forcibly terminates any in-flight session
// and releases its resource, and leaves the sequencer idle.
func (s *Sequencer) Clear() {
	s.mu.Lock()
	s.queue = nil
	s.gen++
	if s.current != nil {
		s.current.Stop()
		s.current = nil
	}
	changed := s.playing
	s.playing = false
	notify, playing := s.transitionLocked(changed)
	s.mu.Unlock()

	if notify != nil {
		notify(playing)
	}
}

// Playing reports whether a session is currently live.
func (s *Sequencer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// QueueLen reports the number of fragments waiting behind the current one.
func (s *Sequencer) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// SampleSpectrum returns frequency-bin magnitudes for the active session.
// ok is false whenever no session is live or telemetry is unavailable;
// absence of data is not an error condition.
func (s *Sequencer) SampleSpectrum() ([]float64, bool) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil {
		return nil, false
	}
	return current.Spectrum()
}

// advanceLocked dequeues fragments until one starts or the queue drains,
// updating the playing flag. It reports whether the flag changed and any
// start failures encountered along the way.
func (s *Sequencer) advanceLocked() (bool, []error) {
	was := s.playing
	var failures []error

	for len(s.queue) > 0 {
		payload := s.queue[0]
		s.queue = s.queue[1:]

		s.gen++
		gen := s.gen
		session, err := s.starter.Start(payload, func(err error) {
			s.onSessionDone(gen, err)
		})
		if err != nil {
			failures = append(failures, err)
			continue
		}

		s.current = session
		s.playing = true
		return s.playing != was, failures
	}

	s.playing = false
	return s.playing != was, failures
}

// onSessionDone is the terminal continuation for one playback session. The
// next session starts only from here, so sessions can never overlap.
func (s *Sequencer) onSessionDone(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.gen || s.current == nil {
		// Stale callback from a cleared or superseded session.
		s.mu.Unlock()
		return
	}
	s.current = nil

	var failures []error
	if err != nil {
		failures = append(failures, err)
	}
	changed, more := s.advanceLocked()
	failures = append(failures, more...)
	notify, playing := s.transitionLocked(changed)
	s.mu.Unlock()

	s.report(failures)
	if notify != nil {
		notify(playing)
	}
}

func (s *Sequencer) transitionLocked(changed bool) (func(playing bool), bool) {
	if !changed || s.onTransition == nil {
		return nil, false
	}
	return s.onTransition, s.playing
}

func (s *Sequencer) report(failures []error) {
	if s.sink == nil {
		return
	}
	for _, err := range failures {
		s.sink.EngineError(domain.ErrorCodePlayback, err.Error())
	}
}
