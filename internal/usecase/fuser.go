package usecase

import (
	"sync"

	"streamfront/internal/domain"
	"streamfront/internal/ports"
)

// PresentationFuser derives the tri-state activity signal from sequencer
// activity and text-stream progress. Audio truth strictly dominates: a live
// playback session means Speaking regardless of stream state; text-stream
// progress stands in for "composing" only while no audio signal exists.
type PresentationFuser struct {
	sink ports.EventSink

	mu        sync.Mutex
	playing   bool
	receiving bool
	state     domain.PresentationState
}

func NewPresentationFuser(sink ports.EventSink) *PresentationFuser {
	return &PresentationFuser{sink: sink, state: domain.PresentationIdle}
}

// AudioStateChanged records an Idle<->Playing edge from the sequencer.
func (f *PresentationFuser) AudioStateChanged(playing bool) {
	f.mu.Lock()
	f.playing = playing
	f.refreshLocked()
	f.mu.Unlock()
}

// StreamProgress records that a reply token arrived since the last turn end.
func (f *PresentationFuser) StreamProgress() {
	f.mu.Lock()
	f.receiving = true
	f.refreshLocked()
	f.mu.Unlock()
}

// StreamFinished records the end-of-turn marker. It does not touch in-flight
// audio: while a session is still live the state stays Speaking and resolves
// to Idle only when the sequencer drains.
func (f *PresentationFuser) StreamFinished() {
	f.mu.Lock()
	f.receiving = false
	f.refreshLocked()
	f.mu.Unlock()
}

// Reset returns the fuser to Idle on a fresh connection and always notifies,
// so a renderer can resynchronize.
func (f *PresentationFuser) Reset() {
	f.mu.Lock()
	f.playing = false
	f.receiving = false
	f.state = domain.PresentationIdle
	f.mu.Unlock()
	if f.sink != nil {
		f.sink.PresentationChanged(domain.PresentationIdle)
	}
}

func (f *PresentationFuser) State() domain.PresentationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *PresentationFuser) refreshLocked() {
	next := domain.PresentationIdle
	switch {
	case f.playing:
		next = domain.PresentationSpeaking
	case f.receiving:
		next = domain.PresentationThinking
	}
	if next == f.state {
		return
	}
	f.state = next
	if f.sink != nil {
		f.sink.PresentationChanged(next)
	}
}
