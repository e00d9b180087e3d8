package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"streamfront/internal/domain"
	"streamfront/internal/ports"
	"streamfront/internal/protocol"
)

var ErrNotConnected = errors.New("no open room stream")

// Config controls engine behavior. Cooldown is the minimum interval between
// accepted submissions; Now is injectable for tests and defaults to time.Now.
type Config struct {
	Cooldown time.Duration
	Now      func() time.Time
}

// RoomEngine is the client-side reconstruction engine for one live room. It
// demultiplexes the inbound stream into the transcript log, the echo
// suppressor and the audio sequencer, fuses the presentation state, and
// gates outbound submissions.
type RoomEngine struct {
	dialer ports.StreamDialer
	sink   ports.EventSink

	log   *TranscriptLog
	echo  *EchoSuppressor
	seq   *Sequencer
	fuser *PresentationFuser

	cooldown time.Duration
	now      func() time.Time

	mu           sync.Mutex
	stream       ports.StreamSession
	consumeDone  chan struct{}
	accepting    bool
	lastAccepted time.Time
}

func NewRoomEngine(
	dialer ports.StreamDialer,
	starter ports.PlaybackStarter,
	sink ports.EventSink,
	cfg Config,
) *RoomEngine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 2 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	fuser := NewPresentationFuser(sink)
	seq := NewSequencer(starter, sink)
	seq.SetTransitionObserver(fuser.AudioStateChanged)

	return &RoomEngine{
		dialer:   dialer,
		sink:     sink,
		log:      NewTranscriptLog(cfg.Now),
		echo:     NewEchoSuppressor(),
		seq:      seq,
		fuser:    fuser,
		cooldown: cfg.Cooldown,
		now:      cfg.Now,
	}
}

// Connect joins a room, resetting the transcript and presentation state. Any
// previous stream is closed first; audio already in flight keeps playing.
func (e *RoomEngine) Connect(ctx context.Context, cfg ports.StreamConfig) error {
	e.Close()

	stream, err := e.dialer.Dial(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to join room %q: %w", cfg.RoomID, err)
	}

	e.log.Clear()
	e.fuser.Reset()

	done := make(chan struct{})
	e.mu.Lock()
	e.stream = stream
	e.consumeDone = done
	e.accepting = true
	e.lastAccepted = time.Time{}
	e.mu.Unlock()

	go e.consumeFrames(stream, done)
	return nil
}

// Close releases the wire session and stops frame intake. It does not clear
// the sequencer; enqueued audio finishes naturally.
func (e *RoomEngine) Close() {
	e.mu.Lock()
	stream := e.stream
	done := e.consumeDone
	e.stream = nil
	e.consumeDone = nil
	e.accepting = false
	e.mu.Unlock()

	if stream == nil {
		return
	}
	_ = stream.Close()
	if done != nil {
		<-done
	}
}

// Submit validates, rate-limits and dispatches one outbound message. Empty or
// whitespace-only text is rejected silently. A submission inside the cooldown
// window is rejected with the remaining wait surfaced to the caller; nothing
// reaches the transcript or the wire in either rejected case.
func (e *RoomEngine) Submit(text string) (domain.SubmitResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.SubmitResult{}, nil
	}

	e.mu.Lock()
	if e.stream == nil {
		e.mu.Unlock()
		return domain.SubmitResult{}, ErrNotConnected
	}
	now := e.now()
	if !e.lastAccepted.IsZero() {
		if elapsed := now.Sub(e.lastAccepted); elapsed < e.cooldown {
			remaining := e.cooldown - elapsed
			e.mu.Unlock()
			e.sink.SubmissionRejected(remaining)
			return domain.SubmitResult{CooldownRemaining: remaining}, nil
		}
	}
	e.lastAccepted = now
	stream := e.stream
	e.mu.Unlock()

	entry := e.log.Append(domain.RoleLocalUser, text)
	e.echo.RecordSent(text)
	e.sink.TranscriptAppended(entry)

	if err := stream.SendText(text); err != nil {
		e.sink.EngineError(domain.ErrorCodeSend, err.Error())
		return domain.SubmitResult{Accepted: true, Entry: entry}, fmt.Errorf("failed to send message: %w", err)
	}
	return domain.SubmitResult{Accepted: true, Entry: entry}, nil
}

// Notice appends a locally generated system entry, used for connection
// lifecycle messages. Notices never reach the wire.
func (e *RoomEngine) Notice(text string) domain.TranscriptEntry {
	entry := e.log.Append(domain.RoleSystem, text)
	e.sink.TranscriptAppended(entry)
	return entry
}

// Transcript returns a snapshot of the reconstructed chat record.
func (e *RoomEngine) Transcript() []domain.TranscriptEntry {
	return e.log.Entries()
}

// Presentation returns the current derived activity state.
func (e *RoomEngine) Presentation() domain.PresentationState {
	return e.fuser.State()
}

// SampleSpectrum exposes the sequencer's playback telemetry snapshot.
func (e *RoomEngine) SampleSpectrum() ([]float64, bool) {
	return e.seq.SampleSpectrum()
}

// ClearAudio drops queued fragments and stops in-flight playback.
func (e *RoomEngine) ClearAudio() {
	e.seq.Clear()
}

func (e *RoomEngine) consumeFrames(stream ports.StreamSession, done chan struct{}) {
	defer close(done)

	for raw := range stream.Messages() {
		e.dispatch(raw)
	}

	err := stream.Wait()

	e.mu.Lock()
	active := e.stream == stream
	if active {
		e.stream = nil
		e.consumeDone = nil
		e.accepting = false
	}
	e.mu.Unlock()

	if active && err != nil {
		e.sink.EngineError(domain.ErrorCodeStream, err.Error())
	}
}

// dispatch routes one classified frame. Frames arrive on a single goroutine,
// so routing is processed as non-overlapping tasks in arrival order.
func (e *RoomEngine) dispatch(raw string) {
	frame, err := protocol.Classify(raw)
	switch frame.Kind {
	case domain.FrameUserEcho:
		if e.echo.TryMatch(frame.Text) {
			return
		}
		entry := e.log.Append(domain.RoleRemoteUser, frame.Text)
		e.sink.TranscriptAppended(entry)

	case domain.FrameAudioChunk:
		if err != nil {
			e.sink.EngineError(domain.ErrorCodeMalformedFragment, err.Error())
			return
		}
		e.seq.Enqueue(frame.Payload)

	case domain.FrameStreamEnd:
		e.log.CloseTurn()
		e.fuser.StreamFinished()

	case domain.FrameTextToken:
		entry, extended := e.log.AppendAssistantChunk(frame.Text)
		if extended {
			e.sink.TranscriptExtended(entry, frame.Text)
		} else {
			e.sink.TranscriptAppended(entry)
		}
		e.fuser.StreamProgress()
	}
}
