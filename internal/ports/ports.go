package ports

import (
	"context"
	"time"

	"streamfront/internal/domain"
)

// StreamConfig describes how to join a live room.
type StreamConfig struct {
	BaseURL   string
	RoomID    string
	PersonaID string
}

// StreamSession is one open room connection. Messages yields raw inbound wire
// units until the connection closes; the channel is closed afterwards.
type StreamSession interface {
	SendText(text string) error
	Messages() <-chan string
	Wait() error
	Close() error
}

// StreamDialer opens room connections.
type StreamDialer interface {
	Dial(ctx context.Context, cfg StreamConfig) (StreamSession, error)
}

// PlaybackSession is one in-flight fragment playback. Stop forcibly
// terminates it and synchronously releases its decode resource; it is safe to
// call in any state and more than once. Spectrum returns frequency-bin
// magnitudes, or ok=false while no telemetry data is available.
type PlaybackSession interface {
	Stop()
	Spectrum() ([]float64, bool)
}

// PlaybackStarter begins playback of one complete encoded audio fragment.
// done is invoked exactly once, asynchronously, on natural completion or
// decode/playback failure; it is never invoked after Stop. A non-nil error
// return means no session was created and done will never fire.
type PlaybackStarter interface {
	Start(payload []byte, done func(err error)) (PlaybackSession, error)
}

// EventSink receives engine events for rendering and telemetry consumers.
type EventSink interface {
	TranscriptAppended(entry domain.TranscriptEntry)
	TranscriptExtended(entry domain.TranscriptEntry, chunk string)
	PresentationChanged(state domain.PresentationState)
	SubmissionRejected(remaining time.Duration)
	EngineError(code domain.ErrorCode, detail string)
}
