package domain

import (
	"time"

	"github.com/google/uuid"
)

// FrameKind identifies the classified type of one inbound wire unit.
type FrameKind string

const (
	FrameUserEcho   FrameKind = "user_echo"
	FrameAudioChunk FrameKind = "audio_chunk"
	FrameStreamEnd  FrameKind = "stream_end"
	FrameTextToken  FrameKind = "text_token"
)

// Frame is one classified logical unit extracted from an inbound message.
// Text is set for FrameUserEcho and FrameTextToken; Payload carries the
// decoded audio bytes for FrameAudioChunk.
type Frame struct {
	Kind    FrameKind
	Text    string
	Payload []byte
}

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleLocalUser  Role = "local_user"
	RoleRemoteUser Role = "remote_user"
	RoleAssistant  Role = "assistant"
	RoleSystem     Role = "system"
)

// TranscriptEntry is one ordered chat record. Only the tail entry, and only
// when its role is RoleAssistant, may have Content extended in place.
type TranscriptEntry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTranscriptEntry mints an entry with a fresh ID.
func NewTranscriptEntry(role Role, content string, at time.Time) TranscriptEntry {
	return TranscriptEntry{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: at,
	}
}

// PresentationState is the derived tri-state activity signal. It is never set
// directly by external callers.
type PresentationState string

const (
	PresentationIdle     PresentationState = "idle"
	PresentationThinking PresentationState = "thinking"
	PresentationSpeaking PresentationState = "speaking"
)

// ErrorCode identifies non-fatal engine errors surfaced through the sink.
type ErrorCode string

const (
	ErrorCodeStartup           ErrorCode = "startup"
	ErrorCodeStream            ErrorCode = "stream"
	ErrorCodeMalformedFragment ErrorCode = "malformed_fragment"
	ErrorCodePlayback          ErrorCode = "playback"
	ErrorCodeTelemetry         ErrorCode = "telemetry"
	ErrorCodeSend              ErrorCode = "send"
)

// SubmitResult reports the outcome of one Submit call. When Accepted is
// false, CooldownRemaining carries the transient wait indicator (zero for an
// empty-text rejection).
type SubmitResult struct {
	Accepted          bool
	Entry             TranscriptEntry
	CooldownRemaining time.Duration
}
