package usecase

import (
	"testing"

	"streamfront/internal/domain"
)

func TestFuserAudioDominates(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	f := NewPresentationFuser(sink)

	f.StreamProgress()
	if f.State() != domain.PresentationThinking {
		t.Fatalf("expected thinking, got %s", f.State())
	}

	f.AudioStateChanged(true)
	if f.State() != domain.PresentationSpeaking {
		t.Fatalf("audio must dominate stream progress, got %s", f.State())
	}

	// Turn end while audio is live must not demote the state.
	f.StreamFinished()
	if f.State() != domain.PresentationSpeaking {
		t.Fatalf("stream end must not stop in-flight audio, got %s", f.State())
	}

	f.AudioStateChanged(false)
	if f.State() != domain.PresentationIdle {
		t.Fatalf("expected idle once audio drained, got %s", f.State())
	}
}

func TestFuserThinkingResolvesOnStreamEnd(t *testing.T) {
	t.Parallel()

	f := NewPresentationFuser(&fakeSink{})

	f.StreamProgress()
	f.StreamFinished()
	if f.State() != domain.PresentationIdle {
		t.Fatalf("expected idle after stream end with no audio, got %s", f.State())
	}
}

func TestFuserFallsBackToThinkingAfterAudio(t *testing.T) {
	t.Parallel()

	f := NewPresentationFuser(&fakeSink{})

	f.StreamProgress()
	f.AudioStateChanged(true)
	f.AudioStateChanged(false)
	if f.State() != domain.PresentationThinking {
		t.Fatalf("mid-reception stream with idle audio must read thinking, got %s", f.State())
	}
}

func TestFuserEmitsOnlyOnChange(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	f := NewPresentationFuser(sink)

	f.StreamProgress()
	f.StreamProgress()
	f.AudioStateChanged(true)
	f.AudioStateChanged(true)

	states := sink.snapshotStates()
	if len(states) != 2 ||
		states[0] != domain.PresentationThinking ||
		states[1] != domain.PresentationSpeaking {
		t.Fatalf("unexpected emissions: %v", states)
	}
}

func TestFuserResetAlwaysNotifies(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	f := NewPresentationFuser(sink)

	f.Reset()
	if states := sink.snapshotStates(); len(states) != 1 || states[0] != domain.PresentationIdle {
		t.Fatalf("expected idle notification on reset, got %v", states)
	}
}
