package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"streamfront/internal/domain"
)

var (
	styleLocal     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	styleRemote    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleAssistant = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	styleSystem    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleState     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func roleLabel(role domain.Role) string {
	switch role {
	case domain.RoleLocalUser:
		return "you"
	case domain.RoleRemoteUser:
		return "viewer"
	case domain.RoleAssistant:
		return "streamer"
	case domain.RoleSystem:
		return "system"
	}
	return string(role)
}

func roleStyle(role domain.Role) lipgloss.Style {
	switch role {
	case domain.RoleLocalUser:
		return styleLocal
	case domain.RoleRemoteUser:
		return styleRemote
	case domain.RoleAssistant:
		return styleAssistant
	}
	return styleSystem
}

func presentationBadge(state domain.PresentationState) string {
	switch state {
	case domain.PresentationSpeaking:
		return "▶ speaking"
	case domain.PresentationThinking:
		return "… thinking"
	}
	return "· idle"
}

var meterRunes = []rune("▁▂▃▄▅▆▇█")

// renderSpectrum maps bin magnitudes onto block characters, one per bin.
func renderSpectrum(bins []float64) string {
	var b strings.Builder
	for _, v := range bins {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		idx := int(v * float64(len(meterRunes)-1))
		b.WriteRune(meterRunes[idx])
	}
	return b.String()
}

// consoleSink renders engine events as terminal lines. Assistant tokens
// stream onto one open line; any other event closes that line first.
type consoleSink struct {
	mu        sync.Mutex
	out       io.Writer
	midStream bool
}

func newConsoleSink(out io.Writer) *consoleSink {
	return &consoleSink{out: out}
}

func (s *consoleSink) TranscriptAppended(entry domain.TranscriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	label := roleStyle(entry.Role).Render(roleLabel(entry.Role) + " ▸ ")
	if entry.Role == domain.RoleAssistant {
		s.breakLineLocked()
		fmt.Fprint(s.out, label+entry.Content)
		s.midStream = true
		return
	}

	s.breakLineLocked()
	fmt.Fprintln(s.out, label+entry.Content)
}

func (s *consoleSink) TranscriptExtended(_ domain.TranscriptEntry, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.out, chunk)
	s.midStream = true
}

func (s *consoleSink) PresentationChanged(state domain.PresentationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakLineLocked()
	fmt.Fprintln(s.out, styleState.Render(presentationBadge(state)))
}

func (s *consoleSink) SubmissionRejected(remaining time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakLineLocked()
	fmt.Fprintln(s.out, styleSystem.Render(fmt.Sprintf("cooldown: wait %.1fs", remaining.Seconds())))
}

func (s *consoleSink) EngineError(code domain.ErrorCode, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakLineLocked()
	fmt.Fprintln(s.out, styleError.Render(fmt.Sprintf("error[%s]: %s", code, detail)))
}

func (s *consoleSink) statusLine(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakLineLocked()
	fmt.Fprintln(s.out, styleSystem.Render(text))
}

func (s *consoleSink) breakLineLocked() {
	if s.midStream {
		fmt.Fprintln(s.out)
		s.midStream = false
	}
}
