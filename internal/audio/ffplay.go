// Package audio realizes fragment playback with external ffplay processes
// and derives spectrum telemetry from an independent ffmpeg PCM decode, so a
// telemetry failure can never affect the play/advance decision.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"streamfront/internal/domain"
	"streamfront/internal/ports"
)

// Config controls the playback and decode commands.
type Config struct {
	FFplayCommand string
	FFmpegCommand string
	Volume        int
	SpectrumBins  int
	SampleRate    int
}

// Engine implements ports.PlaybackStarter. Each fragment plays in its own
// ffplay process; the process exit is the session's terminal event.
type Engine struct {
	cfg  Config
	sink ports.EventSink
}

func NewEngine(cfg Config, sink ports.EventSink) *Engine {
	if cfg.FFplayCommand == "" {
		cfg.FFplayCommand = "ffplay"
	}
	if cfg.FFmpegCommand == "" {
		cfg.FFmpegCommand = "ffmpeg"
	}
	if cfg.Volume <= 0 {
		cfg.Volume = 80
	}
	if cfg.SpectrumBins <= 0 {
		cfg.SpectrumBins = 32
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &Engine{cfg: cfg, sink: sink}
}

func (e *Engine) Start(payload []byte, done func(err error)) (ports.PlaybackSession, error) {
	if len(payload) == 0 {
		return nil, errors.New("empty audio fragment")
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
		"-autoexit",
		"-nodisp",
		"-volume", strconv.Itoa(e.cfg.Volume),
		"-i", "-",
	}
	cmd := exec.Command(e.cfg.FFplayCommand, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffplay stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("failed to start ffplay: %w", err)
	}

	session := &playbackSession{
		process: cmd.Process,
		done:    done,
	}

	analyzer, aerr := newSpectrumAnalyzer(e.cfg, payload)
	if aerr != nil && e.sink != nil {
		e.sink.EngineError(domain.ErrorCodeTelemetry, fmt.Sprintf("spectrum unavailable: %v", aerr))
	}
	session.analyzer = analyzer

	go func() {
		_, _ = stdin.Write(payload)
		_ = stdin.Close()
	}()

	go func() {
		waitErr := cmd.Wait()
		if analyzer != nil {
			analyzer.stop()
		}
		session.finish(normalizeExit(waitErr, &stderr))
	}()

	return session, nil
}

type playbackSession struct {
	mu       sync.Mutex
	process  *os.Process
	analyzer *spectrumAnalyzer
	done     func(err error)
	stopped  bool
	finished bool
}

// Stop forcibly terminates the session and releases its resources. The
// terminal callback is suppressed once Stop has begun.
func (s *playbackSession) Stop() {
	s.mu.Lock()
	if s.stopped || s.finished {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	process := s.process
	analyzer := s.analyzer
	s.mu.Unlock()

	if process != nil {
		_ = process.Kill()
	}
	if analyzer != nil {
		analyzer.stop()
	}
}

func (s *playbackSession) Spectrum() ([]float64, bool) {
	s.mu.Lock()
	analyzer := s.analyzer
	active := !s.stopped && !s.finished
	s.mu.Unlock()

	if analyzer == nil || !active {
		return nil, false
	}
	return analyzer.sample()
}

func (s *playbackSession) finish(err error) {
	s.mu.Lock()
	if s.stopped || s.finished {
		s.finished = true
		s.mu.Unlock()
		return
	}
	s.finished = true
	done := s.done
	s.mu.Unlock()

	if done != nil {
		done(err)
	}
}

func normalizeExit(err error, stderr *bytes.Buffer) error {
	if err == nil {
		return nil
	}
	detail := bytes.TrimSpace(stderr.Bytes())
	if len(detail) > 0 {
		return fmt.Errorf("fragment playback failed: %w: %s", err, detail)
	}
	return fmt.Errorf("fragment playback failed: %w", err)
}
