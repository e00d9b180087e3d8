package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

const (
	analysisWindow = 1024
	feedTick       = 50 * time.Millisecond
)

// spectrumAnalyzer decodes a fragment to mono PCM with ffmpeg and keeps a
// sliding sample window advanced at roughly realtime pace, so snapshots track
// the audible portion of the fragment instead of the instantly-decoded whole.
type spectrumAnalyzer struct {
	bins       int
	sampleRate int

	mu      sync.Mutex
	window  []float64
	filled  int
	stopped bool

	stopOnce sync.Once
	kill     func()
}

func newSpectrumAnalyzer(cfg Config, payload []byte) (*spectrumAnalyzer, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "-",
		"-f", "s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-",
	}
	cmd := exec.Command(cfg.FFmpegCommand, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("failed to create decoder stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("failed to start decoder: %w", err)
	}

	a := &spectrumAnalyzer{
		bins:       cfg.SpectrumBins,
		sampleRate: cfg.SampleRate,
		window:     make([]float64, analysisWindow),
		kill: func() {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		},
	}

	go func() {
		_, _ = stdin.Write(payload)
		_ = stdin.Close()
	}()
	go a.consume(stdout)
	go func() { _ = cmd.Wait() }()

	return a, nil
}

// consume advances the window by one realtime tick's worth of samples per
// tick until the decoder drains or the analyzer stops.
func (a *spectrumAnalyzer) consume(pcm io.Reader) {
	samplesPerTick := a.sampleRate / int(time.Second/feedTick)
	if samplesPerTick < 1 {
		samplesPerTick = 1
	}
	buf := make([]byte, samplesPerTick*2)

	ticker := time.NewTicker(feedTick)
	defer ticker.Stop()

	for range ticker.C {
		a.mu.Lock()
		stopped := a.stopped
		a.mu.Unlock()
		if stopped {
			return
		}

		n, err := io.ReadFull(pcm, buf)
		if n > 0 {
			a.push(buf[:n-n%2])
		}
		if err != nil {
			return
		}
	}
}

func (a *spectrumAnalyzer) push(chunk []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i+1 < len(chunk); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(chunk[i:]))
		a.window = append(a.window[1:], float64(sample)/32768.0)
		if a.filled < len(a.window) {
			a.filled++
		}
	}
}

// sample computes magnitude bins over the current window. ok is false until
// samples have arrived or once the analyzer is stopped.
func (a *spectrumAnalyzer) sample() ([]float64, bool) {
	a.mu.Lock()
	if a.stopped || a.filled == 0 {
		a.mu.Unlock()
		return nil, false
	}
	window := make([]float64, len(a.window))
	copy(window, a.window)
	a.mu.Unlock()

	return magnitudeBins(window, a.bins), true
}

func (a *spectrumAnalyzer) stop() {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		a.stopped = true
		a.mu.Unlock()
		a.kill()
	})
}

// magnitudeBins evaluates one Goertzel pass per bin, spreading bins evenly
// across the representable band and normalizing by window length.
func magnitudeBins(window []float64, bins int) []float64 {
	n := len(window)
	out := make([]float64, bins)
	for b := 0; b < bins; b++ {
		k := (b + 1) * (n / 2) / (bins + 1)
		if k < 1 {
			k = 1
		}
		w := 2 * math.Pi * float64(k) / float64(n)
		coeff := 2 * math.Cos(w)

		var s0, s1, s2 float64
		for _, x := range window {
			s0 = x + coeff*s1 - s2
			s2 = s1
			s1 = s0
		}
		power := s1*s1 + s2*s2 - coeff*s1*s2
		if power < 0 {
			power = 0
		}
		out[b] = math.Sqrt(power) * 2 / float64(n)
	}
	return out
}
