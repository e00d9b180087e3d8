package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the client.
type Config struct {
	Server ServerConfig
	Send   SendConfig
	Audio  AudioConfig
}

type ServerConfig struct {
	BaseURL   string
	RoomID    string
	PersonaID string
}

type SendConfig struct {
	Cooldown time.Duration
}

type AudioConfig struct {
	FFplayCommand string
	FFmpegCommand string
	Volume        int
	SpectrumBins  int
	SampleRate    int
}

// Load resolves configuration from a .env file (when present) and
// environment variables with sensible defaults. Environment variables win
// over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			BaseURL:   envOrDefault("STREAMFRONT_SERVER_URL", "http://127.0.0.1:8000"),
			RoomID:    envOrDefault("STREAMFRONT_ROOM_ID", "lobby"),
			PersonaID: strings.TrimSpace(os.Getenv("STREAMFRONT_PERSONA_ID")),
		},
		Send: SendConfig{
			Cooldown: time.Duration(envOrDefaultInt("STREAMFRONT_SEND_COOLDOWN_MS", 2000)) * time.Millisecond,
		},
		Audio: AudioConfig{
			FFplayCommand: envOrDefault("STREAMFRONT_FFPLAY_COMMAND", "ffplay"),
			FFmpegCommand: envOrDefault("STREAMFRONT_FFMPEG_COMMAND", "ffmpeg"),
			Volume:        envOrDefaultInt("STREAMFRONT_VOLUME", 80),
			SpectrumBins:  envOrDefaultInt("STREAMFRONT_SPECTRUM_BINS", 32),
			SampleRate:    envOrDefaultInt("STREAMFRONT_SPECTRUM_SAMPLE_RATE", 16000),
		},
	}

	if cfg.Send.Cooldown <= 0 {
		cfg.Send.Cooldown = 2 * time.Second
	}
	if cfg.Audio.Volume <= 0 || cfg.Audio.Volume > 100 {
		cfg.Audio.Volume = 80
	}
	if cfg.Audio.SpectrumBins <= 0 {
		cfg.Audio.SpectrumBins = 32
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
