package bootstrap

import (
	"streamfront/internal/audio"
	"streamfront/internal/config"
	"streamfront/internal/ports"
	"streamfront/internal/providers/room"
	"streamfront/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Engine *usecase.RoomEngine
	Config config.Config
}

// Build wires all client dependencies for the current runtime.
func Build(sink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	engine := usecase.NewRoomEngine(
		room.NewDialer(room.Config{BaseURL: cfg.Server.BaseURL}),
		audio.NewEngine(audio.Config{
			FFplayCommand: cfg.Audio.FFplayCommand,
			FFmpegCommand: cfg.Audio.FFmpegCommand,
			Volume:        cfg.Audio.Volume,
			SpectrumBins:  cfg.Audio.SpectrumBins,
			SampleRate:    cfg.Audio.SampleRate,
		}, sink),
		sink,
		usecase.Config{Cooldown: cfg.Send.Cooldown},
	)

	return Services{Engine: engine, Config: cfg}, nil
}
