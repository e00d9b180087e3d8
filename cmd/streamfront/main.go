package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"streamfront/internal/bootstrap"
	"streamfront/internal/ports"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "streamfront:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		serverURL string
		roomID    string
		personaID string
	)

	cmd := &cobra.Command{
		Use:   "streamfront",
		Short: "Terminal client for live virtual streamer rooms",
		Long: "streamfront joins a live room over one websocket stream, plays the\n" +
			"streamer's voice as it arrives and lets you chat from stdin.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), serverURL, roomID, personaID)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "room server base URL (overrides STREAMFRONT_SERVER_URL)")
	cmd.Flags().StringVar(&roomID, "room", "", "room to join (overrides STREAMFRONT_ROOM_ID)")
	cmd.Flags().StringVar(&personaID, "persona", "", "persona selector (overrides STREAMFRONT_PERSONA_ID)")

	return cmd
}

func run(ctx context.Context, serverURL, roomID, personaID string) error {
	sink := newConsoleSink(os.Stdout)

	svc, err := bootstrap.Build(sink)
	if err != nil {
		return err
	}

	streamCfg := ports.StreamConfig{
		BaseURL:   serverURL,
		RoomID:    roomID,
		PersonaID: personaID,
	}
	if streamCfg.RoomID == "" {
		streamCfg.RoomID = svc.Config.Server.RoomID
	}
	if streamCfg.PersonaID == "" {
		streamCfg.PersonaID = svc.Config.Server.PersonaID
	}

	engine := svc.Engine
	if err := engine.Connect(ctx, streamCfg); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer engine.Close()

	engine.Notice("joined room " + streamCfg.RoomID)
	sink.statusLine("type a message and press enter, /spectrum for a level meter, ctrl-c to leave")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			engine.Notice("leaving room " + streamCfg.RoomID)
			return nil
		case line, ok := <-lines:
			if !ok {
				engine.Notice("leaving room " + streamCfg.RoomID)
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if strings.TrimSpace(line) == "/spectrum" {
				if bins, ok := engine.SampleSpectrum(); ok {
					sink.statusLine(renderSpectrum(bins))
				} else {
					sink.statusLine("no audio playing")
				}
				continue
			}
			if _, err := engine.Submit(line); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}
