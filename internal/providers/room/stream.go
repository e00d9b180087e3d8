// Package room implements the live-room wire transport over a websocket. One
// inbound text message is one wire unit; outbound submissions are raw text
// with no envelope.
package room

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"streamfront/internal/ports"
)

// Config controls the room server endpoint.
type Config struct {
	BaseURL string
}

// Dialer implements ports.StreamDialer against a live-room server.
type Dialer struct {
	cfg Config
}

func NewDialer(cfg Config) *Dialer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:8000"
	}
	return &Dialer{cfg: cfg}
}

func (d *Dialer) Dial(ctx context.Context, cfg ports.StreamConfig) (ports.StreamSession, error) {
	base := cfg.BaseURL
	if strings.TrimSpace(base) == "" {
		base = d.cfg.BaseURL
	}

	wsURL, err := buildRoomURL(base, cfg.RoomID, cfg.PersonaID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to room websocket: %w", err)
	}

	session := &roomSession{
		conn:     conn,
		messages: make(chan string, 64),
		outbound: make(chan string, 16),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.writeLoop()
	go func() {
		session.wg.Wait()
		close(session.messages)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type roomSession struct {
	conn *websocket.Conn

	messages chan string
	outbound chan string
	stop     chan struct{}
	done     chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeOnce  sync.Once
	sendMu     sync.RWMutex
	sendClosed bool
}

func (s *roomSession) SendText(text string) error {
	s.sendMu.RLock()
	closed := s.sendClosed
	s.sendMu.RUnlock()
	if closed {
		return errors.New("room session is already closed")
	}

	select {
	case s.outbound <- text:
		return nil
	case <-s.done:
		if err := s.waitErr(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

func (s *roomSession) Messages() <-chan string {
	return s.messages
}

func (s *roomSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *roomSession) Close() error {
	s.closeOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.outbound)
		s.sendMu.Unlock()

		close(s.stop)
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *roomSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *roomSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *roomSession) writeLoop() {
	defer s.wg.Done()

	for text := range s.outbound {
		if err := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			s.setErr(fmt.Errorf("failed to send message: %w", err))
			return
		}
	}
}

func (s *roomSession) readLoop() {
	defer s.wg.Done()

	for {
		kind, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read room message: %w", err))
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		select {
		case s.messages <- string(payload):
		case <-s.stop:
			return
		}
	}
}

func buildRoomURL(base, roomID, personaID string) (string, error) {
	if strings.TrimSpace(roomID) == "" {
		return "", errors.New("room id is required")
	}

	base = strings.TrimSpace(base)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	roomURL, err := url.Parse(base + "/ws/rooms/" + url.PathEscape(roomID))
	if err != nil {
		return "", fmt.Errorf("invalid room server base URL: %w", err)
	}
	if roomURL.Scheme != "ws" && roomURL.Scheme != "wss" {
		return "", fmt.Errorf("unsupported scheme %q", roomURL.Scheme)
	}

	if personaID != "" {
		query := roomURL.Query()
		query.Set("persona_id", personaID)
		roomURL.RawQuery = query.Encode()
	}
	return roomURL.String(), nil
}
