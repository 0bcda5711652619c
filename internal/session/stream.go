package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// HeartbeatInterval is the server ping cadence.
	HeartbeatInterval = 2 * time.Second
	// ClientTimeout drops a stream that neither talks nor pongs.
	ClientTimeout = 4 * time.Second

	writeTimeout  = 10 * time.Second
	sendQueueSize = 256
)

// stream wraps one websocket connection: a write pump with heartbeat and a
// bounded outbound queue. A full queue means a stuck client; the stream is
// closed rather than blocking an actor.
type stream struct {
	id   uint64
	conn *websocket.Conn

	send chan []byte

	closeOnce sync.Once
	done      chan struct{}

	// onActivity fires on every inbound frame and pong.
	onActivity func()
}

func newStream(id uint64, conn *websocket.Conn, onActivity func()) *stream {
	s := &stream{
		id:         id,
		conn:       conn,
		send:       make(chan []byte, sendQueueSize),
		done:       make(chan struct{}),
		onActivity: onActivity,
	}
	go s.writePump()
	return s
}

func (s *stream) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// sendJSON queues a message; a full queue closes the stream.
func (s *stream) sendJSON(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[Session %d] Marshal: %v", s.id, err)
		return
	}
	select {
	case s.send <- raw:
	case <-s.done:
	default:
		log.Printf("[Session %d] Send queue full, closing", s.id)
		s.close()
	}
}

func (s *stream) writePump() {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case raw := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// readLoop feeds inbound text frames to handle until the stream dies. It
// owns the read deadline: every frame or pong extends it.
func (s *stream) readLoop(handle func(raw []byte)) {
	_ = s.conn.SetReadDeadline(time.Now().Add(ClientTimeout))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(ClientTimeout))
		if s.onActivity != nil {
			s.onActivity()
		}
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.close()
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(ClientTimeout))
		if s.onActivity != nil {
			s.onActivity()
		}
		handle(raw)
	}
}
