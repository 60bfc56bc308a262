package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type subscriber struct {
	id   uint64
	conn *websocket.Conn
	hub  *Hub
	out  *outbox

	done      chan struct{}
	closeOnce sync.Once
}

func newSubscriber(id uint64, conn *websocket.Conn, h *Hub) *subscriber {
	return &subscriber{
		id:   id,
		conn: conn,
		hub:  h,
		out:  newOutbox(h.cfg.OutboxLimit),
		done: make(chan struct{}),
	}
}

// writeLoop is the only writer of the connection.
func (s *subscriber) writeLoop(initial []byte) {
	ping := time.NewTicker(s.hub.cfg.PingPeriod)
	defer ping.Stop()

	if err := s.write(websocket.TextMessage, initial); err != nil {
		s.hub.remove(s, err)
		return
	}

	for {
		select {
		case <-s.done:
			return
		case <-s.out.wake:
			for _, frame := range s.out.drain() {
				if err := s.write(websocket.TextMessage, frame); err != nil {
					s.hub.remove(s, err)
					return
				}
			}
		case <-ping.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.hub.remove(s, err)
				return
			}
		}
	}
}

func (s *subscriber) write(messageType int, payload []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, payload)
}

// readLoop drains inbound frames so control messages are processed and a
// closed channel is noticed. Subscribers have nothing to say.
func (s *subscriber) readLoop() {
	pongWait := s.hub.cfg.PingPeriod * 10 / 9
	s.conn.SetReadLimit(_maxInboundSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.hub.remove(s, err)
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}
