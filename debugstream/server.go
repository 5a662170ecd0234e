package debugstream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/milk9111/sentinel/sim"
)

const (
	writeTimeout = time.Second
	// sendBuffer is how many frames a viewer may fall behind before it is
	// dropped.
	sendBuffer = 16
)

// subscriber owns one viewer connection. Frames are queued on send and
// written by the subscriber's own goroutine, so a slow viewer never blocks
// the simulation.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func (s *subscriber) writePump() {
	for data := range s.send {
		if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			break
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
	s.conn.Close()
}

// Server streams scene snapshots as JSON over websocket to read-only debug
// viewers. A viewer that connects mid-run gets the latest frame first.
type Server struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	latest      []byte
	frames      uint64
}

func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:      logger.With("component", "debugstream"),
		subscribers: make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the request and holds the connection until the viewer
// goes away. Anything the viewer sends is discarded.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	// The catch-up frame is queued under the same lock as Publish, so it
	// can never arrive after a newer frame.
	s.mu.Lock()
	if s.latest != nil {
		sub.send <- s.latest
	}
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()
	go sub.writePump()
	s.logger.Info("viewer connected", "remote", r.RemoteAddr)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.drop(sub)
			s.logger.Info("viewer disconnected", "remote", r.RemoteAddr)
			return
		}
	}
}

// drop unregisters sub and stops its writer. It is safe to call more than
// once.
func (s *Server) drop(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(sub)
}

func (s *Server) dropLocked(sub *subscriber) {
	if _, ok := s.subscribers[sub]; !ok {
		return
	}
	delete(s.subscribers, sub)
	close(sub.send)
}

// Publish marshals frame and queues it for every connected viewer. It never
// waits on the network; a viewer whose queue is full is disconnected.
func (s *Server) Publish(frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("debugstream: marshal frame: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = data
	s.frames++
	for sub := range s.subscribers {
		select {
		case sub.send <- data:
		default:
			s.logger.Debug("dropping slow viewer", "remote", sub.conn.RemoteAddr().String())
			s.dropLocked(sub)
		}
	}
	return nil
}

// Viewers returns the number of connected viewers.
func (s *Server) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Frames returns how many frames have been published.
func (s *Server) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close disconnects every viewer.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		s.dropLocked(sub)
	}
}

// System publishes a scene snapshot every Every ticks. It belongs at the end
// of the tick pipeline.
type System struct {
	Server *Server
	Every  int
}

func (sys System) Update(w *sim.World, _ float64) {
	if sys.Server == nil {
		return
	}
	every := uint64(1)
	if sys.Every > 1 {
		every = uint64(sys.Every)
	}
	if w.Tick()%every != 0 {
		return
	}
	if err := sys.Server.Publish(w.Snapshot()); err != nil {
		sys.Server.logger.Error("publish snapshot", "error", err)
	}
}
