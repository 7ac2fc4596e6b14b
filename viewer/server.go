// Package viewer is the local visualization endpoint. It accepts the
// payloads published by package sink, keeps the latest one per resource and
// streams them to browsers over a websocket.
package viewer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/setanarut/colorhull/plotting"
	"github.com/setanarut/colorhull/sink"
)

const (
	maxBodyBytes = 64 << 20
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Replay order for clients that connect after payloads arrived.
var resources = []string{sink.PathImage, sink.PathColors, sink.PathParticles, sink.PathLines}

// Event is one message on the websocket stream.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Options struct {
	// How long a payload stays available to new clients. 0 keeps it until it
	// is replaced.
	TTL time.Duration
}

type Server struct {
	latest   *cache.Cache
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu      sync.Mutex
	clients map[*client]struct{}

	received *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func New(opt Options) *Server {
	ttl, cleanup := cache.NoExpiration, time.Duration(0)
	if opt.TTL > 0 {
		ttl, cleanup = opt.TTL, 2*opt.TTL
	}
	s := &Server{
		latest:  cache.New(ttl, cleanup),
		clients: make(map[*client]struct{}),
		mux:     http.NewServeMux(),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "colorhull_viewer_payloads_total",
			Help: "Payloads accepted per resource.",
		}, []string{"resource"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "colorhull_viewer_rejected_total",
			Help: "Payloads rejected per resource.",
		}, []string{"resource"}),
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(s.received, s.rejected)

	for _, r := range resources {
		s.mux.HandleFunc("POST /"+r, s.handlePublish(r))
	}
	s.mux.HandleFunc("GET /events", s.handleEvents)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handlePublish(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.rejected.WithLabelValues(resource).Inc()
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		data, err := validate(resource, body)
		if err != nil {
			s.rejected.WithLabelValues(resource).Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		msg, err := json.Marshal(Event{Type: resource, Data: data})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.latest.Set(resource, msg, cache.DefaultExpiration)
		s.received.WithLabelValues(resource).Inc()
		s.broadcast(msg)
		w.WriteHeader(http.StatusNoContent)
	}
}

// validate checks the payload shape and returns it as JSON.
func validate(resource string, body []byte) (json.RawMessage, error) {
	switch resource {
	case sink.PathLines:
		rows, err := decodeRows(resource, body, 3)
		if err != nil {
			return nil, err
		}
		if rows%3 != 0 {
			return nil, fmt.Errorf("lines: %d vertices is not a whole number of faces", rows)
		}
	case sink.PathParticles:
		if _, err := decodeRows(resource, body, 5); err != nil {
			return nil, err
		}
	case sink.PathColors:
		var v []float64
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("colors: %w", err)
		}
		if len(v)%3 != 0 {
			return nil, fmt.Errorf("colors: length %d is not a multiple of 3", len(v))
		}
	case sink.PathImage:
		b64 := string(bytes.TrimSpace(body))
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
		if !bytes.HasPrefix(raw, pngSignature) {
			return nil, errors.New("image: payload is not a PNG")
		}
		return json.Marshal(b64)
	default:
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	return json.RawMessage(body), nil
}

// decodeRows parses an array of number rows and requires every row to hold
// exactly width values. Fixed-size arrays would pad or truncate silently.
func decodeRows(resource string, body []byte, width int) (int, error) {
	var rows [][]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, fmt.Errorf("%s: %w", resource, err)
	}
	for i, r := range rows {
		if len(r) != width {
			return 0, fmt.Errorf("%s: row %d has %d values, want %d", resource, i, len(r), width)
		}
	}
	return len(rows), nil
}

func (s *Server) broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("viewer warning: dropping slow client %s", c.conn.RemoteAddr())
			delete(s.clients, c)
			close(c.send)
		}
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.attach(c)

	go s.writeLoop(c)
	// Reads only detect the close; clients never send anything.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.remove(c)
}

// attach replays the cached payloads to c and registers it in one critical
// section, so a publish racing the connect is either replayed or broadcast.
func (s *Server) attach(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, res := range resources {
		if msg, ok := s.latest.Get(res); ok {
			c.send <- msg.([]byte)
		}
	}
	s.clients[c] = struct{}{}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Latest returns the most recent payload of resource.
func (s *Server) Latest(resource string) (json.RawMessage, bool) {
	msg, ok := s.latest.Get(resource)
	if !ok {
		return nil, false
	}
	var ev Event
	if err := json.Unmarshal(msg.([]byte), &ev); err != nil {
		return nil, false
	}
	return ev.Data, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cloud := plotting.Cloud{Title: "colorhull viewer"}
	if data, ok := s.Latest(sink.PathParticles); ok {
		var ps [][5]float64
		if err := json.Unmarshal(data, &ps); err == nil {
			for _, p := range ps {
				cloud.Points = append(cloud.Points, r3.Vec{X: p[0], Y: p[1], Z: p[2]})
			}
		}
	}
	if data, ok := s.Latest(sink.PathLines); ok {
		var vs [][3]float64
		if err := json.Unmarshal(data, &vs); err == nil {
			for i := 0; i+2 < len(vs); i += 3 {
				cloud.Faces = append(cloud.Faces, [3]r3.Vec{toVec(vs[i]), toVec(vs[i+1]), toVec(vs[i+2])})
			}
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := plotting.WriteHull3D(w, cloud); err != nil {
		log.Printf("viewer warning: render index: %v", err)
	}
}

func toVec(v [3]float64) r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// ListenAndServe serves s on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("viewer listening on %s", addr)
	return srv.ListenAndServe()
}
