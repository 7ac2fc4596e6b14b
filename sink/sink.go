// Package sink publishes geometry and images to a local visualization
// endpoint. Publishing is one-way: a request either succeeds or fails, and
// failures are never retried.
package sink

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/setanarut/colorhull"
)

// ErrSinkUnavailable wraps every failed publish.
var ErrSinkUnavailable = errors.New("sink: visualization endpoint unavailable")

// DefaultBaseURL is where the viewer listens by default.
const DefaultBaseURL = "http://localhost:8000"

// Resource paths understood by the viewer.
const (
	PathLines     = "lines"
	PathParticles = "particles"
	PathColors    = "colors"
	PathImage     = "image"
)

// Publisher sends visualization payloads somewhere.
type Publisher interface {
	// PublishLines sends hull faces as consecutive vertex triples.
	PublishLines(vertices [][3]float64) error
	// PublishParticles sends r,g,b,x,y points.
	PublishParticles(particles [][5]float64) error
	// PublishColors sends a flat r,g,b,r,g,b,... array.
	PublishColors(colors []float64) error
	// PublishImage sends a PNG image.
	PublishImage(png []byte) error
}

// HTTPPublisher POSTs payloads to BaseURL/<resource>.
type HTTPPublisher struct {
	BaseURL string
	Client  HTTPClient
}

// NewHTTPPublisher returns a publisher for baseURL. An empty baseURL selects
// DefaultBaseURL and a nil client a StandardClient.
func NewHTTPPublisher(baseURL string, client HTTPClient) *HTTPPublisher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = NewStandardClient(nil)
	}
	return &HTTPPublisher{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (p *HTTPPublisher) PublishLines(vertices [][3]float64) error {
	return p.postJSON(PathLines, vertices)
}

func (p *HTTPPublisher) PublishParticles(particles [][5]float64) error {
	return p.postJSON(PathParticles, particles)
}

func (p *HTTPPublisher) PublishColors(colors []float64) error {
	return p.postJSON(PathColors, colors)
}

func (p *HTTPPublisher) PublishImage(png []byte) error {
	body := base64.StdEncoding.EncodeToString(png)
	return p.post(PathImage, "text/plain", strings.NewReader(body))
}

func (p *HTTPPublisher) postJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return p.post(path, "application/json", bytes.NewReader(data))
}

func (p *HTTPPublisher) post(path, contentType string, body io.Reader) error {
	url := p.BaseURL + "/" + path
	resp, err := p.Client.Post(url, contentType, body)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", ErrSinkUnavailable, url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: POST %s: %s", ErrSinkUnavailable, url, http.StatusText(resp.StatusCode))
	}
	return nil
}

// Discard drops every payload.
type Discard struct{}

func (Discard) PublishLines([][3]float64) error     { return nil }
func (Discard) PublishParticles([][5]float64) error { return nil }
func (Discard) PublishColors([]float64) error       { return nil }
func (Discard) PublishImage([]byte) error           { return nil }

// BestEffort logs publish failures and reports success, so a missing viewer
// never stops a run.
func BestEffort(p Publisher) Publisher {
	return bestEffort{p}
}

type bestEffort struct{ p Publisher }

func (b bestEffort) PublishLines(v [][3]float64) error {
	return b.check(PathLines, b.p.PublishLines(v))
}

func (b bestEffort) PublishParticles(v [][5]float64) error {
	return b.check(PathParticles, b.p.PublishParticles(v))
}

func (b bestEffort) PublishColors(v []float64) error {
	return b.check(PathColors, b.p.PublishColors(v))
}

func (b bestEffort) PublishImage(v []byte) error {
	return b.check(PathImage, b.p.PublishImage(v))
}

func (bestEffort) check(path string, err error) error {
	if err != nil {
		log.Printf("sink warning: %s not published: %v", path, err)
	}
	return nil
}

// HullLines flattens the faces of h into vertex triples.
func HullLines(h *colorhull.Hull) [][3]float64 {
	out := make([][3]float64, 0, 3*len(h.Simplices))
	for _, s := range h.Simplices {
		for _, i := range s {
			out = append(out, vec3(h.Points[i]))
		}
	}
	return out
}

// Particles converts points to r,g,b,x,y rows. Points without position
// channels get x = y = 0.
func Particles(points colorhull.Points) [][5]float64 {
	out := make([][5]float64, len(points))
	for i, p := range points {
		copy(out[i][:], p)
	}
	return out
}

// FlatColors returns the r,g,b channels of points as one flat array.
func FlatColors(points colorhull.Points) []float64 {
	out := make([]float64, 0, 3*len(points))
	for _, p := range points {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

func vec3(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
