package sink

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/setanarut/colorhull"
)

type recorded struct {
	path        string
	contentType string
	body        []byte
}

func recorder(t *testing.T, status int) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, recorded{r.URL.Path, r.Header.Get("Content-Type"), body})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), got...)
	}
}

func TestHTTPPublisherPaths(t *testing.T) {
	srv, requests := recorder(t, http.StatusNoContent)
	p := NewHTTPPublisher(srv.URL+"/", nil)

	require.NoError(t, p.PublishLines([][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}))
	require.NoError(t, p.PublishParticles([][5]float64{{0.1, 0.2, 0.3, 0, 1}}))
	require.NoError(t, p.PublishColors([]float64{0.1, 0.2, 0.3}))
	require.NoError(t, p.PublishImage([]byte("\x89PNG\r\n\x1a\nrest")))

	got := requests()
	require.Len(t, got, 4)
	assert.Equal(t, "/lines", got[0].path)
	assert.Equal(t, "application/json", got[0].contentType)
	assert.JSONEq(t, `[[0,0,0],[1,0,0],[0,1,0]]`, string(got[0].body))

	assert.Equal(t, "/particles", got[1].path)
	assert.JSONEq(t, `[[0.1,0.2,0.3,0,1]]`, string(got[1].body))

	assert.Equal(t, "/colors", got[2].path)
	var colors []float64
	require.NoError(t, json.Unmarshal(got[2].body, &colors))
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, colors)

	assert.Equal(t, "/image", got[3].path)
	assert.Equal(t, "text/plain", got[3].contentType)
	raw, err := base64.StdEncoding.DecodeString(string(got[3].body))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG\r\n\x1a\nrest", string(raw))
}

func TestHTTPPublisherErrors(t *testing.T) {
	srv, _ := recorder(t, http.StatusInternalServerError)
	p := NewHTTPPublisher(srv.URL, nil)
	assert.ErrorIs(t, p.PublishColors([]float64{1, 1, 1}), ErrSinkUnavailable)

	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()
	p = NewHTTPPublisher(url, nil)
	assert.ErrorIs(t, p.PublishLines(nil), ErrSinkUnavailable)
}

func TestBestEffortSwallowsErrors(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	p := BestEffort(NewHTTPPublisher(url, nil))
	assert.NoError(t, p.PublishLines(nil))
	assert.NoError(t, p.PublishParticles(nil))
	assert.NoError(t, p.PublishColors(nil))
	assert.NoError(t, p.PublishImage(nil))
}

func TestDefaultBaseURL(t *testing.T) {
	p := NewHTTPPublisher("", nil)
	assert.Equal(t, DefaultBaseURL, p.BaseURL)
	assert.IsType(t, &StandardClient{}, p.Client)
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	assert.NoError(t, p.PublishLines(nil))
	assert.NoError(t, p.PublishImage([]byte{1}))
}

func TestConversions(t *testing.T) {
	h, err := colorhull.ConvexHull([]r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}})
	require.NoError(t, err)
	lines := HullLines(h)
	assert.Len(t, lines, 12)

	pts := colorhull.Points{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6, 0.7, 0.8}}
	assert.Equal(t, [][5]float64{{0.1, 0.2, 0.3, 0, 0}, {0.4, 0.5, 0.6, 0.7, 0.8}}, Particles(pts))
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, FlatColors(pts))
}
