package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/plantuml"
)

const source = "@startuml\nAlice -> Bob: hi\n@enduml\n"

// scripted serves the given status codes in order, then 200 forever.
func scripted(t *testing.T, codes ...int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n < len(codes) && codes[n] != http.StatusOK {
			w.WriteHeader(codes[n])
			w.Write([]byte("nope"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("PNGDATA:" + r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// testClient records delays instead of sleeping.
func testClient(server string, jitter float64) (*Client, *[]time.Duration) {
	var delays []time.Duration
	c := New(Options{Server: server, InitialDelay: 100 * time.Millisecond})
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	c.jitter = func() float64 { return jitter }
	return c, &delays
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, DefaultServer, c.server)
	assert.Equal(t, FormatPNG, c.format)
	assert.Equal(t, DefaultMaxRetries, c.maxRetries)
	assert.Equal(t, DefaultInitialDelay, c.initialDelay)
	assert.Equal(t, DefaultTimeout, c.http.Timeout)

	assert.Equal(t, 0, New(Options{MaxRetries: -1}).maxRetries)
}

func TestClient_URL(t *testing.T) {
	c := New(Options{Server: "http://plantuml.local/plantuml/", Format: FormatSVG})
	url, err := c.URL(source)
	require.NoError(t, err)

	encoded, err := plantuml.Encode(source)
	require.NoError(t, err)
	assert.Equal(t, "http://plantuml.local/plantuml/svg/"+encoded, url)
}

func TestRenderAndSave_RetriesTransientFailures(t *testing.T) {
	srv, calls := scripted(t, 503, 503, 200)
	c, delays := testClient(srv.URL, 0.75)
	out := filepath.Join(t.TempDir(), "nested", "diagram.png")

	data, err := c.RenderAndSave(context.Background(), source, out)
	require.NoError(t, err)

	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
	require.Len(t, *delays, 2)
	assert.Equal(t, 75*time.Millisecond, (*delays)[0])
	assert.Equal(t, 150*time.Millisecond, (*delays)[1])

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, written)
	assert.True(t, strings.HasPrefix(string(written), "PNGDATA:/png/"))
}

func TestRender_DelaysStayWithinJitterBounds(t *testing.T) {
	srv, _ := scripted(t, 500, 502, 504, 429)
	c, delays := testClient(srv.URL, 0)
	c.jitter = New(Options{}).jitter

	_, err := c.Render(context.Background(), source)
	require.NoError(t, err)
	require.Len(t, *delays, 4)

	for i, d := range *delays {
		full := c.initialDelay * time.Duration(1<<i)
		assert.GreaterOrEqual(t, d, full/2, "delay %d", i)
		assert.Less(t, d, full, "delay %d", i)
		if i > 0 {
			assert.Greater(t, d, (*delays)[i-1], "delays must grow")
		}
	}
}

func TestRender_ForbiddenIsPermanent(t *testing.T) {
	srv, calls := scripted(t, 403)
	c, delays := testClient(srv.URL, 1)

	_, err := c.Render(context.Background(), source)
	require.Error(t, err)

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Permanent)
	assert.Equal(t, 403, se.StatusCode)
	assert.Equal(t, 1, se.Attempts)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	assert.Empty(t, *delays)
	assert.True(t, errors.Is(err, c4.ErrExternalService))
	assert.Contains(t, err.Error(), "access denied")
}

func TestRender_UnauthorizedIsPermanent(t *testing.T) {
	srv, calls := scripted(t, 401)
	c, _ := testClient(srv.URL, 1)

	_, err := c.Render(context.Background(), source)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestRender_ExhaustsRetries(t *testing.T) {
	codes := make([]int, 20)
	for i := range codes {
		codes[i] = http.StatusServiceUnavailable
	}
	srv, calls := scripted(t, codes...)
	c, delays := testClient(srv.URL, 1)

	_, err := c.Render(context.Background(), source)
	require.Error(t, err)

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.False(t, se.Permanent)
	assert.Equal(t, DefaultMaxRetries+1, se.Attempts)
	assert.EqualValues(t, DefaultMaxRetries+1, atomic.LoadInt32(calls))
	// No sleep after the final attempt.
	assert.Len(t, *delays, DefaultMaxRetries)
	assert.Contains(t, err.Error(), "HTTP 503: server error")
	assert.Contains(t, err.Error(), "after 6 attempts")
}

func TestRender_NetworkErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, delays := testClient(url, 1)
	c.maxRetries = 2

	_, err := c.Render(context.Background(), source)
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Network())
	assert.Equal(t, 3, se.Attempts)
	assert.Len(t, *delays, 2)
}

func TestRender_CancelledDuringBackoff(t *testing.T) {
	srv, calls := scripted(t, 503, 503, 503)
	c, _ := testClient(srv.URL, 1)
	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.Render(ctx, source)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestRenderAndSave_DoesNotWriteOnFailure(t *testing.T) {
	srv, _ := scripted(t, 403)
	c, _ := testClient(srv.URL, 1)
	out := filepath.Join(t.TempDir(), "d.png")

	_, err := c.RenderAndSave(context.Background(), source, out)
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestStatusMessage(t *testing.T) {
	tests := map[int]string{
		0:   "network error",
		400: "HTTP 400: invalid PlantUML syntax",
		401: "HTTP 401: access denied",
		429: "HTTP 429: rate limited",
		502: "HTTP 502: server error",
		404: "HTTP 404",
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusMessage(code))
	}
}
