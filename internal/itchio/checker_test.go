package itchio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"game_validator/internal/retry"

	"github.com/stretchr/testify/assert"
)

var testRetryConfig = retry.Config{
	MaxRetries: 1,
	BaseDelay:  10 * time.Millisecond,
	MaxDelay:   50 * time.Millisecond,
	Timeout:    1 * time.Second,
}

const playablePage = `<!DOCTYPE html>
<html>
<body>
	<div class="inner_column">
		<div class="game_frame game_loaded" data-height="640">
			<iframe src="/embed/12345"></iframe>
		</div>
	</div>
</body>
</html>`

const downloadOnlyPage = `<!DOCTYPE html>
<html>
<body>
	<div class="inner_column">
		<div class="download_btn">Download game.zip</div>
		<p>This game_frame text is not a class attribute.</p>
	</div>
</body>
</html>`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestIsPlayableWithGameFrame(t *testing.T) {
	server := serve(t, http.StatusOK, playablePage)
	checker := NewChecker("", testRetryConfig)

	assert.True(t, checker.IsPlayable(context.Background(), server.URL))
}

func TestIsPlayableWithoutGameFrame(t *testing.T) {
	server := serve(t, http.StatusOK, downloadOnlyPage)
	checker := NewChecker("", testRetryConfig)

	assert.False(t, checker.IsPlayable(context.Background(), server.URL))
}

func TestIsPlayableSendsUserAgent(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(playablePage))
	}))
	t.Cleanup(server.Close)

	checker := NewChecker("", testRetryConfig)
	checker.IsPlayable(context.Background(), server.URL)

	assert.Equal(t, "Mozilla/5.0 (compatible; GameValidator/1.0)", gotUserAgent)
}

func TestIsPlayableNotFound(t *testing.T) {
	server := serve(t, http.StatusNotFound, "not found")
	checker := NewChecker("", testRetryConfig)

	assert.False(t, checker.IsPlayable(context.Background(), server.URL))
}

func TestIsPlayableUnreachableServer(t *testing.T) {
	server := serve(t, http.StatusOK, playablePage)
	url := server.URL
	server.Close()

	checker := NewChecker("", testRetryConfig)
	assert.False(t, checker.IsPlayable(context.Background(), url))
}

func TestIsPlayableEmptyURL(t *testing.T) {
	checker := NewChecker("", testRetryConfig)

	assert.False(t, checker.IsPlayable(context.Background(), ""))
	assert.False(t, checker.IsPlayable(context.Background(), "   "))
}

func TestIsPlayableMalformedURL(t *testing.T) {
	checker := NewChecker("", testRetryConfig)

	assert.False(t, checker.IsPlayable(context.Background(), "not a url"))
	assert.False(t, checker.IsPlayable(context.Background(), "itch.io/no-scheme"))
}

func TestIsPlayableRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			// Drop the first connection to simulate network flakiness.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack failed: %v", err)
			}
			conn.Close()
			return
		}
		_, _ = w.Write([]byte(playablePage))
	}))
	t.Cleanup(server.Close)

	checker := NewChecker("", testRetryConfig)
	assert.True(t, checker.IsPlayable(context.Background(), server.URL))
	assert.Equal(t, 2, attempts)
}

func TestIsPlayableCustomMarker(t *testing.T) {
	server := serve(t, http.StatusOK, `<html><body><div class="play_area"></div></body></html>`)

	custom := NewChecker("play_area", testRetryConfig)
	assert.True(t, custom.IsPlayable(context.Background(), server.URL))

	standard := NewChecker("", testRetryConfig)
	assert.False(t, standard.IsPlayable(context.Background(), server.URL))
}

func TestHasMarkerClassMatchesWholeClassOnly(t *testing.T) {
	page := `<html><body><div class="game_frame_outer"></div></body></html>`
	server := serve(t, http.StatusOK, page)

	checker := NewChecker("", testRetryConfig)
	assert.False(t, checker.IsPlayable(context.Background(), server.URL))
}
