package loader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	lterrors "github.com/randalmurphal/leadtrack/pkg/leadtrack/errors"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = lterrors.NewPolicy(
	lterrors.WithMaxAttempts(3),
	lterrors.WithInitialBackoff(time.Millisecond),
	lterrors.WithMaxBackoff(5*time.Millisecond),
)

func TestURLs(t *testing.T) {
	u := loader.DefaultURLs()

	gtm := u.TagManager("GTM-ABC1234")
	assert.Equal(t, "https://www.googletagmanager.com/gtm.js?id=GTM-ABC1234", gtm.URL)
	assert.Equal(t, loader.GlobalGtag, gtm.Global)
	assert.Equal(t, loader.TagManagerElementID, gtm.ElementID)

	assert.Equal(t, "https://www.googletagmanager.com/ns.html?id=GTM-ABC1234", u.TagManagerNoscript("GTM-ABC1234"))

	px := u.Pixel()
	assert.Equal(t, "https://connect.facebook.net/en_US/fbevents.js", px.URL)
	assert.Equal(t, loader.GlobalFbq, px.Global)

	custom := loader.URLs{TagManagerBase: "http://127.0.0.1:9/"}
	assert.Equal(t, "http://127.0.0.1:9/gtm.js?id=a+b", custom.TagManager("a b").URL)
	assert.Equal(t, loader.DefaultPixelSDKURL, custom.Pixel().URL)
}

func TestImmediateAndNever(t *testing.T) {
	fired := 0
	loader.Immediate{}.Load(context.Background(), loader.Script{}, func() { fired++ })
	loader.Never{}.Load(context.Background(), loader.Script{}, func() { fired++ })
	assert.Equal(t, 1, fired)
}

func TestManual(t *testing.T) {
	m := loader.NewManual()
	fired := 0
	m.Load(context.Background(), loader.Script{Global: "gtag"}, func() { fired++ })

	assert.False(t, m.Fire("fbq"))
	assert.True(t, m.Fire("gtag"))
	assert.False(t, m.Fire("gtag"), "fires at most once")
	assert.Equal(t, 1, fired)
	require.Len(t, m.Requests(), 1)
}

func TestHTTP_Load(t *testing.T) {
	t.Run("ready fires after successful fetch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GTM-1", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte("/* gtm */"))
		}))
		defer srv.Close()

		l := loader.NewHTTP(loader.WithClient(srv.Client()), loader.WithRetry(fastRetry))
		script := loader.URLs{TagManagerBase: srv.URL}.TagManager("GTM-1")

		var fired atomic.Int32
		l.Load(context.Background(), script, func() { fired.Add(1) })
		l.Wait()

		assert.Equal(t, int32(1), fired.Load())
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		l := loader.NewHTTP(loader.WithClient(srv.Client()), loader.WithRetry(fastRetry))
		attempts, err := l.Fetch(context.Background(), loader.Script{Global: "fbq", URL: srv.URL})

		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("permanent failure leaves destination unavailable", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			http.NotFound(w, r)
		}))
		defer srv.Close()

		l := loader.NewHTTP(loader.WithClient(srv.Client()), loader.WithRetry(fastRetry))

		var fired atomic.Int32
		l.Load(context.Background(), loader.Script{Global: "fbq", URL: srv.URL}, func() { fired.Add(1) })
		l.Wait()

		assert.Equal(t, int32(0), fired.Load())
		assert.Equal(t, int32(1), hits.Load())

		_, err := l.Fetch(context.Background(), loader.Script{Global: "fbq", URL: srv.URL})
		require.Error(t, err)
		var httpErr *lterrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	})

	t.Run("caller cancellation does not abort the load", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(20 * time.Millisecond)
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		l := loader.NewHTTP(loader.WithClient(srv.Client()), loader.WithRetry(fastRetry))

		ctx, cancel := context.WithCancel(context.Background())
		var fired atomic.Int32
		l.Load(ctx, loader.Script{Global: "gtag", URL: srv.URL}, func() { fired.Add(1) })
		cancel()
		l.Wait()

		assert.Equal(t, int32(1), fired.Load())
	})

	t.Run("slow attempt times out and is retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				time.Sleep(100 * time.Millisecond)
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		l := loader.NewHTTP(
			loader.WithClient(srv.Client()),
			loader.WithRetry(fastRetry),
			loader.WithAttemptTimeout(20*time.Millisecond),
		)
		attempts, err := l.Fetch(context.Background(), loader.Script{Global: "gtag", URL: srv.URL})

		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("every attempt timing out surfaces a TimeoutError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
		}))
		defer srv.Close()

		l := loader.NewHTTP(
			loader.WithClient(srv.Client()),
			loader.WithRetry(lterrors.NewPolicy(lterrors.WithMaxAttempts(2), lterrors.WithInitialBackoff(time.Millisecond))),
			loader.WithAttemptTimeout(5*time.Millisecond),
		)
		attempts, err := l.Fetch(context.Background(), loader.Script{Global: "gtag", URL: srv.URL})

		require.Error(t, err)
		assert.Equal(t, 2, attempts)
		var timeoutErr *lterrors.TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Contains(t, timeoutErr.Operation, srv.URL)
	})
}

func TestHTTP_LoadCachesSuccessfulScripts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	l := loader.NewHTTP(loader.WithClient(srv.Client()), loader.WithRetry(fastRetry))
	script := loader.Script{Global: "fbq", URL: srv.URL}

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		l.Load(context.Background(), script, func() { fired.Add(1) })
	}
	l.Wait()

	cached := false
	l.Load(context.Background(), script, func() { cached = true })
	assert.True(t, cached, "cached script fires before Load returns")

	assert.Equal(t, int32(5), fired.Load())
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTP_LoadRetriesFailedScriptsLater(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	l := loader.NewHTTP(loader.WithClient(srv.Client()), loader.WithRetry(lterrors.NoRetry))
	script := loader.Script{Global: "gtag", URL: srv.URL}

	var fired atomic.Int32
	l.Load(context.Background(), script, func() { fired.Add(1) })
	l.Wait()
	assert.Equal(t, int32(0), fired.Load())

	l.Load(context.Background(), script, func() { fired.Add(1) })
	l.Wait()
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, int32(2), hits.Load())
}
