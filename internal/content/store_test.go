package content

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func TestDirStoreRoundTrip(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	ctx := context.Background()
	ref := MDXRef("sicilian-defense")
	if err := s.Put(ctx, ref, []byte("# Sicilian")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Fetch(ctx, ref)
	if err != nil || string(got) != "# Sicilian" {
		t.Fatalf("Fetch: %q %v", got, err)
	}
	if _, err := s.Fetch(ctx, MDXRef("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDirStoreRejectsEscapes(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	for _, ref := range []string{"", "  ", "../etc/passwd", "mdx/../../x", "/"} {
		if _, err := s.Fetch(context.Background(), ref); !errors.Is(err, ErrInvalidRef) {
			t.Fatalf("expected ErrInvalidRef for %q, got %v", ref, err)
		}
	}
}

func TestHTTPStore(t *testing.T) {
	var mu sync.Mutex
	objects := map[string][]byte{}
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Request.Header.Peek("Authorization")) != "Bearer tok" {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}
		key := string(ctx.Path())
		mu.Lock()
		defer mu.Unlock()
		switch string(ctx.Method()) {
		case fasthttp.MethodPut:
			objects[key] = append([]byte(nil), ctx.PostBody()...)
		case fasthttp.MethodGet:
			data, ok := objects[key]
			if !ok {
				ctx.SetStatusCode(fasthttp.StatusNotFound)
				return
			}
			ctx.SetBody(data)
		}
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	dial := func(string) (net.Conn, error) { return ln.Dial() }

	s := NewHTTPStore("http://content.test/openings", WithBearerToken("tok"), WithHTTPDial(dial))
	ctx := context.Background()
	if err := s.Put(ctx, "mdx/ruy-lopez.mdx", []byte("Ruy")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Fetch(ctx, "mdx/ruy-lopez.mdx")
	if err != nil || string(got) != "Ruy" {
		t.Fatalf("Fetch: %q %v", got, err)
	}
	mu.Lock()
	_, stored := objects["/openings/mdx/ruy-lopez.mdx"]
	mu.Unlock()
	if !stored {
		t.Fatalf("expected object under base path, have %v", objects)
	}
	if _, err := s.Fetch(ctx, "mdx/none.mdx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	unauth := NewHTTPStore("http://content.test/openings", WithHTTPDial(dial))
	if _, err := unauth.Fetch(ctx, "mdx/ruy-lopez.mdx"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected status error, got %v", err)
	}
}
