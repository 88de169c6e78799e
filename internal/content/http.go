package content

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// HTTPStore reads and writes objects at {base}/{ref}, the way object-storage buckets
// expose them.
type HTTPStore struct {
	baseURL     string
	token       string
	contentType string
	http        *fasthttp.Client
	timeout     time.Duration
}

type HTTPOption func(*HTTPStore)

// WithBearerToken authenticates every request.
func WithBearerToken(token string) HTTPOption {
	return func(s *HTTPStore) { s.token = strings.TrimSpace(token) }
}

func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithContentType sets the type sent on Put, text/markdown by default.
func WithContentType(ct string) HTTPOption {
	return func(s *HTTPStore) { s.contentType = ct }
}

func WithHTTPDial(dial func(addr string) (net.Conn, error)) HTTPOption {
	return func(s *HTTPStore) { s.http.Dial = dial }
}

func NewHTTPStore(baseURL string, opts ...HTTPOption) *HTTPStore {
	s := &HTTPStore{
		baseURL:     strings.TrimRight(baseURL, "/"),
		contentType: "text/markdown",
		http:        &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 8},
		timeout:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	rel, err := cleanRef(ref)
	if err != nil {
		return nil, err
	}
	var out []byte
	err = s.do(ctx, fasthttp.MethodGet, rel, nil, func(resp *fasthttp.Response) {
		out = append([]byte(nil), resp.Body()...)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPStore) Put(ctx context.Context, ref string, data []byte) error {
	rel, err := cleanRef(ref)
	if err != nil {
		return err
	}
	return s.do(ctx, fasthttp.MethodPut, rel, data, nil)
}

func (s *HTTPStore) do(ctx context.Context, method, rel string, body []byte, onOK func(*fasthttp.Response)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(s.baseURL + "/" + rel)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if body != nil {
		req.Header.SetContentType(s.contentType)
		req.SetBody(body)
	}

	deadline := time.Now().Add(s.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := s.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("content %s %s: %w", method, rel, err)
	}
	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, rel)
	case status < 200 || status >= 300:
		return fmt.Errorf("content %s %s: status=%d", method, rel, status)
	}
	if onOK != nil {
		onOK(resp)
	}
	return nil
}
