// Package explorer queries an opening explorer over HTTP for the opening and reference
// games of an exact position.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/RedBe-an/OpenChess/internal/chess/opening"
	"github.com/RedBe-an/OpenChess/internal/domain"
)

// DefaultBaseURL is the public Lichess explorer.
const DefaultBaseURL = "https://explorer.lichess.ovh"

// ErrDecode marks an answer whose body could not be decoded.
var ErrDecode = errors.New("decode explorer response")

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("explorer api error: status=%d body=%s", e.Code, e.Body)
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	switch e.Code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Retryable reports whether a Lookup error may go away on a later attempt. Transport
// failures and 429/5xx answers may; other statuses, undecodable bodies and ended
// contexts will not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrDecode) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

type Client struct {
	baseURL string
	path    string
	http    *fasthttp.Client
	headers HeaderProvider
	token   string

	defaultTimeout time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

// WithMaxConnsPerHost caps concurrent connections; n <= 0 keeps the default.
func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.http.MaxConnsPerHost = n
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithDatabase selects the explorer database path, "masters" by default.
func WithDatabase(name string) Option {
	return func(c *Client) {
		if name = strings.Trim(strings.TrimSpace(name), "/"); name != "" {
			c.path = "/" + name
		}
	}
}

// WithDial replaces the dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		path:           "/masters",
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type openingJSON struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

type playerJSON struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

type gameJSON struct {
	ID     string     `json:"id"`
	Winner *string    `json:"winner"`
	White  playerJSON `json:"white"`
	Black  playerJSON `json:"black"`
	Year   int        `json:"year"`
	Month  string     `json:"month"`
}

type positionResponse struct {
	Opening     *openingJSON `json:"opening"`
	RecentGames []gameJSON   `json:"recentGames"`
	TopGames    []gameJSON   `json:"topGames"`
}

// Lookup fetches the opening of fen. A response without an opening is a miss, not an error.
func (c *Client) Lookup(ctx context.Context, fen string) (opening.LookupResult, error) {
	var resp positionResponse
	if err := c.getJSON(ctx, c.path, map[string]string{"fen": fen}, &resp); err != nil {
		return opening.LookupResult{}, err
	}
	return resp.toResult(), nil
}

func (r positionResponse) toResult() opening.LookupResult {
	var out opening.LookupResult
	if r.Opening != nil && (strings.TrimSpace(r.Opening.Name) != "" || strings.TrimSpace(r.Opening.ECO) != "") {
		out.Opening = &domain.OpeningInfo{
			ECOCode: strings.TrimSpace(r.Opening.ECO),
			Name:    strings.TrimSpace(r.Opening.Name),
		}
	}
	games := r.RecentGames
	if len(games) == 0 {
		games = r.TopGames
	}
	out.TopGames = make([]domain.TopGame, 0, len(games))
	for _, g := range games {
		winner := ""
		if g.Winner != nil {
			winner = *g.Winner
		}
		out.TopGames = append(out.TopGames, domain.TopGame{
			ID:     g.ID,
			White:  domain.Player{Name: g.White.Name, Rating: g.White.Rating},
			Black:  domain.Player{Name: g.Black.Name, Rating: g.Black.Rating},
			Result: domain.ParseGameResult(winner, true),
			Year:   g.Year,
			Month:  g.Month,
		})
	}
	return out
}

var _ opening.Lookup = (*Client)(nil)

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	args := req.URI().QueryArgs()
	for k, v := range query {
		args.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return fmt.Errorf("explorer request failed: %w", err)
	}
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return &StatusError{Code: status, Body: truncate(string(resp.Body()), 512)}
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}
	return nil
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
