// Package session drives one interactive game: user actions mutate the game and every
// position change starts a fresh opening resolution in the background.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RedBe-an/OpenChess/internal/chess/game"
	"github.com/RedBe-an/OpenChess/internal/chess/opening"
	"github.com/RedBe-an/OpenChess/internal/chess/openingbook"
	"github.com/RedBe-an/OpenChess/internal/chess/position"
	"github.com/RedBe-an/OpenChess/internal/content"
	"github.com/RedBe-an/OpenChess/internal/domain"
	"github.com/RedBe-an/OpenChess/internal/openingstore"
)

// Resolver names the opening of a game. *opening.Resolver satisfies it.
type Resolver interface {
	ResolveWithFallback(ctx context.Context, src opening.Source) (opening.Resolution, error)
}

// Update is delivered to the listener when a resolution for the latest position settles.
type Update struct {
	Seq        uint64
	Position   string
	Resolution opening.Resolution
	Err        error
}

// Listener receives published updates in increasing Seq order. It runs on the resolving
// goroutine and must not call Wait.
type Listener func(Update)

// State is a read-only view of the session.
type State struct {
	ID         string              `json:"id"`
	Game       domain.GameState    `json:"game"`
	Selected   string              `json:"selected,omitempty"`
	Targets    []string            `json:"targets,omitempty"`
	Resolving  bool                `json:"resolving"`
	Resolution *opening.Resolution `json:"resolution,omitempty"`
	Book       openingbook.Entry   `json:"book"`
}

// Description is the resolved opening enriched with its stored record and document.
type Description struct {
	Resolution opening.Resolution  `json:"resolution"`
	Record     *domain.OpeningInfo `json:"record,omitempty"`
	Content    string              `json:"content,omitempty"`
}

type Option func(*Controller)

func WithID(id string) Option {
	return func(c *Controller) {
		if id = strings.TrimSpace(id); id != "" {
			c.id = id
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithListener(l Listener) Option {
	return func(c *Controller) { c.listener = l }
}

// WithRecords enables Describe to attach opening records.
func WithRecords(repo openingstore.Repository) Option {
	return func(c *Controller) { c.records = repo }
}

// WithContent enables Describe to attach description documents.
func WithContent(store content.Store) Option {
	return func(c *Controller) { c.content = store }
}

// Controller owns one game. All methods are safe for concurrent use.
type Controller struct {
	id       string
	resolver Resolver
	records  openingstore.Repository
	content  content.Store
	listener Listener
	logger   *zap.Logger

	base       context.Context
	stop       context.CancelFunc
	mu         sync.Mutex
	deliverMu  sync.Mutex // serializes listener calls in sequence order
	mgr        *game.Manager
	selected   string
	targets    []string
	seq        uint64
	cancel     context.CancelFunc
	pending    chan struct{}
	latest     *opening.Resolution
	resolveErr error
}

func New(resolver Resolver, opts ...Option) *Controller {
	return newController(game.NewManager(), resolver, opts...)
}

func newController(mgr *game.Manager, resolver Resolver, opts ...Option) *Controller {
	base, stop := context.WithCancel(context.Background())
	c := &Controller{
		id:       uuid.NewString(),
		resolver: resolver,
		logger:   zap.NewNop(),
		base:     base,
		stop:     stop,
		mgr:      mgr,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("session", c.id))
	return c
}

func (c *Controller) ID() string { return c.id }

// Close cancels any resolution in flight. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.stop()
}

// Select remembers square and returns its legal destinations. A square without
// legal moves clears the selection.
func (c *Controller) Select(square string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	targets := c.mgr.ListMoves(square)
	if len(targets) == 0 {
		c.clearSelectionLocked()
		return targets
	}
	c.selected = strings.ToLower(strings.TrimSpace(square))
	c.targets = targets
	return append([]string(nil), targets...)
}

// Move plays from→to, promoting to a queen when needed.
func (c *Controller) Move(from, to string) bool {
	return c.MovePromote(from, to, game.DefaultPromotion)
}

func (c *Controller) MovePromote(from, to string, promotion domain.PieceKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mgr.ApplyPromotion(from, to, promotion) {
		return false
	}
	c.clearSelectionLocked()
	c.startResolutionLocked()
	return true
}

// MoveTo moves the selected piece to the square. The selection is cleared either way.
func (c *Controller) MoveTo(to string) bool {
	return c.MoveToPromote(to, game.DefaultPromotion)
}

func (c *Controller) MoveToPromote(to string, promotion domain.PieceKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	from := c.selected
	c.clearSelectionLocked()
	if from == "" || !c.mgr.ApplyPromotion(from, to, promotion) {
		return false
	}
	c.startResolutionLocked()
	return true
}

func (c *Controller) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mgr.Undo() {
		return false
	}
	c.clearSelectionLocked()
	c.startResolutionLocked()
	return true
}

func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mgr.Reset()
	c.clearSelectionLocked()
	c.startResolutionLocked()
}

// Import replaces the game with movetext. Rejected text leaves the session untouched.
func (c *Controller) Import(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mgr.LoadMoveNotation(text) {
		return false
	}
	c.clearSelectionLocked()
	c.startResolutionLocked()
	return true
}

// Refresh starts a resolution for the current position without changing it.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startResolutionLocked()
}

func (c *Controller) clearSelectionLocked() {
	c.selected = ""
	c.targets = nil
}

func (c *Controller) startResolutionLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(c.base)
	done := make(chan struct{})
	c.cancel = cancel
	c.pending = done
	c.latest = nil
	c.resolveErr = nil
	if c.resolver == nil {
		cancel()
		close(done)
		c.pending = nil
		return
	}
	src := c.mgr.Clone()
	go c.resolve(ctx, cancel, seq, src, done)
}

func (c *Controller) resolve(ctx context.Context, cancel context.CancelFunc, seq uint64, src *game.Manager, done chan struct{}) {
	defer close(done)
	defer cancel()

	res, err := c.resolver.ResolveWithFallback(ctx, src)

	// The sequence is checked while holding deliverMu, so once a newer update is
	// delivered an older one can no longer pass the check.
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("resolution_discarded", zap.Uint64("seq", seq))
		return
	}
	if err != nil {
		c.resolveErr = err
		c.logger.Error("resolution_failed", zap.Uint64("seq", seq), zap.Error(err))
	} else {
		c.latest = &res
	}
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener(Update{Seq: seq, Position: src.Position(), Resolution: res, Err: err})
	}

	c.mu.Lock()
	if c.pending == done {
		c.pending = nil
	}
	c.mu.Unlock()
}

// Wait blocks until the resolution for the latest position has settled and been
// delivered to the listener, or ctx ends.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		pending := c.pending
		c.mu.Unlock()
		if pending == nil {
			return nil
		}
		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Latest returns the published resolution of the current position, if any.
func (c *Controller) Latest() (opening.Resolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return opening.Resolution{}, false
	}
	return *c.latest, true
}

// Err returns the error of the latest resolution, set only for broken game history.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveErr
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		ID:        c.id,
		Game:      c.mgr.Snapshot(),
		Selected:  c.selected,
		Targets:   append([]string(nil), c.targets...),
		Resolving: c.pending != nil,
		Book:      c.mgr.BookOpening(),
	}
	if c.latest != nil {
		res := *c.latest
		st.Resolution = &res
	}
	return st
}

// Board decodes the current position.
func (c *Controller) Board() (position.Board, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mgr.Board()
}

// Moves returns the played moves in UCI notation.
func (c *Controller) Moves() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mgr.UCIHistory()
}

// Describe enriches the latest resolution with the stored record of its opening and the
// record's description document. Missing records and documents are not errors.
func (c *Controller) Describe(ctx context.Context) (Description, error) {
	res, ok := c.Latest()
	if !ok || res.Info == nil {
		return Description{Resolution: res}, nil
	}
	out := Description{Resolution: res}
	if c.records == nil {
		return out, nil
	}
	rec, err := c.records.FindByName(ctx, res.Info.Name)
	if err != nil {
		return out, fmt.Errorf("describe %q: %w", res.Info.Name, err)
	}
	out.Record = rec
	if rec == nil || rec.ContentRef == "" || c.content == nil {
		return out, nil
	}
	data, err := c.content.Fetch(ctx, rec.ContentRef)
	if errors.Is(err, content.ErrNotFound) {
		c.logger.Warn("opening_content_missing", zap.String("ref", rec.ContentRef))
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("describe %q: %w", res.Info.Name, err)
	}
	out.Content = string(data)
	return out, nil
}
