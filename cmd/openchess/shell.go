package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/RedBe-an/OpenChess/internal/domain"
	"github.com/RedBe-an/OpenChess/internal/openingstore"
	"github.com/RedBe-an/OpenChess/internal/presenter"
	"github.com/RedBe-an/OpenChess/internal/session"
)

var errQuit = errors.New("quit")

// sessionBackend creates, saves and restores sessions.
type sessionBackend interface {
	NewSession(opts ...session.Option) *session.Controller
	RestoreSession(ctx context.Context, id string, opts ...session.Option) (*session.Controller, error)
	SaveSession(ctx context.Context, c *session.Controller) error
	// ForgetSession deletes a stored session and reports whether one existed.
	ForgetSession(ctx context.Context, id string) (bool, error)
	Page(ctx context.Context, slug string) (openingstore.Page, error)
}

// announcer prints resolutions as they settle and skips one that names the opening
// already on screen.
type announcer struct {
	mu    sync.Mutex
	f     *presenter.Formatter
	out   io.Writer
	shown bool
	last  *domain.OpeningInfo
}

func (a *announcer) onUpdate(u session.Update) {
	if u.Err != nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.shown && a.last.SameOpening(u.Resolution.Info) {
		return
	}
	a.shown = true
	a.last = u.Resolution.Info
	fmt.Fprintln(a.out, a.f.Resolution(&u.Resolution, false))
}

// shell executes one REPL command per line against the current session.
type shell struct {
	backend sessionBackend
	f       *presenter.Formatter
	out     io.Writer
	ctrl    *session.Controller
	opts    []session.Option
	timeout time.Duration
}

func newShell(backend sessionBackend, f *presenter.Formatter, out io.Writer, opts ...session.Option) *shell {
	return &shell{
		backend: backend,
		f:       f,
		out:     out,
		ctrl:    backend.NewSession(opts...),
		opts:    opts,
		timeout: 30 * time.Second,
	}
}

func (s *shell) close() {
	if s.ctrl != nil {
		s.ctrl.Close()
	}
}

func (s *shell) prompt() string {
	return s.f.Prompt(s.ctrl.State().Game.Turn)
}

func (s *shell) println(text string) {
	fmt.Fprintln(s.out, text)
}

// execute runs a command line. It returns errQuit when the user leaves.
func (s *shell) execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "help", "h", "?":
		s.println(s.f.Help())
	case "quit", "exit", "q":
		return errQuit
	case "select", "sel":
		if len(args) != 1 {
			return s.usage("select <square>")
		}
		s.println(s.f.Targets(args[0], s.ctrl.Select(args[0])))
	case "move", "mv":
		return s.move(args)
	case "to":
		if len(args) != 1 {
			return s.usage("to <square>")
		}
		st := s.ctrl.State()
		if st.Selected == "" {
			s.println(s.f.Text("move.no_selection", nil))
			return nil
		}
		mv := st.Selected + args[0]
		if s.ctrl.MoveTo(args[0]) {
			s.println(s.f.Text("move.ok", map[string]any{"Move": mv}))
		} else {
			s.println(s.f.Text("move.illegal", map[string]any{"Move": mv}))
		}
	case "undo", "u":
		if s.ctrl.Undo() {
			s.println(s.f.Text("undo.ok", nil))
		} else {
			s.println(s.f.Text("undo.empty", nil))
		}
	case "reset":
		s.ctrl.Reset()
		s.println(s.f.Text("reset.ok", nil))
	case "import":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if text == "" {
			return s.usage("import <movetext>")
		}
		if s.ctrl.Import(text) {
			s.println(s.f.Text("import.ok", map[string]any{"Plies": s.ctrl.State().Game.Ply}))
		} else {
			s.println(s.f.Text("import.rejected", nil))
		}
	case "board", "b":
		board, err := s.ctrl.Board()
		if err != nil {
			return err
		}
		st := s.ctrl.State()
		s.println(s.f.Board(board, st.Selected, st.Targets))
	case "state", "s":
		s.println(s.f.State(s.ctrl.State()))
	case "opening", "o":
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.ctrl.Wait(ctx); err != nil {
			return err
		}
		if err := s.ctrl.Err(); err != nil {
			return err
		}
		st := s.ctrl.State()
		s.println(s.f.Resolution(st.Resolution, st.Resolving))
	case "describe", "d":
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.ctrl.Wait(ctx); err != nil {
			return err
		}
		desc, err := s.ctrl.Describe(ctx)
		if err != nil {
			return err
		}
		s.println(s.f.Description(desc))
	case "save":
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.backend.SaveSession(ctx, s.ctrl); err != nil {
			return err
		}
		s.println(s.f.Text("session.saved", map[string]any{"ID": s.ctrl.ID()}))
	case "load":
		if len(args) != 1 {
			return s.usage("load <id>")
		}
		return s.load(args[0])
	case "forget":
		if len(args) != 1 {
			return s.usage("forget <id>")
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		existed, err := s.backend.ForgetSession(ctx, args[0])
		if err != nil {
			return err
		}
		if existed {
			s.println(s.f.Text("session.forgotten", map[string]any{"ID": args[0]}))
		} else {
			s.println(s.f.Text("session.missing", map[string]any{"ID": args[0]}))
		}
	case "page", "p":
		if len(args) != 1 {
			return s.usage("page <slug>")
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		page, err := s.backend.Page(ctx, args[0])
		if errors.Is(err, openingstore.ErrNoPage) {
			s.println(s.f.Text("page.missing", map[string]any{"Slug": args[0]}))
			return nil
		}
		if err != nil {
			return err
		}
		s.println(s.f.Page(page))
	default:
		s.println(s.f.Text("unknown_command", map[string]any{"Command": fields[0]}))
	}
	return nil
}

func (s *shell) move(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return s.usage("move <from> <to> [q|r|b|n]")
	}
	promotion := domain.Queen
	if len(args) == 3 {
		kind, ok := domain.ParsePieceKind(args[2])
		if !ok {
			return s.usage("move <from> <to> [q|r|b|n]")
		}
		promotion = kind
	}
	mv := strings.ToLower(args[0] + args[1])
	if s.ctrl.MovePromote(args[0], args[1], promotion) {
		s.println(s.f.Text("move.ok", map[string]any{"Move": mv}))
	} else {
		s.println(s.f.Text("move.illegal", map[string]any{"Move": mv}))
	}
	return nil
}

func (s *shell) load(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	restored, err := s.backend.RestoreSession(ctx, id, s.opts...)
	if err != nil {
		return err
	}
	if restored == nil {
		s.println(s.f.Text("session.missing", map[string]any{"ID": id}))
		return nil
	}
	s.ctrl.Close()
	s.ctrl = restored
	s.println(s.f.Text("session.loaded", map[string]any{"ID": id, "Plies": restored.State().Game.Ply}))
	return nil
}

func (s *shell) usage(u string) error {
	s.println(s.f.Text("usage", map[string]any{"Usage": u}))
	return nil
}
