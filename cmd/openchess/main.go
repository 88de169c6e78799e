// Command openchess is an interactive board that names the opening of every position.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/RedBe-an/OpenChess/internal/chessbuilder"
	appcfg "github.com/RedBe-an/OpenChess/internal/config"
	"github.com/RedBe-an/OpenChess/internal/obslog"
	"github.com/RedBe-an/OpenChess/internal/openingstore"
	"github.com/RedBe-an/OpenChess/internal/session"
)

// backend adapts the wired dependencies to the shell.
type backend struct {
	*chessbuilder.Deps
}

func (b backend) SaveSession(ctx context.Context, c *session.Controller) error {
	if b.Sessions == nil {
		return chessbuilder.ErrNoSessionStore
	}
	return b.Sessions.Save(ctx, c)
}

func (b backend) ForgetSession(ctx context.Context, id string) (bool, error) {
	if b.Sessions == nil {
		return false, chessbuilder.ErrNoSessionStore
	}
	ok, err := b.Sessions.Exists(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	return true, b.Sessions.Delete(ctx, id)
}

func (b backend) Page(ctx context.Context, slug string) (openingstore.Page, error) {
	return openingstore.LoadPage(ctx, b.Records, b.Content, slug)
}

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	deps, err := chessbuilder.New(cfg, logger)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer deps.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "white> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		log.Fatalf("readline: %v", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	ann := &announcer{f: deps.Formatter, out: out}
	notify := session.WithListener(ann.onUpdate)
	sh := newShell(backend{deps}, deps.Formatter, out, notify)
	defer sh.close()

	fmt.Fprintln(out, "OpenChess: type help for commands")
	logger.Info("session_started", zap.String("session", sh.ctrl.ID()), zap.String("explorer", cfg.ExplorerURL))

	for {
		rl.SetPrompt(sh.prompt())
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) {
			return
		}
		if errors.Is(err, readline.ErrInterrupt) {
			if strings.TrimSpace(line) == "" {
				return
			}
			continue
		}
		if err != nil {
			continue
		}
		switch err := sh.execute(line); {
		case errors.Is(err, errQuit):
			return
		case err != nil:
			fmt.Fprintln(out, deps.Formatter.Text("error", map[string]any{"Err": err.Error()}))
		}
	}
}

func historyFile() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + string(os.PathSeparator) + "openchess_history"
	}
	return ".openchess_history"
}
