// Package openingbook classifies move sequences against the ECO table bundled with the rules engine.
package openingbook

import (
	"strings"
	"sync"

	chesslib "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

var (
	bookOnce sync.Once
	book     *opening.BookECO
)

// Entry is an ECO classification.
type Entry struct {
	Code  string
	Title string
}

// Empty reports whether the entry carries no classification.
func (e Entry) Empty() bool { return e.Code == "" && e.Title == "" }

func loadBook() *opening.BookECO {
	bookOnce.Do(func() {
		book = opening.NewBookECO()
	})
	return book
}

// Classify returns the deepest ECO entry matching the move sequence.
func Classify(moves []*chesslib.Move) Entry {
	if len(moves) == 0 {
		return Entry{}
	}
	b := loadBook()
	if b == nil {
		return Entry{}
	}
	eco := b.Find(moves)
	if eco == nil {
		return Entry{}
	}
	return Entry{Code: eco.Code(), Title: eco.Title()}
}

// ClassifyGame classifies the moves played in game.
func ClassifyGame(game *chesslib.Game) Entry {
	if game == nil {
		return Entry{}
	}
	return Classify(game.Moves())
}

// NormalizeToken reduces a code or title to lowercase alphanumerics for loose comparisons.
func NormalizeToken(s string) string {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches reports whether the entry's code or title matches token loosely.
func (e Entry) Matches(token string) bool {
	norm := NormalizeToken(token)
	if norm == "" {
		return false
	}
	return norm == NormalizeToken(e.Code) || norm == NormalizeToken(e.Title)
}
