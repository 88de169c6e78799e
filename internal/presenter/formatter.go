// Package presenter renders session state as terminal text.
package presenter

import (
	"strconv"
	"strings"

	"github.com/RedBe-an/OpenChess/internal/chess/opening"
	"github.com/RedBe-an/OpenChess/internal/chess/position"
	"github.com/RedBe-an/OpenChess/internal/domain"
	"github.com/RedBe-an/OpenChess/internal/msgcat"
	"github.com/RedBe-an/OpenChess/internal/openingstore"
	"github.com/RedBe-an/OpenChess/internal/session"
)

// Formatter renders session values through message templates.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	return &Formatter{cat: cat}
}

// Text renders an arbitrary message key.
func (f *Formatter) Text(key string, data any) string {
	return f.cat.Text(key, data)
}

func (f *Formatter) Help() string {
	return strings.TrimRight(f.cat.Text("help", nil), "\n")
}

func (f *Formatter) Prompt(turn domain.Side) string {
	return f.cat.Text("prompt", map[string]any{"Turn": turn.String()})
}

func (f *Formatter) State(st session.State) string {
	g := st.Game
	lines := []string{
		f.cat.Text("state.line", map[string]any{
			"Turn":        g.Turn.String(),
			"Ply":         g.Ply,
			"IsCheck":     g.IsCheck,
			"IsCheckmate": g.IsCheckmate,
			"IsStalemate": g.IsStalemate,
			"IsOver":      g.IsOver,
		}),
		f.cat.Text("state.moves", map[string]any{"Notation": g.MoveNotation}),
		f.cat.Text("state.position", map[string]any{"Position": g.Position}),
	}
	if !st.Book.Empty() {
		lines = append(lines, f.cat.Text("state.book", map[string]any{"Code": st.Book.Code, "Title": st.Book.Title}))
	}
	return strings.Join(lines, "\n")
}

// Board draws the grid with rank 8 on top. Selected and target squares are bracketed.
func (f *Formatter) Board(b position.Board, selected string, targets []string) string {
	mark := make(map[string]bool, len(targets))
	for _, t := range targets {
		mark[t] = true
	}
	var sb strings.Builder
	for row := 0; row < position.Size; row++ {
		sb.WriteString(strconv.Itoa(position.Size - row))
		sb.WriteString(" ")
		for col := 0; col < position.Size; col++ {
			sq := position.SquareOf(row, col)
			glyph := "."
			if cell := b[row][col]; cell.Occupied {
				glyph = cell.Piece.FEN()
			}
			switch {
			case sq == selected:
				sb.WriteString("(" + glyph + ")")
			case mark[sq]:
				sb.WriteString("[" + glyph + "]")
			default:
				sb.WriteString(" " + glyph + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("   a  b  c  d  e  f  g  h")
	return sb.String()
}

func (f *Formatter) Targets(square string, targets []string) string {
	if len(targets) == 0 {
		return f.cat.Text("moves.none", map[string]any{"Square": square})
	}
	return f.cat.Text("moves.targets", map[string]any{"Square": square, "Targets": targets})
}

// Resolution renders an opening resolution with its reference games.
func (f *Formatter) Resolution(res *opening.Resolution, resolving bool) string {
	if res == nil {
		if resolving {
			return f.cat.Text("opening.pending", nil)
		}
		return f.cat.Text("opening.none", nil)
	}
	var lines []string
	switch {
	case res.Info == nil:
		lines = append(lines, f.cat.Text("opening.none", nil))
	case res.IsFallback:
		lines = append(lines, f.cat.Text("opening.fallback", map[string]any{
			"ECO": res.Info.ECOCode, "Name": res.Info.Name, "Depth": res.Depth,
		}))
	default:
		lines = append(lines, f.cat.Text("opening.found", map[string]any{
			"ECO": res.Info.ECOCode, "Name": res.Info.Name,
		}))
	}
	for _, g := range res.TopGames {
		lines = append(lines, f.game(g))
	}
	if res.Failures > 0 {
		lines = append(lines, f.cat.Text("opening.failures", map[string]any{"Failures": res.Failures, "Lookups": res.Lookups}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) game(g domain.TopGame) string {
	return f.cat.Text("opening.game", map[string]any{
		"White":       g.White.Name,
		"WhiteRating": g.White.Rating,
		"Black":       g.Black.Name,
		"BlackRating": g.Black.Rating,
		"Result":      resultText(g.Result),
		"Date":        g.Date(),
	})
}

func resultText(r domain.GameResult) string {
	switch r {
	case domain.ResultWhite:
		return "1-0"
	case domain.ResultBlack:
		return "0-1"
	case domain.ResultDraw:
		return "½-½"
	default:
		return "*"
	}
}

func (f *Formatter) Description(d session.Description) string {
	if d.Resolution.Info == nil {
		return f.cat.Text("describe.none", nil)
	}
	if d.Record == nil {
		return f.cat.Text("describe.no_record", map[string]any{"Name": d.Resolution.Info.Name})
	}
	return f.record(d.Record, d.Content)
}

// Page renders an opening page: the record line followed by its document.
func (f *Formatter) Page(p openingstore.Page) string {
	return f.record(p.Record, string(p.Content))
}

func (f *Formatter) record(rec *domain.OpeningInfo, body string) string {
	out := f.cat.Text("describe.record", map[string]any{
		"Name":  rec.Name,
		"ECO":   rec.ECOCode,
		"Slug":  rec.URLSlug,
		"Moves": rec.MovesNotation,
	})
	if body = strings.TrimSpace(body); body != "" {
		out += "\n\n" + body
	}
	return out
}
