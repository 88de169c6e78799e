// Package game tracks a single chess game on top of the rules engine: legal move listing,
// move application, replay-based undo, move-text import and position reconstruction.
package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/RedBe-an/OpenChess/internal/chess/openingbook"
	"github.com/RedBe-an/OpenChess/internal/chess/position"
	"github.com/RedBe-an/OpenChess/internal/domain"
)

// ErrHistoryCorrupted means a move recorded as legal could not be replayed.
var ErrHistoryCorrupted = errors.New("move history corrupted")

// DefaultPromotion is used when the caller does not choose a promotion piece.
const DefaultPromotion = domain.Queen

// Manager owns one mutable game. It is not safe for concurrent use; callers that share a
// manager across goroutines must serialize access or work on a Clone.
type Manager struct {
	engine  *nchess.Game
	history []string // UCI tokens, oldest first
}

func NewManager() *Manager {
	return &Manager{engine: nchess.NewGame()}
}

// ListMoves returns the sorted destination squares reachable from the given square.
// An empty square, a bad square name or a blocked piece yields an empty list.
func (m *Manager) ListMoves(from string) []string {
	sq := normalizeSquare(from)
	out := []string{}
	if !position.ValidSquare(sq) {
		return out
	}
	seen := make(map[string]struct{})
	for _, mv := range m.engine.ValidMoves() {
		if mv.S1().String() != sq {
			continue
		}
		to := mv.S2().String()
		if _, ok := seen[to]; ok {
			continue
		}
		seen[to] = struct{}{}
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

// ApplyMove plays from→to, promoting to a queen when the move is a promotion.
func (m *Manager) ApplyMove(from, to string) bool {
	return m.ApplyPromotion(from, to, DefaultPromotion)
}

// ApplyPromotion plays from→to with the given promotion piece. Illegal input leaves the
// game unchanged and returns false.
func (m *Manager) ApplyPromotion(from, to string, promotion domain.PieceKind) bool {
	if m.engine.Outcome() != nchess.NoOutcome {
		return false
	}
	token, ok := m.uciFor(normalizeSquare(from), normalizeSquare(to), promotion)
	if !ok {
		return false
	}
	mv, err := nchess.UCINotation{}.Decode(m.engine.Position(), token)
	if err != nil {
		return false
	}
	if err := m.engine.Move(mv, nil); err != nil {
		return false
	}
	m.history = append(m.history, token)
	return true
}

func (m *Manager) uciFor(from, to string, promotion domain.PieceKind) (string, bool) {
	if !position.ValidSquare(from) || !position.ValidSquare(to) {
		return "", false
	}
	found := false
	promotes := false
	for _, mv := range m.engine.ValidMoves() {
		if mv.S1().String() != from || mv.S2().String() != to {
			continue
		}
		found = true
		if mv.Promo() != nchess.NoPieceType {
			promotes = true
		}
	}
	if !found {
		return "", false
	}
	token := from + to
	if promotes {
		switch promotion {
		case domain.Queen, domain.Rook, domain.Bishop, domain.Knight:
			token += promotion.Letter()
		default:
			return "", false
		}
	}
	return token, true
}

// Undo removes the last move and rebuilds the position by replaying the remaining history
// from the initial position.
func (m *Manager) Undo() bool {
	if len(m.history) == 0 {
		return false
	}
	remaining := append([]string(nil), m.history[:len(m.history)-1]...)
	g, err := replay(remaining)
	if err != nil {
		return false
	}
	m.engine = g
	m.history = remaining
	return true
}

// Reset discards the history and returns to the initial position.
func (m *Manager) Reset() {
	m.engine = nchess.NewGame()
	m.history = nil
}

// LoadMoveNotation replaces the game with the moves in text. The import is atomic: any
// token that cannot be played rejects the whole text and keeps the current game.
func (m *Manager) LoadMoveNotation(text string) bool {
	tokens := tokenizeMovetext(text)
	if len(tokens) == 0 {
		return false
	}
	g := nchess.NewGame()
	history := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		pos := g.Position()
		mv, err := decodeToken(pos, tok)
		if err != nil {
			return false
		}
		uci := strings.ToLower(nchess.UCINotation{}.Encode(pos, mv))
		if err := g.Move(mv, nil); err != nil {
			return false
		}
		history = append(history, uci)
	}
	m.engine = g
	m.history = history
	return true
}

// LoadUCI restores a game from stored UCI moves.
func (m *Manager) LoadUCI(moves []string) error {
	normalized := make([]string, 0, len(moves))
	for _, mv := range moves {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(mv)))
	}
	g, err := replay(normalized)
	if err != nil {
		return err
	}
	m.engine = g
	m.history = normalized
	return nil
}

// IsInitialPosition compares the current position with the canonical initial position.
func (m *Manager) IsInitialPosition() bool {
	return m.Position() == position.InitialFEN
}

// Position returns the FEN of the current position.
func (m *Manager) Position() string {
	return m.engine.FEN()
}

// Board decodes the current position into a grid.
func (m *Manager) Board() (position.Board, error) {
	return position.Decode(m.Position())
}

// Len returns the number of plies played.
func (m *Manager) Len() int { return len(m.history) }

// UCIHistory returns a copy of the move history in UCI notation.
func (m *Manager) UCIHistory() []string {
	return append([]string(nil), m.history...)
}

// History returns the move history in SAN.
func (m *Manager) History() []string {
	positions := m.engine.Positions()
	moves := m.engine.Moves()
	san := make([]string, 0, len(moves))
	notation := nchess.AlgebraicNotation{}
	for i, mv := range moves {
		if i >= len(positions) {
			break
		}
		san = append(san, notation.Encode(positions[i], mv))
	}
	return san
}

// MoveNotation renders the history as numbered movetext, e.g. "1. e4 e5 2. Nf3".
func (m *Manager) MoveNotation() string {
	return formatMovetext(m.History())
}

// PositionAt reconstructs the FEN after the first ply moves.
func (m *Manager) PositionAt(ply int) (string, error) {
	if ply < 0 || ply > len(m.history) {
		return "", fmt.Errorf("ply %d out of range [0,%d]", ply, len(m.history))
	}
	if ply == len(m.history) {
		return m.Position(), nil
	}
	g, err := replay(m.history[:ply])
	if err != nil {
		return "", err
	}
	return g.FEN(), nil
}

// Snapshot projects the current game into a GameState.
func (m *Manager) Snapshot() domain.GameState {
	method := m.engine.Method()
	mate := m.engine.Outcome() != nchess.NoOutcome && method == nchess.Checkmate
	return domain.GameState{
		Position:     m.Position(),
		MoveNotation: m.MoveNotation(),
		Turn:         sideOf(m.engine.Position().Turn()),
		Ply:          len(m.history),
		IsOver:       m.engine.Outcome() != nchess.NoOutcome,
		IsCheck:      mate || m.lastMoveChecks(),
		IsCheckmate:  mate,
		IsStalemate:  m.engine.Outcome() != nchess.NoOutcome && method == nchess.Stalemate,
	}
}

// BookOpening classifies the played moves against the bundled ECO table.
func (m *Manager) BookOpening() openingbook.Entry {
	return openingbook.ClassifyGame(m.engine)
}

// Clone returns an independent copy of the manager.
func (m *Manager) Clone() *Manager {
	return &Manager{
		engine:  m.engine.Clone(),
		history: append([]string(nil), m.history...),
	}
}

func (m *Manager) lastMoveChecks() bool {
	moves := m.engine.Moves()
	if len(moves) == 0 {
		return false
	}
	return moves[len(moves)-1].HasTag(nchess.Check)
}

func replay(moves []string) (*nchess.Game, error) {
	g := nchess.NewGame()
	for i, mv := range moves {
		if err := g.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("%w: ply %d %q: %v", ErrHistoryCorrupted, i+1, mv, err)
		}
	}
	return g, nil
}

func sideOf(c nchess.Color) domain.Side {
	if c == nchess.Black {
		return domain.Black
	}
	return domain.White
}

func normalizeSquare(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
