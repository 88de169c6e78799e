package domain

import "strings"

// Side identifies a chess side.
type Side int

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "unknown"
	}
}

// PieceKind is the type of a chess piece.
type PieceKind int

const (
	Pawn PieceKind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceLetters = [...]string{
	Pawn:   "p",
	Knight: "n",
	Bishop: "b",
	Rook:   "r",
	Queen:  "q",
	King:   "k",
}

// Letter returns the lowercase FEN letter of the kind.
func (k PieceKind) Letter() string {
	if k < Pawn || k > King {
		return ""
	}
	return pieceLetters[k]
}

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "unknown"
	}
}

// ParsePieceKind accepts a FEN letter or a full piece name.
func ParsePieceKind(s string) (PieceKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p", "pawn":
		return Pawn, true
	case "n", "knight":
		return Knight, true
	case "b", "bishop":
		return Bishop, true
	case "r", "rook":
		return Rook, true
	case "q", "queen":
		return Queen, true
	case "k", "king":
		return King, true
	default:
		return 0, false
	}
}

// Piece is an immutable piece value.
type Piece struct {
	Kind PieceKind
	Side Side
}

// FEN returns the piece letter as used in a FEN placement field.
func (p Piece) FEN() string {
	l := p.Kind.Letter()
	if p.Side == White {
		return strings.ToUpper(l)
	}
	return l
}

// GameState is a full projection of a game; it is rebuilt on every mutation.
type GameState struct {
	Position     string `json:"position"`
	MoveNotation string `json:"move_notation"`
	Turn         Side   `json:"turn"`
	Ply          int    `json:"ply"`
	IsOver       bool   `json:"is_over"`
	IsCheck      bool   `json:"is_check"`
	IsCheckmate  bool   `json:"is_checkmate"`
	IsStalemate  bool   `json:"is_stalemate"`
}
