// Package position converts between FEN position strings, board grids and square names.
package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/RedBe-an/OpenChess/internal/domain"
)

// InitialFEN is the canonical initial position.
const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

const Size = 8

var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidSquare   = errors.New("invalid square")
)

// Cell is one square of a Board.
type Cell struct {
	Piece    domain.Piece
	Occupied bool
}

// Board is an 8x8 grid in row-major order. Row 0 is rank 8, column 0 is file a.
type Board [Size][Size]Cell

// At returns the cell at the given square name.
func (b Board) At(square string) (Cell, bool) {
	row, col, err := CoordsOf(square)
	if err != nil {
		return Cell{}, false
	}
	return b[row][col], true
}

// Decode parses a FEN string with the rule engine and maps every square to a cell.
func Decode(fen string) (Board, error) {
	var board Board
	option, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return board, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	squares := nchess.NewGame(option).Position().Board().SquareMap()
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			sq := nchess.NewSquare(nchess.File(col), nchess.Rank(Size-1-row))
			piece, ok := squares[sq]
			if !ok || piece == nchess.NoPiece {
				continue
			}
			p, ok := fromEnginePiece(piece)
			if !ok {
				continue
			}
			board[row][col] = Cell{Piece: p, Occupied: true}
		}
	}
	return board, nil
}

// Placement renders the piece-placement field of a FEN string for the board.
func Placement(b Board) string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		empty := 0
		for col := 0; col < Size; col++ {
			cell := b[row][col]
			if !cell.Occupied {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(cell.Piece.FEN())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row < Size-1 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// PlacementOf returns the first field of a FEN string.
func PlacementOf(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SquareOf returns the square name for board coordinates.
func SquareOf(row, col int) string {
	if !inRange(row) || !inRange(col) {
		return ""
	}
	return string([]byte{byte('a' + col), byte('0' + Size - row)})
}

// CoordsOf is the inverse of SquareOf.
func CoordsOf(square string) (row, col int, err error) {
	s := strings.ToLower(strings.TrimSpace(square))
	if len(s) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSquare, square)
	}
	col = int(s[0] - 'a')
	rank := int(s[1] - '0')
	row = Size - rank
	if s[0] < 'a' || s[1] < '1' || !inRange(col) || !inRange(row) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSquare, square)
	}
	return row, col, nil
}

// ValidSquare reports whether the name addresses a board square.
func ValidSquare(square string) bool {
	_, _, err := CoordsOf(square)
	return err == nil
}

func inRange(v int) bool { return v >= 0 && v < Size }

func fromEnginePiece(p nchess.Piece) (domain.Piece, bool) {
	var kind domain.PieceKind
	switch p.Type() {
	case nchess.Pawn:
		kind = domain.Pawn
	case nchess.Knight:
		kind = domain.Knight
	case nchess.Bishop:
		kind = domain.Bishop
	case nchess.Rook:
		kind = domain.Rook
	case nchess.Queen:
		kind = domain.Queen
	case nchess.King:
		kind = domain.King
	default:
		return domain.Piece{}, false
	}
	side := domain.White
	if p.Color() == nchess.Black {
		side = domain.Black
	}
	return domain.Piece{Kind: kind, Side: side}, true
}
