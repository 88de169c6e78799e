package position

import (
	"errors"
	"strings"
	"testing"

	"github.com/RedBe-an/OpenChess/internal/domain"
)

func TestCoordsOfInvertsSquareOf(t *testing.T) {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			sq := SquareOf(r, c)
			gotR, gotC, err := CoordsOf(sq)
			if err != nil {
				t.Fatalf("CoordsOf(%q): %v", sq, err)
			}
			if gotR != r || gotC != c {
				t.Fatalf("CoordsOf(SquareOf(%d,%d)) = (%d,%d)", r, c, gotR, gotC)
			}
		}
	}
}

func TestSquareOfCorners(t *testing.T) {
	cases := map[[2]int]string{
		{0, 0}: "a8",
		{0, 7}: "h8",
		{7, 0}: "a1",
		{7, 7}: "h1",
		{6, 4}: "e2",
	}
	for rc, want := range cases {
		if got := SquareOf(rc[0], rc[1]); got != want {
			t.Fatalf("SquareOf(%d,%d) = %q, want %q", rc[0], rc[1], got, want)
		}
	}
	if got := SquareOf(8, 0); got != "" {
		t.Fatalf("expected empty square name for out of range row, got %q", got)
	}
}

func TestCoordsOfRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "e", "e9", "i1", "a0", "e22", "11", "zz"} {
		if _, _, err := CoordsOf(in); !errors.Is(err, ErrInvalidSquare) {
			t.Fatalf("CoordsOf(%q) err = %v, want ErrInvalidSquare", in, err)
		}
	}
}

func TestDecodeInitialPosition(t *testing.T) {
	board, err := Decode(InitialFEN)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	cell, ok := board.At("e1")
	if !ok || !cell.Occupied || cell.Piece != (domain.Piece{Kind: domain.King, Side: domain.White}) {
		t.Fatalf("e1 = %+v, want white king", cell)
	}
	cell, _ = board.At("d8")
	if cell.Piece != (domain.Piece{Kind: domain.Queen, Side: domain.Black}) {
		t.Fatalf("d8 = %+v, want black queen", cell)
	}
	for col := 0; col < Size; col++ {
		if board[3][col].Occupied || board[4][col].Occupied {
			t.Fatalf("expected empty middle ranks at col %d", col)
		}
		if board[1][col].Piece.Kind != domain.Pawn || board[1][col].Piece.Side != domain.Black {
			t.Fatalf("row 1 col %d should be a black pawn", col)
		}
	}
}

func TestDecodeRejectsInvalidPosition(t *testing.T) {
	if _, err := Decode("not a fen"); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("err = %v, want ErrInvalidPosition", err)
	}
}

func TestPlacementRoundTrip(t *testing.T) {
	fens := []string{
		InitialFEN,
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2",
		"r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
		"8/8/8/4k3/8/8/4K3/8 w - - 0 1",
	}
	for _, fen := range fens {
		board, err := Decode(fen)
		if err != nil {
			t.Fatalf("Decode(%q): %v", fen, err)
		}
		placement := Placement(board)
		if placement != PlacementOf(fen) {
			t.Fatalf("Placement = %q, want %q", placement, PlacementOf(fen))
		}
		rest := strings.SplitN(fen, " ", 2)[1]
		again, err := Decode(placement + " " + rest)
		if err != nil {
			t.Fatalf("Decode(rebuilt): %v", err)
		}
		if again != board {
			t.Fatalf("round trip board mismatch for %q", fen)
		}
	}
}
