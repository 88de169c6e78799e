package game

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var resultTokens = map[string]struct{}{
	"1-0":     {},
	"0-1":     {},
	"1/2-1/2": {},
	"½-½":     {},
	"*":       {},
}

// tokenizeMovetext extracts move tokens from portable movetext. Tag pairs, comments,
// variations, NAGs, move numbers and result markers are dropped.
func tokenizeMovetext(text string) []string {
	var (
		tokens  []string
		current strings.Builder
		depth   int // variation nesting
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		if tok := cleanToken(current.String()); tok != "" && depth == 0 {
			tokens = append(tokens, tok)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '[' && current.Len() == 0:
			// tag pair: skip to the closing bracket
			for i < len(runes) && runes[i] != ']' {
				i++
			}
		case r == '{':
			flush()
			for i < len(runes) && runes[i] != '}' {
				i++
			}
		case r == ';':
			flush()
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '(':
			flush()
			depth++
		case r == ')':
			flush()
			if depth > 0 {
				depth--
			}
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func cleanToken(tok string) string {
	tok = strings.TrimSpace(tok)
	if tok == "" || strings.HasPrefix(tok, "$") {
		return ""
	}
	if _, ok := resultTokens[tok]; ok {
		return ""
	}
	// "12." "12..." "1.e4"
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i > 0 && i < len(tok) && tok[i] == '.' {
		tok = strings.TrimLeft(tok[i:], ".")
	} else if i == len(tok) {
		return ""
	}
	tok = strings.TrimRight(tok, "!?+#")
	switch tok {
	case "0-0":
		tok = "O-O"
	case "0-0-0":
		tok = "O-O-O"
	}
	return tok
}

func decodeToken(pos *nchess.Position, tok string) (*nchess.Move, error) {
	mv, err := nchess.AlgebraicNotation{}.Decode(pos, tok)
	if err == nil {
		return mv, nil
	}
	if uciMove, uciErr := (nchess.UCINotation{}).Decode(pos, strings.ToLower(tok)); uciErr == nil {
		return uciMove, nil
	}
	return nil, fmt.Errorf("decode move %q: %w", tok, err)
}

// formatMovetext numbers SAN moves, e.g. "1. e4 e5 2. Nf3".
func formatMovetext(san []string) string {
	var b strings.Builder
	for i := 0; i < len(san); i += 2 {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(fmt.Sprintf("%d. %s", i/2+1, strings.TrimSpace(san[i])))
		if i+1 < len(san) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(san[i+1]))
		}
	}
	return b.String()
}
