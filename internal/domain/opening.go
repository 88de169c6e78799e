package domain

import (
	"fmt"
	"strings"
)

// OpeningInfo describes a named opening. Two infos with the same name are the same opening,
// whichever move order reached them.
type OpeningInfo struct {
	ECOCode       string `json:"eco,omitempty"`
	Name          string `json:"name,omitempty"`
	URLSlug       string `json:"url_slug,omitempty"`
	MovesNotation string `json:"pgn,omitempty"`
	ContentRef    string `json:"content_ref,omitempty"`
}

// SameOpening reports whether both infos name the same opening.
func (o *OpeningInfo) SameOpening(other *OpeningInfo) bool {
	if o == nil || other == nil {
		return o == other
	}
	return strings.EqualFold(strings.TrimSpace(o.Name), strings.TrimSpace(other.Name))
}

// GameResult is the outcome of a reference game.
type GameResult int

const (
	ResultUnknown GameResult = iota
	ResultWhite
	ResultBlack
	ResultDraw
)

func (r GameResult) String() string {
	switch r {
	case ResultWhite:
		return "white"
	case ResultBlack:
		return "black"
	case ResultDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// ParseGameResult maps a winner token to a result. An empty winner on a finished
// reference game means the game was drawn.
func ParseGameResult(winner string, finished bool) GameResult {
	switch strings.ToLower(strings.TrimSpace(winner)) {
	case "white", "w", "1-0":
		return ResultWhite
	case "black", "b", "0-1":
		return ResultBlack
	case "draw", "1/2-1/2":
		return ResultDraw
	case "":
		if finished {
			return ResultDraw
		}
		return ResultUnknown
	default:
		return ResultUnknown
	}
}

// Player is a participant of a reference game.
type Player struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// TopGame is reference-game metadata attached to an opening lookup.
type TopGame struct {
	ID     string     `json:"id,omitempty"`
	White  Player     `json:"white"`
	Black  Player     `json:"black"`
	Result GameResult `json:"result"`
	Year   int        `json:"year,omitempty"`
	Month  string     `json:"month,omitempty"`
}

// Date renders the game date as YYYY-MM, or YYYY when the month is unknown.
func (g TopGame) Date() string {
	if g.Year <= 0 {
		return ""
	}
	month := strings.TrimSpace(g.Month)
	if month == "" {
		return fmt.Sprintf("%04d", g.Year)
	}
	// the explorer already reports months as YYYY-MM
	if strings.Contains(month, "-") {
		return month
	}
	return fmt.Sprintf("%04d-%s", g.Year, month)
}
