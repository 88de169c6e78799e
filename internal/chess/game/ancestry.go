package game

// Ancestry lists the positions of the game from the current one back to the initial one.
// Each entry is rebuilt by replaying a prefix of the history from scratch, which costs
// O(n²) move applications; opening-phase games are short enough for that to be fine.
// The result has Len()+1 entries: [0] is the current position, the last is the initial one.
func Ancestry(m *Manager) ([]string, error) {
	n := len(m.history)
	fens := make([]string, 0, n+1)
	for i := n; i >= 0; i-- {
		g, err := replay(m.history[:i])
		if err != nil {
			return nil, err
		}
		fens = append(fens, g.FEN())
	}
	return fens, nil
}

// Ancestry is the method form of the package-level Ancestry.
func (m *Manager) Ancestry() ([]string, error) {
	return Ancestry(m)
}
