package engine

func ContainsLog(entries []LogEntry, t LogType) bool {
	for _, e := range entries {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Opponent maps team 1 to 2 and back.
func Opponent(team int) int {
	return 3 - team
}

// DefaultSeeds is a balanced five-card deck, used by the static deck source
// and by tests.
func DefaultSeeds(prefix string, overall int) []PlayerSeed {
	seeds := make([]PlayerSeed, 0, len(Positions))
	for _, p := range Positions {
		seeds = append(seeds, PlayerSeed{
			PlayerID: prefix + "-" + string(p),
			Name:     prefix + " " + string(p),
			Position: p,
			Overall:  overall,
		})
	}
	return seeds
}
