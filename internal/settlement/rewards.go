package settlement

import "github.com/DoyleJ11/moba-match-engine/internal/engine"

// Reward is the payout for one side of one match type.
type Reward struct {
	Points int
	Rating int
}

type RewardTable map[engine.MatchType]struct{ Win, Loss Reward }

func DefaultRewards() RewardTable {
	return RewardTable{
		engine.MatchRanked: {Win: Reward{Points: 5000, Rating: 25}, Loss: Reward{Points: 1000, Rating: -25}},
		engine.MatchNormal: {Win: Reward{Points: 1500}, Loss: Reward{Points: 300}},
	}
}

// Report builds the deltas for a decided match. The surrendering side keeps
// half of its loss points; rating changes are unaffected.
func (t RewardTable) Report(res Result) Report {
	row := t[res.MatchType]
	loss := row.Loss
	if res.Reason == engine.ReasonSurrender {
		loss.Points /= 2
	}
	return Report{
		MatchID:   res.MatchID,
		MatchType: res.MatchType,
		Reason:    res.Reason,
		Turns:     res.Turns,
		Winner:    Delta{UserID: res.WinnerID, Points: row.Win.Points, Rating: row.Win.Rating},
		Loser:     Delta{UserID: res.LoserID, Points: loss.Points, Rating: loss.Rating},
	}
}
