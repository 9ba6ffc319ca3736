package rules

import (
	"sort"

	"github.com/mkarlin/mafiagame-go/internal/dependencies/random"
	"github.com/mkarlin/mafiagame-go/internal/model"
)

// TallyVotes counts votes per target and decides who is eliminated.
// A unique maximum above zero eliminates that target. A tie above zero is
// broken uniformly at random among the tied targets. No votes means no
// elimination.
func TallyVotes(votes map[model.PlayerID]model.PlayerID, rnd random.Random) *model.PlayerID {
	if len(votes) == 0 {
		return nil
	}

	counts := make(map[model.PlayerID]int)
	for _, target := range votes {
		counts[target]++
	}

	maxVotes := 0
	for _, count := range counts {
		if count > maxVotes {
			maxVotes = count
		}
	}
	if maxVotes == 0 {
		return nil
	}

	var tied []model.PlayerID
	for target, count := range counts {
		if count == maxVotes {
			tied = append(tied, target)
		}
	}
	// Stable order so the random pick is reproducible under a mocked Random
	sort.Slice(tied, func(i, j int) bool { return tied[i] < tied[j] })

	eliminated := tied[rnd.Intn(len(tied))]
	return &eliminated
}
