package rules

import (
	"sort"

	"github.com/mkarlin/mafiagame-go/internal/dependencies/random"
	"github.com/mkarlin/mafiagame-go/internal/model"
)

const (
	// MinPlayers is the minimum number of players required to start a game
	MinPlayers = 4

	// SpecialRoleThreshold is the player count at which a doctor and a
	// detective are added to the role set
	SpecialRoleThreshold = 5

	// MaxMafia caps the mafia count regardless of player count
	MaxMafia = 3
)

// MafiaCount returns the number of mafia for n players: n/3 clamped to [1, 3]
func MafiaCount(n int) int {
	count := n / 3
	if count < 1 {
		count = 1
	}
	if count > MaxMafia {
		count = MaxMafia
	}
	return count
}

// RoleSet builds the role multiset for n players: MafiaCount(n) mafia,
// one doctor and one detective when n >= SpecialRoleThreshold, villagers
// for the remaining slots.
func RoleSet(n int) []model.Role {
	roles := make([]model.Role, 0, n)
	for i := 0; i < MafiaCount(n); i++ {
		roles = append(roles, model.RoleMafia)
	}
	if n >= SpecialRoleThreshold {
		roles = append(roles, model.RoleDoctor, model.RoleDetective)
	}
	for len(roles) < n {
		roles = append(roles, model.RoleVillager)
	}
	return roles
}

// AssignRoles produces a uniformly random bijection from the given players
// to the role set for their count. Both the role list and the player list
// are independently Fisher-Yates shuffled, then zipped by index.
func AssignRoles(playerIDs []model.PlayerID, rnd random.Random) map[model.PlayerID]model.Role {
	ids := make([]model.PlayerID, len(playerIDs))
	copy(ids, playerIDs)
	// Map iteration order upstream is not stable; sort before shuffling so
	// the permutation is the only source of randomness
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	roles := RoleSet(len(ids))

	rnd.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
	rnd.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	assigned := make(map[model.PlayerID]model.Role, len(ids))
	for i, id := range ids {
		assigned[id] = roles[i]
	}
	return assigned
}
