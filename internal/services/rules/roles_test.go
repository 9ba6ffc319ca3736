package rules

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mkarlin/mafiagame-go/internal/dependencies/mocks"
	"github.com/mkarlin/mafiagame-go/internal/dependencies/random"
	"github.com/mkarlin/mafiagame-go/internal/model"
)

type RolesSuite struct {
	suite.Suite
}

func TestRolesSuite(t *testing.T) {
	suite.Run(t, new(RolesSuite))
}

func (s *RolesSuite) TestMafiaCount() {
	cases := []struct {
		players int
		mafia   int
	}{
		{4, 1},
		{5, 1},
		{6, 2},
		{7, 2},
		{8, 2},
		{9, 3},
		{10, 3},
		{12, 3}, // clamped at 3
		{15, 3},
	}
	for _, c := range cases {
		s.Equal(c.mafia, MafiaCount(c.players), "players=%d", c.players)
	}
}

func (s *RolesSuite) TestRoleSetCounts() {
	for n := MinPlayers; n <= 12; n++ {
		roles := RoleSet(n)
		s.Len(roles, n, "n=%d", n)

		counts := make(map[model.Role]int)
		for _, r := range roles {
			counts[r]++
		}

		s.Equal(MafiaCount(n), counts[model.RoleMafia], "n=%d", n)
		if n >= SpecialRoleThreshold {
			s.Equal(1, counts[model.RoleDoctor], "n=%d", n)
			s.Equal(1, counts[model.RoleDetective], "n=%d", n)
		} else {
			s.Zero(counts[model.RoleDoctor], "n=%d", n)
			s.Zero(counts[model.RoleDetective], "n=%d", n)
		}
	}
}

func (s *RolesSuite) TestFourPlayersGetOneMafiaThreeVillagers() {
	roles := RoleSet(4)
	counts := make(map[model.Role]int)
	for _, r := range roles {
		counts[r]++
	}
	s.Equal(1, counts[model.RoleMafia])
	s.Equal(3, counts[model.RoleVillager])
}

func (s *RolesSuite) TestAssignRolesEveryPlayerGetsExactlyOneRole() {
	players := []model.PlayerID{"a", "b", "c", "d", "e", "f", "g"}
	assigned := AssignRoles(players, random.New())

	s.Len(assigned, len(players))
	for _, id := range players {
		s.Contains(assigned, id)
		s.NotEmpty(assigned[id])
	}
}

func (s *RolesSuite) TestAssignRolesDeterministicWithMockRandom() {
	players := []model.PlayerID{"d", "a", "c", "b"}

	rnd := mocks.NewMockRandom()
	rnd.NoShuffle = true
	assigned := AssignRoles(players, rnd)

	// With shuffling disabled, roles map onto the sorted player ids in
	// role-set order: mafia first, then villagers
	s.Equal(model.RoleMafia, assigned["a"])
	s.Equal(model.RoleVillager, assigned["b"])
	s.Equal(model.RoleVillager, assigned["c"])
	s.Equal(model.RoleVillager, assigned["d"])
}

func (s *RolesSuite) TestAssignRolesUniformDistribution() {
	// With 4 players and one mafia slot, each player should draw mafia in
	// roughly a quarter of trials if the permutation is unbiased
	players := []model.PlayerID{"a", "b", "c", "d"}
	rnd := random.New()

	const trials = 4000
	mafiaDraws := make(map[model.PlayerID]int)
	for i := 0; i < trials; i++ {
		for id, role := range AssignRoles(players, rnd) {
			if role == model.RoleMafia {
				mafiaDraws[id]++
			}
		}
	}

	expected := trials / len(players)
	for _, id := range players {
		// Allow 25% relative deviation; far looser than 6 sigma for this
		// sample size, so flakes indicate real bias
		s.InDelta(expected, mafiaDraws[id], float64(expected)/4, "player %s", id)
	}
}
