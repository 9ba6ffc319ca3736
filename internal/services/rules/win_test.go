package rules

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mkarlin/mafiagame-go/internal/model"
)

type WinSuite struct {
	suite.Suite
}

func TestWinSuite(t *testing.T) {
	suite.Run(t, new(WinSuite))
}

func roomWithRoster(alive map[model.PlayerID]model.Role, dead map[model.PlayerID]model.Role) *model.RoomState {
	room := &model.RoomState{
		Players: make(map[model.PlayerID]*model.Player),
	}
	for id, role := range alive {
		room.Players[id] = &model.Player{ID: id, Role: role, IsAlive: true}
	}
	for id, role := range dead {
		room.Players[id] = &model.Player{ID: id, Role: role, IsAlive: false}
	}
	return room
}

func (s *WinSuite) TestVillagersWinWhenNoMafiaAlive() {
	room := roomWithRoster(
		map[model.PlayerID]model.Role{"v1": model.RoleVillager, "v2": model.RoleVillager},
		map[model.PlayerID]model.Role{"m1": model.RoleMafia},
	)

	winner, ended := EvaluateWin(room)
	s.True(ended)
	s.Equal(model.FactionVillagers, winner)
}

func (s *WinSuite) TestMafiaWinsAtParity() {
	room := roomWithRoster(
		map[model.PlayerID]model.Role{"m1": model.RoleMafia, "v1": model.RoleVillager},
		map[model.PlayerID]model.Role{"v2": model.RoleVillager},
	)

	winner, ended := EvaluateWin(room)
	s.True(ended)
	s.Equal(model.FactionMafia, winner)
}

func (s *WinSuite) TestMafiaWinsWithMajority() {
	room := roomWithRoster(
		map[model.PlayerID]model.Role{"m1": model.RoleMafia, "m2": model.RoleMafia, "v1": model.RoleVillager},
		nil,
	)

	winner, ended := EvaluateWin(room)
	s.True(ended)
	s.Equal(model.FactionMafia, winner)
}

func (s *WinSuite) TestGameContinuesWhileMafiaOutnumbered() {
	room := roomWithRoster(
		map[model.PlayerID]model.Role{
			"m1": model.RoleMafia,
			"v1": model.RoleVillager,
			"v2": model.RoleVillager,
			"d1": model.RoleDoctor,
		},
		nil,
	)

	winner, ended := EvaluateWin(room)
	s.False(ended)
	s.Empty(winner)
}

func (s *WinSuite) TestSimultaneousWipeGoesToVillagers() {
	// Everybody is dead: the mafia-empty check runs first, so villagers
	// take the tie
	room := roomWithRoster(
		nil,
		map[model.PlayerID]model.Role{"m1": model.RoleMafia, "v1": model.RoleVillager},
	)

	winner, ended := EvaluateWin(room)
	s.True(ended)
	s.Equal(model.FactionVillagers, winner)
}

func (s *WinSuite) TestDoctorAndDetectiveCountAsTown() {
	room := roomWithRoster(
		map[model.PlayerID]model.Role{
			"m1": model.RoleMafia,
			"d1": model.RoleDoctor,
			"i1": model.RoleDetective,
		},
		nil,
	)

	winner, ended := EvaluateWin(room)
	s.False(ended)
	s.Empty(winner)
}
