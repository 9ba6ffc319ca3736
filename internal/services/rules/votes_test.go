package rules

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mkarlin/mafiagame-go/internal/dependencies/mocks"
	"github.com/mkarlin/mafiagame-go/internal/dependencies/random"
	"github.com/mkarlin/mafiagame-go/internal/model"
)

type VotesSuite struct {
	suite.Suite
	random *mocks.MockRandom
}

func TestVotesSuite(t *testing.T) {
	suite.Run(t, new(VotesSuite))
}

func (s *VotesSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
}

func (s *VotesSuite) TestUniqueMaximumEliminated() {
	votes := map[model.PlayerID]model.PlayerID{
		"a": "c",
		"b": "c",
		"d": "c",
	}

	eliminated := TallyVotes(votes, s.random)
	s.Require().NotNil(eliminated)
	s.Equal(model.PlayerID("c"), *eliminated)
}

func (s *VotesSuite) TestNoVotesNoElimination() {
	s.Nil(TallyVotes(map[model.PlayerID]model.PlayerID{}, s.random))
	s.Nil(TallyVotes(nil, s.random))
}

func (s *VotesSuite) TestTieEliminatesFromTiedSet() {
	votes := map[model.PlayerID]model.PlayerID{
		"a": "b",
		"b": "a",
		"c": "d", // d has 1 vote like a and b
		"d": "a",
	}
	// a:2, b:1, d:1 -> unique maximum is a
	eliminated := TallyVotes(votes, s.random)
	s.Require().NotNil(eliminated)
	s.Equal(model.PlayerID("a"), *eliminated)
}

func (s *VotesSuite) TestTieBreakUsesRandomIndexOverSortedTargets() {
	votes := map[model.PlayerID]model.PlayerID{
		"a": "x",
		"b": "y",
	}

	// Tied set sorted is [x, y]; queue index 1 to pick y
	s.random.QueueIntn(1)
	eliminated := TallyVotes(votes, s.random)
	s.Require().NotNil(eliminated)
	s.Equal(model.PlayerID("y"), *eliminated)
}

func (s *VotesSuite) TestTieBreakDistributionIsRoughlyUniform() {
	votes := map[model.PlayerID]model.PlayerID{
		"a": "x",
		"b": "y",
	}
	rnd := random.New()

	const trials = 2000
	counts := make(map[model.PlayerID]int)
	for i := 0; i < trials; i++ {
		eliminated := TallyVotes(votes, rnd)
		s.Require().NotNil(eliminated)
		counts[*eliminated]++
	}

	s.Len(counts, 2)
	for target, count := range counts {
		s.InDelta(trials/2, count, float64(trials)/8, "target %s", target)
	}
}
