package rules

import "github.com/mkarlin/mafiagame-go/internal/model"

// EvaluateWin checks the roster for a faction victory. Villagers win when
// no mafia remain alive; mafia wins when alive mafia reach parity with or
// outnumber the alive non-mafia. The mafia-empty check runs first, so a
// simultaneous wipe of the last mafia and last townsperson goes to the
// villagers.
func EvaluateWin(room *model.RoomState) (model.Faction, bool) {
	mafia, town := room.AliveCounts()

	if mafia == 0 {
		return model.FactionVillagers, true
	}
	if mafia >= town {
		return model.FactionMafia, true
	}
	return "", false
}
