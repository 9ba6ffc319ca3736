package rules

import "github.com/mkarlin/mafiagame-go/internal/model"

// ResolveNight computes the outcome of a night's submitted actions.
// The mafia's target dies unless the doctor's save names the identical id,
// in which case the target survives and the result is marked saved. The
// targeted id is always recorded so clients can narrate a failed attack.
// Detective inspection is independent of the kill/save outcome and reports
// whether the target is on the mafia faction.
//
// Resolution is pure and order-independent: identical inputs always
// produce identical results.
func ResolveNight(actions model.GameActions, players map[model.PlayerID]*model.Player) model.NightResult {
	var result model.NightResult

	if actions.MafiaKill != nil {
		target := *actions.MafiaKill
		result.Killed = &target
		if actions.DoctorSave != nil && *actions.DoctorSave == target {
			result.Saved = true
		}
	}

	if actions.DetectiveInspect != nil {
		target := *actions.DetectiveInspect
		result.InspectTarget = &target
		if p, ok := players[target]; ok {
			result.InspectIsMafia = p.Role.Faction() == model.FactionMafia
		}
	}

	return result
}

// NightDeath returns the player killed by the night result, or nil when
// nobody died (no kill submitted, or the doctor saved the target)
func NightDeath(result model.NightResult) *model.PlayerID {
	if result.Killed == nil || result.Saved {
		return nil
	}
	return result.Killed
}
