package model

// PlayerID uniquely identifies a player across the system.
// It is stable for the lifetime of a session and survives reconnects.
type PlayerID string

// Role is a player's secret game role
type Role string

const (
	RoleMafia     Role = "mafia"
	RoleDoctor    Role = "doctor"
	RoleDetective Role = "detective"
	RoleVillager  Role = "villager"
)

// Faction groups roles for win-condition purposes
type Faction string

const (
	FactionMafia     Faction = "mafia"
	FactionVillagers Faction = "villagers"
)

// Faction returns the faction a role belongs to
func (r Role) Faction() Faction {
	if r == RoleMafia {
		return FactionMafia
	}
	return FactionVillagers
}

// Player represents a participant in a room
type Player struct {
	ID        PlayerID
	Username  string
	IsHost    bool
	Role      Role // empty until the game starts
	IsAlive   bool
	Connected bool
	Ready     bool // lobby-only readiness flag
}
