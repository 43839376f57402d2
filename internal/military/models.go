package military

import (
	"strings"
	"time"

	"nations-server/internal/combat"
)

type UnitCategory string

const (
	Infantry UnitCategory = "infantry"
	Tank     UnitCategory = "tank"
	Ship     UnitCategory = "ship"
	Aircraft UnitCategory = "aircraft"
)

// Categories lists unit categories in their display and allocation order.
var Categories = []UnitCategory{Infantry, Tank, Ship, Aircraft}

func ParseCategory(s string) (UnitCategory, bool) {
	c := UnitCategory(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case Infantry, Tank, Ship, Aircraft:
		return c, true
	}
	return "", false
}

// Cost is the resource price of one unit.
func (c UnitCategory) Cost() int64 {
	switch c {
	case Infantry:
		return 10
	case Tank:
		return 50
	case Ship:
		return 100
	case Aircraft:
		return 80
	}
	return 0
}

// Multiplier is the strength one unit contributes at tech level 1.
func (c UnitCategory) Multiplier() int64 {
	switch c {
	case Infantry:
		return 1
	case Tank:
		return 5
	case Ship:
		return 10
	case Aircraft:
		return 8
	}
	return 0
}

// Maintenance is the daily upkeep of one unit.
func (c UnitCategory) Maintenance() int64 {
	switch c {
	case Infantry:
		return 1
	case Tank:
		return 5
	case Ship:
		return 10
	case Aircraft:
		return 8
	}
	return 0
}

// StartingGarrison is granted to a new nation when enabled in the game configuration.
var StartingGarrison = map[UnitCategory]int64{
	Infantry: 100,
	Tank:     10,
	Ship:     5,
	Aircraft: 5,
}

type Unit struct {
	NationID  int64        `json:"nation_id"`
	Category  UnitCategory `json:"category"`
	Quantity  int64        `json:"quantity"`
	TechLevel int64        `json:"tech_level"`
}

type Army struct {
	NationID int64  `json:"nation_id"`
	Units    []Unit `json:"units"`
	Strength int64  `json:"strength"`
}

type Battle struct {
	ID                 int64         `json:"id"`
	AttackerID         int64         `json:"attacker_id"`
	DefenderID         int64         `json:"defender_id"`
	AttackerStrength   int64         `json:"attacker_strength"`
	DefenderStrength   int64         `json:"defender_strength"`
	Result             combat.Result `json:"result"`
	AttackerCasualties int64         `json:"attacker_casualties"`
	DefenderCasualties int64         `json:"defender_casualties"`
	TerritoryPct       int64         `json:"territory_pct"`
	ResourcesCaptured  int64         `json:"resources_captured"`
	Report             string        `json:"report"`
	CreatedAt          time.Time     `json:"created_at"`
}

type BuildRequest struct {
	Category string `json:"unit_type"`
	Quantity int64  `json:"quantity"`
}

type BuildResult struct {
	Unit      Unit  `json:"unit"`
	Cost      int64 `json:"cost"`
	Resources int64 `json:"resources"`
}

type AttackRequest struct {
	DefenderID int64 `json:"defender_id"`
}

type AttackResult struct {
	Battle         Battle                 `json:"battle"`
	AttackerName   string                 `json:"attacker"`
	DefenderName   string                 `json:"defender"`
	AttackerLosses map[UnitCategory]int64 `json:"attacker_losses"`
	DefenderLosses map[UnitCategory]int64 `json:"defender_losses"`
}

// Strength sums quantity * multiplier * tech level over units.
func Strength(units []Unit) int64 {
	var total int64
	for _, u := range units {
		total += u.Quantity * u.Category.Multiplier() * u.TechLevel
	}
	return total
}

// unitStrengths feeds the casualty allocator. Tech level is left out so losses
// follow headcount weight rather than upgrades.
func unitStrengths(units []Unit) []combat.UnitStrength {
	out := make([]combat.UnitStrength, 0, len(units))
	for _, u := range units {
		out = append(out, combat.UnitStrength{
			Category:   string(u.Category),
			Quantity:   u.Quantity,
			Multiplier: u.Category.Multiplier(),
		})
	}
	return out
}
