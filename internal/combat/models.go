package combat

// Result is the outcome of a battle from the attacker's point of view.
type Result string

const (
	ResultVictory Result = "victory"
	ResultDefeat  Result = "defeat"
	ResultDraw    Result = "draw"
)

func (r Result) Valid() bool {
	switch r {
	case ResultVictory, ResultDefeat, ResultDraw:
		return true
	}
	return false
}

// Outcome holds everything a single resolution decides.
// Casualties are in strength points; the allocator turns them into units.
type Outcome struct {
	Result             Result  `json:"result"`
	Ratio              float64 `json:"ratio"`
	Multiplier         float64 `json:"multiplier"`
	AttackerRate       float64 `json:"attacker_casualty_rate"`
	DefenderRate       float64 `json:"defender_casualty_rate"`
	AttackerCasualties int64   `json:"attacker_casualties"`
	DefenderCasualties int64   `json:"defender_casualties"`
	TerritoryPct       int64   `json:"territory_pct"`
	ResourcesCaptured  int64   `json:"resources_captured"`
}

// UnitStrength is one category's share of a nation's army.
type UnitStrength struct {
	Category   string
	Quantity   int64
	Multiplier int64
}
