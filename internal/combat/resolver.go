package combat

import "math"

const (
	multiplierMin = 0.8
	multiplierMax = 1.2

	victoryThreshold = 1.2
	defeatThreshold  = 0.8

	baseRateMin = 0.10
	baseRateMax = 0.30

	winnerRateFactor = 0.7
	loserRateFactor  = 1.3

	territoryMin = 0.05
	territoryMax = 0.15

	captureMin = 0.10
	captureMax = 0.20
)

// floorEpsilon absorbs binary rounding in products such as 1000*0.14.
const floorEpsilon = 1e-9

type Resolver struct {
	rnd Random
}

func NewResolver(rnd Random) *Resolver {
	if rnd == nil {
		rnd = NewRandom()
	}
	return &Resolver{rnd: rnd}
}

// Resolve decides one battle. Draws happen in a fixed order:
// strength multiplier, base casualty rate, then territory and captured resources on victory.
func (r *Resolver) Resolve(attackerStrength, defenderStrength, defenderResources int64) Outcome {
	attackerStrength = max(attackerStrength, 0)
	defenderStrength = max(defenderStrength, 0)
	defenderResources = max(defenderResources, 0)

	ratio := float64(attackerStrength) / float64(max(defenderStrength, 1))
	multiplier := r.rnd.Uniform(multiplierMin, multiplierMax)
	adjusted := ratio * multiplier

	out := Outcome{
		Ratio:      ratio,
		Multiplier: multiplier,
	}

	switch {
	case adjusted > victoryThreshold:
		out.Result = ResultVictory
	case adjusted < defeatThreshold:
		out.Result = ResultDefeat
	default:
		out.Result = ResultDraw
	}

	baseRate := r.rnd.Uniform(baseRateMin, baseRateMax)
	switch out.Result {
	case ResultVictory:
		out.AttackerRate = baseRate * winnerRateFactor
		out.DefenderRate = baseRate * loserRateFactor
	case ResultDefeat:
		out.AttackerRate = baseRate * loserRateFactor
		out.DefenderRate = baseRate * winnerRateFactor
	default:
		out.AttackerRate = baseRate
		out.DefenderRate = baseRate
	}

	out.AttackerCasualties = Floor(float64(attackerStrength) * out.AttackerRate)
	out.DefenderCasualties = Floor(float64(defenderStrength) * out.DefenderRate)

	if out.Result == ResultVictory {
		out.TerritoryPct = Floor(r.rnd.Uniform(territoryMin, territoryMax) * 100)
		out.ResourcesCaptured = min(Floor(r.rnd.Uniform(captureMin, captureMax)*float64(defenderResources)), defenderResources)
	}

	return out
}

// Floor truncates a non-negative product to an integer, tolerating binary rounding just below a whole number.
func Floor(x float64) int64 {
	if x <= 0 {
		return 0
	}
	return int64(math.Floor(x + floorEpsilon))
}
