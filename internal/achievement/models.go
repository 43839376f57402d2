package achievement

import "time"

type Category string

const (
	CategoryMilitary    Category = "military"
	CategoryEconomy     Category = "economy"
	CategoryDevelopment Category = "development"
	CategoryBattle      Category = "battle"
	CategoryAlliance    Category = "alliance"
	CategoryMisc        Category = "misc"
)

// Stats is the snapshot every achievement rule is evaluated against.
type Stats struct {
	Units                 map[string]int64
	TotalUnits            int64
	GDP                   int64
	MilitaryPower         int64
	Resources             int64
	CompletedDevelopments map[string]int
	TotalCompleted        int
	BattlesWon            int
	BattlesDefended       int
	AlliancesFounded      int
	AlliancesJoined       int
	LargestAlliance       int
}

type Definition struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`

	unlocked func(Stats) bool
}

type Award struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	AchievedAt  time.Time `json:"achieved_at"`
}

var catalog = []Definition{
	{"military_beginner", "Military Beginner", "Build your first military unit", CategoryMilitary,
		func(s Stats) bool { return s.TotalUnits >= 1 }},
	{"military_enthusiast", "Military Enthusiast", "Have at least 1000 infantry units", CategoryMilitary,
		func(s Stats) bool { return s.Units["infantry"] >= 1000 }},
	{"tank_commander", "Tank Commander", "Have at least 100 tank units", CategoryMilitary,
		func(s Stats) bool { return s.Units["tank"] >= 100 }},
	{"naval_power", "Naval Power", "Have at least 50 ship units", CategoryMilitary,
		func(s Stats) bool { return s.Units["ship"] >= 50 }},
	{"air_superiority", "Air Superiority", "Have at least 50 aircraft units", CategoryMilitary,
		func(s Stats) bool { return s.Units["aircraft"] >= 50 }},
	{"superpower", "Superpower", "Reach military power of 50", CategoryMilitary,
		func(s Stats) bool { return s.MilitaryPower >= 50 }},

	{"economic_beginner", "Economic Beginner", "Reach GDP of $2 billion", CategoryEconomy,
		func(s Stats) bool { return s.GDP >= 2_000_000_000 }},
	{"economic_growth", "Economic Growth", "Reach GDP of $10 billion", CategoryEconomy,
		func(s Stats) bool { return s.GDP >= 10_000_000_000 }},
	{"economic_power", "Economic Power", "Reach GDP of $100 billion", CategoryEconomy,
		func(s Stats) bool { return s.GDP >= 100_000_000_000 }},
	{"economic_superpower", "Economic Superpower", "Reach GDP of $1 trillion", CategoryEconomy,
		func(s Stats) bool { return s.GDP >= 1_000_000_000_000 }},
	{"resource_hoarder", "Resource Hoarder", "Accumulate 10,000 resources", CategoryEconomy,
		func(s Stats) bool { return s.Resources >= 10_000 }},

	{"developer", "Developer", "Complete your first development project", CategoryDevelopment,
		func(s Stats) bool { return s.TotalCompleted >= 1 }},
	{"infrastructure_expert", "Infrastructure Expert", "Complete 5 infrastructure projects", CategoryDevelopment,
		func(s Stats) bool { return s.CompletedDevelopments["infrastructure"] >= 5 }},
	{"research_pioneer", "Research Pioneer", "Complete 5 research projects", CategoryDevelopment,
		func(s Stats) bool { return s.CompletedDevelopments["research"] >= 5 }},
	{"trade_magnate", "Trade Magnate", "Complete 5 trade projects", CategoryDevelopment,
		func(s Stats) bool { return s.CompletedDevelopments["trade"] >= 5 }},

	{"first_blood", "First Blood", "Win your first battle", CategoryBattle,
		func(s Stats) bool { return s.BattlesWon >= 1 }},
	{"warmonger", "Warmonger", "Win 10 battles", CategoryBattle,
		func(s Stats) bool { return s.BattlesWon >= 10 }},
	{"conqueror", "Conqueror", "Win 50 battles", CategoryBattle,
		func(s Stats) bool { return s.BattlesWon >= 50 }},
	{"survivor", "Survivor", "Survive 10 battles as defender", CategoryBattle,
		func(s Stats) bool { return s.BattlesDefended >= 10 }},

	{"diplomat", "Diplomat", "Join your first alliance", CategoryAlliance,
		func(s Stats) bool { return s.AlliancesJoined >= 1 }},
	{"alliance_founder", "Alliance Founder", "Found an alliance", CategoryAlliance,
		func(s Stats) bool { return s.AlliancesFounded >= 1 }},
	{"popular_alliance", "Popular Alliance", "Have an alliance with 5 or more members", CategoryAlliance,
		func(s Stats) bool { return s.LargestAlliance >= 5 }},

	{"newcomer", "Newcomer", "Create your first nation", CategoryMisc,
		func(Stats) bool { return true }},
}

var byCode = func() map[string]Definition {
	m := make(map[string]Definition, len(catalog))
	for _, d := range catalog {
		m[d.Code] = d
	}
	return m
}()

// Catalog lists every achievement in display order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Unlocked returns the definitions whose rule holds for s.
func Unlocked(s Stats) []Definition {
	var out []Definition
	for _, d := range catalog {
		if d.unlocked(s) {
			out = append(out, d)
		}
	}
	return out
}
