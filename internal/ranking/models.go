package ranking

import "strings"

type Metric string

const (
	MetricMilitaryPower Metric = "military_power"
	MetricGDP           Metric = "gdp"
	MetricPopulation    Metric = "population"
)

var Metrics = []Metric{MetricMilitaryPower, MetricGDP, MetricPopulation}

// ParseMetric accepts the column names plus the chat aliases "military" and "economy".
func ParseMetric(raw string) (Metric, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "military", string(MetricMilitaryPower):
		return MetricMilitaryPower, true
	case "economy", string(MetricGDP):
		return MetricGDP, true
	case string(MetricPopulation):
		return MetricPopulation, true
	}
	return "", false
}

// column maps a metric to its nations column; only closed values reach SQL.
func (m Metric) column() string {
	switch m {
	case MetricGDP:
		return "gdp"
	case MetricPopulation:
		return "population"
	default:
		return "military_power"
	}
}

type Entry struct {
	Rank          int    `json:"rank"`
	NationID      int64  `json:"id"`
	Name          string `json:"name"`
	MilitaryPower int64  `json:"military_power"`
	GDP           int64  `json:"gdp"`
	Population    int64  `json:"population"`
}

func (e Entry) value(m Metric) int64 {
	switch m {
	case MetricGDP:
		return e.GDP
	case MetricPopulation:
		return e.Population
	default:
		return e.MilitaryPower
	}
}

type Leaderboard struct {
	Metric  Metric  `json:"metric"`
	Entries []Entry `json:"entries"`
}

type Ranks struct {
	NationID       int64 `json:"nation_id"`
	MilitaryRank   int   `json:"military_rank"`
	EconomyRank    int   `json:"economy_rank"`
	PopulationRank int   `json:"population_rank"`
	TotalNations   int   `json:"total_nations"`
}
