package development

import (
	"slices"
	"strings"
	"time"
)

type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategoryResearch       Category = "research"
	CategoryTrade          Category = "trade"
)

var Categories = []Category{CategoryInfrastructure, CategoryResearch, CategoryTrade}

func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CategoryInfrastructure, CategoryResearch, CategoryTrade:
		return c, true
	}
	return "", false
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Option struct {
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	Cost                int64         `json:"cost"`
	Duration            time.Duration `json:"-"`
	DurationDays        int           `json:"time_days"`
	InfrastructureBonus float64       `json:"infrastructure_bonus"`
	ResearchBonus       float64       `json:"research_bonus"`
	TradeBonus          float64       `json:"trade_bonus"`
}

const day = 24 * time.Hour

func option(name, description string, cost int64, days int, infrastructure, research, trade float64) Option {
	return Option{
		Name:                name,
		Description:         description,
		Cost:                cost,
		Duration:            time.Duration(days) * day,
		DurationDays:        days,
		InfrastructureBonus: infrastructure,
		ResearchBonus:       research,
		TradeBonus:          trade,
	}
}

// catalog is fixed at compile time; callers only ever see copies.
var catalog = map[Category][]Option{
	CategoryInfrastructure: {
		option("Road Network", "Improve road infrastructure to boost economy", 200, 1, 0.05, 0, 0.02),
		option("Power Grid", "Upgrade power generation and distribution", 300, 2, 0.08, 0.01, 0.01),
		option("Urban Development", "Expand and modernize cities", 500, 3, 0.10, 0.02, 0.03),
	},
	CategoryResearch: {
		option("Basic Research", "Fund basic scientific research", 250, 2, 0, 0.05, 0),
		option("Military Technology", "Develop advanced military technology", 400, 3, 0, 0.08, 0.01),
		option("Advanced Research Center", "Build a cutting-edge research facility", 600, 5, 0.02, 0.12, 0.02),
	},
	CategoryTrade: {
		option("Trade Agreements", "Negotiate favorable trade agreements", 150, 1, 0, 0, 0.05),
		option("Port Expansion", "Expand port facilities for international trade", 350, 2, 0.03, 0, 0.08),
		option("Global Trade Network", "Establish a global trade network", 550, 4, 0.02, 0.01, 0.15),
	},
}

func Options(c Category) []Option {
	return slices.Clone(catalog[c])
}

// LookupOption finds a catalog entry by name, ignoring case.
func LookupOption(c Category, name string) (Option, bool) {
	name = strings.TrimSpace(name)
	for _, o := range catalog[c] {
		if strings.EqualFold(o.Name, name) {
			return o, true
		}
	}
	return Option{}, false
}

func optionNames(c Category) string {
	names := make([]string, 0, len(catalog[c]))
	for _, o := range catalog[c] {
		names = append(names, o.Name)
	}
	return strings.Join(names, ", ")
}

func categoryNames() string {
	names := make([]string, 0, len(Categories))
	for _, c := range Categories {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

type Development struct {
	ID                  int64      `json:"id"`
	NationID            int64      `json:"nation_id"`
	Category            Category   `json:"category"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	Cost                int64      `json:"cost"`
	StartTime           time.Time  `json:"start_time"`
	EndTime             time.Time  `json:"end_time"`
	Status              Status     `json:"status"`
	InfrastructureBonus float64    `json:"infrastructure_bonus"`
	ResearchBonus       float64    `json:"research_bonus"`
	TradeBonus          float64    `json:"trade_bonus"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

type StartRequest struct {
	Category string `json:"category"`
	Option   string `json:"option"`
}

type Progress struct {
	Percent          int   `json:"progress"`
	RemainingSeconds int64 `json:"time_left_seconds"`
}

// ProgressAt reports how far a project is at now. Cancelled projects report zero.
func ProgressAt(d *Development, now time.Time) Progress {
	switch d.Status {
	case StatusCompleted:
		return Progress{Percent: 100}
	case StatusCancelled:
		return Progress{}
	}

	start := d.StartTime.UnixMilli()
	end := d.EndTime.UnixMilli()
	at := now.UnixMilli()

	var percent int64
	if end > start {
		percent = (at - start) * 100 / (end - start)
	}
	percent = min(max(percent, 0), 100)

	remaining := max(end-at, 0) / 1000
	return Progress{Percent: int(percent), RemainingSeconds: remaining}
}

type Listing struct {
	Active    []Development `json:"active"`
	Completed []Development `json:"completed"`
}
