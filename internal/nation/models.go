package nation

import (
	"strings"
	"time"
)

type Government string

const (
	GovernmentDemocracy    Government = "democracy"
	GovernmentMonarchy     Government = "monarchy"
	GovernmentDictatorship Government = "dictatorship"
	GovernmentRepublic     Government = "republic"
	GovernmentTheocracy    Government = "theocracy"
	GovernmentCommunist    Government = "communist"
	GovernmentSocialist    Government = "socialist"
	GovernmentOligarchy    Government = "oligarchy"
)

var Governments = []Government{
	GovernmentDemocracy,
	GovernmentMonarchy,
	GovernmentDictatorship,
	GovernmentRepublic,
	GovernmentTheocracy,
	GovernmentCommunist,
	GovernmentSocialist,
	GovernmentOligarchy,
}

func (g Government) IsValid() bool {
	switch g {
	case GovernmentDemocracy, GovernmentMonarchy, GovernmentDictatorship, GovernmentRepublic,
		GovernmentTheocracy, GovernmentCommunist, GovernmentSocialist, GovernmentOligarchy:
		return true
	}
	return false
}

type Ideology string

const (
	IdeologyCapitalist   Ideology = "capitalist"
	IdeologyCommunist    Ideology = "communist"
	IdeologySocialist    Ideology = "socialist"
	IdeologyFascist      Ideology = "fascist"
	IdeologyLiberal      Ideology = "liberal"
	IdeologyConservative Ideology = "conservative"
	IdeologyNationalist  Ideology = "nationalist"
	IdeologyReligious    Ideology = "religious"
	IdeologyProgressive  Ideology = "progressive"
)

var Ideologies = []Ideology{
	IdeologyCapitalist,
	IdeologyCommunist,
	IdeologySocialist,
	IdeologyFascist,
	IdeologyLiberal,
	IdeologyConservative,
	IdeologyNationalist,
	IdeologyReligious,
	IdeologyProgressive,
}

func (i Ideology) IsValid() bool {
	switch i {
	case IdeologyCapitalist, IdeologyCommunist, IdeologySocialist, IdeologyFascist, IdeologyLiberal,
		IdeologyConservative, IdeologyNationalist, IdeologyReligious, IdeologyProgressive:
		return true
	}
	return false
}

type Nation struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Name          string     `json:"name"`
	Government    Government `json:"government"`
	Ideology      Ideology   `json:"ideology"`
	Population    int64      `json:"population"`
	GDP           int64      `json:"gdp"`
	MilitaryPower int64      `json:"military_power"`
	Resources     int64      `json:"resources"`
	LastIncomeDay int64      `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CreateRequest struct {
	Name       string `json:"name"`
	Government string `json:"government"`
	Ideology   string `json:"ideology"`
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// incomeDay numbers UTC calendar days since the Unix epoch.
func incomeDay(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}
