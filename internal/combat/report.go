package combat

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var battleEvents = [...]string{
	"The battle began with a surprise attack at dawn.",
	"Heavy rain made the battlefield muddy and difficult to navigate.",
	"Fog covered the battlefield, reducing visibility for both sides.",
	"The battle took place in mountainous terrain, giving defenders an advantage.",
	"Naval support provided additional firepower for the attacking forces.",
	"Air superiority played a crucial role in the battle outcome.",
	"Urban combat made progress slow and casualties high.",
	"Desert conditions caused equipment failures on both sides.",
	"A brilliant flanking maneuver changed the course of the battle.",
	"Superior logistics allowed for sustained combat operations.",
}

// ReportInput names the sides of a resolved battle.
type ReportInput struct {
	AttackerName     string
	DefenderName     string
	AttackerStrength int64
	DefenderStrength int64
	Outcome          Outcome
	FoughtAt         time.Time
}

// Report renders the battle narrative shown to both players.
// Two flavour events are drawn from rnd after the resolution draws.
func Report(in ReportInput, rnd Random) string {
	if rnd == nil {
		rnd = NewRandom()
	}
	p := message.NewPrinter(language.English)

	var b strings.Builder
	p.Fprintf(&b, "Battle Report: %s vs %s\n", in.AttackerName, in.DefenderName)
	p.Fprintf(&b, "Date: %s\n\n", in.FoughtAt.UTC().Format("2006-01-02 15:04:05"))

	b.WriteString("Initial Forces:\n")
	p.Fprintf(&b, "- %s: %d military strength\n", in.AttackerName, in.AttackerStrength)
	p.Fprintf(&b, "- %s: %d military strength\n\n", in.DefenderName, in.DefenderStrength)

	b.WriteString("Battle Details:\n")
	p.Fprintf(&b, "- %s\n", battleEvents[rnd.Intn(len(battleEvents))])
	p.Fprintf(&b, "- %s\n\n", battleEvents[rnd.Intn(len(battleEvents))])

	p.Fprintf(&b, "Outcome: %s\n\n", strings.ToUpper(string(in.Outcome.Result)))

	b.WriteString("Casualties:\n")
	p.Fprintf(&b, "- %s: %d (%d%%)\n", in.AttackerName, in.Outcome.AttackerCasualties, percentOf(in.Outcome.AttackerCasualties, in.AttackerStrength))
	p.Fprintf(&b, "- %s: %d (%d%%)\n", in.DefenderName, in.Outcome.DefenderCasualties, percentOf(in.Outcome.DefenderCasualties, in.DefenderStrength))

	if in.Outcome.Result == ResultVictory {
		b.WriteString("\nSpoils of War:\n")
		p.Fprintf(&b, "- Territory Gained: %d%%\n", in.Outcome.TerritoryPct)
		p.Fprintf(&b, "- Resources Captured: %d\n", in.Outcome.ResourcesCaptured)
	}

	return b.String()
}

func percentOf(part, whole int64) int64 {
	return part * 100 / max(whole, 1)
}
