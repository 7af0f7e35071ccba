package query

import (
	"fmt"
	"strings"

	"github.com/jsedoc/fish-rankings/internal/storage"
)

// NoDataSentinel is the context used when no source returned records.
const NoDataSentinel = "No relevant data found in database."

// Assembler renders retrieved records into the text block handed to the model.
type Assembler struct {
	truncateLength int
}

// NewAssembler creates an assembler that cuts free text to truncateLength runes.
func NewAssembler(truncateLength int) *Assembler {
	if truncateLength <= 0 {
		truncateLength = 200
	}
	return &Assembler{truncateLength: truncateLength}
}

// Assemble renders one section per non-empty source, in the order foods,
// recalls, advisories.
func (a *Assembler) Assemble(foods []*storage.Food, recalls []*storage.Recall, advisories []*storage.Advisory) string {
	var sections []string

	if len(foods) > 0 {
		lines := make([]string, 0, len(foods)+1)
		lines = append(lines, "Relevant Foods:")
		for _, f := range foods {
			desc := truncate(f.Description, a.truncateLength)
			if desc == "" {
				desc = "No description"
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", f.Name, desc))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(recalls) > 0 {
		lines := make([]string, 0, len(recalls)+1)
		lines = append(lines, "Recent Recalls:")
		for _, r := range recalls {
			class := string(r.Classification)
			if class == "" {
				class = "Unclassified"
			}
			reason := truncate(r.ReasonForRecall, a.truncateLength)
			if reason == "" {
				reason = "No reason given"
			}
			lines = append(lines, fmt.Sprintf("- %s (%s): %s",
				truncate(r.ProductDescription, a.truncateLength), class, reason))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(advisories) > 0 {
		lines := make([]string, 0, len(advisories)+1)
		lines = append(lines, "State Advisories:")
		for _, adv := range advisories {
			lines = append(lines, fmt.Sprintf("- %s - %s: %s (%s)",
				adv.StateName, adv.FishSpecies, adv.AdvisoryLevel, adv.ConsumptionLimit))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(sections) == 0 {
		return NoDataSentinel
	}
	return strings.Join(sections, "\n\n")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
