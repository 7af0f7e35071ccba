package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsedoc/fish-rankings/internal/storage"
)

func TestAssembler_Empty(t *testing.T) {
	a := NewAssembler(200)
	assert.Equal(t, NoDataSentinel, a.Assemble(nil, nil, nil))
	assert.Equal(t, NoDataSentinel, a.Assemble([]*storage.Food{}, []*storage.Recall{}, nil))
}

func TestAssembler_AllSections(t *testing.T) {
	a := NewAssembler(200)
	got := a.Assemble(
		[]*storage.Food{{Name: "Tuna", Description: "Large fish"}, {Name: "Cod"}},
		[]*storage.Recall{{ProductDescription: "Canned tuna", Classification: storage.ClassI, ReasonForRecall: "Botulism"}},
		[]*storage.Advisory{{StateName: "Minnesota", FishSpecies: "Walleye", AdvisoryLevel: "Limit", ConsumptionLimit: "1 meal/week"}},
	)

	want := "Relevant Foods:\n- Tuna: Large fish\n- Cod: No description" +
		"\n\nRecent Recalls:\n- Canned tuna (Class I): Botulism" +
		"\n\nState Advisories:\n- Minnesota - Walleye: Limit (1 meal/week)"
	assert.Equal(t, want, got)
}

func TestAssembler_OmitsEmptySections(t *testing.T) {
	a := NewAssembler(200)
	got := a.Assemble(nil, nil, []*storage.Advisory{{StateName: "WI", FishSpecies: "Carp"}})

	assert.True(t, strings.HasPrefix(got, "State Advisories:"))
	assert.NotContains(t, got, "Relevant Foods")
	assert.NotContains(t, got, "Recent Recalls")
}

func TestAssembler_Truncates(t *testing.T) {
	a := NewAssembler(200)
	long := strings.Repeat("é", 250)
	got := a.Assemble(
		[]*storage.Food{{Name: "X", Description: long}},
		[]*storage.Recall{{ProductDescription: long, ReasonForRecall: long}},
		nil,
	)

	assert.Contains(t, got, "- X: "+strings.Repeat("é", 200)+"\n")
	assert.NotContains(t, got, strings.Repeat("é", 201))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
	assert.Equal(t, "", truncate("", 3))
	assert.Equal(t, "日本", truncate("日本語", 2))
}
