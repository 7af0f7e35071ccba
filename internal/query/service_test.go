package query

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/llm"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

type countingSearcher[T any] struct {
	calls   atomic.Int32
	records []T
	err     error
	lastKW  []string
}

func (s *countingSearcher[T]) Search(_ context.Context, keywords []string, limit int) ([]T, error) {
	s.calls.Add(1)
	s.lastKW = keywords
	if s.err != nil {
		return nil, s.err
	}
	if len(s.records) > limit {
		return s.records[:limit], nil
	}
	return s.records, nil
}

func makeFoods(n int) []*storage.Food {
	out := make([]*storage.Food, n)
	for i := range out {
		out[i] = &storage.Food{Name: fmt.Sprintf("Tuna %02d", i), Description: "tuna variety"}
	}
	return out
}

func makeRecalls(n int) []*storage.Recall {
	out := make([]*storage.Recall, n)
	for i := range out {
		out[i] = &storage.Recall{RecallNumber: fmt.Sprintf("F-%d", i), ProductDescription: "tuna",
			Classification: storage.ClassII, CompanyName: "Co"}
	}
	return out
}

func makeAdvisories(n int) []*storage.Advisory {
	out := make([]*storage.Advisory, n)
	for i := range out {
		out[i] = &storage.Advisory{StateName: "Maine", FishSpecies: fmt.Sprintf("Tuna %d", i)}
	}
	return out
}

type fixture struct {
	foods      *countingSearcher[*storage.Food]
	recalls    *countingSearcher[*storage.Recall]
	advisories *countingSearcher[*storage.Advisory]
	mock       *llm.MockClient
	svc        *Service
}

func newFixture(n int, completer bool) *fixture {
	f := &fixture{
		foods:      &countingSearcher[*storage.Food]{records: makeFoods(n)},
		recalls:    &countingSearcher[*storage.Recall]{records: makeRecalls(n)},
		advisories: &countingSearcher[*storage.Advisory]{records: makeAdvisories(n)},
		mock:       llm.NewMockClient("Grounded answer."),
	}
	var c llm.Completer
	if completer {
		c = f.mock
	}
	f.svc = NewService(observability.Nop(), Sources{
		Foods:      f.foods,
		Recalls:    f.recalls,
		Advisories: f.advisories,
	}, c, DefaultConfig())
	return f
}

func TestAnswerQuery_RejectsShortQuestions(t *testing.T) {
	for _, q := range []string{"", "hi", "  ab  ", "\t\n"} {
		f := newFixture(3, true)
		_, err := f.svc.AnswerQuery(context.Background(), Request{Question: q})

		require.Error(t, err, q)
		assert.True(t, domain.IsKind(err, domain.KindInvalidInput))
		assert.Equal(t, "Query must be at least 3 characters long", domain.MessageOf(err))
		assert.Zero(t, f.foods.calls.Load())
		assert.Zero(t, f.recalls.calls.Load())
		assert.Zero(t, f.advisories.calls.Load())
		assert.Empty(t, f.mock.Calls())
	}
}

func TestAnswerQuery_TruncationLaw(t *testing.T) {
	f := newFixture(15, true)
	ans, err := f.svc.AnswerQuery(context.Background(), Request{Question: "tuna recalls"})
	require.NoError(t, err)

	assert.Len(t, ans.Foods, 5)
	assert.Len(t, ans.Recalls, 5)
	assert.Len(t, ans.Advisories, 5)
	assert.Equal(t, "Tuna 00", ans.Foods[0].Name)

	// the model sees all ten retrieved records per source
	calls := f.mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "- Tuna 09: tuna variety")
	assert.NotContains(t, calls[0].Prompt, "Tuna 10")
}

func TestAnswerQuery_FewerThanDisplayLimit(t *testing.T) {
	f := newFixture(2, true)
	ans, err := f.svc.AnswerQuery(context.Background(), Request{Question: "tuna"})
	require.NoError(t, err)
	assert.Len(t, ans.Foods, 2)
	assert.Len(t, ans.Recalls, 2)
	assert.Len(t, ans.Advisories, 2)
}

func TestAnswerQuery_FaultIsolation(t *testing.T) {
	f := newFixture(3, true)
	f.recalls.err = errors.New("connection reset")

	ans, err := f.svc.AnswerQuery(context.Background(), Request{Question: "Any tuna recalls?"})
	require.NoError(t, err)

	assert.Len(t, ans.Foods, 3)
	assert.Len(t, ans.Advisories, 3)
	assert.NotNil(t, ans.Recalls)
	assert.Empty(t, ans.Recalls)
	assert.Equal(t, []string{"recalls"}, ans.FailedSources)
	assert.Equal(t, "Grounded answer.", ans.Answer)
	assert.NotContains(t, f.mock.Calls()[0].Prompt, "Recent Recalls")
}

func TestAnswerQuery_NoKeywords(t *testing.T) {
	f := newFixture(3, true)
	ans, err := f.svc.AnswerQuery(context.Background(), Request{Question: "What is it?"})
	require.NoError(t, err)

	assert.Empty(t, ans.Keywords)
	assert.Empty(t, ans.Foods)
	assert.Empty(t, ans.Recalls)
	assert.Empty(t, ans.Advisories)
	assert.Zero(t, f.foods.calls.Load(), "no storage query for an empty keyword set")

	calls := f.mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, NoDataSentinel)
}

func TestAnswerQuery_NotConfigured(t *testing.T) {
	f := newFixture(3, false)
	assert.False(t, f.svc.Configured())

	ans, err := f.svc.AnswerQuery(context.Background(), Request{Question: "What is mercury?"})
	require.NoError(t, err)

	assert.Equal(t, NotConfiguredMessage, ans.Answer)
	assert.Equal(t, domain.KindBackendUnavailable, ans.Degraded)
	assert.Equal(t, []string{"mercury"}, ans.Keywords)
	assert.Len(t, ans.Foods, 3)
	assert.Len(t, ans.Recalls, 3)
	assert.Len(t, ans.Advisories, 3)
}

func TestAnswerQuery_BackendFailure(t *testing.T) {
	f := newFixture(3, true)
	f.mock.Err = errors.New("401 unauthorized")

	ans, err := f.svc.AnswerQuery(context.Background(), Request{Question: "tuna mercury"})
	require.NoError(t, err)
	assert.Equal(t, "Error processing query: 401 unauthorized", ans.Answer)
	assert.Equal(t, domain.KindBackendFailure, ans.Degraded)
	assert.Len(t, ans.Foods, 3)
}

func TestAnswerQuery_ContextHintIsInert(t *testing.T) {
	f := newFixture(3, true)
	a, err := f.svc.AnswerQuery(context.Background(), Request{Question: "tuna mercury"})
	require.NoError(t, err)
	kwA := f.foods.lastKW

	b, err := f.svc.AnswerQuery(context.Background(), Request{Question: "tuna mercury", ContextHint: "advisory"})
	require.NoError(t, err)

	assert.Equal(t, kwA, f.foods.lastKW)
	assert.Equal(t, a.Foods, b.Foods)
	assert.Equal(t, f.mock.Calls()[0].Prompt, f.mock.Calls()[1].Prompt)
}

func TestAnswerQuery_Summaries(t *testing.T) {
	f := newFixture(0, true)
	f.recalls.records = []*storage.Recall{{RecallNumber: "F-9", ProductDescription: "Tuna salad",
		ReasonForRecall: "Listeria", Classification: storage.ClassI, CompanyName: "Deli Co"}}
	f.advisories.records = []*storage.Advisory{{StateName: "Florida", FishSpecies: "King Mackerel",
		WaterbodyName: "Gulf", ContaminantType: "Mercury", AdvisoryLevel: "Do not eat", ConsumptionLimit: "None"}}

	ans, err := f.svc.AnswerQuery(context.Background(), Request{Question: "tuna mackerel"})
	require.NoError(t, err)

	assert.Equal(t, []RecallSummary{{RecallNumber: "F-9", Product: "Tuna salad", Reason: "Listeria",
		Classification: "Class I", Company: "Deli Co"}}, ans.Recalls)
	assert.Equal(t, []AdvisorySummary{{State: "Florida", FishSpecies: "King Mackerel", Waterbody: "Gulf",
		Contaminant: "Mercury", AdvisoryLevel: "Do not eat", ConsumptionLimit: "None"}}, ans.Advisories)
}

func TestRetriever_ConcurrentBarrier(t *testing.T) {
	release := make(chan struct{})
	var started atomic.Int32
	slow := SearcherFunc[*storage.Food](func(ctx context.Context, kw []string, limit int) ([]*storage.Food, error) {
		started.Add(1)
		<-release
		return makeFoods(1), nil
	})

	r := NewRetriever(observability.Nop(), Sources{
		Foods:      slow,
		Recalls:    &countingSearcher[*storage.Recall]{records: makeRecalls(1)},
		Advisories: &countingSearcher[*storage.Advisory]{err: errors.New("boom")},
	}, 10)

	done := make(chan Retrieved)
	go func() { done <- r.Retrieve(context.Background(), []string{"tuna"}) }()

	select {
	case <-done:
		t.Fatal("retrieve returned before all sources finished")
	default:
	}
	close(release)

	got := <-done
	assert.Len(t, got.Foods.Records, 1)
	assert.Len(t, got.Recalls.Records, 1)
	assert.True(t, got.Advisories.Failed())
	assert.True(t, domain.IsKind(got.Advisories.Err, domain.KindSourceSearchFailure))
	assert.Empty(t, got.Advisories.Records)
}

func TestRetriever_PanickingSourceIsIsolated(t *testing.T) {
	broken := SearcherFunc[*storage.Recall](func(ctx context.Context, kw []string, limit int) ([]*storage.Recall, error) {
		var m map[string]int
		m["boom"]++
		return nil, nil
	})

	r := NewRetriever(observability.Nop(), Sources{
		Foods:      &countingSearcher[*storage.Food]{records: makeFoods(2)},
		Recalls:    broken,
		Advisories: &countingSearcher[*storage.Advisory]{records: makeAdvisories(1)},
	}, 10)

	var got Retrieved
	require.NotPanics(t, func() { got = r.Retrieve(context.Background(), []string{"tuna"}) })

	assert.Len(t, got.Foods.Records, 2)
	assert.Len(t, got.Advisories.Records, 1)
	assert.True(t, got.Recalls.Failed())
	assert.True(t, domain.IsKind(got.Recalls.Err, domain.KindSourceSearchFailure))
	assert.Contains(t, got.Recalls.Err.Error(), "panic")
	assert.NotNil(t, got.Recalls.Records)
	assert.Empty(t, got.Recalls.Records)
}

func TestExamples(t *testing.T) {
	cat := Examples()
	require.Len(t, cat.Examples, 5)
	for _, c := range cat.Examples {
		assert.Len(t, c.Queries, 4, c.Category)
	}
	assert.Len(t, cat.Tips, 4)
	assert.Equal(t, "Safety & Contaminants", cat.Examples[0].Category)
}
