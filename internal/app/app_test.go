package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsedoc/fish-rankings/internal/config"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/query"
)

func TestNew_SQLiteWithoutLLM(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.SQLite.Path = ":memory:"

	a, err := New(context.Background(), cfg, observability.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Query.Configured())

	ans, err := a.Query.AnswerQuery(context.Background(), query.Request{Question: "What is mercury?"})
	require.NoError(t, err)
	assert.Equal(t, query.NotConfiguredMessage, ans.Answer)
	assert.Empty(t, ans.Foods)
}

func TestNew_WithLLMKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.SQLite.Path = ":memory:"
	cfg.LLM.APIKey = "test-key"

	a, err := New(context.Background(), cfg, observability.Nop())
	require.NoError(t, err)
	defer a.Close()
	assert.True(t, a.Query.Configured())
}
