package token_management

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tm := NewTokenManager()

	assert.Equal(t, 0, tm.EstimateTokens(""))
	assert.Equal(t, 0, tm.EstimateTokens("abc"))
	assert.Equal(t, 1, tm.EstimateTokens("abcd"))
	assert.Equal(t, 100, tm.EstimateTokens(strings.Repeat("x", 400)))
}

func TestUsedTokensAccumulate(t *testing.T) {
	tm := NewTokenManager()

	tm.UsedTokens(100, 50)
	tm.UsedTokens(10, 5)

	total, input, output := tm.GetCurrentTokenUsage()
	assert.Equal(t, 165, total)
	assert.Equal(t, 110, input)
	assert.Equal(t, 55, output)

	tm.ClearToken()
	total, input, output = tm.GetCurrentTokenUsage()
	assert.Zero(t, total)
	assert.Zero(t, input)
	assert.Zero(t, output)
}

func TestCalculateCost(t *testing.T) {
	tm := NewTokenManager()

	// gpt-4o-mini pricing from the embedded model details.
	cost := tm.CalculateCost("openai", "gpt-4o-mini", 1_000_000, 1_000_000)
	assert.InDelta(t, 0.75, cost, 0.0001)

	// Unknown models cost nothing rather than guessing.
	assert.Zero(t, tm.CalculateCost("openai", "unknown-model", 1000, 1000))
}
