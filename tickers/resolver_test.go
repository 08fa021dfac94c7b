package tickers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_NoAlias(t *testing.T) {
	assert.Equal(t, []string{"TSLA"}, Resolve("TSLA"))
	assert.Equal(t, []string{"AAPL"}, Resolve("aapl"))
}

func TestResolve_DualClassSymmetric(t *testing.T) {
	assert.Equal(t, []string{"GOOG", "GOOGL"}, Resolve("GOOG"))
	assert.Equal(t, []string{"GOOGL", "GOOG"}, Resolve("GOOGL"))
	assert.Equal(t, []string{"BRK.B", "BRK.A"}, Resolve("BRK.B"))
}

func TestResolve_Empty(t *testing.T) {
	assert.Nil(t, Resolve(""))
	assert.Nil(t, Resolve("   "))
}

func TestAlias(t *testing.T) {
	alias, ok := Alias("FOX")
	assert.True(t, ok)
	assert.Equal(t, "FOXA", alias)

	_, ok = Alias("MSFT")
	assert.False(t, ok)
}
