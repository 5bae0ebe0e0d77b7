package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical_PrefersDocID(t *testing.T) {
	fields := map[string]any{
		"docId": "abc-123",
		"id":    float64(5),
		"_id":   "legacy",
	}

	id, err := Canonical(fields)

	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestCanonical_NumericID(t *testing.T) {
	// JSON декодирует числа как float64
	id, err := Canonical(map[string]any{"id": float64(5)})

	require.NoError(t, err)
	assert.Equal(t, "5", id)
}

func TestCanonical_LegacyFallback(t *testing.T) {
	id, err := Canonical(map[string]any{"_id": "old-7"})

	require.NoError(t, err)
	assert.Equal(t, "old-7", id)
}

func TestCanonical_Unresolvable(t *testing.T) {
	_, err := Canonical(map[string]any{"title": "no ids here"})
	assert.ErrorIs(t, err, ErrUnresolvable)

	// Пустая строка не считается идентификатором
	_, err = Canonical(map[string]any{"docId": ""})
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestEqual_AcrossRepresentations(t *testing.T) {
	// {id: 5}, {id: "5"} и {docId: "5"} — одна и та же запись
	numeric := map[string]any{"id": float64(5)}
	str := map[string]any{"id": "5"}
	doc := map[string]any{"docId": "5"}

	assert.True(t, Equal(numeric, str))
	assert.True(t, Equal(numeric, doc))
	assert.True(t, Equal(str, doc))
}

func TestEqual_UnresolvableNeverEqual(t *testing.T) {
	empty := map[string]any{}
	assert.False(t, Equal(empty, empty))
	assert.False(t, Equal(empty, map[string]any{"id": "1"}))
}

func TestMatches(t *testing.T) {
	fields := map[string]any{"id": float64(42)}

	assert.True(t, Matches(fields, "42"))
	assert.False(t, Matches(fields, "41"))
	assert.False(t, Matches(map[string]any{}, "42"))
}
