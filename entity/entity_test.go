package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrieLookup(t *testing.T) {
	tests := []struct {
		input    string
		name     string
		consumed int
		found    bool
	}{
		{"amp;", "amp;", 4, true},
		{"amp", "amp", 3, true},
		{"ampersand", "amp", 3, true}, // longest valid prefix wins
		{"lt;x", "lt;", 3, true},
		{"notindot;", "notindot;", 9, true},
		{"nosuch;", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, consumed, found := Default.Lookup([]byte(tt.input))
			require.Equal(t, tt.found, found)
			if !found {
				return
			}
			assert.Equal(t, tt.name, e.Name)
			assert.Equal(t, tt.consumed, consumed)
		})
	}
}

func TestTrieHasChild(t *testing.T) {
	assert.True(t, Default.HasChild(nil, 'a'))
	assert.True(t, Default.HasChild([]byte("am"), 'p'))
	assert.True(t, Default.HasChild([]byte("amp"), ';'))
	assert.False(t, Default.HasChild([]byte("amp;"), 'x'))
	assert.False(t, Default.HasChild([]byte("zz"), 'z'))
}

func TestTrieMultiCodePoint(t *testing.T) {
	e, _, found := Default.Lookup([]byte("notindot;"))
	require.True(t, found)
	assert.Equal(t, []rune{0x22F5, 0x0338}, e.CodePoints)
}

// Every entry in the Windows-1252 remap table must round through
// NormalizeNumeric to its remapped code point.
func TestNormalizeNumericWin1252(t *testing.T) {
	for raw, want := range Win1252Remap {
		t.Run(fmt.Sprintf("%#x", raw), func(t *testing.T) {
			assert.Equal(t, want, NormalizeNumeric(raw))
		})
	}
}

func TestNormalizeNumeric(t *testing.T) {
	tests := []struct {
		in, want rune
	}{
		{0x0D, 0x0A},
		{'A', 'A'},
		{0x20AC, 0x20AC},
		{0x00, ReplacementChar},
		{0x08, ReplacementChar},
		{0x0B, ReplacementChar},
		{0x1F, ReplacementChar},
		{0x7F, ReplacementChar},
		{0xD800, ReplacementChar},
		{0xDFFF, ReplacementChar},
		{0xFDD0, ReplacementChar},
		{0xFFFE, ReplacementChar},
		{0x1FFFF, ReplacementChar},
		{0x110000, ReplacementChar},
		{0x10FFFD, 0x10FFFD},
		{0x09, 0x09}, // tab is legal
		{0x0A, 0x0A},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeNumeric(tt.in), "input %#x", tt.in)
	}
}
