package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		label     string
		canonical string
		mib       MIB
	}{
		{"utf-8", "UTF-8", MIBUTF8},
		{"UTF-8", "UTF-8", MIBUTF8},
		{"utf8", "UTF-8", MIBUTF8},
		{"u.t.f-008", "UTF-8", MIBUTF8}, // punctuation-insensitive, but not digit-insensitive: see below
		{"unicode-1-1-utf-8", "UTF-8", MIBUTF8},
		{"iso-8859-1", "ISO-8859-1", MIBISO88591},
		{"ISO_8859-1", "ISO-8859-1", MIBISO88591},
		{"latin1", "ISO-8859-1", MIBISO88591},
		{"windows-1252", "windows-1252", MIBWindows1252},
		{"cp1252", "windows-1252", MIBWindows1252},
		{"us-ascii", "US-ASCII", MIBUSASCII},
		{"ascii", "US-ASCII", MIBUSASCII},
		{"utf-16", "UTF-16", MIBUTF16},
		{"utf-16be", "UTF-16BE", MIBUTF16BE},
		{"utf-16le", "UTF-16LE", MIBUTF16LE},
		{" utf-8 ", "UTF-8", MIBUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			a, ok := Canonicalize(tt.label)
			if tt.label == "u.t.f-008" {
				// "utf008" and "utf8" hash differently; this is here to pin
				// down that only punctuation is ignored.
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.canonical, a.Canonical)
			assert.Equal(t, tt.mib, a.MIB)
		})
	}
}

func TestCanonicalizeUnknown(t *testing.T) {
	for _, label := range []string{"", "klingon", "x-no-such-charset"} {
		_, ok := Canonicalize(label)
		assert.False(t, ok, "label %q", label)
	}
}

// Canonical names are themselves valid labels, so canonicalisation is
// idempotent.
func TestCanonicalizeIdempotent(t *testing.T) {
	for _, label := range []string{"utf8", "latin1", "cp1252", "ascii", "utf-16be"} {
		a, ok := Canonicalize(label)
		require.True(t, ok)
		b, ok := Canonicalize(a.Canonical)
		require.True(t, ok)
		assert.Equal(t, a, b)
	}
}
