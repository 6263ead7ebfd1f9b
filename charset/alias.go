// Package charset implements the encoding alias table and the pre-parse
// charset detector (§4.1). Actual byte<->UTF-8 transcoding is out of scope
// (§1 "Out of scope"); this package only identifies which encoding a
// document is in, described as a canonical name plus an IANA MIB enum.
package charset

import "strings"

// MIB is an IANA-assigned numeric identifier for a character encoding.
// The values below are the subset this module needs to recognise; they
// match the real IANA "Character Sets" registry numbering so a caller's
// codec layer (out of scope here) can use them directly.
type MIB int

const (
	MIBUnknown    MIB = 0
	MIBUSASCII    MIB = 3
	MIBUTF8       MIB = 106
	MIBISO88591   MIB = 4
	MIBWindows1252 MIB = 2252
	MIBUTF16      MIB = 1015
	MIBUTF16BE    MIB = 1013
	MIBUTF16LE    MIB = 1014
	MIBUTF32      MIB = 1017
	MIBUTF32BE    MIB = 1018
	MIBUTF32LE    MIB = 1019
)

// Alias is one entry of the alias table: a canonical name and MIB enum that
// one or more charset labels fold down to.
type Alias struct {
	Canonical string
	MIB       MIB
}

// aliases maps a *folded* label (see fold) to its canonical Alias. The
// table is a representative subset of the IANA charset registry plus the
// common web misspellings libhubbub's src/charset/aliases.c carries
// (§4.1, SPEC_FULL.md §D.1) — enough to drive every detector path and the
// conformance scenarios, not an exhaustive mirror of the registry.
var aliases = buildAliases()

func buildAliases() map[uint32]Alias {
	m := map[uint32]Alias{}
	add := func(mib MIB, canonical string, labels ...string) {
		for _, l := range labels {
			m[fold(l)] = Alias{Canonical: canonical, MIB: mib}
		}
	}
	add(MIBUTF8, "UTF-8", "utf-8", "utf8", "unicode-1-1-utf-8")
	add(MIBUSASCII, "US-ASCII", "us-ascii", "ascii", "ansi_x3.4-1968", "iso-ir-6", "iso646-us", "ibm367", "cp367")
	add(MIBISO88591, "ISO-8859-1", "iso-8859-1", "iso8859-1", "iso_8859-1", "latin1", "l1", "cp819", "ibm819")
	add(MIBWindows1252, "windows-1252", "windows-1252", "cp1252", "x-cp1252", "ms-ansi")
	add(MIBUTF16, "UTF-16", "utf-16", "utf16")
	add(MIBUTF16BE, "UTF-16BE", "utf-16be")
	add(MIBUTF16LE, "UTF-16LE", "utf-16le")
	add(MIBUTF32, "UTF-32", "utf-32", "utf32")
	add(MIBUTF32BE, "UTF-32BE", "utf-32be")
	add(MIBUTF32LE, "UTF-32LE", "utf-32le")
	return m
}

// fold implements the §4.1 hash: "lowercased, punctuation-insensitive...
// h = h*33 ^ (c & ~0x20)". We fold case by clearing bit 0x20 of every ASCII
// letter (which works because ASCII letters differ from their opposite
// case by exactly that bit) and drop characters that aren't alphanumeric,
// so "UTF-8", "utf8", and "utf_8" all hash identically.
func fold(label string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c >= 'a' && c <= 'z' {
			c &^= 0x20
		}
		if !isAlnum(c) {
			continue
		}
		h = h*33 ^ uint32(c)
	}
	return h
}

func isAlnum(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	}
	return false
}

// Canonicalize maps a charset label to its canonical name and MIB enum. ok
// is false when the label is not recognised. Canonicalize is idempotent:
// Canonicalize(Canonicalize(x).Canonical) == Canonicalize(x) for any
// recognised x, since canonical names are themselves valid labels.
func Canonicalize(label string) (Alias, bool) {
	a, ok := aliases[fold(strings.TrimSpace(label))]
	return a, ok
}
