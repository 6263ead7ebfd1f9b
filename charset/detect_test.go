package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBOM(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   string
	}{
		{"utf-8", []byte{0xEF, 0xBB, 0xBF, '<'}, "UTF-8"},
		{"utf-16be", []byte{0xFE, 0xFF, 0x00, '<'}, "UTF-16BE"},
		{"utf-16le", []byte{0xFF, 0xFE, '<', 0x00}, "UTF-16LE"},
		{"utf-32be", []byte{0x00, 0x00, 0xFE, 0xFF}, "UTF-32BE"},
		{"utf-32le", []byte{0xFF, 0xFE, 0x00, 0x00}, "UTF-32LE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Detect(tt.prefix, "")
			assert.Equal(t, tt.want, r.Name)
			assert.Equal(t, Detected, r.Source)
		})
	}
}

func TestDetectMeta(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		src   Source
	}{
		{
			"charset attribute",
			`<html><head><meta charset="utf-8"></head>`,
			"UTF-8", Document,
		},
		{
			"charset unquoted",
			`<meta charset=utf-8>`,
			"UTF-8", Document,
		},
		{
			"charset single quotes",
			`<meta charset='UTF-8'>`,
			"UTF-8", Document,
		},
		{
			"content-type content",
			`<meta http-equiv="Content-Type" content="text/html; charset=utf-8">`,
			"UTF-8", Document,
		},
		{
			"iso-8859-1 promoted to windows-1252",
			`<meta charset="iso-8859-1">`,
			"windows-1252", Document,
		},
		{
			// A document can't truthfully declare a wide encoding in ASCII
			// bytes; the first recognised declaration is ignored outright.
			"utf-16 meta ignored",
			`<meta charset="utf-16"><meta charset="us-ascii">`,
			"windows-1252", Default,
		},
		{
			"not a meta tag",
			`<metadata charset="utf-8">`,
			"windows-1252", Default,
		},
		{
			"no declaration at all",
			`<html><body>hello`,
			"windows-1252", Default,
		},
		{
			"unknown label falls back",
			`<meta charset="klingon">`,
			"windows-1252", Default,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Detect([]byte(tt.input), "")
			assert.Equal(t, tt.want, r.Name)
			assert.Equal(t, tt.src, r.Source)
		})
	}
}

// A meta declaration past the 512-byte pre-scan window is not seen.
func TestDetectMetaOutsideWindow(t *testing.T) {
	doc := make([]byte, 0, 600)
	for len(doc) < 520 {
		doc = append(doc, "<!-- padding -->"...)
	}
	doc = append(doc, `<meta charset="utf-8">`...)
	r := Detect(doc, "")
	assert.Equal(t, "windows-1252", r.Name)
	assert.Equal(t, Default, r.Source)
}

func TestDetectDictatedWins(t *testing.T) {
	r := Detect([]byte(`<meta charset="utf-8">`), "utf-16be")
	assert.Equal(t, "UTF-16BE", r.Name)
	assert.Equal(t, Dictated, r.Source)

	// An unrecognised dictated label falls through to detection.
	r = Detect([]byte(`<meta charset="utf-8">`), "klingon")
	assert.Equal(t, "UTF-8", r.Name)
	assert.Equal(t, Document, r.Source)
}
