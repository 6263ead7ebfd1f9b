package charset

import "bytes"

// Source identifies how a Result's encoding was determined. Caller-dictated
// (Dictated) always wins over anything this package infers (§4.1).
type Source int

const (
	Unknown Source = iota
	Default
	Detected
	Document
	Dictated
)

func (s Source) String() string {
	switch s {
	case Default:
		return "default"
	case Detected:
		return "detected"
	case Document:
		return "document"
	case Dictated:
		return "dictated"
	default:
		return "unknown"
	}
}

// Result is the outcome of charset detection: a canonical name, its MIB
// enum, and the Source that produced it.
type Result struct {
	Name   string
	MIB    MIB
	Source Source
}

// preScanWindow bounds how many leading bytes of the document the <meta>
// pre-scan examines (§4.1 step 2).
const preScanWindow = 512

// Detect implements the §4.1 three-step detection algorithm against the
// leading bytes of a document. dictated, if non-empty, is a caller-supplied
// (e.g. HTTP Content-Type) charset label that wins unconditionally.
func Detect(prefix []byte, dictated string) Result {
	if dictated != "" {
		if a, ok := Canonicalize(dictated); ok {
			return Result{Name: a.Canonical, MIB: a.MIB, Source: Dictated}
		}
	}

	if r, ok := sniffBOM(prefix); ok {
		return r
	}

	window := prefix
	if len(window) > preScanWindow {
		window = window[:preScanWindow]
	}
	if label, ok := scanMetaCharset(window); ok {
		if label == "iso-8859-1" {
			label = "windows-1252"
		}
		if a, ok := Canonicalize(label); ok {
			// A document-declared charset implying UTF-16/UTF-32 is
			// ignored: if the document really were in one of those
			// encodings, the BOM sniff above would already have found it
			// (§4.1 step 2 final sentence).
			if !impliesWideEncoding(a.MIB) {
				return Result{Name: a.Canonical, MIB: a.MIB, Source: Document}
			}
		}
	}

	return Result{Name: "windows-1252", MIB: MIBWindows1252, Source: Default}
}

func impliesWideEncoding(m MIB) bool {
	switch m {
	case MIBUTF16, MIBUTF16BE, MIBUTF16LE, MIBUTF32, MIBUTF32BE, MIBUTF32LE:
		return true
	}
	return false
}

// sniffBOM implements §4.1 step 1: inspect up to the first 4 bytes for a
// byte-order mark. UTF-32 BOMs are checked before UTF-16 ones because a
// UTF-32LE BOM (FF FE 00 00) is a superset prefix of a UTF-16LE BOM
// (FF FE); checking the longer pattern first avoids misclassifying it.
func sniffBOM(b []byte) (Result, bool) {
	switch {
	case bytes.HasPrefix(b, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return Result{Name: "UTF-32BE", MIB: MIBUTF32BE, Source: Detected}, true
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return Result{Name: "UTF-32LE", MIB: MIBUTF32LE, Source: Detected}, true
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		return Result{Name: "UTF-16BE", MIB: MIBUTF16BE, Source: Detected}, true
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE}):
		return Result{Name: "UTF-16LE", MIB: MIBUTF16LE, Source: Detected}, true
	case bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}):
		return Result{Name: "UTF-8", MIB: MIBUTF8, Source: Detected}, true
	}
	return Result{}, false
}

// scanMetaCharset is an ASCII-only miniature parser that looks for a
// <meta> tag within window and reads a charset= or content=...;charset=...
// attribute, honouring HTML5's quoted/unquoted attribute-value rules
// (§4.1 step 2). It stops at the first recognised charset.
func scanMetaCharset(window []byte) (string, bool) {
	i := 0
	for i < len(window) {
		lt := bytes.IndexByte(window[i:], '<')
		if lt == -1 {
			return "", false
		}
		i += lt
		if !isMetaTagAt(window, i) {
			i++
			continue
		}
		i += len("<meta")
		attrs, end := scanAttributes(window, i)
		i = end
		if charset, ok := charsetFromAttrs(attrs); ok {
			return charset, true
		}
	}
	return "", false
}

func isMetaTagAt(window []byte, i int) bool {
	const tag = "<meta"
	if i+len(tag) > len(window) {
		return false
	}
	for k := 0; k < len(tag); k++ {
		c := window[i+k]
		want := tag[k]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != want {
			return false
		}
	}
	// must be followed by whitespace, '/' or '>' to really be <meta, not e.g. <metadata
	if i+len(tag) < len(window) {
		c := window[i+len(tag)]
		if !isSpace(c) && c != '>' && c != '/' {
			return false
		}
	}
	return true
}

type metaAttr struct {
	name, value string
}

// scanAttributes parses HTML5 attribute syntax (unquoted, single-quoted,
// double-quoted values) starting right after the tag name, stopping at '>'
// or end of window. It returns the attributes found and the index just
// past the tag (or past the window if the tag wasn't terminated within it).
func scanAttributes(window []byte, i int) ([]metaAttr, int) {
	var attrs []metaAttr
	for i < len(window) {
		for i < len(window) && isSpace(window[i]) {
			i++
		}
		if i >= len(window) || window[i] == '>' {
			if i < len(window) {
				i++
			}
			break
		}
		if window[i] == '/' {
			i++
			continue
		}
		nameStart := i
		for i < len(window) && !isSpace(window[i]) && window[i] != '=' && window[i] != '>' {
			i++
		}
		name := asciiLower(window[nameStart:i])
		for i < len(window) && isSpace(window[i]) {
			i++
		}
		var value string
		if i < len(window) && window[i] == '=' {
			i++
			for i < len(window) && isSpace(window[i]) {
				i++
			}
			if i < len(window) && (window[i] == '"' || window[i] == '\'') {
				quote := window[i]
				i++
				valStart := i
				for i < len(window) && window[i] != quote {
					i++
				}
				value = string(window[valStart:i])
				if i < len(window) {
					i++
				}
			} else {
				valStart := i
				for i < len(window) && !isSpace(window[i]) && window[i] != '>' {
					i++
				}
				value = string(window[valStart:i])
			}
		}
		attrs = append(attrs, metaAttr{name: name, value: value})
	}
	return attrs, i
}

func charsetFromAttrs(attrs []metaAttr) (string, bool) {
	for _, a := range attrs {
		if a.name == "charset" && a.value != "" {
			return asciiLower([]byte(a.value)), true
		}
	}
	// Fall back to a "content" attribute carrying "...;charset=XYZ", as
	// produced by <meta http-equiv="Content-Type" content="text/html;
	// charset=XYZ">. We don't require http-equiv to actually say
	// Content-Type: real documents get this wrong constantly and the
	// WHATWG algorithm this mirrors is itself lenient here.
	for _, a := range attrs {
		if a.name == "content" {
			if cs, ok := extractContentCharset(a.value); ok {
				return cs, true
			}
		}
	}
	return "", false
}

// extractContentCharset parses "...;charset=XYZ" or "...;charset=\"XYZ\""
// out of a meta content="" value.
func extractContentCharset(content string) (string, bool) {
	lower := asciiLowerString(content)
	idx := indexCharsetParam(lower)
	if idx == -1 {
		return "", false
	}
	rest := content[idx+len("charset"):]
	rest = trimLeftSpace(rest)
	if len(rest) == 0 || rest[0] != '=' {
		return "", false
	}
	rest = rest[1:]
	rest = trimLeftSpace(rest)
	if len(rest) == 0 {
		return "", false
	}
	if rest[0] == '"' || rest[0] == '\'' {
		quote := rest[0]
		end := indexByteFrom(rest, quote, 1)
		if end == -1 {
			return asciiLowerString(rest[1:]), true
		}
		return asciiLowerString(rest[1:end]), true
	}
	end := 0
	for end < len(rest) && !isSpace(rest[end]) && rest[end] != ';' {
		end++
	}
	return asciiLowerString(rest[:end]), true
}

func indexCharsetParam(lower string) int {
	for i := 0; i+len("charset") <= len(lower); i++ {
		if lower[i:i+len("charset")] == "charset" {
			return i
		}
	}
	return -1
}

func indexByteFrom(s string, c byte, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func trimLeftSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func asciiLower(b []byte) string {
	return asciiLowerString(string(b))
}

func asciiLowerString(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
