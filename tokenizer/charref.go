package tokenizer

import (
	"errors"

	"github.com/gohubbub/hubbub/entity"
	"github.com/gohubbub/hubbub/inputstream"
)

func isNeedData(err error) bool {
	return errors.Is(err, inputstream.ErrOutOfData)
}

// consumeCharacterReference is invoked when the cursor sits on '&' in data
// or attribute-value-in-quotes context (§4.4 "Character references"). On a
// match it consumes the whole reference and returns the decoded code
// points; on no match the cursor is rewound to the '&' itself, so the
// caller appends a literal '&' and advances past it.
//
// inAttribute selects the attribute-value matching rule: a named reference
// not followed by ';' aborts if the next character is alphanumeric or '='
// (so "&notit;" inside an attribute doesn't eat into "&not" + "it;").
func (t *Tokenizer) consumeCharacterReference(inAttribute bool) (out []rune, ok bool, needData bool) {
	ampOffset := t.stream.Cursor()
	r, _, err := t.stream.Peek()
	if err != nil {
		return nil, false, isNeedData(err)
	}
	if r != '&' {
		return nil, false, false
	}
	t.stream.Advance() // consume '&'

	r, _, err = t.stream.Peek()
	if err != nil {
		if isNeedData(err) {
			t.stream.Rewind(t.stream.Cursor() - ampOffset)
			return nil, false, true
		}
		// EOF right after '&': literal ampersand.
		t.stream.Rewind(t.stream.Cursor() - ampOffset)
		return nil, false, false
	}

	if r == '#' {
		return t.consumeNumericReference(ampOffset)
	}

	return t.consumeNamedReference(ampOffset, inAttribute)
}

func (t *Tokenizer) consumeNumericReference(ampOffset int) (out []rune, ok bool, needData bool) {
	t.stream.Advance() // consume '#'
	hex := false
	if r, _, err := t.stream.Peek(); err == nil && (r == 'x' || r == 'X') {
		hex = true
		t.stream.Advance()
	}

	var digits []rune
	for {
		r, _, err := t.stream.Peek()
		if err != nil {
			if isNeedData(err) {
				t.stream.Rewind(t.stream.Cursor() - ampOffset)
				return nil, false, true
			}
			break
		}
		if hex && isHexDigit(r) || !hex && isDigit(r) {
			digits = append(digits, r)
			t.stream.Advance()
			continue
		}
		break
	}

	if len(digits) == 0 {
		// "&#;" or "&#x;" or "&#" at EOF: not a reference, parse error.
		t.errf("numeric character reference with no digits")
		t.stream.Rewind(t.stream.Cursor() - ampOffset)
		return nil, false, false
	}

	var v int64
	base := int64(10)
	if hex {
		base = 16
	}
	for _, d := range digits {
		v = v*base + int64(hexVal(d))
		if v > 0x10FFFF {
			v = 0x10FFFF + 1 // clamp; NormalizeNumeric will replace it
		}
	}

	if r, _, err := t.stream.Peek(); err == nil && r == ';' {
		t.stream.Advance()
	} else {
		t.errf("numeric character reference missing terminating ';'")
	}

	return []rune{entity.NormalizeNumeric(rune(v))}, true, false
}

func (t *Tokenizer) consumeNamedReference(ampOffset int, inAttribute bool) (out []rune, ok bool, needData bool) {
	var buf []byte
	for {
		r, _, err := t.stream.Peek()
		if err != nil {
			if isNeedData(err) {
				t.stream.Rewind(t.stream.Cursor() - ampOffset)
				return nil, false, true
			}
			break
		}
		if r >= 0x80 {
			break
		}
		if !entity.Default.HasChild(buf, byte(r)) {
			break
		}
		buf = append(buf, byte(r))
		t.stream.Advance()
	}

	e, matchedLen, found := entity.Default.Lookup(buf)
	if !found {
		// No entity name is a prefix of what follows: rewind to the '&'.
		t.stream.Rewind(t.stream.Cursor() - ampOffset)
		return nil, false, false
	}

	extra := len(buf) - matchedLen
	if extra > 0 {
		t.stream.Rewind(extra)
	}

	if inAttribute && !hasTrailingSemicolon(e.Name) {
		if r, _, err := t.stream.Peek(); err == nil && (isAlnum(r) || r == '=') {
			// Abort: treat the whole run as literal text, rewinding to '&'.
			t.stream.Rewind(t.stream.Cursor() - ampOffset)
			return nil, false, false
		}
	}
	if !hasTrailingSemicolon(e.Name) {
		t.errf("named character reference missing terminating ';'")
	}

	return append([]rune{}, e.CodePoints...), true, false
}

func hasTrailingSemicolon(name string) bool {
	return len(name) > 0 && name[len(name)-1] == ';'
}

func isDigit(r rune) bool    { return r >= '0' && r <= '9' }
func isHexDigit(r rune) bool { return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') }
func isAlnum(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func hexVal(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	default:
		return int(r-'A') + 10
	}
}
