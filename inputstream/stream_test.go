package inputstream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gohubbub/hubbub/charset"
)

func feed(t *testing.T, s *Stream, chunks ...[]byte) {
	t.Helper()
	for _, c := range chunks {
		require.NoError(t, s.Append(c))
	}
	require.NoError(t, s.AppendEOF())
}

func drain(t *testing.T, s *Stream) string {
	t.Helper()
	var out []rune
	for {
		r, _, err := s.Peek()
		if err == ErrEOF {
			return string(out)
		}
		require.NoError(t, err)
		out = append(out, r)
		s.Advance()
	}
}

func TestPeekAdvance(t *testing.T) {
	s := New()
	feed(t, s, []byte("abé"))

	r, size, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, 'a', r)
	assert.Equal(t, 1, size)

	// Peek is idempotent.
	r2, _, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, r, r2)

	s.Advance()
	s.Advance()
	r, size, err = s.Peek()
	require.NoError(t, err)
	assert.Equal(t, 'é', r)
	assert.Equal(t, 2, size)

	s.Advance()
	_, _, err = s.Peek()
	assert.Equal(t, ErrEOF, err)
	assert.True(t, s.AtEnd())
}

func TestOutOfDataThenMore(t *testing.T) {
	s := New()
	require.NoError(t, s.Append([]byte("a")))
	s.Advance()
	_, _, err := s.Peek()
	assert.Equal(t, ErrOutOfData, err)

	require.NoError(t, s.Append([]byte("b")))
	r, _, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, 'b', r)
}

func TestNewlineNormalisation(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   string
	}{
		{"crlf", []string{"a\r\nb"}, "a\nb"},
		{"bare cr", []string{"a\rb"}, "a\nb"},
		{"crlf split across chunks", []string{"a\r", "\nb"}, "a\nb"},
		{"cr at eof", []string{"a\r"}, "a\n"},
		{"crcrlf", []string{"a\r\r\nb"}, "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(WithDeclaredEncoding("utf-8"))
			var chunks [][]byte
			for _, c := range tt.chunks {
				chunks = append(chunks, []byte(c))
			}
			feed(t, s, chunks...)
			assert.Equal(t, tt.want, drain(t, s))
		})
	}
}

func TestNULReplacement(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	feed(t, s, []byte{'a', 0x00, 'b'})
	assert.Equal(t, "a�b", drain(t, s))
}

func TestInvalidUTF8Replacement(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	feed(t, s, []byte{'a', 0xFF, 'b'})
	assert.Equal(t, "a�b", drain(t, s))
}

// A multi-byte sequence split across Append calls is carried over, not
// replaced.
func TestMultibyteCarryover(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	eAcute := []byte("é")
	feed(t, s, []byte{'a', eAcute[0]}, []byte{eAcute[1], 'b'})
	assert.Equal(t, "aéb", drain(t, s))
}

func TestLeadingBOMStripped(t *testing.T) {
	s := New()
	feed(t, s, []byte{0xEF, 0xBB, 0xBF, 'h', 'i'})
	r, ok := s.Charset()
	require.True(t, ok)
	assert.Equal(t, charset.MIBUTF8, r.MIB)
	assert.Equal(t, "hi", drain(t, s))
}

func TestUTF16Decoding(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-16be"))
	// "<a>" plus U+20AC in UTF-16BE, split at an odd byte boundary.
	feed(t, s,
		[]byte{0x00, '<', 0x00},
		[]byte{'a', 0x00, '>', 0x20, 0xAC})
	assert.Equal(t, "<a>€", drain(t, s))
}

func TestUTF16SurrogatePair(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-16le"))
	// U+1F600 as the LE surrogate pair D83D DE00.
	feed(t, s, []byte{0x3D, 0xD8, 0x00, 0xDE})
	assert.Equal(t, "\U0001F600", drain(t, s))
}

func TestInsert(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	require.NoError(t, s.Append([]byte("ad")))
	s.Advance() // past 'a'
	require.NoError(t, s.Insert([]byte("bc")))
	require.NoError(t, s.AppendEOF())
	assert.Equal(t, "bcd", drain(t, s))

	assert.Error(t, s.Insert([]byte{0xFF}))
}

func TestRewindAndPushBack(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	feed(t, s, []byte("xyz"))
	s.Advance()
	s.Advance()

	require.NoError(t, s.PushBack('y'))
	r, _, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, 'y', r)

	assert.ErrorIs(t, s.PushBack('q'), ErrPushBackMismatch)

	require.NoError(t, s.Rewind(1))
	r, _, _ = s.Peek()
	assert.Equal(t, 'x', r)
	assert.Error(t, s.Rewind(5))
}

func TestLineColTracking(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	feed(t, s, []byte("ab\ncd"))
	line, col := s.LineCol()
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	for i := 0; i < 3; i++ {
		s.Advance()
	}
	line, col = s.LineCol()
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	s.Advance()
	line, col = s.LineCol()
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)

	// Rewind recomputes from scratch.
	require.NoError(t, s.Rewind(3))
	line, col = s.LineCol()
	assert.Equal(t, 1, line)
	assert.Equal(t, 2, col)
}

func TestCaseFolding(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	feed(t, s, []byte("Ab"))
	s.Lowercase()
	r, _, _ := s.Peek()
	assert.Equal(t, 'a', r)
	s.Uppercase()
	r, _, _ = s.Peek()
	assert.Equal(t, 'A', r)
}

func TestReplaceRange(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	feed(t, s, []byte("x&amp;y"))
	for i := 0; i < 7; i++ {
		s.Advance()
	}
	// Replace "&amp;" (offset 1, length 5) with '&'.
	require.NoError(t, s.ReplaceRange(1, 5, '&'))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3, s.Cursor())
	assert.Equal(t, []byte("x&y"), s.Slice(0, 3))

	// Replacement with a wider encoding shifts the tail the other way.
	require.NoError(t, s.ReplaceRange(1, 1, '€'))
	assert.Equal(t, []byte("x€y"), s.Slice(0, s.Len()))

	assert.Error(t, s.ReplaceRange(0, 99, 'z'))
}

func TestCompareRanges(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	feed(t, s, []byte("abcABCxyz"))
	assert.True(t, s.CompareRangeCI(0, 3, 3))
	assert.False(t, s.CompareRangeCS(0, 3, 3))
	assert.True(t, s.CompareRangeCS(0, 0, 3))
	assert.True(t, s.CompareRangeASCII(3, "abc"))
	assert.True(t, s.CompareRangeASCII(6, "XYZ"))
	assert.False(t, s.CompareRangeASCII(6, "xyzz"))
}

func TestClaimBuffer(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	require.NoError(t, s.Append([]byte("hi")))

	_, err := s.ClaimBuffer()
	assert.ErrorIs(t, err, ErrClaimBeforeEOF)

	require.NoError(t, s.AppendEOF())
	_, err = s.ClaimBuffer()
	assert.ErrorIs(t, err, ErrClaimBeforeEOF) // cursor not at end yet

	drain(t, s)
	b, err := s.ClaimBuffer()
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), b)

	assert.Error(t, s.Append([]byte("more")))
}

// A single Append larger than the decoder's working buffer drains fully:
// the decoder suspends on output-full and the stream resumes it.
func TestLargeChunk(t *testing.T) {
	s := New(WithDeclaredEncoding("utf-8"))
	big := bytes.Repeat([]byte("abcdefgh"), 2048)
	feed(t, s, big)
	assert.Equal(t, len(big), s.Len())

	s = New(WithDeclaredEncoding("utf-16be"))
	wide := bytes.Repeat([]byte{0x00, 'x'}, 8192)
	feed(t, s, wide)
	assert.Equal(t, 8192, s.Len())
}

func TestCharsetDeferredUntilFirstAppend(t *testing.T) {
	s := New()
	_, ok := s.Charset()
	assert.False(t, ok)

	require.NoError(t, s.Append([]byte("hello")))
	r, ok := s.Charset()
	require.True(t, ok)
	assert.Equal(t, "windows-1252", r.Name)
	assert.Equal(t, charset.Default, r.Source)
}
