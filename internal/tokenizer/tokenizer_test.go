package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteRoundTrip(t *testing.T) {
	tok := NewByte()

	tests := []string{
		"",
		"hello",
		"hello, world!\n",
		"\x00\x01\xff",
		"日本語", // multi-byte UTF-8 round-trips byte by byte
	}
	for _, text := range tests {
		ids := tok.Encode(text)
		assert.Len(t, ids, len(text))

		got, err := tok.Decode(ids)
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}
}

func TestByteEncodeValues(t *testing.T) {
	tok := NewByte()
	assert.Equal(t, []int{104, 105}, tok.Encode("hi"))
}

func TestByteDecodeOutOfRange(t *testing.T) {
	tok := NewByte()

	_, err := tok.Decode([]int{65, 256})
	assert.Error(t, err)

	_, err = tok.Decode([]int{-1})
	assert.Error(t, err)
}

func TestByteVocabSize(t *testing.T) {
	assert.Equal(t, 256, NewByte().VocabSize())
}
