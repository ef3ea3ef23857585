// Package tokenizer maps text to token ids and back. The byte tokenizer
// is a 1:1 mapping between bytes and ids, so any model with a 256-entry
// vocabulary can consume arbitrary input without a merge table.
package tokenizer

import "fmt"

// ByteVocabSize is the number of distinct byte tokens.
const ByteVocabSize = 256

// Byte is the identity byte-level tokenizer.
type Byte struct{}

// NewByte returns a byte-level tokenizer.
func NewByte() *Byte {
	return &Byte{}
}

// VocabSize reports the tokenizer's vocabulary size.
func (*Byte) VocabSize() int {
	return ByteVocabSize
}

// Encode maps each byte of text to its token id.
func (*Byte) Encode(text string) []int {
	tokens := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		tokens[i] = int(text[i])
	}
	return tokens
}

// Decode maps token ids back to bytes. Ids outside [0, 256) are
// rejected rather than wrapped.
func (*Byte) Decode(tokens []int) (string, error) {
	buf := make([]byte, len(tokens))
	for i, tok := range tokens {
		if tok < 0 || tok >= ByteVocabSize {
			return "", fmt.Errorf("tokenizer: token %d out of byte range", tok)
		}
		buf[i] = byte(tok)
	}
	return string(buf), nil
}
