package reader

import (
	"fmt"

	"github.com/ehrlich-b/gopasta/internal/gopastaerr"
	"github.com/ehrlich-b/gopasta/internal/words"
)

const maxTrailingPadding = 15

// Preprocess splits a raw payload into 10-byte GBT words, detecting
// whether the stream uses the V0 (16-byte stride, 6 zero trailing bytes
// per word) or V2 (bare 10-byte stride) layout, and trimming any trailing
// 0xFF padding.
func Preprocess(payload []byte) ([]words.GbtWord, error) {
	trailing := trailingPaddingLen(payload)
	if trailing >= 16 {
		return nil, gopastaerr.New("reader.Preprocess", gopastaerr.CodeInvalidInput,
			fmt.Sprintf("trailing padding %d exceeds max %d", trailing, maxTrailingPadding))
	}

	if len(payload) < 16 {
		return chunkBy10(payload)
	}

	// Format detection: bytes [10:16) of the first word tell V0 from V2.
	isV0 := true
	for _, b := range payload[10:16] {
		if b != 0 {
			isV0 = false
			break
		}
	}
	if isV0 {
		return chunkBy16(payload)
	}
	return chunkBy10(payload)
}

func trailingPaddingLen(payload []byte) int {
	n := 0
	for i := len(payload) - 1; i >= 0 && payload[i] == 0xFF; i-- {
		n++
	}
	return n
}

func chunkBy16(payload []byte) ([]words.GbtWord, error) {
	var out []words.GbtWord
	for i := 0; i+16 <= len(payload); i += 16 {
		var w words.GbtWord
		copy(w[:], payload[i:i+10])
		out = append(out, w)
	}
	return out, nil
}

func chunkBy10(payload []byte) ([]words.GbtWord, error) {
	trailing := trailingPaddingLen(payload)
	body := payload
	if trailing > 9 {
		body = payload[:len(payload)-trailing]
	}

	var out []words.GbtWord
	i := 0
	for ; i+10 <= len(body); i += 10 {
		var w words.GbtWord
		copy(w[:], body[i:i+10])
		out = append(out, w)
	}
	remainder := body[i:]
	for _, b := range remainder {
		if b != 0xFF {
			return out, gopastaerr.New("reader.Preprocess", gopastaerr.CodeInvalidInput,
				"trailing bytes after last full GBT word are not 0xFF padding")
		}
	}
	return out, nil
}
