package persistence

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// envelopePrefix marks a compressed payload: z1:<blake2b-256 hex>:<base64 zstd>.
const envelopePrefix = "z1:"

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithEncoderConcurrency(1))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
)

var errChecksum = errors.New("checksum mismatch")

// compress wraps raw in a compressed envelope and proves the envelope decodes
// back to raw before returning it.
func compress(raw []byte) ([]byte, error) {
	packed := encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	sum := blake2b.Sum256(raw)

	var buf bytes.Buffer
	buf.Grow(len(envelopePrefix) + hex.EncodedLen(len(sum)) + 1 + base64.StdEncoding.EncodedLen(len(packed)))
	buf.WriteString(envelopePrefix)
	buf.WriteString(hex.EncodeToString(sum[:]))
	buf.WriteByte(':')
	buf.WriteString(base64.StdEncoding.EncodeToString(packed))
	env := buf.Bytes()

	check, err := decompress(env)
	if err != nil {
		return nil, fmt.Errorf("verify compressed payload: %w", err)
	}
	if !bytes.Equal(check, raw) {
		return nil, fmt.Errorf("verify compressed payload: round trip differs")
	}
	return env, nil
}

func isEnvelope(data []byte) bool {
	return bytes.HasPrefix(data, []byte(envelopePrefix))
}

func decompress(env []byte) ([]byte, error) {
	body := bytes.TrimPrefix(env, []byte(envelopePrefix))
	sumHex, payload, ok := bytes.Cut(body, []byte(":"))
	if !ok {
		return nil, fmt.Errorf("envelope has no checksum")
	}
	want, err := hex.DecodeString(string(sumHex))
	if err != nil || len(want) != blake2b.Size256 {
		return nil, fmt.Errorf("envelope checksum is malformed")
	}

	packed, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	raw, err := decoder.DecodeAll(packed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress envelope: %w", err)
	}

	got := blake2b.Sum256(raw)
	if !bytes.Equal(got[:], want) {
		return nil, errChecksum
	}
	return raw, nil
}
