// Package identity handles the SS58 addresses and sr25519 signatures callers
// authenticate with.
package identity

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// GenericPrefix is the SS58 network prefix for generic Substrate addresses.
const GenericPrefix byte = 42

var ss58Pre = []byte("SS58PRE")

var ErrInvalidAddress = errors.New("invalid ss58 address")

func checksum(payload []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Pre)
	h.Write(payload)
	return h.Sum(nil)[:2]
}

// Encode renders a 32-byte public key as an SS58 address.
func Encode(pub []byte, prefix byte) (string, error) {
	if len(pub) != 32 {
		return "", fmt.Errorf("public key must be 32 bytes, got %d", len(pub))
	}
	if prefix > 63 {
		return "", fmt.Errorf("prefix %d needs the two-byte form", prefix)
	}
	payload := append([]byte{prefix}, pub...)
	return base58.Encode(append(payload, checksum(payload)...)), nil
}

// Decode converts an SS58 address, or a 0x-prefixed hex key, to the raw
// 32-byte public key and its network prefix. Hex keys report GenericPrefix.
func Decode(addr string) ([]byte, byte, error) {
	if strings.HasPrefix(addr, "0x") {
		raw, err := hex.DecodeString(addr[2:])
		if err != nil || len(raw) != 32 {
			return nil, 0, ErrInvalidAddress
		}
		return raw, GenericPrefix, nil
	}
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 35 {
		return nil, 0, ErrInvalidAddress
	}
	if raw[0] > 63 {
		return nil, 0, ErrInvalidAddress
	}
	if !bytes.Equal(checksum(raw[:33]), raw[33:]) {
		return nil, 0, fmt.Errorf("%w: bad checksum", ErrInvalidAddress)
	}
	return raw[1:33], raw[0], nil
}

// Normalize returns the canonical SS58 form of addr so every identity has one
// spelling in the ledger.
func Normalize(addr string) (string, error) {
	pub, prefix, err := Decode(strings.TrimSpace(addr))
	if err != nil {
		return "", err
	}
	return Encode(pub, prefix)
}
