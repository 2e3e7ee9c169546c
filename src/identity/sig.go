package identity

import (
	"encoding/hex"
	"errors"
	"fmt"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/cosmos/go-bip39"
)

// SigningContext is the schnorrkel context wallets sign raw messages under.
var SigningContext = []byte("substrate")

var ErrBadSignature = errors.New("signature verification failed")

func strip0x(s string) string {
	if len(s) > 1 && s[:2] == "0x" {
		return s[2:]
	}
	return s
}

// Verify checks a hex sr25519 signature by addr over msg.
func Verify(addr, sigHex string, msg []byte) error {
	pubKeyBytes, _, err := Decode(addr)
	if err != nil {
		return err
	}
	sigBytes, err := hex.DecodeString(strip0x(sigHex))
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	if len(sigBytes) != 64 {
		return fmt.Errorf("invalid signature length: %d", len(sigBytes))
	}

	var pkRaw [32]byte
	copy(pkRaw[:], pubKeyBytes)
	var sigRaw [64]byte
	copy(sigRaw[:], sigBytes)

	var pk schnorrkel.PublicKey
	if err := pk.Decode(pkRaw); err != nil {
		return fmt.Errorf("decode public key: %w", err)
	}
	var sig schnorrkel.Signature
	if err := sig.Decode(sigRaw); err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	valid, err := pk.Verify(&sig, schnorrkel.NewSigningContext(SigningContext, msg))
	if err != nil {
		return err
	}
	if !valid {
		return ErrBadSignature
	}
	return nil
}

// KeyPair is an sr25519 signing key with its SS58 address.
type KeyPair struct {
	Address string
	secret  *schnorrkel.SecretKey
}

// NewMnemonic returns a fresh 24-word BIP-39 phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// FromMnemonic derives the key pair Substrate wallets derive from a phrase.
func FromMnemonic(mnemonic, password string) (*KeyPair, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	mini, err := schnorrkel.MiniSecretKeyFromMnemonic(mnemonic, password)
	if err != nil {
		return nil, err
	}
	secret := mini.ExpandEd25519()
	pub, err := secret.Public()
	if err != nil {
		return nil, err
	}
	raw := pub.Encode()
	addr, err := Encode(raw[:], GenericPrefix)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Address: addr, secret: secret}, nil
}

// Sign returns the 0x-hex signature of msg.
func (k *KeyPair) Sign(msg []byte) (string, error) {
	sig, err := k.secret.Sign(schnorrkel.NewSigningContext(SigningContext, msg))
	if err != nil {
		return "", err
	}
	raw := sig.Encode()
	return "0x" + hex.EncodeToString(raw[:]), nil
}
