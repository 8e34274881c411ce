package claims

import (
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// recoverSignerAddress recovers the 0x hex address that produced a 65-byte
// recoverable secp256k1 signature over keccak256(message).
func recoverSignerAddress(message []byte, signature []byte) (string, error) {

	hash := sha3.NewLegacyKeccak256()
	hash.Write(message)
	hashed := hash.Sum(nil)

	if len(signature) != 65 {
		return "", errors.New("signature must be 65 bytes")
	}

	// accept both 0/1 and legacy 27/28 recovery ids
	if signature[64] >= 27 {
		sig := make([]byte, 65)
		copy(sig, signature)
		sig[64] -= 27
		signature = sig
	}

	recovered, err := crypto.SigToPub(hashed, signature)
	if err != nil {
		return "", errors.Wrap(err, "failed to recover public key")
	}

	return crypto.PubkeyToAddress(*recovered).Hex(), nil
}

// verifySignerAddress checks that the signature over message was produced by
// the key behind the given 0x address.
func verifySignerAddress(message []byte, signature []byte, address string) error {
	recovered, err := recoverSignerAddress(message, signature)
	if err != nil {
		return err
	}
	if !strings.EqualFold(recovered, address) {
		return errors.New("signer is not matched with address. expected: " + address + ", actual: " + recovered)
	}
	return nil
}

// signBytes signs keccak256(message) with a hex-encoded secp256k1 private key.
// The inverse of recoverSignerAddress, used by service clients and tests.
func signBytes(message []byte, privatekey string) ([]byte, error) {

	hash := sha3.NewLegacyKeccak256()
	hash.Write(message)
	hashed := hash.Sum(nil)

	key, err := crypto.HexToECDSA(privatekey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert private key")
	}

	signature, err := crypto.Sign(hashed, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}

	return signature, nil
}
