// Package signature provides the ledger's signing and verification
// primitives, grounded on the teacher's signature package: ECDSA secp256k1
// via go-ethereum/crypto with a domain-separation stamp applied before
// hashing, generalized here so the signed message is an output id joined
// with the spending transaction's output-set id (§4.4 step 5) rather than a
// whole transaction.
package signature

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/id"
	"github.com/ethereum/go-ethereum/crypto"
)

// ledgerID is the domain-separation byte used in the stamp, distinguishing
// ledger signatures from any other protocol that might share the curve.
const ledgerID = 29

// Message returns the byte slice a spending input must sign: the output
// being spent, joined with the output-set id of the spending transaction.
func Message(outputID, outputSetID id.ID) []byte {
	return []byte(outputID.String() + outputSetID.String())
}

// Sign signs message with privateKey and returns the hex-encoded signature.
func Sign(message []byte, privateKey *ecdsa.PrivateKey) (string, error) {
	data := stamp(message)

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", fmt.Errorf("signature: sign: %w", err)
	}

	return hex.EncodeToString(sig), nil
}

// Verify reports whether signature is a valid signature over message by the
// holder of publicKey (hex-encoded, uncompressed form as produced by
// PublicKeyHex).
func Verify(message []byte, signature string, publicKey string) error {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("signature: decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return errors.New("signature: wrong length")
	}

	pubKeyBytes, err := hex.DecodeString(publicKey)
	if err != nil {
		return fmt.Errorf("signature: decode public key: %w", err)
	}

	data := stamp(message)
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(pubKeyBytes, data, rs) {
		return errors.New("signature: invalid signature")
	}

	return nil
}

// PublicKeyHex returns the hex encoding of the uncompressed public key, the
// canonical form stored in Output.Data["publicKey"].
func PublicKeyHex(privateKey *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(&privateKey.PublicKey))
}

// stamp hashes message together with the ledger's domain-separation prefix,
// so signatures produced here can never be confused with signatures over
// the same bytes produced by another protocol.
func stamp(message []byte) []byte {
	prefix := []byte(fmt.Sprintf("\x19Ledger Signed Message (id=%d):\n%d", ledgerID, len(message)))
	return crypto.Keccak256(prefix, crypto.Keccak256(message))
}
