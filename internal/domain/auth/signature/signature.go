// Package signature recovers the signing address from personal-sign
// (EIP-191) message signatures, the scheme browser wallets use for login.
package signature

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"afrochain-auth-go/internal/domain/users"
	platformerrors "afrochain-auth-go/internal/platform/errors"
)

const signatureLength = 65

// Recover returns the lower-cased address that produced the signature over
// the given message. Wallets encode the recovery id as 27/28; raw libraries
// use 0/1, so both are accepted.
func Recover(message, signatureHex string) (string, error) {
	raw, err := hexutil.Decode(signatureHex)
	if err != nil {
		return "", fmt.Errorf("%w: decode signature: %v", platformerrors.ErrInvalidSignature, err)
	}
	if len(raw) != signatureLength {
		return "", fmt.Errorf(
			"%w: signature must be %d bytes, got %d",
			platformerrors.ErrInvalidSignature, signatureLength, len(raw),
		)
	}

	sig := make([]byte, signatureLength)
	copy(sig, raw)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return "", fmt.Errorf("%w: invalid recovery id", platformerrors.ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("%w: recover public key: %v", platformerrors.ErrInvalidSignature, err)
	}
	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}

// Verify reports whether the signature over message was produced by the key
// behind walletAddress. Malformed input yields false, never a panic.
func Verify(walletAddress, signatureHex, message string) bool {
	recovered, err := Recover(message, signatureHex)
	if err != nil {
		return false
	}
	return recovered == users.NormalizeAddress(walletAddress)
}
