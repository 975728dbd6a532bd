// Package identity holds the agent's wallet key: its address, relay
// authentication signatures, and key generation.
package identity

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
)

var ErrInvalidWalletKey = errors.New("invalid wallet key")

type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// ParseWalletKey loads a hex secp256k1 private key, with or without 0x.
func ParseWalletKey(hexKey string) (*Wallet, error) {
	k := strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if k == "" {
		return nil, errors.Wrap(ErrInvalidWalletKey, "empty")
	}
	key, err := crypto.HexToECDSA(k)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse wallet key"), ErrInvalidWalletKey)
	}
	return &Wallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (w *Wallet) Address() common.Address { return w.address }

// SignPersonal signs msg as an EIP-191 personal message. V is 27/28.
func (w *Wallet) SignPersonal(msg []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), w.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverPersonal returns the address that produced sig over msg.
func RecoverPersonal(msg, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.Newf("signature must be %d bytes", crypto.SignatureLength)
	}
	s := make([]byte, len(sig))
	copy(s, sig)
	if s[crypto.RecoveryIDOffset] >= 27 {
		s[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(msg), s)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "recover signer")
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// RelayChallenge is the text signed to answer a relay connect challenge.
func RelayChallenge(nonce string, address common.Address, env string, signedAt int64) []byte {
	return []byte(fmt.Sprintf("%s\naddress:%s\nenv:%s\nnonce:%s\nsignedAt:%d",
		constants.RelayAuthPrefix, strings.ToLower(address.Hex()), env, nonce, signedAt))
}

// SignRelayChallenge returns the hex signature for RelayChallenge.
func (w *Wallet) SignRelayChallenge(nonce, env string, signedAt int64) (string, error) {
	sig, err := w.SignPersonal(RelayChallenge(nonce, w.address, env, signedAt))
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}
