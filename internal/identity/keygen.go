package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/term"

	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
)

const (
	DefaultMessagingEnv = "dev"
	DefaultNetworkID    = "base-sepolia"
)

type Keys struct {
	WalletKey     string
	EncryptionKey string
	Address       string
}

// GenerateKeys creates a fresh wallet key and a 32-byte encryption key, both hex.
func GenerateKeys() (Keys, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return Keys{}, errors.Wrap(err, "generate wallet key")
	}

	enc := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, enc); err != nil {
		return Keys{}, errors.Wrap(err, "generate encryption key")
	}

	return Keys{
		WalletKey:     hexutil.Encode(crypto.FromECDSA(key)),
		EncryptionKey: hex.EncodeToString(enc),
		Address:       crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

// EnvBlock renders keys as .env lines with default environment selectors.
func EnvBlock(k Keys, now time.Time) string {
	return fmt.Sprintf("\n# Generated agent keys - %s\nWALLET_KEY=%s\nENCRYPTION_KEY=%s\nXMTP_ENV=%s\nNETWORK_ID=%s\n",
		now.UTC().Format(time.RFC3339), k.WalletKey, k.EncryptionKey, DefaultMessagingEnv, DefaultNetworkID)
}

// AppendEnvFile appends keys to path, creating it when missing. created reports which happened.
func AppendEnvFile(path string, k Keys, now time.Time) (created bool, err error) {
	block := EnvBlock(k, now)
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		created = true
		block = block[1:]
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FilePerm)
	if err != nil {
		return false, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	if _, err := f.WriteString(block); err != nil {
		return false, errors.Wrapf(err, "write %s", path)
	}
	return created, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
