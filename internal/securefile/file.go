// Package securefile provides encrypted JSON file read/write with atomic writes.
// Uses Argon2id (password mode) or a raw 32-byte key (key mode) with XChaCha20-Poly1305.
package securefile

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
)

const (
	ModePassword = "password"
	ModeKey      = "key"

	envelopeVersion = 2
)

var (
	// ErrInvalidKeyOrCorrupt is returned when decryption fails.
	ErrInvalidKeyOrCorrupt = errors.New("invalid key or corrupted file")
)

// Envelope is the on-disk encryption envelope.
type Envelope struct {
	Version int    `json:"version"`
	Mode    string `json:"mode"`

	// Argon2id params (password mode)
	ArgonTime    uint32 `json:"argon_time,omitempty"`
	ArgonMemory  uint32 `json:"argon_memory_kib,omitempty"`
	ArgonThreads uint8  `json:"argon_threads,omitempty"`
	ArgonKeyLen  uint32 `json:"argon_key_len,omitempty"`
	SaltB64      string `json:"salt_b64,omitempty"`

	NonceB64 string `json:"nonce_b64"`
	CTB64    string `json:"ct_b64"`
}

var DefaultKDF = Envelope{
	Version:      envelopeVersion,
	Mode:         ModePassword,
	ArgonTime:    2,
	ArgonMemory:  64 * 1024,
	ArgonThreads: 1,
	ArgonKeyLen:  32,
}

// Options controls encryption behavior.
type Options struct {
	KDF Envelope

	FilePerm      os.FileMode
	DirectoryPerm os.FileMode

	AADFunc func(path string) []byte
}

func defaultOptions() Options {
	return Options{
		KDF:           DefaultKDF,
		FilePerm:      constants.FilePerm,
		DirectoryPerm: constants.DirectoryPerm,
	}
}

// SecretMode picks key mode for a 64-char hex secret and password mode for anything else.
func SecretMode(secret string) (mode string, material []byte) {
	s := strings.TrimPrefix(strings.TrimSpace(secret), "0x")
	if len(s) == 2*chacha20poly1305.KeySize {
		if raw, err := hex.DecodeString(s); err == nil {
			return ModeKey, raw
		}
	}
	return ModePassword, []byte(strings.TrimSpace(secret))
}

// WriteEncryptedJSON encrypts v with secret and writes it atomically to path.
// The mode follows SecretMode unless opt sets KDF.Mode explicitly.
func WriteEncryptedJSON[T any](path string, v T, secret string, opt ...Options) error {
	o := mergeOptions(opt...)

	mode, material := SecretMode(secret)
	if len(opt) > 0 && opt[0].KDF.Mode != "" {
		mode = opt[0].KDF.Mode
	}
	defer zeroBytes(material)

	if len(material) == 0 || isAllZero(material) {
		return errors.New("securefile w: empty secret")
	}

	if err := os.MkdirAll(filepath.Dir(path), o.DirectoryPerm); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}

	plain, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal json")
	}

	out := Envelope{Version: envelopeVersion, Mode: mode}
	var key []byte
	switch mode {
	case ModeKey:
		if len(material) != chacha20poly1305.KeySize {
			return errors.Newf("securefile w: key mode needs %d bytes, got %d", chacha20poly1305.KeySize, len(material))
		}
		key = material
	case ModePassword:
		salt := make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return errors.Wrap(err, "rand salt")
		}
		out.ArgonTime = o.KDF.ArgonTime
		out.ArgonMemory = o.KDF.ArgonMemory
		out.ArgonThreads = o.KDF.ArgonThreads
		out.ArgonKeyLen = o.KDF.ArgonKeyLen
		out.SaltB64 = base64.StdEncoding.EncodeToString(salt)
		key = argon2.IDKey([]byte(strings.TrimSpace(secret)), salt, out.ArgonTime, out.ArgonMemory, out.ArgonThreads, out.ArgonKeyLen)
		defer zeroBytes(key)
	default:
		return errors.Newf("securefile w: unsupported mode %q", mode)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return errors.Wrap(err, "aead")
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, "rand nonce")
	}

	var aad []byte
	if o.AADFunc != nil {
		aad = o.AADFunc(path)
	}

	ct := aead.Seal(nil, nonce, plain, aad)
	out.NonceB64 = base64.StdEncoding.EncodeToString(nonce)
	out.CTB64 = base64.StdEncoding.EncodeToString(ct)

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal enc file")
	}
	return atomicWriteFile(path, b, o.FilePerm)
}

// ReadEncryptedJSON decrypts the file at path with secret. The envelope records which mode it was written in.
func ReadEncryptedJSON[T any](path string, secret string, opt ...Options) (T, error) {
	var zero T
	o := mergeOptions(opt...)

	b, err := os.ReadFile(path)
	if err != nil {
		return zero, errors.Wrap(err, "read file")
	}

	var ef Envelope
	if err := json.Unmarshal(b, &ef); err != nil {
		return zero, errors.Wrap(err, "unmarshal enc file")
	}
	if ef.Version != envelopeVersion {
		return zero, errors.Newf("unsupported file version: %d", ef.Version)
	}

	_, material := SecretMode(secret)
	defer zeroBytes(material)
	if len(material) == 0 || isAllZero(material) {
		return zero, errors.New("securefile r: empty secret")
	}

	nonce, err := base64.StdEncoding.DecodeString(ef.NonceB64)
	if err != nil {
		return zero, errors.Wrap(err, "decode nonce")
	}
	ct, err := base64.StdEncoding.DecodeString(ef.CTB64)
	if err != nil {
		return zero, errors.Wrap(err, "decode ciphertext")
	}

	var key []byte
	switch strings.ToLower(ef.Mode) {
	case ModeKey:
		if len(material) != chacha20poly1305.KeySize {
			return zero, ErrInvalidKeyOrCorrupt
		}
		key = material
	case ModePassword:
		salt, err := base64.StdEncoding.DecodeString(ef.SaltB64)
		if err != nil {
			return zero, errors.Wrap(err, "decode salt")
		}
		// password mode always derives from the secret text as written
		key = argon2.IDKey([]byte(strings.TrimSpace(secret)), salt, ef.ArgonTime, ef.ArgonMemory, ef.ArgonThreads, ef.ArgonKeyLen)
		defer zeroBytes(key)
	default:
		return zero, errors.Newf("unsupported mode: %q", ef.Mode)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return zero, ErrInvalidKeyOrCorrupt
	}

	var aad []byte
	if o.AADFunc != nil {
		aad = o.AADFunc(path)
	}

	plain, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return zero, ErrInvalidKeyOrCorrupt
	}

	var out T
	if err := json.Unmarshal(plain, &out); err != nil {
		return zero, errors.Wrap(err, "unmarshal json")
	}
	return out, nil
}

// StatePathCandidates returns state file paths to try, in priority order.
// envFolder scopes the file per messaging environment ("dev", "production", ...).
func StatePathCandidates(app, envFolder, filename string) ([]string, error) {
	if app == "" {
		return nil, errors.New("app must not be empty")
	}
	if filename == "" {
		return nil, errors.New("filename must not be empty")
	}

	var paths []string
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	joinHomeStyle := func(homeLike string) string {
		// <home>/.config/<app>/<env?>/<filename>
		dir := filepath.Join(homeLike, ".config", app)
		if envFolder != "" {
			dir = filepath.Join(dir, envFolder)
		}
		return filepath.Join(dir, filename)
	}

	if realHome := os.Getenv("SNAP_REAL_HOME"); realHome != "" {
		add(joinHomeStyle(realHome))
	}
	if home := os.Getenv("HOME"); home != "" {
		add(joinHomeStyle(home))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		baseDir := filepath.Join(dir, app)
		if envFolder != "" {
			baseDir = filepath.Join(baseDir, envFolder)
		}
		add(filepath.Join(baseDir, filename))
	} else if len(paths) == 0 {
		return nil, errors.Wrap(err, "UserConfigDir")
	}

	return paths, nil
}

func mergeOptions(opt ...Options) Options {
	o := defaultOptions()
	if len(opt) == 0 {
		return o
	}
	in := opt[0]

	if in.KDF.ArgonKeyLen != 0 {
		o.KDF = in.KDF
	}
	if in.FilePerm != 0 {
		o.FilePerm = in.FilePerm
	}
	if in.DirectoryPerm != 0 {
		o.DirectoryPerm = in.DirectoryPerm
	}
	if in.AADFunc != nil {
		o.AADFunc = in.AADFunc
	}
	return o
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return errors.Wrap(err, "write tmp")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "rename")
	}
	return nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
