package securefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type state struct {
	InboxID string `json:"inboxId"`
	Cursor  int64  `json:"cursor"`
}

const hexKey = "0x" + "11223344556677889900aabbccddeeff11223344556677889900aabbccddeeff"

// cheap argon params keep the tests fast
var fastKDF = Options{KDF: Envelope{ArgonTime: 1, ArgonMemory: 1024, ArgonThreads: 1, ArgonKeyLen: 32}}

func TestSecretMode(t *testing.T) {
	mode, material := SecretMode(hexKey)
	assert.Equal(t, ModeKey, mode)
	assert.Len(t, material, 32)

	mode, material = SecretMode("correct horse battery staple")
	assert.Equal(t, ModePassword, mode)
	assert.Equal(t, "correct horse battery staple", string(material))
}

func TestRoundTripKeyMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	in := state{InboxID: "inbox-1", Cursor: 42}

	require.NoError(t, WriteEncryptedJSON(path, in, hexKey))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"mode": "key"`)
	assert.NotContains(t, string(raw), "inbox-1")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := ReadEncryptedJSON[state](path, hexKey)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRoundTripPasswordMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	in := state{InboxID: "inbox-2", Cursor: 7}

	require.NoError(t, WriteEncryptedJSON(path, in, "hunter2", fastKDF))
	out, err := ReadEncryptedJSON[state](path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWrongSecretFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, WriteEncryptedJSON(path, state{InboxID: "x"}, hexKey))

	other := "0x" + strings.Repeat("ab", 32)
	_, err := ReadEncryptedJSON[state](path, other)
	assert.True(t, errors.Is(err, ErrInvalidKeyOrCorrupt))

	_, err = ReadEncryptedJSON[state](path, "not a key")
	assert.True(t, errors.Is(err, ErrInvalidKeyOrCorrupt))
}

func TestAADBindsPath(t *testing.T) {
	dir := t.TempDir()
	opts := Options{AADFunc: func(p string) []byte { return []byte(filepath.Base(p)) }}

	a := filepath.Join(dir, "a.json")
	require.NoError(t, WriteEncryptedJSON(a, state{Cursor: 1}, hexKey, opts))

	b := filepath.Join(dir, "b.json")
	data, err := os.ReadFile(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(b, data, 0o600))

	_, err = ReadEncryptedJSON[state](b, hexKey, opts)
	assert.True(t, errors.Is(err, ErrInvalidKeyOrCorrupt))
}

func TestEmptySecretRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	assert.Error(t, WriteEncryptedJSON(path, state{}, "  "))
}

func TestStatePathCandidates(t *testing.T) {
	t.Setenv("SNAP_REAL_HOME", "")
	t.Setenv("HOME", "/home/agent")

	paths, err := StatePathCandidates("tba-chat-agent", "dev", "agent_state.json")
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	assert.Equal(t, filepath.Join("/home/agent", ".config", "tba-chat-agent", "dev", "agent_state.json"), paths[0])

	_, err = StatePathCandidates("", "dev", "x")
	assert.Error(t, err)
}
