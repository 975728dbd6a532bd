package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworksCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"networks"})

	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "base-sepolia"))
	assert.Contains(t, lines[0], "0x14a34")
	assert.Contains(t, lines[0], "ETH, USDC")
}

func TestKeygenCommandWritesEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"keygen", "--output", path})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "Created "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "WALLET_KEY=0x")
	assert.Contains(t, string(data), "ENCRYPTION_KEY=")
	assert.Contains(t, string(data), "NETWORK_ID=base-sepolia")
}

func TestResolveStatePath(t *testing.T) {
	p, err := resolveStatePath("/var/lib/agent", "dev")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/lib/agent", "dev", "agent_state.json"), p)

	t.Setenv("HOME", "/home/agent")
	t.Setenv("SNAP_REAL_HOME", "")
	p, err = resolveStatePath("", "production")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/agent", ".config", "tba-chat-agent", "production", "agent_state.json"), p)
}
