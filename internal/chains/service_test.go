package chains

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T, preferred string) *ChainService {
	t.Helper()
	s, err := NewChainService(ChainConfig{
		PreferredRPCName: preferred,
		Networks: map[string]NetworkRPCs{
			"base-sepolia": {RPCs: []RPC{
				{Name: "public", URL: "https://sepolia.base.org"},
				{Name: "alchemy", URL: "https://base-sepolia.example"},
			}},
			"ethereum-sepolia": {RPCs: []RPC{{Name: "empty", URL: ""}}},
		},
	})
	require.NoError(t, err)
	return s
}

func TestResolveRPCFirstByDefault(t *testing.T) {
	rpc, err := testService(t, "").ResolveRPC("base-sepolia")
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.base.org", rpc.URL)
}

func TestResolveRPCPreferred(t *testing.T) {
	rpc, err := testService(t, "Alchemy").ResolveRPC("BASE-SEPOLIA")
	require.NoError(t, err)
	assert.Equal(t, "alchemy", rpc.Name)
}

func TestResolveRPCMissing(t *testing.T) {
	s := testService(t, "")

	_, err := s.ResolveRPC("base-mainnet")
	assert.True(t, errors.Is(err, ErrNoRPC))

	_, err = s.ResolveRPC("ethereum-sepolia")
	assert.True(t, errors.Is(err, ErrNoRPC))
}

func TestNewChainServiceRequiresNetworks(t *testing.T) {
	_, err := NewChainService(ChainConfig{})
	assert.Error(t, err)
}
