package http

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/tba-chat-agent/internal/agent"
	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

type fakeStatus struct{ st agent.Status }

func (f fakeStatus) Status() agent.Status { return f.st }

type fakeHead struct{}

func (fakeHead) LatestHeader() (*types.Header, time.Time, bool) {
	return &types.Header{Number: big.NewInt(1234)}, time.Unix(1700000000, 0).UTC(), true
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := networks.Default()
	n, err := reg.ResolveNetwork("base-sepolia")
	require.NoError(t, err)

	h := NewHandler(fakeStatus{st: agent.Status{InboxID: "inbox-1", Streaming: true, Handled: 3}}, fakeHead{}, reg, n,
		"0x1111111111111111111111111111111111111111")
	return NewRouter(h, []string{"http://localhost:3000"})
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := get(t, testRouter(t), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestInfo(t *testing.T) {
	w := get(t, testRouter(t), "/v1/info")
	require.Equal(t, http.StatusOK, w.Code)

	var res infoRes
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "inbox-1", res.InboxID)
	assert.True(t, res.Streaming)
	assert.Equal(t, int64(3), res.Handled)
	assert.Equal(t, "base-sepolia", res.Network.ID)
	assert.Equal(t, "0x14a34", res.Network.ChainIDHex)
	require.Len(t, res.Network.Tokens, 2)
	assert.Equal(t, "ETH", res.Network.Tokens[0].Symbol)
	assert.True(t, res.Network.Tokens[0].Native)
	require.NotNil(t, res.ChainHead)
	assert.Equal(t, uint64(1234), res.ChainHead.Number)
	assert.Nil(t, res.LastMessageAt)
}

func TestNetworks(t *testing.T) {
	w := get(t, testRouter(t), "/v1/networks")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Active   string       `json:"active"`
		Networks []networkRes `json:"networks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "base-sepolia", res.Active)
	require.Len(t, res.Networks, 4)
	assert.Equal(t, "ethereum-mainnet", res.Networks[3].ID)
	assert.Equal(t, uint64(1), res.Networks[3].ChainID)
}

func TestMetricsEndpoint(t *testing.T) {
	w := get(t, testRouter(t), "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
