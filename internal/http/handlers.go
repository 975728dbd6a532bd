package http

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"

	"github.com/quantumauth-io/tba-chat-agent/internal/agent"
	"github.com/quantumauth-io/tba-chat-agent/internal/networks"
)

// StatusSource reports the message loop state. *agent.Agent implements it.
type StatusSource interface {
	Status() agent.Status
}

// HeadSource reports the latest known chain head. Optional.
type HeadSource interface {
	LatestHeader() (*types.Header, time.Time, bool)
}

type Handler struct {
	status       StatusSource
	head         HeadSource
	registry     *networks.Registry
	network      networks.NetworkConfig
	agentAddress string
	startedAt    time.Time
}

func NewHandler(status StatusSource, head HeadSource, registry *networks.Registry, network networks.NetworkConfig, agentAddress string) *Handler {
	return &Handler{
		status:       status,
		head:         head,
		registry:     registry,
		network:      network,
		agentAddress: agentAddress,
		startedAt:    time.Now().UTC(),
	}
}

// -------- DTOs --------

type tokenRes struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Native   bool   `json:"native"`
}

type networkRes struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ChainID     uint64     `json:"chainId"`
	ChainIDHex  string     `json:"chainIdHex"`
	NativeToken string     `json:"nativeToken"`
	Explorer    string     `json:"explorer"`
	Tokens      []tokenRes `json:"tokens"`
}

type chainHeadRes struct {
	Number     uint64    `json:"number"`
	Hash       string    `json:"hash"`
	ReceivedAt time.Time `json:"receivedAt"`
}

type infoRes struct {
	AgentAddress  string        `json:"agentAddress"`
	InboxID       string        `json:"inboxId"`
	Network       networkRes    `json:"network"`
	Streaming     bool          `json:"streaming"`
	Reconnects    int64         `json:"reconnects"`
	Handled       int64         `json:"messagesHandled"`
	LastMessageAt *time.Time    `json:"lastMessageAt,omitempty"`
	ChainHead     *chainHeadRes `json:"chainHead,omitempty"`
	StartedAt     time.Time     `json:"startedAt"`
}

func toNetworkRes(n networks.NetworkConfig) networkRes {
	out := networkRes{
		ID:          n.ID,
		Name:        n.Name,
		ChainID:     n.ChainID,
		ChainIDHex:  n.ChainIDHex,
		NativeToken: n.NativeToken,
		Explorer:    n.Explorer,
	}
	for _, sym := range n.SupportedTokens() {
		t := n.Tokens[sym]
		out.Tokens = append(out.Tokens, tokenRes{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Address:  t.Address,
			Decimals: t.Decimals,
			Native:   t.IsNative(),
		})
	}
	return out
}

// GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /v1/info
func (h *Handler) Info(c *gin.Context) {
	st := h.status.Status()
	res := infoRes{
		AgentAddress: h.agentAddress,
		InboxID:      st.InboxID,
		Network:      toNetworkRes(h.network),
		Streaming:    st.Streaming,
		Reconnects:   st.Reconnects,
		Handled:      st.Handled,
		StartedAt:    h.startedAt,
	}
	if !st.LastMessageAt.IsZero() {
		t := st.LastMessageAt
		res.LastMessageAt = &t
	}
	if h.head != nil {
		if hdr, at, ok := h.head.LatestHeader(); ok {
			res.ChainHead = &chainHeadRes{Number: hdr.Number.Uint64(), Hash: hdr.Hash().Hex(), ReceivedAt: at}
		}
	}
	c.JSON(http.StatusOK, res)
}

// GET /v1/networks
func (h *Handler) Networks(c *gin.Context) {
	ids := h.registry.ListNetworks()
	out := make([]networkRes, 0, len(ids))
	for _, id := range ids {
		n, err := h.registry.ResolveNetwork(id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out = append(out, toNetworkRes(n))
	}
	c.JSON(http.StatusOK, gin.H{"active": h.network.ID, "networks": out})
}
