package messaging

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"

	"github.com/quantumauth-io/tba-chat-agent/internal/identity"
)

type inboundFrame struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// fakeRelay speaks the relay protocol over an httptest server.
type fakeRelay struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	inboxID       string
	conversations map[string][]string
	addresses     map[string]string
	backlog       []Message
	sent          []sendParams
	streamSince   []int64
	inboxLookups  int
	rejectSends   bool
	conns         []*websocket.Conn
}

func newFakeRelay(t *testing.T) *fakeRelay {
	t.Helper()
	r := &fakeRelay{
		t:             t,
		inboxID:       "agent-inbox",
		conversations: map[string][]string{"conv-1": {"agent-inbox", "user-inbox"}},
		addresses:     map[string]string{"user-inbox": "0x2222222222222222222222222222222222222222"},
	}
	r.srv = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.srv.Close)
	return r
}

func (r *fakeRelay) url() string {
	return "ws" + strings.TrimPrefix(r.srv.URL, "http")
}

func (r *fakeRelay) dropAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		_ = c.Close()
	}
	r.conns = nil
}

func (r *fakeRelay) serve(w http.ResponseWriter, req *http.Request) {
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	r.mu.Lock()
	r.conns = append(r.conns, conn)
	r.mu.Unlock()
	defer conn.Close()

	nonce := "nonce-" + req.RemoteAddr
	_ = conn.WriteJSON(frame{Type: FrameEvent, Event: EventChallenge, Payload: mustJSON(challengePayload{Nonce: nonce})})

	for {
		var in inboundFrame
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Type != FrameRequest {
			continue
		}
		switch in.Method {
		case MethodConnect:
			var p connectParams
			_ = json.Unmarshal(in.Params, &p)
			sig, err := hexutil.Decode(p.Signature)
			ok := err == nil
			if ok {
				addr, rerr := identity.RecoverPersonal(identity.RelayChallenge(nonce, common.HexToAddress(p.Address), p.Env, p.SignedAt), sig)
				ok = rerr == nil && strings.EqualFold(addr.Hex(), p.Address)
			}
			if !ok {
				_ = conn.WriteJSON(frame{Type: FrameResponse, ID: in.ID, Error: &frameError{Code: CodeUnauthorized, Message: "bad signature"}})
				return
			}
			r.reply(conn, in.ID, connectResult{InboxID: r.inboxID})

		case MethodSync:
			r.mu.Lock()
			n := len(r.conversations)
			r.mu.Unlock()
			r.reply(conn, in.ID, syncResult{Conversations: n})

		case MethodStream:
			var p sinceParams
			_ = json.Unmarshal(in.Params, &p)
			r.mu.Lock()
			r.streamSince = append(r.streamSince, p.Since)
			backlog := append([]Message(nil), r.backlog...)
			r.mu.Unlock()

			r.reply(conn, in.ID, struct{}{})
			for _, m := range backlog {
				if m.SentAtNs >= p.Since {
					_ = conn.WriteJSON(frame{Type: FrameEvent, Event: EventMessage, Payload: mustJSON(m)})
				}
			}

		case MethodGetConversation:
			var p getConversationParams
			_ = json.Unmarshal(in.Params, &p)
			r.mu.Lock()
			parts, found := r.conversations[p.ConversationID]
			r.mu.Unlock()
			if !found {
				_ = conn.WriteJSON(frame{Type: FrameResponse, ID: in.ID, Error: &frameError{Code: CodeNotFound, Message: "no such conversation"}})
				continue
			}
			r.reply(conn, in.ID, conversationResult{ID: p.ConversationID, Participants: parts})

		case MethodInboxState:
			var p inboxStateParams
			_ = json.Unmarshal(in.Params, &p)
			r.mu.Lock()
			r.inboxLookups++
			var states []InboxState
			for _, id := range p.InboxIDs {
				st := InboxState{InboxID: id}
				if addr, ok := r.addresses[id]; ok {
					st.Identifiers = []Identifier{{Identifier: addr, Kind: "ethereum"}}
				}
				states = append(states, st)
			}
			r.mu.Unlock()
			r.reply(conn, in.ID, inboxStateResult{States: states})

		case MethodSend:
			var p sendParams
			_ = json.Unmarshal(in.Params, &p)
			r.mu.Lock()
			reject := r.rejectSends
			if !reject {
				r.sent = append(r.sent, p)
			}
			r.mu.Unlock()
			if reject {
				_ = conn.WriteJSON(frame{Type: FrameResponse, ID: in.ID, Error: &frameError{Code: "unavailable", Message: "try later"}})
				continue
			}
			r.reply(conn, in.ID, sendResult{MessageID: "m-" + p.IdempotencyKey})
		}
	}
}

func (r *fakeRelay) reply(conn *websocket.Conn, id string, payload any) {
	_ = conn.WriteJSON(frame{Type: FrameResponse, ID: id, OK: true, Payload: mustJSON(payload)})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
