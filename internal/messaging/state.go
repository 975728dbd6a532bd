package messaging

import (
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/tba-chat-agent/internal/constants"
	"github.com/quantumauth-io/tba-chat-agent/internal/securefile"
)

// State is what the agent keeps between runs.
type State struct {
	Schema    int       `json:"schema"`
	InboxID   string    `json:"inboxId,omitempty"`
	CursorNs  int64     `json:"cursorNs"`
	// CursorIDs are the messages already consumed at exactly CursorNs.
	CursorIDs []string  `json:"cursorIds,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StateStore persists State encrypted with the agent's encryption key.
type StateStore struct {
	path   string
	secret string

	mu sync.Mutex
}

func NewStateStore(path, secret string) *StateStore {
	return &StateStore{path: path, secret: secret}
}

func (s *StateStore) Path() string { return s.path }

func stateOptions() securefile.Options {
	return securefile.Options{
		AADFunc: func(string) []byte { return []byte(constants.StateAAD) },
	}
}

// Load returns the saved state, or a zero State when nothing was saved yet.
func (s *StateStore) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return State{Schema: constants.SchemaV1}, nil
	}
	st, err := securefile.ReadEncryptedJSON[State](s.path, s.secret, stateOptions())
	if err != nil {
		return State{}, errors.Wrapf(err, "load state %s", s.path)
	}
	return st, nil
}

func (s *StateStore) Save(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.Schema = constants.SchemaV1
	st.UpdatedAt = time.Now().UTC()
	if err := securefile.WriteEncryptedJSON(s.path, st, s.secret, stateOptions()); err != nil {
		return errors.Wrapf(err, "save state %s", s.path)
	}
	return nil
}
