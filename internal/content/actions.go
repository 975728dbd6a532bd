package content

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// MaxActions bounds the number of buttons in one actions payload.
const MaxActions = 10

type ActionStyle string

const (
	StylePrimary   ActionStyle = "primary"
	StyleSecondary ActionStyle = "secondary"
	StyleDanger    ActionStyle = "danger"
)

// Actions offers the user a set of labeled choices. A selection comes back as an Intent.
type Actions struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Actions     []Action `json:"actions"`
}

func (Actions) ContentType() ContentType { return ContentTypeActions }

type Action struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	ImageURL string      `json:"imageUrl,omitempty"`
	Style    ActionStyle `json:"style,omitempty"`
}

func (a Actions) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("actions: id is required")
	}
	if strings.TrimSpace(a.Description) == "" {
		return errors.New("actions: description is required")
	}
	if len(a.Actions) == 0 || len(a.Actions) > MaxActions {
		return errors.Newf("actions: need 1..%d actions, got %d", MaxActions, len(a.Actions))
	}
	seen := make(map[string]struct{}, len(a.Actions))
	for _, act := range a.Actions {
		if act.ID == "" || act.Label == "" {
			return errors.New("actions: action id and label are required")
		}
		if _, dup := seen[act.ID]; dup {
			return errors.Newf("actions: duplicate action id %q", act.ID)
		}
		seen[act.ID] = struct{}{}
	}
	return nil
}

// Intent is the user's selection of one action from an earlier Actions payload.
type Intent struct {
	ID       string         `json:"id"`
	ActionID string         `json:"actionId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (Intent) ContentType() ContentType { return ContentTypeIntent }

// DecodeIntent decodes an intent message body.
func DecodeIntent(raw json.RawMessage) (Intent, error) {
	var in Intent
	if err := json.Unmarshal(raw, &in); err != nil {
		return Intent{}, errors.Wrap(err, "content: decode intent")
	}
	if strings.TrimSpace(in.ActionID) == "" {
		return Intent{}, errors.New("content: intent without actionId")
	}
	return in, nil
}
