package content

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// NetworkRef is a network identifier that arrives either as a string
// ("base-sepolia", "0x14a34") or as a bare number (84532).
type NetworkRef string

func (n *NetworkRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NetworkRef(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return errors.Wrap(err, "networkId")
	}
	*n = NetworkRef(num.String())
	return nil
}

// TransactionReference reports the on-chain outcome of a previously requested transfer.
type TransactionReference struct {
	Namespace string         `json:"namespace,omitempty"`
	NetworkID NetworkRef     `json:"networkId"`
	Reference string         `json:"reference"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (TransactionReference) ContentType() ContentType { return ContentTypeTransactionReference }

// DecodeTransactionReference accepts the bare shape and the
// {"transactionReference": {...}} envelope some wallets send.
// Numbers in metadata are kept as json.Number.
func DecodeTransactionReference(raw json.RawMessage) (TransactionReference, error) {
	var env struct {
		TransactionReference json.RawMessage `json:"transactionReference"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return TransactionReference{}, errors.Wrap(err, "content: decode transaction reference")
	}
	body := []byte(raw)
	if len(env.TransactionReference) > 0 && !bytes.Equal(env.TransactionReference, []byte("null")) {
		body = env.TransactionReference
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var ref TransactionReference
	if err := dec.Decode(&ref); err != nil {
		return TransactionReference{}, errors.Wrap(err, "content: decode transaction reference")
	}
	return ref, nil
}
