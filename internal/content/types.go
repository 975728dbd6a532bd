// Package content defines the message payloads exchanged with chat users and
// their content-type identifiers on the messaging network.
package content

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// ContentType identifies how a message body is encoded.
type ContentType struct {
	AuthorityID  string `json:"authorityId"`
	TypeID       string `json:"typeId"`
	VersionMajor int    `json:"versionMajor"`
	VersionMinor int    `json:"versionMinor"`
}

func (c ContentType) String() string {
	return fmt.Sprintf("%s/%s:%d.%d", c.AuthorityID, c.TypeID, c.VersionMajor, c.VersionMinor)
}

// Type ids the agent understands.
const (
	TypeText                 = "text"
	TypeWalletSendCalls      = "walletSendCalls"
	TypeTransactionReference = "transactionReference"
	TypeActions              = "actions"
	TypeIntent               = "intent"
)

var (
	ContentTypeText                 = ContentType{AuthorityID: "xmtp.org", TypeID: TypeText, VersionMajor: 1}
	ContentTypeWalletSendCalls      = ContentType{AuthorityID: "xmtp.org", TypeID: TypeWalletSendCalls, VersionMajor: 1}
	ContentTypeTransactionReference = ContentType{AuthorityID: "xmtp.org", TypeID: TypeTransactionReference, VersionMajor: 1}
	ContentTypeActions              = ContentType{AuthorityID: "coinbase.com", TypeID: TypeActions, VersionMajor: 1}
	ContentTypeIntent               = ContentType{AuthorityID: "coinbase.com", TypeID: TypeIntent, VersionMajor: 1}
)

// Content is an outbound message body.
type Content interface {
	ContentType() ContentType
}

// Text is a plain text message.
type Text string

func (Text) ContentType() ContentType { return ContentTypeText }

// Encode renders c to its wire JSON.
func Encode(c Content) (json.RawMessage, error) {
	if c == nil {
		return nil, errors.New("content: nil body")
	}
	if v, ok := c.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrapf(err, "content: encode %s", c.ContentType())
	}
	return b, nil
}

// DecodeText decodes a text message body.
func DecodeText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.Wrap(err, "content: decode text")
	}
	return s, nil
}
