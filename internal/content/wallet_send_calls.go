package content

import "encoding/json"

// WalletSendCalls is an unsigned multi-call request for the user's wallet to approve (EIP-5792 shape).
type WalletSendCalls struct {
	Version      string        `json:"version"`
	From         string        `json:"from"`
	ChainID      string        `json:"chainId"`
	Capabilities *Capabilities `json:"capabilities,omitempty"`
	Calls        []Call        `json:"calls"`
}

func (WalletSendCalls) ContentType() ContentType { return ContentTypeWalletSendCalls }

type Capabilities struct {
	PaymasterService *PaymasterService `json:"paymasterService,omitempty"`
}

// PaymasterService points the wallet at a fee-sponsoring relay.
type PaymasterService struct {
	URL      string `json:"url"`
	Optional bool   `json:"optional"`
}

type Call struct {
	To       string       `json:"to"`
	Value    string       `json:"value,omitempty"`
	Data     string       `json:"data"`
	Metadata CallMetadata `json:"metadata"`
}

// CallMetadata is the human-readable block wallets render next to a call.
// Amount is the raw scaled integer, emitted as a JSON number.
type CallMetadata struct {
	Description     string      `json:"description"`
	TransactionType string      `json:"transactionType"`
	Currency        string      `json:"currency"`
	Amount          json.Number `json:"amount"`
	Decimals        uint8       `json:"decimals"`
	NetworkID       string      `json:"networkId"`

	Hostname   string `json:"hostname,omitempty"`
	FaviconURL string `json:"faviconUrl,omitempty"`
	Title      string `json:"title,omitempty"`
}
