package networks

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrUnknownNetwork   = errors.New("unknown network")
	ErrUnsupportedToken = errors.New("unsupported token")
)

// UnsupportedTokenError is returned when a symbol is absent from a network's token table.
// Its message is shown to chat users verbatim.
type UnsupportedTokenError struct {
	Symbol      string
	NetworkName string
}

func (e *UnsupportedTokenError) Error() string {
	return fmt.Sprintf("Token %s not supported on %s", e.Symbol, e.NetworkName)
}

func (e *UnsupportedTokenError) Is(target error) bool {
	return target == ErrUnsupportedToken
}

// UnknownNetworkError is returned for network ids absent from the registry.
type UnknownNetworkError struct {
	ID string
}

func (e *UnknownNetworkError) Error() string {
	return fmt.Sprintf("Network configuration not found for: %s", e.ID)
}

func (e *UnknownNetworkError) Is(target error) bool {
	return target == ErrUnknownNetwork
}
