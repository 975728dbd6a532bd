package messaging

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrSendFailed           = errors.New("send failed")
	ErrStreamFailed         = errors.New("message stream failed")
	ErrNotConnected         = errors.New("not connected to relay")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrRequestRejected      = errors.New("relay rejected request")
)

func relayError(method string, fe *frameError) error {
	if fe == nil {
		return errors.Wrapf(ErrRequestRejected, "%s", method)
	}
	err := errors.Wrapf(ErrRequestRejected, "%s: %s: %s", method, fe.Code, fe.Message)
	if fe.Code == CodeNotFound && method == MethodGetConversation {
		return errors.Mark(err, ErrConversationNotFound)
	}
	return err
}
