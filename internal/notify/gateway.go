package notify

import "context"

// SMSGateway is one concrete SMS transport. Send returns the gateway's status
// token; any error or unrecognized status makes the dispatcher fall through to
// the next gateway in the chain.
type SMSGateway interface {
	Name() string
	Send(ctx context.Context, phone, message string) (status string, err error)
}

// deliveredStatuses are the tokens a gateway may return that count as success.
var deliveredStatuses = map[string]bool{
	"queued":         true,
	"sent":           true,
	"delivered":      true,
	"sent_fast2sms":  true,
	"sent_simulated": true,
}

// Delivered reports whether a gateway status token counts as a successful send.
func Delivered(status string) bool { return deliveredStatuses[status] }
