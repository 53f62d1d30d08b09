package connectors

import (
	"time"

	"mailedger/internal"
)

// MailConnector fetches every message in a label sent after the given time.
// Callers capture their own fetch start time before calling.
type MailConnector interface {
	FetchSince(label string, after time.Time) ([]internal.EmailRecord, error)
}
