package connectors

import (
	"bytes"
	"fmt"
	"net/mail"
	"time"

	"github.com/jhillyerd/enmime"

	"mailedger/internal"
)

// ParseEmail turns a raw RFC 822 message into an EmailRecord. Body is the
// best available top-level body when a rule does not care which part it
// reads: plain text when present, HTML otherwise.
func ParseEmail(raw []byte, fallback time.Time) (internal.EmailRecord, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return internal.EmailRecord{}, err
	}

	record := internal.EmailRecord{
		Subject: env.GetHeader("Subject"),
		Text:    env.Text,
		HTML:    env.HTML,
	}
	record.Body = env.Text
	if record.Body == "" {
		record.Body = env.HTML
	}

	record.Time = fallback
	if date := env.GetHeader("Date"); date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			record.Time = t
		} else if t, err := mailDateFallback(date); err == nil {
			record.Time = t
		}
	}

	return record, nil
}

func mailDateFallback(value string) (time.Time, error) {
	layouts := []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC850, time.ANSIC}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format")
}
