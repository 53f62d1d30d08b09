package connectors

import (
	"strings"
	"testing"
	"time"
)

const multipartMessage = "From: alerts@bank.example\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Purchase alert\r\n" +
	"Date: Tue, 02 Jan 2024 10:30:00 -0500\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"sep\"\r\n" +
	"\r\n" +
	"--sep\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Amount: 12.50 at COFFEE SHOP\r\n" +
	"--sep\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><b>Amount:</b> 12.50 at COFFEE SHOP</body></html>\r\n" +
	"--sep--\r\n"

const htmlOnlyMessage = "From: alerts@bank.example\r\n" +
	"Subject: Purchase alert\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Amount: 99.00</p>\r\n"

func TestParseEmailMultipart(t *testing.T) {
	record, err := ParseEmail([]byte(multipartMessage), time.Time{})
	if err != nil {
		t.Fatal(err)
	}

	if record.Subject != "Purchase alert" {
		t.Fatalf("subject=%q", record.Subject)
	}
	if !strings.Contains(record.Text, "Amount: 12.50 at COFFEE SHOP") {
		t.Fatalf("text=%q", record.Text)
	}
	if !strings.Contains(record.HTML, "<b>Amount:</b>") {
		t.Fatalf("html=%q", record.HTML)
	}
	if record.Body != record.Text {
		t.Fatalf("body=%q", record.Body)
	}

	want := time.Date(2024, 1, 2, 10, 30, 0, 0, time.FixedZone("", -5*3600))
	if !record.Time.Equal(want) {
		t.Fatalf("time=%v want %v", record.Time, want)
	}
}

func TestParseEmailHTMLOnlyBody(t *testing.T) {
	record, err := ParseEmail([]byte(htmlOnlyMessage), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(record.HTML, "Amount: 99.00") {
		t.Fatalf("html=%q", record.HTML)
	}
	// enmime down-converts HTML when no plain part exists, so Body always
	// carries something a text rule can match.
	if !strings.Contains(record.Body, "Amount: 99.00") {
		t.Fatalf("body=%q", record.Body)
	}
}

func TestParseEmailDateFallback(t *testing.T) {
	fallback := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	msg := "Subject: x\r\nDate: not a date\r\n\r\nbody\r\n"
	record, err := ParseEmail([]byte(msg), fallback)
	if err != nil {
		t.Fatal(err)
	}
	if !record.Time.Equal(fallback) {
		t.Fatalf("time=%v", record.Time)
	}
}
