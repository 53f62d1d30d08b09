package gmail

import (
	"testing"
	"time"
)

func TestReceivedTime(t *testing.T) {
	want := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	if got := receivedTime(want.UnixMilli()); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestReceivedTimeWithoutInternalDate(t *testing.T) {
	before := time.Now().UTC()
	got := receivedTime(0)
	if got.Before(before) {
		t.Fatalf("got %v, before %v", got, before)
	}
}
