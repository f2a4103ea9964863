package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDateHelpers(t *testing.T) {
	d := Date(2026, time.February, 6)
	if DateKey(d) != "2026-02-06" {
		t.Errorf("DateKey = %q, want 2026-02-06", DateKey(d))
	}

	jst := time.FixedZone("JST", 9*3600)
	late := time.Date(2026, 2, 6, 23, 30, 0, 0, jst)
	if !SameDate(DateOf(late), d) {
		t.Error("DateOf should keep the calendar date in the instant's own zone")
	}

	if IsWeekend(Date(2026, time.February, 6)) { // Friday
		t.Error("2026-02-06 is a Friday, not a weekend")
	}
	if !IsWeekend(Date(2026, time.February, 7)) || !IsWeekend(Date(2026, time.February, 8)) {
		t.Error("2026-02-07/08 are Saturday and Sunday")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-06")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !d.Equal(Date(2026, time.February, 6)) {
		t.Errorf("ParseDate = %v", d)
	}
	for _, bad := range []string{"2026/02/06", "06-02-2026", "2026-2-6", "not-a-date"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestParseDateTimeRequiresOffset(t *testing.T) {
	got, err := ParseDateTime("2026-02-06T10:00:00+09:00")
	if err != nil {
		t.Fatalf("ParseDateTime: %v", err)
	}
	if got.Hour() != 10 {
		t.Errorf("hour = %d, want 10", got.Hour())
	}

	if _, err := ParseDateTime("2026-02-06T10:00Z"); err != nil {
		t.Errorf("Z offset should be accepted: %v", err)
	}

	// Naive datetimes are rejected unconditionally, whatever the time value.
	for _, naive := range []string{"2026-02-06T10:00:00", "2026-02-06T00:00", "2026-08-11T17:00:00"} {
		_, err := ParseDateTime(naive)
		if !errors.Is(err, ErrTimezoneRequired) {
			t.Errorf("ParseDateTime(%q) error = %v, want ErrTimezoneRequired", naive, err)
		}
	}

	if _, err := ParseDateTime("garbage"); errors.Is(err, ErrTimezoneRequired) || err == nil {
		t.Error("unparseable input should fail with a plain parse error")
	}
}

func TestTradingSessionIsTrading(t *testing.T) {
	if !SessionDay.IsTrading() || !SessionNight.IsTrading() {
		t.Error("day and night sessions are trading states")
	}
	if SessionClosed.IsTrading() {
		t.Error("closed is not a trading state")
	}
}
