package handlers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDecodeReminderEnabledDefault(t *testing.T) {
	reminder, err := decodeReminder(strings.NewReader(`{"title":"Morning meds","time":"08:00"}`))
	if err != nil {
		t.Fatalf("decodeReminder: %v", err)
	}
	if !reminder.Enabled {
		t.Error("enabled omitted from the body should default to true")
	}

	reminder, err = decodeReminder(strings.NewReader(`{"title":"Morning meds","time":"08:00","enabled":false}`))
	if err != nil {
		t.Fatalf("decodeReminder: %v", err)
	}
	if reminder.Enabled {
		t.Error("explicit enabled=false must be kept")
	}
}

func TestAvatarInitials(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Margaret Hale", "MA"},
		{"Jo", "JO"},
		{"A", "A"},
		{"", ""},
		{"Ángela Ruiz", "ÁN"},
		{"李小龙", "李小"},
	}
	for _, tc := range cases {
		got := avatarInitials(tc.name)
		if got != tc.want {
			t.Errorf("avatarInitials(%q) = %q, want %q", tc.name, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("avatarInitials(%q) produced invalid UTF-8", tc.name)
		}
	}
}
