package languages

import "testing"

func TestBase(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"de-DE", "de"},
		{"en-US", "en"},
		{"ru-RU", "ru"},
		{"RU-ru", "ru"},
		{"pt", "pt"},
		{"zh-Hans-CN", "zh"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Base(tt.tag); got != tt.want {
			t.Errorf("Base(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"de-DE", "German"},
		{"uk-UA", "Ukrainian"},
		{"en", "English"},
		{"xx-XX", "xx-XX"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Name(tt.tag); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestSupported(t *testing.T) {
	for _, tag := range []string{"de-DE", "en-US", "ru-RU", "fr"} {
		if !Supported(tag) {
			t.Errorf("Expected %q to be supported", tag)
		}
	}
	for _, tag := range []string{"lv-LV", "zh-CN", "xx", ""} {
		if Supported(tag) {
			t.Errorf("Expected %q to be unsupported", tag)
		}
	}
}
