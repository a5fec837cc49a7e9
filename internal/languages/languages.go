// Package languages maps the BCP-47 tags found in bilingual files to
// base codes and display names for reporting.
package languages

import "strings"

// names maps ISO 639-1 base codes to English display names for the
// languages the QA checks understand.
var names = map[string]string{
	"ar": "Arabic",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"eu": "Basque",
	"fa": "Persian",
	"fr": "French",
	"it": "Italian",
	"lv": "Latvian",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"uk": "Ukrainian",
	"zh": "Chinese",
}

// supported lists the base codes with language-aware QA support.
var supported = map[string]bool{
	"de": true,
	"en": true,
	"es": true,
	"fr": true,
	"it": true,
	"nl": true,
	"pt": true,
	"ru": true,
	"uk": true,
}

// Base extracts the lowercase base code from a BCP-47 tag:
// "de-DE" yields "de". An empty tag yields "".
func Base(tag string) string {
	if tag == "" {
		return ""
	}
	base, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(base)
}

// Name returns the English display name for a BCP-47 tag, or the tag
// itself when the base code is unknown.
func Name(tag string) string {
	if name, ok := names[Base(tag)]; ok {
		return name
	}
	return tag
}

// Supported reports whether language-aware QA checks exist for the tag.
func Supported(tag string) bool {
	return supported[Base(tag)]
}
