package placeholder

import (
	"reflect"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
)

// tagsFromMarkup builds a tag set by encoding an mrk fragment.
func tagsFromMarkup(t *testing.T, inner string) Encoded {
	t.Helper()
	doc, err := xmlquery.Parse(strings.NewReader(`<mrk mtype="seg" mid="1">` + inner + `</mrk>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mrk := xmlquery.FindOne(doc, "//mrk")
	if mrk == nil {
		t.Fatal("no mrk element")
	}
	return Encode(mrk)
}

func TestValidateUntaggedAcceptsAnything(t *testing.T) {
	enc := tagsFromMarkup(t, "Hello world")
	result := Validate(enc.Tags, enc.Placeholder, "anything at all, even {5} tokens")
	if !result.Valid {
		t.Errorf("Expected untagged segment to accept any text, got %+v", result)
	}
}

func TestValidatePairedTags(t *testing.T) {
	enc := tagsFromMarkup(t, `Press <g id="5">Save</g> and <g id="6">Close</g>.`)

	tests := []struct {
		name        string
		proposal    string
		valid       bool
		missing     []string
		extra       []string
		wantWarning bool
	}{
		{
			name:     "intact",
			proposal: "Drücken Sie {5}Speichern{/5} und {6}Schließen{/6}.",
			valid:    true,
			missing:  []string{},
			extra:    []string{},
		},
		{
			name:     "missing close token",
			proposal: "Drücken Sie {5}Speichern{/5} und {6}Schließen.",
			valid:    false,
			missing:  []string{"6"},
			extra:    []string{},
		},
		{
			name:     "whole pair dropped",
			proposal: "Drücken Sie {5}Speichern{/5} und Schließen.",
			valid:    false,
			missing:  []string{"6"},
			extra:    []string{},
		},
		{
			name:     "unknown tag",
			proposal: "Drücken Sie {5}Speichern{/5} und {6}Schließen{/6} {7}jetzt{/7}.",
			valid:    false,
			missing:  []string{},
			extra:    []string{"7"},
		},
		{
			name:     "duplicated pair",
			proposal: "{5}a{/5}{5}b{/5} und {6}c{/6}",
			valid:    false,
			missing:  []string{},
			extra:    []string{},
		},
		{
			name:        "reordered is warning only",
			proposal:    "{6}Schließen{/6} dann {5}Speichern{/5}.",
			valid:       true,
			missing:     []string{},
			extra:       []string{},
			wantWarning: true,
		},
		{
			name:     "improper nesting",
			proposal: "{5}a{6}b{/5}c{/6}",
			valid:    false,
			missing:  []string{},
			extra:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(enc.Tags, enc.Placeholder, tt.proposal)
			if result.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (errors: %v)", result.Valid, tt.valid, result.Errors)
			}
			if !reflect.DeepEqual(result.MissingTagIDs, tt.missing) {
				t.Errorf("MissingTagIDs = %v, want %v", result.MissingTagIDs, tt.missing)
			}
			if !reflect.DeepEqual(result.ExtraTagIDs, tt.extra) {
				t.Errorf("ExtraTagIDs = %v, want %v", result.ExtraTagIDs, tt.extra)
			}
			if tt.wantWarning && len(result.Warnings) == 0 {
				t.Error("Expected a warning")
			}
		})
	}
}

func TestValidateSelfClosing(t *testing.T) {
	enc := tagsFromMarkup(t, `Line one<x id="3"/>line two`)

	result := Validate(enc.Tags, enc.Placeholder, "Zeile eins{x:3}Zeile zwei")
	if !result.Valid {
		t.Fatalf("Expected valid, got %+v", result)
	}

	result = Validate(enc.Tags, enc.Placeholder, "Zeile eins Zeile zwei")
	if result.Valid {
		t.Error("Expected missing self-closing tag to fail")
	}
	if !reflect.DeepEqual(result.MissingTagIDs, []string{"3"}) {
		t.Errorf("MissingTagIDs = %v", result.MissingTagIDs)
	}

	// Wrong token form for a self-closing tag.
	result = Validate(enc.Tags, enc.Placeholder, "Zeile eins{3}Zeile zwei{/3}")
	if result.Valid {
		t.Error("Expected paired form of a self-closing tag to fail")
	}

	// A duplicated standalone marker is only a warning.
	result = Validate(enc.Tags, enc.Placeholder, "a{x:3}b{x:3}c")
	if !result.Valid {
		t.Errorf("Expected duplicate self-closing to stay valid, got %+v", result)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected a warning for duplicated self-closing tag")
	}
}

func TestValidateSplitPair(t *testing.T) {
	enc := tagsFromMarkup(t, `<bpt id="2">&lt;b&gt;</bpt>bold<ept id="2">&lt;/b&gt;</ept> rest`)

	result := Validate(enc.Tags, enc.Placeholder, "{2}fett{/2} Rest")
	if !result.Valid {
		t.Fatalf("Expected valid, got %+v", result)
	}

	result = Validate(enc.Tags, enc.Placeholder, "{/2}fett{2} Rest")
	if result.Valid {
		t.Error("Expected end-before-begin to fail for split pair")
	}
}

func TestValidateBeginOnlyAndEndOnly(t *testing.T) {
	begin := tagsFromMarkup(t, `start <bpt id="4">&lt;i&gt;</bpt>tail`)
	result := Validate(begin.Tags, begin.Placeholder, "Anfang {4}Ende")
	if !result.Valid {
		t.Errorf("Expected begin-only tag to validate with open token, got %+v", result)
	}
	result = Validate(begin.Tags, begin.Placeholder, "Anfang Ende")
	if result.Valid || !reflect.DeepEqual(result.MissingTagIDs, []string{"4"}) {
		t.Errorf("Expected missing begin-only tag, got %+v", result)
	}

	end := tagsFromMarkup(t, `head<ept id="4">&lt;/i&gt;</ept> stop`)
	result = Validate(end.Tags, end.Placeholder, "Kopf{/4} Halt")
	if !result.Valid {
		t.Errorf("Expected end-only tag to validate with close token, got %+v", result)
	}
}

func TestValidateLiteralBracesWarn(t *testing.T) {
	enc := tagsFromMarkup(t, `<g id="1">x</g>`)
	result := Validate(enc.Tags, enc.Placeholder, "{1}x{/1} literal {count}")
	if !result.Valid {
		t.Fatalf("Expected valid, got %+v", result)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected literal brace warning")
	}
}
