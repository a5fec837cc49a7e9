package placeholder

import (
	"fmt"
	"strings"
)

// Result is the outcome of validating a proposed edit against a
// segment's original tag set. Errors make the proposal uncommittable;
// warnings do not. Ids are reported as bare strings so callers can act
// on them without parsing messages.
type Result struct {
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	MissingTagIDs []string `json:"missing_tag_ids"`
	ExtraTagIDs   []string `json:"extra_tag_ids"`
}

func (r *Result) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Result) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks a proposed placeholder text against the original tag
// set and placeholder form of a segment.
//
// Structural tag loss is an error: every original tag's required tokens
// must appear exactly once, properly paired, and no unknown ids may
// appear. Pure reordering of intact tags is only a warning, since
// cross-language word order legitimately moves formatting around.
func Validate(tags TagSet, original, proposal string) Result {
	result := Result{
		Valid:         true,
		Errors:        []string{},
		Warnings:      []string{},
		MissingTagIDs: []string{},
		ExtraTagIDs:   []string{},
	}

	// A segment without tags accepts any text.
	if len(tags) == 0 {
		return result
	}

	tokens := Scan(proposal)

	opens := map[string]int{}
	closes := map[string]int{}
	selfs := map[string]int{}
	extraSeen := map[string]bool{}
	var stack []string

	for _, tok := range tokens {
		if tok.Kind == TokenText {
			continue
		}
		tag, known := tags[tok.ID]
		if !known {
			if !extraSeen[tok.ID] {
				extraSeen[tok.ID] = true
				result.ExtraTagIDs = append(result.ExtraTagIDs, tok.ID)
			}
			continue
		}

		switch tok.Kind {
		case TokenOpen:
			opens[tok.ID]++
			switch tag.Kind {
			case KindPaired:
				stack = append(stack, tok.ID)
			case KindSelfClosing:
				result.errorf("tag {%s} is self-closing, use {x:%s}", tok.ID, tok.ID)
			case KindEndOnly:
				result.errorf("tag {%s} is an end marker, use {/%s}", tok.ID, tok.ID)
			case KindSplit, KindBeginOnly:
				// counted below
			}
		case TokenClose:
			closes[tok.ID]++
			switch tag.Kind {
			case KindPaired:
				if len(stack) > 0 && stack[len(stack)-1] == tok.ID {
					stack = stack[:len(stack)-1]
				} else if idx := lastIndex(stack, tok.ID); idx >= 0 {
					// Both tokens are present, the pair just interleaves
					// another one. Not a missing tag, only a nesting error.
					stack = append(stack[:idx], stack[idx+1:]...)
					result.errorf("tag {%s} is improperly nested", tok.ID)
				} else {
					result.errorf("mismatched closing tag {/%s}", tok.ID)
				}
			case KindSelfClosing:
				result.errorf("tag {/%s} is self-closing, use {x:%s}", tok.ID, tok.ID)
			case KindBeginOnly:
				result.errorf("tag {/%s} is a begin marker, use {%s}", tok.ID, tok.ID)
			case KindSplit:
				if closes[tok.ID] > opens[tok.ID] {
					result.errorf("end tag {/%s} appears before its begin tag {%s}", tok.ID, tok.ID)
				}
			case KindEndOnly:
				// counted below
			}
		case TokenSelfClosing:
			selfs[tok.ID]++
			if tag.Kind != KindSelfClosing {
				result.errorf("tag {x:%s} is %s, not self-closing", tok.ID, tag.Kind)
			}
		}
	}

	// Paired opens left on the stack have no matching close. They are
	// reported as missing below (the pair is incomplete), matching the
	// treatment of a fully absent tag.
	unclosed := map[string]bool{}
	for _, id := range stack {
		unclosed[id] = true
	}

	for _, id := range tags.IDs() {
		tag := tags[id]
		missing := false
		switch tag.Kind {
		case KindPaired, KindSplit:
			if opens[id] == 0 || closes[id] == 0 || unclosed[id] {
				missing = true
			}
			if opens[id] > 1 || closes[id] > 1 {
				result.errorf("tag {%s} appears more than once", id)
			}
		case KindSelfClosing:
			if selfs[id] == 0 {
				missing = true
			}
			if selfs[id] > 1 {
				result.warnf("tag {x:%s} appears %d times, original has one", id, selfs[id])
			}
		case KindBeginOnly:
			if opens[id] == 0 {
				missing = true
			}
			if opens[id] > 1 {
				result.errorf("tag {%s} appears more than once", id)
			}
		case KindEndOnly:
			if closes[id] == 0 {
				missing = true
			}
			if closes[id] > 1 {
				result.errorf("tag {/%s} appears more than once", id)
			}
		}
		if missing {
			result.MissingTagIDs = append(result.MissingTagIDs, id)
		}
	}
	SortIDs(result.MissingTagIDs)
	SortIDs(result.ExtraTagIDs)

	if len(result.MissingTagIDs) > 0 {
		result.errorf("missing tags: %s. All original tags must be preserved in the translation.",
			formatIDList(result.MissingTagIDs))
	}
	if len(result.ExtraTagIDs) > 0 {
		result.errorf("unknown tags: %s. Only tags from the original segment can be used.",
			formatIDList(result.ExtraTagIDs))
	}

	if literalBraces(tokens) {
		result.warnf("text contains brace sequences that are not recognized tag tokens; they will be kept as literal text")
	}

	// Order check: compare the sequence of begin/self-closing tokens.
	// Only meaningful when the proposal is otherwise intact.
	if result.Valid {
		originalOrder := tokenOrder(Scan(original))
		proposalOrder := tokenOrder(tokens)
		if len(originalOrder) == len(proposalOrder) && strings.Join(originalOrder, " ") != strings.Join(proposalOrder, " ") {
			result.warnf("tag order changed from original (may be intentional for word order differences). Original: %s, new: %s",
				formatIDList(originalOrder), formatIDList(proposalOrder))
		}
	}

	return result
}

// lastIndex returns the highest index of id in stack, or -1.
func lastIndex(stack []string, id string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == id {
			return i
		}
	}
	return -1
}

// tokenOrder lists tag ids in order of their begin or self-closing
// tokens, mirroring how a reader encounters the tags.
func tokenOrder(tokens []Token) []string {
	var order []string
	for _, tok := range tokens {
		if tok.Kind == TokenOpen || tok.Kind == TokenSelfClosing {
			order = append(order, tok.ID)
		}
	}
	return order
}

func formatIDList(ids []string) string {
	wrapped := make([]string, len(ids))
	for i, id := range ids {
		wrapped[i] = "{" + id + "}"
	}
	return strings.Join(wrapped, ", ")
}
