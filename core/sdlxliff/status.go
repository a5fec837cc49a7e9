package sdlxliff

import (
	"github.com/lingtools/xliffd/core/errors"
)

// Status is a segment's SDL confirmation level. It is the vendor
// `conf` attribute on sdl:seg, not the generic XLIFF `state` attribute
// other tools populate; for these documents conf is authoritative.
//
// Unknown values round-trip as-is so foreign documents survive an
// open/save cycle, but only the six known levels may be assigned.
type Status string

// The SDL confirmation levels, in review order.
const (
	StatusDraft               Status = "Draft"
	StatusTranslated          Status = "Translated"
	StatusRejectedTranslation Status = "RejectedTranslation"
	StatusApprovedTranslation Status = "ApprovedTranslation"
	StatusRejectedSignOff     Status = "RejectedSignOff"
	StatusApprovedSignOff     Status = "ApprovedSignOff"
)

var knownStatuses = map[Status]bool{
	StatusDraft:               true,
	StatusTranslated:          true,
	StatusRejectedTranslation: true,
	StatusApprovedTranslation: true,
	StatusRejectedSignOff:     true,
	StatusApprovedSignOff:     true,
}

// Known reports whether s is one of the six SDL confirmation levels.
func (s Status) Known() bool {
	return knownStatuses[s]
}

// ParseStatus validates a caller-supplied confirmation level.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Known() {
		return "", errors.Wrapf(errors.ErrInvalidInput,
			"unknown confirmation level %q (valid: Draft, Translated, RejectedTranslation, ApprovedTranslation, RejectedSignOff, ApprovedSignOff)", s)
	}
	return status, nil
}
