package sdlxliff

// Statistics aggregates confirmation-level counts over the current,
// overlay-reflecting segment views. A pure fold; no independent state.
type Statistics struct {
	SourceLanguage string         `json:"source_language,omitempty"`
	TargetLanguage string         `json:"target_language,omitempty"`
	TotalSegments  int            `json:"total_segments"`
	StatusCounts   map[string]int `json:"status_counts"`
	LockedCount    int            `json:"locked_count"`
	PendingEdits   int            `json:"pending_edits,omitempty"`
}

// Stats folds the segment store into per-status counts.
func (d *Document) Stats() Statistics {
	stats := Statistics{
		SourceLanguage: d.sourceLanguage,
		TargetLanguage: d.targetLanguage,
		TotalSegments:  len(d.segments),
		StatusCounts:   make(map[string]int),
		PendingEdits:   len(d.overlay),
	}

	for _, seg := range d.segments {
		v := d.view(seg, false)
		key := v.Status
		if key == "" {
			key = "unknown"
		}
		stats.StatusCounts[key]++
		if v.Locked {
			stats.LockedCount++
		}
	}

	return stats
}
