package matching

import "acctrack/internal/models"

// LatestMarker returns the most recent marker for code in events, which must
// be ordered oldest first. The returned marker carries the remark id.
func LatestMarker(events []models.Remark, code string) (Marker, bool) {
	want := Normalize(code)
	var latest Marker
	found := false
	for _, ev := range events {
		m, ok := ParseMarker(ev.Content)
		if !ok || Normalize(m.Code) != want {
			continue
		}
		m.RemarkID = ev.ID
		latest = m
		found = true
	}
	return latest, found
}

// IsAvailable reports whether code can still be drawn from a unit with the
// given history. The latest marker for the code decides; a unit with no
// marker for the code is available.
func IsAvailable(events []models.Remark, code string) bool {
	m, ok := LatestMarker(events, code)
	if !ok {
		return true
	}
	return m.Kind != MarkerConsumption
}
