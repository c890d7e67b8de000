package matching

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimeLayout is the timestamp format used in remarks and stored timestamps.
const TimeLayout = "2006-01-02 15:04:05"

type MarkerKind int

const (
	MarkerNone MarkerKind = iota
	// MarkerConsumption records that a work order removed the code from the unit.
	MarkerConsumption
	// MarkerRestock records that the code was put back on the unit.
	MarkerRestock
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerConsumption:
		return "consumption"
	case MarkerRestock:
		return "restock"
	default:
		return "none"
	}
}

// Marker is a remark whose content encodes a change in availability of a code.
type Marker struct {
	Kind        MarkerKind
	Code        string
	WorkOrderID int
	Timestamp   string
	RemarkID    int
}

var (
	consumptionRe = regexp.MustCompile(`(?i)^\s*remove\s+(\S.*?)\s+-\s+WO#(\d+)\s+-\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s*$`)
	restockRe     = regexp.MustCompile(`(?i)^\s*restock\s+(\S.*?)(?:\s+-\s+.*)?\s*$`)
)

// ParseMarker classifies remark content. Content must match a marker form in
// full; prose that merely mentions "remove" is not a marker.
func ParseMarker(content string) (Marker, bool) {
	if m := consumptionRe.FindStringSubmatch(content); m != nil {
		id, err := strconv.Atoi(m[2])
		if err != nil {
			return Marker{}, false
		}
		return Marker{Kind: MarkerConsumption, Code: m[1], WorkOrderID: id, Timestamp: m[3]}, true
	}
	if m := restockRe.FindStringSubmatch(content); m != nil {
		return Marker{Kind: MarkerRestock, Code: m[1]}, true
	}
	return Marker{}, false
}

// FormatConsumption renders the canonical consumption remark for a work order.
func FormatConsumption(code string, workOrderID int, at time.Time) string {
	return fmt.Sprintf("remove %s - WO#%d - %s", code, workOrderID, at.Format(TimeLayout))
}

// FormatRestock renders a restock remark; note may be empty.
func FormatRestock(code, note string) string {
	if note == "" {
		return "restock " + code
	}
	return "restock " + code + " - " + note
}
