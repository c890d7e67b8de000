package matching

import (
	"context"
	"fmt"
	"sort"

	"acctrack/internal/models"
)

// UnitSource is the read side of the accessory store used for selection.
type UnitSource interface {
	ListBySKU(ctx context.Context, sku string) ([]models.Accessory, error)
	Remarks(ctx context.Context, accessoryID int) ([]models.Remark, error)
}

// Evaluate derives the availability of code on every unit of sku, ordered by
// location name and then unit id.
func Evaluate(ctx context.Context, src UnitSource, sku, code string) ([]models.UnitAvailability, error) {
	units, err := src.ListBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("list units for %s: %w", sku, err)
	}
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Location != units[j].Location {
			return units[i].Location < units[j].Location
		}
		return units[i].ID < units[j].ID
	})

	out := make([]models.UnitAvailability, 0, len(units))
	for _, u := range units {
		events, err := src.Remarks(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("remarks for accessory %d: %w", u.ID, err)
		}
		ua := models.UnitAvailability{Accessory: u, Available: true}
		if m, ok := LatestMarker(events, code); ok {
			ua.Available = m.Kind != MarkerConsumption
			ua.Marker = m.Kind.String()
		}
		out = append(out, ua)
	}
	return out, nil
}

// SelectCandidate returns the available unit of sku with the lowest location
// name, or nil when no unit can supply code.
func SelectCandidate(ctx context.Context, src UnitSource, sku, code string) (*models.Accessory, error) {
	units, err := Evaluate(ctx, src, sku, code)
	if err != nil {
		return nil, err
	}
	for _, ua := range units {
		if ua.Available {
			u := ua.Accessory
			return &u, nil
		}
	}
	return nil, nil
}
