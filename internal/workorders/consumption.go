package workorders

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"acctrack/internal/audit"
	"acctrack/internal/inventory"
	"acctrack/internal/matching"
	"acctrack/internal/models"
)

// recordConsumption appends the canonical remove marker for wo to the unit it
// was matched to. It must run inside the completion transaction. If the code
// is already consumed on that unit, the marker is still written and the
// double completion is recorded as an anomaly.
func (s *Service) recordConsumption(ctx context.Context, tx *sql.Tx, actor string, wo *models.WorkOrder, at time.Time) (models.Remark, error) {
	st := inventory.NewStore(tx)
	unitID, err := matchedUnit(ctx, st, wo)
	if err != nil {
		return models.Remark{}, err
	}

	events, err := st.Remarks(ctx, unitID)
	if err != nil {
		return models.Remark{}, fmt.Errorf("read history of accessory %d: %w", unitID, err)
	}
	if prev, ok := matching.LatestMarker(events, wo.AccessoryCode); ok && prev.Kind == matching.MarkerConsumption {
		s.Log.WithFields(logrus.Fields{
			"work_order_id":  wo.ID,
			"accessory_id":   unitID,
			"code":           wo.AccessoryCode,
			"previous_order": prev.WorkOrderID,
		}).Warn("double completion: code already consumed on matched unit")
		summary := fmt.Sprintf("WO#%d consumed %s on accessory %d already consumed by WO#%d",
			wo.ID, wo.AccessoryCode, unitID, prev.WorkOrderID)
		if err := audit.Record(ctx, tx, actor, audit.ActionDoubleCompletion, "workorder", strconv.Itoa(wo.ID), summary); err != nil {
			return models.Remark{}, fmt.Errorf("audit double completion: %w", err)
		}
	}

	r, err := st.AppendRemark(ctx, unitID, matching.FormatConsumption(wo.AccessoryCode, wo.ID, at), at)
	if err != nil {
		return models.Remark{}, fmt.Errorf("append consumption for WO#%d: %w", wo.ID, err)
	}
	return r, nil
}

// matchedUnit resolves the unit a matched order draws from. Orders stored
// without a unit id fall back to the SKU and decision-time location.
func matchedUnit(ctx context.Context, st *inventory.Store, wo *models.WorkOrder) (int, error) {
	if wo.MatchedAccessoryID != nil {
		return *wo.MatchedAccessoryID, nil
	}
	if wo.MatchedLocation == nil {
		return 0, fmt.Errorf("work order %d is matched without a location", wo.ID)
	}
	units, err := st.ListBySKU(ctx, wo.SKU)
	if err != nil {
		return 0, err
	}
	for _, u := range units {
		if u.Location == *wo.MatchedLocation {
			return u.ID, nil
		}
	}
	return 0, fmt.Errorf("no %s accessory at %s for work order %d", wo.SKU, *wo.MatchedLocation, wo.ID)
}
