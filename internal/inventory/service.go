package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"acctrack/internal/audit"
	"acctrack/internal/matching"
	"acctrack/internal/models"
)

// Service wraps the multi-statement inventory changes in transactions so the
// location usage counters never drift from the accessories table.
type Service struct {
	DB  *sql.DB
	Log *logrus.Logger
	Now func() time.Time
}

func NewService(db *sql.DB, log *logrus.Logger) *Service {
	return &Service{DB: db, Log: log, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Store returns a store bound to the service's database.
func (s *Service) Store() *Store {
	return NewStore(s.DB)
}

// AddAccessory creates a unit, counts it against its location and records an
// optional first remark.
func (s *Service) AddAccessory(ctx context.Context, actor, sku, location, remark string) (*models.Accessory, error) {
	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	st := NewStore(tx)
	a, err := st.insertAccessory(ctx, sku, location, now)
	if err != nil {
		return nil, err
	}
	if err := st.adjustUsage(ctx, location, 1); err != nil {
		return nil, fmt.Errorf("location usage: %w", err)
	}
	if remark != "" {
		r, err := st.AppendRemark(ctx, a.ID, remark, now)
		if err != nil {
			return nil, err
		}
		a.LatestRemark = r.Content
	}
	if err := audit.Record(ctx, tx, actor, audit.ActionCreate, "accessory", strconv.Itoa(a.ID),
		fmt.Sprintf("Added %s at %s", sku, location)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAccessory relocates a unit when location differs from the current one
// and appends newRemark when it is not empty.
func (s *Service) UpdateAccessory(ctx context.Context, actor string, id int, location, newRemark string) (*models.Accessory, error) {
	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	st := NewStore(tx)
	a, err := st.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if location != "" && location != a.Location {
		if err := st.relocate(ctx, id, location, now); err != nil {
			return nil, err
		}
		if err := st.adjustUsage(ctx, a.Location, -1); err != nil {
			return nil, fmt.Errorf("location usage: %w", err)
		}
		if err := st.adjustUsage(ctx, location, 1); err != nil {
			return nil, fmt.Errorf("location usage: %w", err)
		}
		if err := audit.Record(ctx, tx, actor, audit.ActionUpdate, "accessory", strconv.Itoa(id),
			fmt.Sprintf("Moved %s from %s to %s", a.SKU, a.Location, location)); err != nil {
			return nil, err
		}
	}
	if newRemark != "" {
		if _, err := st.AppendRemark(ctx, id, newRemark, now); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.Store().Get(ctx, id)
}

// DeleteAccessory removes a unit and its history. Units that any work order
// was matched to are kept.
func (s *Service) DeleteAccessory(ctx context.Context, actor string, id int) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st := NewStore(tx)
	a, err := st.Get(ctx, id)
	if err != nil {
		return err
	}
	refs, err := st.workOrderRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("accessory %d is referenced by %d work order(s): %w", id, refs, ErrInUse)
	}
	if err := st.deleteAccessory(ctx, id); err != nil {
		return err
	}
	if err := st.adjustUsage(ctx, a.Location, -1); err != nil {
		return fmt.Errorf("location usage: %w", err)
	}
	if err := audit.Record(ctx, tx, actor, audit.ActionDelete, "accessory", strconv.Itoa(id),
		fmt.Sprintf("Deleted %s at %s", a.SKU, a.Location)); err != nil {
		return err
	}
	return tx.Commit()
}

// AddRemark appends a free-text remark to a unit's history.
func (s *Service) AddRemark(ctx context.Context, id int, content string) (models.Remark, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Remark{}, err
	}
	defer tx.Rollback()

	st := NewStore(tx)
	if _, err := st.Get(ctx, id); err != nil {
		return models.Remark{}, err
	}
	r, err := st.AppendRemark(ctx, id, content, s.now())
	if err != nil {
		return models.Remark{}, err
	}
	return r, tx.Commit()
}

// DeleteRemark removes one remark. Removing a consumption marker makes the
// code available on that unit again; that is allowed but audited.
func (s *Service) DeleteRemark(ctx context.Context, actor string, id int) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st := NewStore(tx)
	r, err := st.getRemark(ctx, id)
	if err != nil {
		return err
	}
	if err := st.deleteRemark(ctx, id); err != nil {
		return err
	}
	if m, ok := matching.ParseMarker(r.Content); ok && m.Kind == matching.MarkerConsumption {
		s.Log.WithFields(logrus.Fields{
			"remark_id":     r.ID,
			"accessory_id":  r.AccessoryID,
			"code":          m.Code,
			"work_order_id": m.WorkOrderID,
		}).Warn("consumption marker deleted; code is available on this unit again")
		if err := audit.Record(ctx, tx, actor, audit.ActionMarkerDeleted, "accessory", strconv.Itoa(r.AccessoryID),
			fmt.Sprintf("Deleted remark %d: %s", r.ID, r.Content)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Service) AddLocation(ctx context.Context, actor, name string) (*models.Location, error) {
	l, err := s.Store().insertLocation(ctx, name, s.now())
	if err != nil {
		return nil, err
	}
	if err := audit.Record(ctx, s.DB, actor, audit.ActionCreate, "location", strconv.Itoa(l.ID), "Added location "+name); err != nil {
		s.Log.WithError(err).Error("audit location create")
	}
	return l, nil
}

// DeleteLocation removes a location that no unit is stored at.
func (s *Service) DeleteLocation(ctx context.Context, actor string, id int) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st := NewStore(tx)
	l, err := st.getLocation(ctx, id)
	if err != nil {
		return err
	}
	if l.UsageCount > 0 {
		return fmt.Errorf("location %s holds %d accessories: %w", l.Name, l.UsageCount, ErrInUse)
	}
	if err := st.deleteLocation(ctx, id); err != nil {
		return err
	}
	if err := audit.Record(ctx, tx, actor, audit.ActionDelete, "location", strconv.Itoa(id), "Deleted location "+l.Name); err != nil {
		return err
	}
	return tx.Commit()
}

// Detail returns a unit with its history, newest remark first.
func (s *Service) Detail(ctx context.Context, id int) (*models.Accessory, []models.Remark, error) {
	st := s.Store()
	a, err := st.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	remarks, err := st.Remarks(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	for i, j := 0, len(remarks)-1; i < j; i, j = i+1, j-1 {
		remarks[i], remarks[j] = remarks[j], remarks[i]
	}
	return a, remarks, nil
}
