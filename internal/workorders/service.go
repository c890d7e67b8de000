package workorders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"acctrack/internal/audit"
	"acctrack/internal/inventory"
	"acctrack/internal/matching"
	"acctrack/internal/models"
	"acctrack/internal/validation"
)

const (
	DefaultPageSize = validation.DefaultPageSize
	MaxPageSize     = validation.MaxPageSize
)

// Service owns the work order lifecycle: the match decision at creation and
// the pending -> completed|cancelled transitions.
type Service struct {
	DB       *sql.DB
	Log      *logrus.Logger
	IDs      *IDGenerator
	Now      func() time.Time
	PageSize int
}

func NewService(db *sql.DB, log *logrus.Logger, ids *IDGenerator) *Service {
	if ids == nil {
		ids = NewIDGenerator(DefaultMaxIDAttempts)
	}
	return &Service{DB: db, Log: log, IDs: ids, Now: time.Now, PageSize: DefaultPageSize}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateInput is the request to open a work order.
type CreateInput struct {
	SKU                 string `json:"sku"`
	AccessoryCode       string `json:"accessory_code"`
	Quantity            int    `json:"quantity"`
	CustomerServiceName string `json:"customer_service_name"`
	Remark              string `json:"remark"`
}

func (in *CreateInput) normalize() {
	in.SKU = strings.TrimSpace(in.SKU)
	in.AccessoryCode = strings.TrimSpace(in.AccessoryCode)
	in.CustomerServiceName = strings.TrimSpace(in.CustomerServiceName)
	in.Remark = strings.TrimSpace(in.Remark)
}

func (in CreateInput) validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "sku", in.SKU)
	validation.RequireField(ve, "accessory_code", in.AccessoryCode)
	validation.ValidateMaxLength(ve, "sku", in.SKU, validation.MaxCodeLength)
	validation.ValidateMaxLength(ve, "accessory_code", in.AccessoryCode, validation.MaxCodeLength)
	validation.ValidateMaxLength(ve, "customer_service_name", in.CustomerServiceName, validation.MaxNameLength)
	validation.ValidateMaxLength(ve, "remark", in.Remark, validation.MaxTextLength)
	validation.ValidateIntRange(ve, "quantity", in.Quantity, 1, validation.MaxWorkOrderQty)
	return ve.Err()
}

// Create validates the request, decides the match against current inventory
// and stores the order as pending. Selection and insert share one
// transaction, so the decision is made on a consistent view of the remarks.
// A match records that a unit was available; it does not reserve it.
func (s *Service) Create(ctx context.Context, actor string, in CreateInput) (*models.WorkOrder, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	cand, err := matching.SelectCandidate(ctx, inventory.NewStore(tx), in.SKU, in.AccessoryCode)
	if err != nil {
		return nil, fmt.Errorf("select candidate: %w", err)
	}

	id, err := s.IDs.Next(ctx, idTaken(tx))
	if err != nil {
		if errors.Is(err, ErrIDSpaceExhausted) {
			s.Log.WithError(err).Error("cannot allocate work order id")
		}
		return nil, err
	}

	wo := &models.WorkOrder{
		ID:                  id,
		SKU:                 in.SKU,
		AccessoryCode:       in.AccessoryCode,
		Quantity:            in.Quantity,
		Status:              models.WOStatusPending,
		MatchStatus:         models.MatchNewOne,
		CustomerServiceName: in.CustomerServiceName,
		Remark:              in.Remark,
		CreatedAt:           s.now().Format(matching.TimeLayout),
	}
	if cand != nil {
		loc, accID := cand.Location, cand.ID
		wo.MatchStatus = models.MatchMatched
		wo.MatchedLocation = &loc
		wo.MatchedAccessoryID = &accID
	}

	if err := insertWorkOrder(ctx, tx, wo); err != nil {
		return nil, fmt.Errorf("insert work order: %w", err)
	}
	summary := fmt.Sprintf("Created WO#%d for %s %s: %s", wo.ID, wo.SKU, wo.AccessoryCode, wo.MatchStatus)
	if err := audit.Record(ctx, tx, actor, audit.ActionCreate, "workorder", strconv.Itoa(wo.ID), summary); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"work_order_id": wo.ID,
		"sku":           wo.SKU,
		"code":          wo.AccessoryCode,
		"match_status":  wo.MatchStatus,
	}).Info("work order created")
	return wo, nil
}

// UpdateStatus moves a pending order to completed or cancelled. Completing a
// matched order appends its consumption remark in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, actor string, id int, target string) (*models.WorkOrder, error) {
	target = strings.TrimSpace(target)
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "status", target)
	validation.ValidateEnum(ve, "status", target, validation.ValidWOTargetStatuses)
	if err := ve.Err(); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	wo, err := getWorkOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if wo.Status != models.WOStatusPending {
		return nil, fmt.Errorf("work order %d is %s, cannot move to %s: %w", id, wo.Status, target, ErrInvalidTransition)
	}

	if target == models.WOStatusCancelled {
		ok, err := setStatus(ctx, tx, id, models.WOStatusCancelled, nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("work order %d is no longer pending: %w", id, ErrInvalidTransition)
		}
		if err := audit.Record(ctx, tx, actor, audit.ActionCancel, "workorder", strconv.Itoa(id), fmt.Sprintf("Cancelled WO#%d", id)); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		wo.Status = models.WOStatusCancelled
		s.Log.WithField("work_order_id", id).Info("work order cancelled")
		return wo, nil
	}

	if err := s.complete(ctx, tx, actor, wo); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		s.Log.WithError(err).WithField("work_order_id", id).Error("completion rolled back")
		return nil, fmt.Errorf("%w: %w", ErrConsumptionWrite, err)
	}
	if err := tx.Commit(); err != nil {
		s.Log.WithError(err).WithField("work_order_id", id).Error("completion commit failed")
		return nil, fmt.Errorf("%w: commit: %w", ErrConsumptionWrite, err)
	}
	s.Log.WithFields(logrus.Fields{
		"work_order_id": id,
		"match_status":  wo.MatchStatus,
	}).Info("work order completed")
	return wo, nil
}

// complete flips the order to completed and, for matched orders, writes the
// consumption remark. wo is updated in place.
func (s *Service) complete(ctx context.Context, tx *sql.Tx, actor string, wo *models.WorkOrder) error {
	at := s.now()
	completedAt := at.Format(matching.TimeLayout)
	ok, err := setStatus(ctx, tx, wo.ID, models.WOStatusCompleted, &completedAt)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if !ok {
		return fmt.Errorf("work order %d is no longer pending: %w", wo.ID, ErrInvalidTransition)
	}
	if wo.MatchStatus == models.MatchMatched {
		if _, err := s.recordConsumption(ctx, tx, actor, wo, at); err != nil {
			return err
		}
	}
	if err := audit.Record(ctx, tx, actor, audit.ActionComplete, "workorder", strconv.Itoa(wo.ID), fmt.Sprintf("Completed WO#%d", wo.ID)); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	wo.Status = models.WOStatusCompleted
	wo.CompletedAt = &completedAt
	return nil
}

// Get returns an order and, when it was matched, the unit and its history.
func (s *Service) Get(ctx context.Context, id int) (*models.WorkOrderDetail, error) {
	wo, err := getWorkOrder(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	d := &models.WorkOrderDetail{WorkOrder: *wo}
	if wo.MatchStatus != models.MatchMatched || wo.MatchedAccessoryID == nil {
		return d, nil
	}
	st := inventory.NewStore(s.DB)
	acc, err := st.Get(ctx, *wo.MatchedAccessoryID)
	if errors.Is(err, inventory.ErrNotFound) {
		return d, nil
	}
	if err != nil {
		return nil, err
	}
	remarks, err := st.Remarks(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	d.Accessory = acc
	d.Remarks = remarks
	return d, nil
}

// ListFilter selects a page of work orders.
type ListFilter struct {
	Status   string
	Page     int
	PageSize int
}

// List returns one page of orders, pending first and newest first within a
// status, with totals per status.
func (s *Service) List(ctx context.Context, f ListFilter) (*models.WorkOrderPage, error) {
	if f.Status == "" {
		f.Status = "all"
	}
	ve := &validation.ValidationErrors{}
	validation.ValidateEnum(ve, "status", f.Status, validation.ValidWOStatusFilters)
	if err := ve.Err(); err != nil {
		return nil, err
	}
	if f.Page < 1 {
		f.Page = 1
	}
	f.PageSize = validation.ClampPageSize(f.PageSize, s.PageSize)

	counts, err := statusCounts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	items, err := listWorkOrders(ctx, s.DB, f.Status, f.PageSize, (f.Page-1)*f.PageSize)
	if err != nil {
		return nil, err
	}
	total := counts.Total
	switch f.Status {
	case models.WOStatusPending:
		total = counts.Pending
	case models.WOStatusCompleted:
		total = counts.Completed
	case models.WOStatusCancelled:
		total = counts.Cancelled
	}
	return &models.WorkOrderPage{
		WorkOrders: items,
		Counts:     counts,
		Page:       f.Page,
		PageSize:   f.PageSize,
		Total:      total,
		TotalPages: (total + f.PageSize - 1) / f.PageSize,
	}, nil
}

// All returns every order with the given status filter in list order.
func (s *Service) All(ctx context.Context, status string) ([]models.WorkOrder, error) {
	return listWorkOrders(ctx, s.DB, status, 0, 0)
}
