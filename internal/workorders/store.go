package workorders

import (
	"context"
	"database/sql"
	"errors"

	"acctrack/internal/database"
	"acctrack/internal/models"
)

const woCols = "id, sku, accessory_code, quantity, status, match_status, matched_location, matched_accessory_id, customer_service_name, remark, created_at, completed_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row rowScanner) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	var loc, completed sql.NullString
	var accID sql.NullInt64
	err := row.Scan(&wo.ID, &wo.SKU, &wo.AccessoryCode, &wo.Quantity, &wo.Status, &wo.MatchStatus,
		&loc, &accID, &wo.CustomerServiceName, &wo.Remark, &wo.CreatedAt, &completed)
	if err != nil {
		return nil, err
	}
	if loc.Valid {
		l := loc.String
		wo.MatchedLocation = &l
	}
	if accID.Valid {
		id := int(accID.Int64)
		wo.MatchedAccessoryID = &id
	}
	if completed.Valid {
		c := completed.String
		wo.CompletedAt = &c
	}
	return &wo, nil
}

func getWorkOrder(ctx context.Context, q database.DBTX, id int) (*models.WorkOrder, error) {
	wo, err := scanWorkOrder(q.QueryRowContext(ctx, "SELECT "+woCols+" FROM work_orders WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return wo, err
}

func idTaken(q database.DBTX) func(ctx context.Context, id int) (bool, error) {
	return func(ctx context.Context, id int) (bool, error) {
		var n int
		err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM work_orders WHERE id = ?", id).Scan(&n)
		return n > 0, err
	}
}

func insertWorkOrder(ctx context.Context, q database.DBTX, wo *models.WorkOrder) error {
	_, err := q.ExecContext(ctx, `INSERT INTO work_orders
		(id, sku, accessory_code, quantity, status, match_status, matched_location, matched_accessory_id, customer_service_name, remark, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wo.ID, wo.SKU, wo.AccessoryCode, wo.Quantity, wo.Status, wo.MatchStatus,
		wo.MatchedLocation, wo.MatchedAccessoryID, wo.CustomerServiceName, wo.Remark, wo.CreatedAt)
	return err
}

// setStatus moves a pending order to status. It reports false when the order
// was no longer pending, so a concurrent transition wins cleanly.
func setStatus(ctx context.Context, q database.DBTX, id int, status string, completedAt *string) (bool, error) {
	res, err := q.ExecContext(ctx, "UPDATE work_orders SET status = ?, completed_at = ? WHERE id = ? AND status = 'pending'",
		status, completedAt, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func statusCounts(ctx context.Context, q database.DBTX) (models.WorkOrderCounts, error) {
	var c models.WorkOrderCounts
	rows, err := q.QueryContext(ctx, "SELECT status, COUNT(*) FROM work_orders GROUP BY status")
	if err != nil {
		return c, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return c, err
		}
		switch status {
		case models.WOStatusPending:
			c.Pending = n
		case models.WOStatusCompleted:
			c.Completed = n
		case models.WOStatusCancelled:
			c.Cancelled = n
		}
		c.Total += n
	}
	return c, rows.Err()
}

const listOrder = ` ORDER BY CASE status WHEN 'pending' THEN 1 WHEN 'completed' THEN 2 ELSE 3 END, created_at DESC, id DESC`

func listWorkOrders(ctx context.Context, q database.DBTX, status string, limit, offset int) ([]models.WorkOrder, error) {
	query := "SELECT " + woCols + " FROM work_orders"
	var args []any
	if status != "" && status != "all" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += listOrder
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []models.WorkOrder{}
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *wo)
	}
	return items, rows.Err()
}
