package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"acctrack/internal/database"
	"acctrack/internal/matching"
	"acctrack/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrInUse     = errors.New("in use")
)

// Store reads and writes accessories, their remarks and locations. It runs
// against whatever DBTX it is given, so the same store serves plain reads and
// statements inside a caller's transaction.
type Store struct {
	q database.DBTX
}

func NewStore(q database.DBTX) *Store {
	return &Store{q: q}
}

const accessoryCols = "a.id, a.sku, a.location, a.updated_at"

func scanAccessories(rows *sql.Rows, withLatest bool) ([]models.Accessory, error) {
	defer rows.Close()
	var items []models.Accessory
	for rows.Next() {
		var a models.Accessory
		var err error
		if withLatest {
			var latest sql.NullString
			err = rows.Scan(&a.ID, &a.SKU, &a.Location, &a.UpdatedAt, &latest)
			a.LatestRemark = latest.String
		} else {
			err = rows.Scan(&a.ID, &a.SKU, &a.Location, &a.UpdatedAt)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Accessory{}
	}
	return items, nil
}

// ListBySKU returns every unit whose SKU equals sku exactly.
func (s *Store) ListBySKU(ctx context.Context, sku string) ([]models.Accessory, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+accessoryCols+" FROM accessories a WHERE a.sku = ? ORDER BY a.location, a.id", sku)
	if err != nil {
		return nil, err
	}
	return scanAccessories(rows, false)
}

// Remarks returns the history of an accessory, oldest first.
func (s *Store) Remarks(ctx context.Context, accessoryID int) ([]models.Remark, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT id, accessory_id, content, created_at FROM remarks WHERE accessory_id = ? ORDER BY id ASC", accessoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []models.Remark{}
	for rows.Next() {
		var r models.Remark
		if err := rows.Scan(&r.ID, &r.AccessoryID, &r.Content, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int) (*models.Accessory, error) {
	var a models.Accessory
	err := s.q.QueryRowContext(ctx, "SELECT "+accessoryCols+" FROM accessories a WHERE a.id = ?", id).
		Scan(&a.ID, &a.SKU, &a.Location, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListParams filters and paginates List.
type ListParams struct {
	Search   string
	Page     int
	PageSize int
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const latestRemarkCol = `(SELECT r.content FROM remarks r WHERE r.accessory_id = a.id ORDER BY r.id DESC LIMIT 1)`

// List returns one page of accessories, most recently updated first, each with
// its latest remark, and the total number of matching accessories.
func (s *Store) List(ctx context.Context, p ListParams) ([]models.Accessory, int, error) {
	where := ""
	var args []any
	if p.Search != "" {
		where = ` WHERE a.sku LIKE ? ESCAPE '\' OR a.location LIKE ? ESCAPE '\'`
		term := "%" + likeEscaper.Replace(p.Search) + "%"
		args = append(args, term, term)
	}

	var total int
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM accessories a"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + accessoryCols + ", " + latestRemarkCol + " FROM accessories a" + where + " ORDER BY a.updated_at DESC, a.id DESC"
	if p.PageSize > 0 {
		page := p.Page
		if page < 1 {
			page = 1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, p.PageSize, (page-1)*p.PageSize)
	}
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanAccessories(rows, true)
	return items, total, err
}

func (s *Store) insertAccessory(ctx context.Context, sku, location string, at time.Time) (*models.Accessory, error) {
	ts := at.Format(matching.TimeLayout)
	res, err := s.q.ExecContext(ctx, "INSERT INTO accessories (sku, location, updated_at) VALUES (?, ?, ?)", sku, location, ts)
	if database.IsUniqueViolation(err) {
		return nil, fmt.Errorf("accessory %s at %s: %w", sku, location, ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Accessory{ID: int(id), SKU: sku, Location: location, UpdatedAt: ts}, nil
}

// AppendRemark adds an event to the end of an accessory's history and bumps
// the accessory's last-modified time.
func (s *Store) AppendRemark(ctx context.Context, accessoryID int, content string, at time.Time) (models.Remark, error) {
	ts := at.Format(matching.TimeLayout)
	res, err := s.q.ExecContext(ctx, "INSERT INTO remarks (accessory_id, content, created_at) VALUES (?, ?, ?)", accessoryID, content, ts)
	if err != nil {
		return models.Remark{}, fmt.Errorf("insert remark: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Remark{}, err
	}
	if _, err := s.q.ExecContext(ctx, "UPDATE accessories SET updated_at = ? WHERE id = ?", ts, accessoryID); err != nil {
		return models.Remark{}, fmt.Errorf("touch accessory: %w", err)
	}
	return models.Remark{ID: int(id), AccessoryID: accessoryID, Content: content, CreatedAt: ts}, nil
}

func (s *Store) getRemark(ctx context.Context, id int) (*models.Remark, error) {
	var r models.Remark
	err := s.q.QueryRowContext(ctx, "SELECT id, accessory_id, content, created_at FROM remarks WHERE id = ?", id).
		Scan(&r.ID, &r.AccessoryID, &r.Content, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) deleteRemark(ctx context.Context, id int) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM remarks WHERE id = ?", id)
	return err
}

func (s *Store) relocate(ctx context.Context, id int, location string, at time.Time) error {
	_, err := s.q.ExecContext(ctx, "UPDATE accessories SET location = ?, updated_at = ? WHERE id = ?", location, at.Format(matching.TimeLayout), id)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("accessory already stocked at %s: %w", location, ErrDuplicate)
	}
	return err
}

func (s *Store) deleteAccessory(ctx context.Context, id int) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM accessories WHERE id = ?", id)
	return err
}

// workOrderRefs counts work orders that were matched to the accessory.
func (s *Store) workOrderRefs(ctx context.Context, id int) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM work_orders WHERE matched_accessory_id = ?", id).Scan(&n)
	return n, err
}

// adjustUsage moves a location's usage counter by delta. Incrementing creates
// the location when it does not exist yet; the counter never drops below zero.
func (s *Store) adjustUsage(ctx context.Context, name string, delta int) error {
	if delta > 0 {
		if _, err := s.q.ExecContext(ctx, "INSERT OR IGNORE INTO locations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("ensure location %s: %w", name, err)
		}
		_, err := s.q.ExecContext(ctx, "UPDATE locations SET usage_count = usage_count + ? WHERE name = ?", delta, name)
		return err
	}
	_, err := s.q.ExecContext(ctx, "UPDATE locations SET usage_count = MAX(usage_count + ?, 0) WHERE name = ?", delta, name)
	return err
}

// Locations returns all locations, most used first.
func (s *Store) Locations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT id, name, usage_count, created_at FROM locations ORDER BY usage_count DESC, name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []models.Location{}
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.UsageCount, &l.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (s *Store) getLocation(ctx context.Context, id int) (*models.Location, error) {
	var l models.Location
	err := s.q.QueryRowContext(ctx, "SELECT id, name, usage_count, created_at FROM locations WHERE id = ?", id).
		Scan(&l.ID, &l.Name, &l.UsageCount, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) insertLocation(ctx context.Context, name string, at time.Time) (*models.Location, error) {
	ts := at.Format(matching.TimeLayout)
	res, err := s.q.ExecContext(ctx, "INSERT INTO locations (name, created_at) VALUES (?, ?)", name, ts)
	if database.IsUniqueViolation(err) {
		return nil, fmt.Errorf("location %s: %w", name, ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Location{ID: int(id), Name: name, CreatedAt: ts}, nil
}

func (s *Store) deleteLocation(ctx context.Context, id int) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM locations WHERE id = ?", id)
	return err
}

// SKUs returns the distinct SKUs in stock, sorted.
func (s *Store) SKUs(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT DISTINCT sku FROM accessories ORDER BY sku")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	skus := []string{}
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, err
		}
		skus = append(skus, sku)
	}
	return skus, rows.Err()
}

// SKUStats returns unit counts per SKU, largest first.
func (s *Store) SKUStats(ctx context.Context) ([]models.SKUStat, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT sku, COUNT(*) AS n FROM accessories GROUP BY sku ORDER BY n DESC, sku ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := []models.SKUStat{}
	for rows.Next() {
		var st models.SKUStat
		if err := rows.Scan(&st.SKU, &st.Count); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// SKUDetail lists the units of one SKU by location with their latest remark.
func (s *Store) SKUDetail(ctx context.Context, sku string) (*models.SKUDetail, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+accessoryCols+", "+latestRemarkCol+" FROM accessories a WHERE a.sku = ? ORDER BY a.location, a.id", sku)
	if err != nil {
		return nil, err
	}
	units, err := scanAccessories(rows, true)
	if err != nil {
		return nil, err
	}
	d := &models.SKUDetail{SKU: sku, Accessories: units, Locations: []string{}, TotalCount: len(units)}
	seen := map[string]bool{}
	for _, u := range units {
		if !seen[u.Location] {
			seen[u.Location] = true
			d.Locations = append(d.Locations, u.Location)
		}
	}
	return d, nil
}
