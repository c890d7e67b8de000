package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"acctrack/internal/database"
	"acctrack/internal/inventory"
	"acctrack/internal/matching"
)

func initDB(path string) (*sql.DB, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// seedDB loads a small demo inventory into an empty database.
func seedDB(ctx context.Context, db *sql.DB, logg *logrus.Logger) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accessories").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		logg.WithField("accessories", n).Info("database not empty, skipping seed")
		return nil
	}

	svc := inventory.NewService(db, logg)
	units := []struct {
		sku, location string
		remarks       []string
	}{
		{"ABC-100", "A-1", []string{"received from supplier"}},
		{"ABC-100", "A-2", []string{"received from supplier", matching.FormatRestock("KEY 01", "returned by customer")}},
		{"ABC-200", "B-1", nil},
		{"XYZ-9", "C-4", []string{"spare parts kit"}},
	}
	for _, u := range units {
		first := ""
		if len(u.remarks) > 0 {
			first = u.remarks[0]
		}
		a, err := svc.AddAccessory(ctx, "seed", u.sku, u.location, first)
		if err != nil {
			return fmt.Errorf("seed %s at %s: %w", u.sku, u.location, err)
		}
		for _, rm := range u.remarks[min(1, len(u.remarks)):] {
			if _, err := svc.AddRemark(ctx, a.ID, rm); err != nil {
				return fmt.Errorf("seed remark on %d: %w", a.ID, err)
			}
		}
	}
	logg.WithField("accessories", len(units)).Info("seeded demo inventory")
	return nil
}
