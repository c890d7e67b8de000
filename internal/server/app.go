package server

import (
	"database/sql"

	"github.com/sirupsen/logrus"

	"acctrack/internal/inventory"
	"acctrack/internal/validation"
	"acctrack/internal/workorders"
)

// ContextKey is the type used for request context keys.
type ContextKey string

const (
	CtxRequestID ContextKey = "requestID"
)

// App holds shared dependencies for the application.
type App struct {
	DB         *sql.DB
	Log        *logrus.Logger
	Inventory  *inventory.Service
	WorkOrders *workorders.Service
	// PageSize is the default page size of paged lists.
	PageSize int
}

// NewApp builds the services over db.
func NewApp(db *sql.DB, logg *logrus.Logger, ids *workorders.IDGenerator, pageSize int) *App {
	pageSize = validation.ClampPageSize(pageSize, validation.DefaultPageSize)
	wo := workorders.NewService(db, logg, ids)
	wo.PageSize = pageSize
	return &App{
		DB:         db,
		Log:        logg,
		Inventory:  inventory.NewService(db, logg),
		WorkOrders: wo,
		PageSize:   pageSize,
	}
}
