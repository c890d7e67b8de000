package main

import (
	"net/http"
	"strings"

	"acctrack/internal/handlers/common"
	invHandlers "acctrack/internal/handlers/inventory"
	woHandlers "acctrack/internal/handlers/workorders"
	"acctrack/internal/response"
	"acctrack/internal/server"
)

// newRouter wires every API route onto a mux. Middleware is applied by the
// caller.
func newRouter(app *server.App) *http.ServeMux {
	commonH := &common.Handler{DB: app.DB, Log: app.Log}
	invH := &invHandlers.Handler{Service: app.Inventory, Log: app.Log, PageSize: app.PageSize}
	woH := &woHandlers.Handler{Service: app.WorkOrders, Log: app.Log}

	mux := http.NewServeMux()

	// API routes - using a simple router
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		switch {
		case path == "health" && r.Method == "GET":
			commonH.Health(w, r)
		case path == "audit" && r.Method == "GET":
			commonH.ListAudit(w, r)

		// Work orders
		case path == "work-orders/export" && r.Method == "GET":
			woH.ExportWorkOrders(w, r)
		case parts[0] == "work-orders" && len(parts) == 1 && r.Method == "GET":
			woH.ListWorkOrders(w, r)
		case parts[0] == "work-orders" && len(parts) == 1 && r.Method == "POST":
			woH.CreateWorkOrder(w, r)
		case parts[0] == "work-orders" && len(parts) == 2 && r.Method == "GET":
			woH.GetWorkOrder(w, r, parts[1])
		case parts[0] == "work-orders" && len(parts) == 3 && parts[2] == "status" && r.Method == "PUT":
			woH.UpdateWorkOrderStatus(w, r, parts[1])

		// Accessories
		case path == "accessories/export" && r.Method == "GET":
			invH.ExportAccessories(w, r)
		case parts[0] == "accessories" && len(parts) == 1 && r.Method == "GET":
			invH.ListAccessories(w, r)
		case parts[0] == "accessories" && len(parts) == 1 && r.Method == "POST":
			invH.CreateAccessory(w, r)
		case parts[0] == "accessories" && len(parts) == 2 && r.Method == "GET":
			invH.GetAccessory(w, r, parts[1])
		case parts[0] == "accessories" && len(parts) == 2 && r.Method == "PUT":
			invH.UpdateAccessory(w, r, parts[1])
		case parts[0] == "accessories" && len(parts) == 2 && r.Method == "DELETE":
			invH.DeleteAccessory(w, r, parts[1])
		case parts[0] == "accessories" && len(parts) == 3 && parts[2] == "remarks" && r.Method == "GET":
			invH.ListRemarks(w, r, parts[1])
		case parts[0] == "accessories" && len(parts) == 3 && parts[2] == "remarks" && r.Method == "POST":
			invH.AddRemark(w, r, parts[1])
		case parts[0] == "remarks" && len(parts) == 2 && r.Method == "DELETE":
			invH.DeleteRemark(w, r, parts[1])

		// Locations
		case parts[0] == "locations" && len(parts) == 1 && r.Method == "GET":
			invH.ListLocations(w, r)
		case parts[0] == "locations" && len(parts) == 1 && r.Method == "POST":
			invH.CreateLocation(w, r)
		case parts[0] == "locations" && len(parts) == 2 && r.Method == "DELETE":
			invH.DeleteLocation(w, r, parts[1])

		// SKUs and availability
		case parts[0] == "skus" && len(parts) == 1 && r.Method == "GET":
			invH.ListSKUs(w, r)
		case parts[0] == "skus" && len(parts) == 2 && r.Method == "GET":
			invH.GetSKU(w, r, parts[1])
		case path == "sku-stats" && r.Method == "GET":
			invH.SKUStats(w, r)
		case path == "availability" && r.Method == "GET":
			invH.Availability(w, r)

		default:
			response.ErrCode(w, "not found", "NOT_FOUND", 404)
		}
	})

	return mux
}

// newHandler wraps the router in the middleware chain.
func newHandler(app *server.App, rateLimit int) http.Handler {
	return server.Chain(newRouter(app),
		server.RequestID,
		server.LoggingMiddleware(app.Log),
		server.Recover(app.Log),
		server.SecurityHeaders,
		server.RateLimitMiddleware(server.NewRateLimiter(), rateLimit),
		server.GzipMiddleware,
	)
}
