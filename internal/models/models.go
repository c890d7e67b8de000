package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// Accessory is one physical accessory unit, identified by SKU and location.
type Accessory struct {
	ID           int    `json:"id"`
	SKU          string `json:"sku"`
	Location     string `json:"location"`
	UpdatedAt    string `json:"updated_at"`
	LatestRemark string `json:"latest_remark,omitempty"`
}

// Remark is an immutable entry in an accessory's history.
type Remark struct {
	ID          int    `json:"id"`
	AccessoryID int    `json:"accessory_id"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
}

type Location struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
	CreatedAt  string `json:"created_at"`
}

// Work order statuses.
const (
	WOStatusPending   = "pending"
	WOStatusCompleted = "completed"
	WOStatusCancelled = "cancelled"
)

// Match outcomes decided once at work order creation.
const (
	MatchMatched = "matched"
	MatchNewOne  = "new_one"
)

type WorkOrder struct {
	ID                  int     `json:"id"`
	SKU                 string  `json:"sku"`
	AccessoryCode       string  `json:"accessory_code"`
	Quantity            int     `json:"quantity"`
	Status              string  `json:"status"`
	MatchStatus         string  `json:"match_status"`
	MatchedLocation     *string `json:"matched_location"`
	MatchedAccessoryID  *int    `json:"matched_accessory_id,omitempty"`
	CustomerServiceName string  `json:"customer_service_name"`
	Remark              string  `json:"remark"`
	CreatedAt           string  `json:"created_at"`
	CompletedAt         *string `json:"completed_at"`
}

// WorkOrderDetail is a work order together with the unit it was matched to.
type WorkOrderDetail struct {
	WorkOrder
	Accessory *Accessory `json:"accessory,omitempty"`
	Remarks   []Remark   `json:"remarks,omitempty"`
}

// WorkOrderCounts holds per-status totals shown alongside work order lists.
type WorkOrderCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

type WorkOrderPage struct {
	WorkOrders []WorkOrder     `json:"work_orders"`
	Counts     WorkOrderCounts `json:"counts"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

// SKUStat is the number of units stocked for one SKU.
type SKUStat struct {
	SKU   string `json:"sku"`
	Count int    `json:"count"`
}

type SKUDetail struct {
	SKU         string      `json:"sku"`
	Accessories []Accessory `json:"accessories"`
	Locations   []string    `json:"locations"`
	TotalCount  int         `json:"total_count"`
}

// UnitAvailability reports the derived state of one unit for an accessory code.
type UnitAvailability struct {
	Accessory Accessory `json:"accessory"`
	Available bool      `json:"available"`
	Marker    string    `json:"marker,omitempty"`
}

// AuditEntry represents a single audit log record.
type AuditEntry struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}
