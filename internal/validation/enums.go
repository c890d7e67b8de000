package validation

// Enum values - these MUST match DB CHECK constraints in the database package.
var (
	ValidWOStatuses       = []string{"pending", "completed", "cancelled"}
	ValidWOTargetStatuses = []string{"completed", "cancelled"}
	ValidWOStatusFilters  = []string{"all", "pending", "completed", "cancelled"}
	ValidExportFormats    = []string{"csv", "xlsx"}
)
