package newrelic

// Application is a monitored service entity as returned by the REST v2
// applications endpoint. Only the fields the dashboard renders are decoded.
type Application struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Language       string `json:"language"`
	HealthStatus   string `json:"health_status"`
	LastReportedAt string `json:"last_reported_at"`
}

// Host is one application host from the REST v2 hosts endpoint.
type Host struct {
	ID           int64  `json:"id"`
	Host         string `json:"host"`
	HealthStatus string `json:"health_status"`
}

// Violation is an open alert violation. OpenedAt is epoch milliseconds.
type Violation struct {
	ID       int64           `json:"id"`
	Priority string          `json:"priority"`
	Label    string          `json:"label"`
	OpenedAt int64           `json:"opened_at"`
	Entity   ViolationEntity `json:"entity"`
}

// ViolationEntity identifies the entity a violation was recorded against.
// The id is a JSON number, matching Application.ID.
type ViolationEntity struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}
