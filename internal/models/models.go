package models

import (
	"encoding/json"
	"time"
)

// Role names as stored in the roles table.
const (
	RoleAdmin      = "admin"
	RoleAgronomist = "agronomist"
	RoleOperator   = "operator"
)

// User is a platform account.
// DB columns: id, username, full_name, role_id, is_staff, created_at
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	RoleName  string    `json:"role"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is a persisted report artifact.
// DB columns: id, user_id, report_type, period_start, period_end, data,
//
//	generated_at, file_path
type Report struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"user"`
	OwnerName   string    `json:"user_full_name"`
	OwnerRole   string    `json:"-"`
	ReportType  string    `json:"report_type"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	GeneratedAt time.Time `json:"generated_at"`
	FilePath    string    `json:"file_path"`

	// Data is the shaped payload exactly as serialized at creation time.
	Data json.RawMessage `json:"-"`
}

// AuditLog is an append-only record of a mutation.
// DB columns: id, user_id, action_type, table_name, record_id, old_values,
//
//	new_values, created_at
type AuditLog struct {
	ID           int64           `json:"id"`
	UserID       *int64          `json:"user"`
	UserFullName *string         `json:"user_full_name"`
	ActionType   string          `json:"action_type"`
	TableName    string          `json:"table_name"`
	RecordID     int64           `json:"record_id"`
	OldValues    json.RawMessage `json:"old_values"`
	NewValues    json.RawMessage `json:"new_values"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Audit action types.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// DiagnosisRecord is a diagnosis joined with its image, location, disease
// and verifier, as read by the reporting engine.
type DiagnosisRecord struct {
	ID               int64
	Timestamp        time.Time
	Confidence       float64
	DiseaseName      string
	MLDiseaseName    *string
	IsVerified       bool
	ImagePath        string
	GreenhouseName   *string
	SectionName      *string
	VerifierFullName *string
	VerifierUsername *string
}

// RecommendationRecord is a recommendation joined with its diagnosis disease
// and issuing agronomist.
type RecommendationRecord struct {
	ID                 int64
	DiagnosisID        int64
	DiseaseName        string
	AgronomistFullName string
	AgronomistUsername string
	TreatmentPlanText  string
	Status             string
	CreatedAt          time.Time
}

// TaskRecord is a task joined with its operator.
type TaskRecord struct {
	ID               int64
	RecommendationID int64
	OperatorFullName string
	OperatorUsername string
	Description      string
	Status           string
	Deadline         time.Time
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// Pagination holds pagination metadata.
type Pagination struct {
	Page         int `json:"page"`
	PageSize     int `json:"page_size"`
	TotalResults int `json:"total_results"`
	TotalPages   int `json:"total_pages"`
}
