package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionApproveWorker    = "APPROVE_WORKER"
	ActionRejectWorker     = "REJECT_WORKER"
	ActionCreateService    = "CREATE_SERVICE"
	ActionUpdateService    = "UPDATE_SERVICE"
	ActionDeleteService    = "DELETE_SERVICE"
	ActionToggleUserStatus = "TOGGLE_USER_STATUS"
)

// AuditLog tracks who changed what during moderation
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for bootstrap jobs
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
