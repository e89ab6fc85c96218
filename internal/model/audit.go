package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActionSubmitLeave  = "SUBMIT_LEAVE"
	ActionApproveLeave = "APPROVE_LEAVE"
	ActionRejectLeave  = "REJECT_LEAVE"
	ActionDeleteLeave  = "DELETE_LEAVE"

	ActionCreateUser    = "CREATE_USER"
	ActionUpdateUser    = "UPDATE_USER"
	ActionDeleteUser    = "DELETE_USER"
	ActionChangeRole    = "CHANGE_ROLE"
	ActionResetPassword = "RESET_PASSWORD"
)

// AuditLog tracks who changed what and when
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"index" json:"user_id"` // nil for system actions
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Actor      string         `gorm:"type:varchar(50)" json:"actor"` // login identifier at the time of the action
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string         `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    datatypes.JSON `json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
