// models/notification_run.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Run outcomes
const (
	RunOutcomeDelivered      = "delivered"       // email accepted by the provider
	RunOutcomeDispatchFailed = "dispatch_failed" // provider rejected, logout still attempted
	RunOutcomeAborted        = "aborted"         // auth, fetch or render failed
	RunOutcomeSkipped        = "skipped"         // another run held the guard
)

type NotificationRun struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RunDate          string    `gorm:"type:varchar(10);index" json:"runDate"` // YYYY-MM-DD
	Trigger          string    `gorm:"type:varchar(20)" json:"trigger"`       // schedule, manual, cli
	Outcome          string    `gorm:"type:varchar(20);index" json:"outcome"`
	FailedStage      string    `gorm:"type:varchar(20)" json:"failedStage,omitempty"`
	ErrorMessage     string    `gorm:"type:text" json:"errorMessage,omitempty"`
	Provider         string    `gorm:"type:varchar(20)" json:"provider,omitempty"`
	MessageID        string    `gorm:"type:varchar(255)" json:"messageId,omitempty"`
	AppointmentCount int       `json:"appointmentCount"`
	TaskCount        int       `json:"taskCount"`
	LogoutFailed     bool      `json:"logoutFailed"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
	CreatedAt        time.Time `json:"-"`
}

func (r *NotificationRun) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
