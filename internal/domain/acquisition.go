package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AcquisitionStatus represents the state of a recorded acquisition
type AcquisitionStatus string

const (
	StatusProcessing AcquisitionStatus = "processing"
	StatusCompleted  AcquisitionStatus = "completed"
	StatusFailed     AcquisitionStatus = "failed"
	StatusCancelled  AcquisitionStatus = "cancelled"
)

// Attempt is one provider invocation inside an acquisition
type Attempt struct {
	Provider ProviderID    `json:"provider"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Succeeded reports whether the attempt produced a file
func (a Attempt) Succeeded() bool {
	return a.Error == ""
}

// Acquisition is the history record of one AcquisitionRequest
type Acquisition struct {
	ID             string            `json:"id" gorm:"primaryKey"`
	RawInput       string            `json:"raw_input" gorm:"not null;index"`
	DestinationDir string            `json:"destination_dir"`
	Kind           SourceKind        `json:"kind" gorm:"not null;index"`
	Hint           SearchHint        `json:"hint,omitempty"`
	Provider       ProviderID        `json:"provider,omitempty" gorm:"index"`
	Status         AcquisitionStatus `json:"status" gorm:"not null;index"`
	FilePath       string            `json:"file_path,omitempty"`
	Format         string            `json:"format,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty" gorm:"type:text"`
	AttemptsJSON   string            `json:"-" gorm:"column:attempts;type:text"`
	CreatedAt      time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

// NewAcquisition creates a record for req
func NewAcquisition(req AcquisitionRequest, classification SourceClassification) *Acquisition {
	now := time.Now()
	return &Acquisition{
		ID:             uuid.New().String(),
		RawInput:       req.RawInput,
		DestinationDir: req.DestinationDir,
		Kind:           classification.Kind,
		Hint:           classification.Hint,
		Provider:       classification.Provider,
		Status:         StatusProcessing,
		CreatedAt:      now,
		UpdatedAt:      now,
		StartedAt:      &now,
	}
}

// MarkCompleted marks the acquisition as completed
func (a *Acquisition) MarkCompleted(provider ProviderID, file *AcquiredFile) {
	a.Status = StatusCompleted
	a.Provider = provider
	a.FilePath = file.Path
	a.Format = file.Format
	a.ErrorMessage = ""
	now := time.Now()
	a.CompletedAt = &now
	a.UpdatedAt = now
}

// MarkFailed marks the acquisition as failed
func (a *Acquisition) MarkFailed(err error) {
	a.Status = StatusFailed
	a.ErrorMessage = err.Error()
	now := time.Now()
	a.CompletedAt = &now
	a.UpdatedAt = now
}

// MarkCancelled marks the acquisition as abandoned by the caller
func (a *Acquisition) MarkCancelled(err error) {
	a.Status = StatusCancelled
	if err != nil {
		a.ErrorMessage = err.Error()
	}
	a.UpdatedAt = time.Now()
}

// SetAttempts stores the attempt list
func (a *Acquisition) SetAttempts(attempts []Attempt) {
	if len(attempts) == 0 {
		a.AttemptsJSON = ""
		return
	}
	data, err := json.Marshal(attempts)
	if err != nil {
		return
	}
	a.AttemptsJSON = string(data)
}

// Attempts returns the stored attempt list
func (a *Acquisition) Attempts() []Attempt {
	if a.AttemptsJSON == "" {
		return nil
	}
	var attempts []Attempt
	if err := json.Unmarshal([]byte(a.AttemptsJSON), &attempts); err != nil {
		return nil
	}
	return attempts
}

// MarshalJSON includes the decoded attempts
func (a *Acquisition) MarshalJSON() ([]byte, error) {
	type alias Acquisition
	return json.Marshal(struct {
		*alias
		Attempts []Attempt `json:"attempts,omitempty"`
	}{
		alias:    (*alias)(a),
		Attempts: a.Attempts(),
	})
}

// IsTerminal checks if the acquisition has finished
func (a *Acquisition) IsTerminal() bool {
	return a.Status != StatusProcessing
}

// Duration returns how long the acquisition took, or zero while it is running
func (a *Acquisition) Duration() time.Duration {
	if a.StartedAt == nil || a.CompletedAt == nil {
		return 0
	}
	return a.CompletedAt.Sub(*a.StartedAt)
}

// ValidateStatus checks if a status is valid
func ValidateStatus(status AcquisitionStatus) bool {
	switch status {
	case StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
