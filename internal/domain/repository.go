package domain

// AcquisitionRepository defines the interface for acquisition history
type AcquisitionRepository interface {
	// Create creates a new record
	Create(acquisition *Acquisition) error

	// Update updates an existing record
	Update(acquisition *Acquisition) error

	// Delete deletes a record by ID, failing with ErrNotFound
	Delete(id string) error

	// FindByID finds a record by ID, failing with ErrNotFound
	FindByID(id string) (*Acquisition, error)

	// FindAll finds records matching the filter, newest first
	FindAll(filter AcquisitionFilter) ([]*Acquisition, error)

	// FindLatestCompleted returns the newest completed record for a raw input, or nil
	FindLatestCompleted(rawInput string) (*Acquisition, error)

	// GetStats returns history statistics
	GetStats() (*AcquisitionStats, error)
}

// AcquisitionFilter narrows FindAll. Zero values match everything.
type AcquisitionFilter struct {
	Status   AcquisitionStatus
	Provider ProviderID
	Kind     SourceKind
	Limit    int
}

// AcquisitionStats represents history statistics
type AcquisitionStats struct {
	Total      int64                `json:"total"`
	Processing int64                `json:"processing"`
	Completed  int64                `json:"completed"`
	Failed     int64                `json:"failed"`
	Cancelled  int64                `json:"cancelled"`
	ByProvider map[ProviderID]int64 `json:"by_provider"`
}
