package concept

import (
	"context"
	"errors"
	"time"

	"github.com/hims/hims/internal/platform/openmrs"
)

// LabSetClass is the concept class that identifies laboratory panels.
const LabSetClass = "LabSet"

// ErrRootSetNotFound is returned when no active concept set matches the
// configured root set name.
var ErrRootSetNotFound = errors.New("root concept set not found")

// LocalConceptRecord is the locally persisted projection of a synced
// concept, keyed by the upstream uuid.
type LocalConceptRecord struct {
	UUID                string    `json:"uuid"`
	DisplayName         string    `json:"displayName"`
	ConceptClassDisplay string    `json:"conceptClassDisplay"`
	IsSet               bool      `json:"isSet"`
	CreatedBy           string    `json:"createdBy"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Source is the subset of the OpenMRS client the sync pipeline consumes.
type Source interface {
	ListAllConcepts(ctx context.Context) ([]openmrs.Concept, error)
	GetConcept(ctx context.Context, uuid string) (*openmrs.Concept, error)
	SearchConceptSets(ctx context.Context, name string) ([]openmrs.Concept, error)
}

// SyncSummary reports the outcome of one sync run.
type SyncSummary struct {
	Count      int `json:"count"`
	Panels     int `json:"panels"`
	Standalone int `json:"standalone"`
	Skipped    int `json:"skipped"`
}
