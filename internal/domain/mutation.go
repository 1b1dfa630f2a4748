package domain

import (
	"strings"

	"github.com/google/uuid"
)

const placeholderPrefix = "temp-"

// NewPlaceholderID returns a temporary id for an entry whose create has not committed
func NewPlaceholderID() string {
	return placeholderPrefix + uuid.NewString()
}

// IsPlaceholderID reports whether id was produced by NewPlaceholderID
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// MutationKind identifies what a mutation does to a list entry
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationDelete
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Mutation is a user intent against the entry for one catalog id.
// Create carries the full entry; Update carries a patch; Delete carries neither.
type Mutation struct {
	Kind      MutationKind
	CatalogID int
	Entry     ListEntry  // Create only
	Patch     EntryPatch // Update only
}

// EntryPatch holds the user-editable fields of an update.
// Nil fields are left unchanged.
type EntryPatch struct {
	EpisodesWatched *int
	UserScore       *int
	Status          *Status
	Notes           *string
	Tags            *string
	Aired           *string
}

// IsEmpty reports whether the patch changes nothing
func (p EntryPatch) IsEmpty() bool {
	return p.EpisodesWatched == nil && p.UserScore == nil && p.Status == nil &&
		p.Notes == nil && p.Tags == nil && p.Aired == nil
}

// Apply returns a copy of e with the patch applied and values clamped
func (p EntryPatch) Apply(e ListEntry) ListEntry {
	if p.EpisodesWatched != nil {
		e.EpisodesWatched = *p.EpisodesWatched
	}
	if p.UserScore != nil {
		e.UserScore = *p.UserScore
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	if p.Tags != nil {
		e.Tags = *p.Tags
	}
	if p.Aired != nil {
		e.Aired = *p.Aired
	}
	e.Normalize()
	return e
}

// Form is the full set of values edited in the detail view
type Form struct {
	Status          Status
	EpisodesWatched int
	UserScore       int
	Notes           string
	Tags            string
}

// Patch converts the form into an update patch touching every editable field
func (f Form) Patch() EntryPatch {
	return EntryPatch{
		EpisodesWatched: &f.EpisodesWatched,
		UserScore:       &f.UserScore,
		Status:          &f.Status,
		Notes:           &f.Notes,
		Tags:            &f.Tags,
	}
}

// FormFor returns the form prefilled from an existing entry
func FormFor(e ListEntry) Form {
	return Form{
		Status:          e.Status,
		EpisodesWatched: e.EpisodesWatched,
		UserScore:       e.UserScore,
		Notes:           e.Notes,
		Tags:            e.Tags,
	}
}

// Ptr returns a pointer to v, for building patches
func Ptr[T any](v T) *T {
	return &v
}
