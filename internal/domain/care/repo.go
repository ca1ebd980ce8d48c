package care

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a row is absent or outside the
	// caller's scope.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a doctor insert/update hits the
	// unique email constraint.
	ErrDuplicateEmail = errors.New("duplicate doctor email")
	// ErrDuplicateLink is returned when a link insert hits the unique
	// (patient, doctor) constraint.
	ErrDuplicateLink = errors.New("duplicate patient-doctor link")
)

// PatientFilter narrows and orders a scoped patient listing.
type PatientFilter struct {
	// OwnerID scopes the listing; uuid.Nil matches nothing.
	OwnerID uuid.UUID
	// Gender filters by exact gender value when non-empty.
	Gender string
	// CreatedBy intersects the scope with an explicit creator filter.
	CreatedBy uuid.UUID
	// Search matches a substring of name or notes, case-insensitive.
	Search string
	// Ordering is one of name, age, created_at with optional "-" prefix.
	// Unknown values fall back to newest-first.
	Ordering string
	Limit    int
	Offset   int
}

// DoctorFilter narrows and orders the global doctor listing.
type DoctorFilter struct {
	Specialization string
	// Search matches a substring of name, email or specialization.
	Search string
	// Ordering is one of name (default), specialization, created_at.
	Ordering string
	Limit    int
	Offset   int
}

// LinkFilter narrows a link listing to the owner's patients.
type LinkFilter struct {
	// OwnerID scopes the listing to links whose patient belongs to the
	// owner; uuid.Nil matches nothing.
	OwnerID   uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Limit     int
	Offset    int
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	// GetOwned returns the patient only when owned by ownerID.
	GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*Patient, error)
	// Update persists name/age/gender/notes; the row must be owned by
	// p.CreatedBy or ErrNotFound is returned.
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	List(ctx context.Context, f PatientFilter) ([]*Patient, int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f DoctorFilter) ([]*Doctor, int, error)
}

type LinkRepository interface {
	Create(ctx context.Context, l *PatientDoctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientDoctor, error)
	GetByPair(ctx context.Context, patientID, doctorID uuid.UUID) (*PatientDoctor, error)
	// Update repoints an existing link at a new (patient, doctor) pair.
	Update(ctx context.Context, l *PatientDoctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f LinkFilter) ([]*PatientDoctor, int, error)
	// DoctorsByPatients returns the assigned doctors for each of the
	// given patients in one round trip.
	DoctorsByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID][]*Doctor, error)
	PatientsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error)
}
