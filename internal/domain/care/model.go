package care

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/platform/apperr"
)

const (
	// MinAge and MaxAge bound the inclusive valid patient age range.
	MinAge = 0
	MaxAge = 150
)

// Patient maps to the patient table. Doctors carries the currently
// assigned doctors and is populated by the service, not stored.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Age       *int      `db:"age" json:"age"`
	Gender    *string   `db:"gender" json:"gender"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedBy uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Doctors []*Doctor `db:"-" json:"doctors"`
}

// Validate runs the patient field rules in order and returns every
// failure, not just the first.
func (p *Patient) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, apperr.FieldError{Field: "name", Message: "Name is required."})
	}
	if p.Age != nil && (*p.Age < MinAge || *p.Age > MaxAge) {
		errs = append(errs, apperr.FieldError{Field: "age", Message: "Age must be between 0 and 150."})
	}
	return errs
}

// Doctor maps to the doctor table. AssignedPatients is populated only on
// the detail view.
type Doctor struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Specialization string    `db:"specialization" json:"specialization"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	AssignedPatients []*Patient `db:"-" json:"assigned_patients,omitempty"`
}

// Validate runs the doctor field rules in order. Email uniqueness is a
// store-level rule checked by the service and the database constraint.
func (d *Doctor) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, apperr.FieldError{Field: "name", Message: "Name is required."})
	}
	email := strings.TrimSpace(d.Email)
	if email == "" {
		errs = append(errs, apperr.FieldError{Field: "email", Message: "Email is required."})
	} else if !strings.Contains(email, "@") {
		errs = append(errs, apperr.FieldError{Field: "email", Message: "Enter a valid email address."})
	}
	return errs
}

// PatientDoctor maps to the patient_doctor link table. At most one link
// may exist per (patient, doctor) pair. PatientName and DoctorName are
// joined in for serialization.
type PatientDoctor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	PatientName string `db:"-" json:"patient_name,omitempty"`
	DoctorName  string `db:"-" json:"doctor_name,omitempty"`
}
