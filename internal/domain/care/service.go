package care

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/caretrack/caretrack/internal/platform/apperr"
)

// PatientInput carries the writable patient fields. Nil pointers mean
// "leave unchanged" on partial updates.
type PatientInput struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Gender *string `json:"gender"`
	Notes  *string `json:"notes"`
}

// DoctorInput carries the writable doctor fields.
type DoctorInput struct {
	Name           *string `json:"name"`
	Specialization *string `json:"specialization"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
}

// LinkInput carries the writable link fields.
type LinkInput struct {
	PatientID uuid.UUID `json:"patient"`
	DoctorID  uuid.UUID `json:"doctor"`
}

// Service implements the patient, doctor and assignment operations.
// Patient and link access is scoped to the caller; doctors are shared
// across all authenticated users.
type Service struct {
	patients PatientRepository
	doctors  DoctorRepository
	links    LinkRepository
}

func NewService(patients PatientRepository, doctors DoctorRepository, links LinkRepository) *Service {
	return &Service{patients: patients, doctors: doctors, links: links}
}

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, callerID uuid.UUID, in PatientInput) (*Patient, error) {
	p := &Patient{CreatedBy: callerID}
	applyPatientInput(p, in)
	if errs := p.Validate(); len(errs) > 0 {
		return nil, apperr.ValidationFields(errs...)
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	p.Doctors = []*Doctor{}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, callerID, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetOwned(ctx, id, callerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	if err := s.attachDoctors(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, callerID uuid.UUID, f PatientFilter) ([]*Patient, int, error) {
	if callerID == uuid.Nil {
		return []*Patient{}, 0, nil
	}
	f.OwnerID = callerID
	patients, total, err := s.patients.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	if patients == nil {
		patients = []*Patient{}
	}

	ids := make([]uuid.UUID, len(patients))
	for i, p := range patients {
		ids[i] = p.ID
	}
	byPatient, err := s.links.DoctorsByPatients(ctx, ids)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	for _, p := range patients {
		p.Doctors = byPatient[p.ID]
		if p.Doctors == nil {
			p.Doctors = []*Doctor{}
		}
	}
	return patients, total, nil
}

func (s *Service) UpdatePatient(ctx context.Context, callerID, id uuid.UUID, in PatientInput) (*Patient, error) {
	p, err := s.patients.GetOwned(ctx, id, callerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	applyPatientInput(p, in)
	if errs := p.Validate(); len(errs) > 0 {
		return nil, apperr.ValidationFields(errs...)
	}
	if err := s.patients.Update(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	if err := s.attachDoctors(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, callerID, id uuid.UUID) error {
	err := s.patients.Delete(ctx, id, callerID)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound()
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// AssignDoctor links a doctor to one of the caller's patients and
// returns the confirmation message.
func (s *Service) AssignDoctor(ctx context.Context, callerID, patientID, doctorID uuid.UUID) (string, error) {
	p, err := s.patients.GetOwned(ctx, patientID, callerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.NotFound()
		}
		return "", apperr.Internal(err)
	}

	if doctorID == uuid.Nil {
		return "", apperr.ValidationFields(apperr.FieldError{Field: "doctor_id", Message: "This field is required."})
	}
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.ValidationFields(apperr.FieldError{Field: "doctor_id", Message: "Doctor with this ID does not exist."})
		}
		return "", apperr.Internal(err)
	}

	link := &PatientDoctor{PatientID: p.ID, DoctorID: d.ID}
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, ErrDuplicateLink) {
			return "", apperr.Validation("This doctor is already assigned to this patient")
		}
		return "", apperr.Internal(err)
	}
	return fmt.Sprintf("Doctor %s assigned to patient %s", d.Name, p.Name), nil
}

// UnassignDoctor removes the link between a doctor and one of the
// caller's patients and returns the confirmation message.
func (s *Service) UnassignDoctor(ctx context.Context, callerID, patientID, doctorID uuid.UUID) (string, error) {
	p, err := s.patients.GetOwned(ctx, patientID, callerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.NotFound()
		}
		return "", apperr.Internal(err)
	}

	if doctorID == uuid.Nil {
		return "", apperr.Validation("doctor_id is required")
	}
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.NotFoundMsg("Doctor not found")
		}
		return "", apperr.Internal(err)
	}

	link, err := s.links.GetByPair(ctx, p.ID, d.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.Validation("This doctor is not assigned to this patient")
		}
		return "", apperr.Internal(err)
	}
	if err := s.links.Delete(ctx, link.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return "", apperr.Internal(err)
	}
	return fmt.Sprintf("Doctor %s unassigned from patient %s", d.Name, p.Name), nil
}

func (s *Service) attachDoctors(ctx context.Context, p *Patient) error {
	byPatient, err := s.links.DoctorsByPatients(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return err
	}
	p.Doctors = byPatient[p.ID]
	if p.Doctors == nil {
		p.Doctors = []*Doctor{}
	}
	return nil
}

func applyPatientInput(p *Patient, in PatientInput) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Age != nil {
		p.Age = in.Age
	}
	if in.Gender != nil {
		p.Gender = in.Gender
	}
	if in.Notes != nil {
		p.Notes = *in.Notes
	}
}

// -- Doctors --

func (s *Service) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	d := &Doctor{}
	applyDoctorInput(d, in)
	if errs := d.Validate(); len(errs) > 0 {
		return nil, apperr.ValidationFields(errs...)
	}
	if err := s.checkDoctorEmail(ctx, d.Email, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, duplicateEmailErr()
		}
		return nil, apperr.Internal(err)
	}
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	patients, err := s.links.PatientsByDoctor(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if patients == nil {
		patients = []*Patient{}
	}
	d.AssignedPatients = patients
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, int, error) {
	doctors, total, err := s.doctors.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	if doctors == nil {
		doctors = []*Doctor{}
	}
	return doctors, total, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, in DoctorInput) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	applyDoctorInput(d, in)
	if errs := d.Validate(); len(errs) > 0 {
		return nil, apperr.ValidationFields(errs...)
	}
	if err := s.checkDoctorEmail(ctx, d.Email, d.ID); err != nil {
		return nil, err
	}
	if err := s.doctors.Update(ctx, d); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			return nil, duplicateEmailErr()
		case errors.Is(err, ErrNotFound):
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	return d, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	err := s.doctors.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound()
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// DoctorPatients returns every patient linked to the doctor. This view
// is intentionally unscoped: doctors are shared, and their caseload
// spans patients of all users.
func (s *Service) DoctorPatients(ctx context.Context, id uuid.UUID) ([]*Patient, error) {
	if _, err := s.doctors.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	patients, err := s.links.PatientsByDoctor(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return patients, nil
}

// checkDoctorEmail is the advisory uniqueness pre-check. selfID exempts
// a doctor keeping their current address. The database constraint
// remains the authority under concurrent writes.
func (s *Service) checkDoctorEmail(ctx context.Context, email string, selfID uuid.UUID) error {
	existing, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return apperr.Internal(err)
	}
	if existing.ID == selfID {
		return nil
	}
	return duplicateEmailErr()
}

func duplicateEmailErr() *apperr.Error {
	return apperr.ValidationFields(apperr.FieldError{Field: "email", Message: "A doctor with this email already exists."})
}

func applyDoctorInput(d *Doctor, in DoctorInput) {
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.Specialization != nil {
		d.Specialization = *in.Specialization
	}
	if in.Email != nil {
		d.Email = *in.Email
	}
	if in.Phone != nil {
		d.Phone = *in.Phone
	}
}

// -- Patient-doctor links --

func (s *Service) CreateLink(ctx context.Context, callerID uuid.UUID, in LinkInput) (*PatientDoctor, error) {
	if in.PatientID == uuid.Nil || in.DoctorID == uuid.Nil {
		var details []apperr.FieldError
		if in.PatientID == uuid.Nil {
			details = append(details, apperr.FieldError{Field: "patient", Message: "This field is required."})
		}
		if in.DoctorID == uuid.Nil {
			details = append(details, apperr.FieldError{Field: "doctor", Message: "This field is required."})
		}
		return nil, apperr.ValidationFields(details...)
	}

	p, err := s.patients.GetOwned(ctx, in.PatientID, callerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.ValidationFields(apperr.FieldError{Field: "patient", Message: "Invalid patient."})
		}
		return nil, apperr.Internal(err)
	}
	d, err := s.doctors.GetByID(ctx, in.DoctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.ValidationFields(apperr.FieldError{Field: "doctor", Message: "Invalid doctor."})
		}
		return nil, apperr.Internal(err)
	}

	link := &PatientDoctor{PatientID: p.ID, DoctorID: d.ID}
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, ErrDuplicateLink) {
			return nil, apperr.Validation("This patient is already assigned to this doctor.")
		}
		return nil, apperr.Internal(err)
	}
	link.PatientName = p.Name
	link.DoctorName = d.Name
	return link, nil
}

func (s *Service) GetLink(ctx context.Context, callerID, id uuid.UUID) (*PatientDoctor, error) {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	if _, err := s.patients.GetOwned(ctx, link.PatientID, callerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	return link, nil
}

func (s *Service) ListLinks(ctx context.Context, callerID uuid.UUID, f LinkFilter) ([]*PatientDoctor, int, error) {
	if callerID == uuid.Nil {
		return []*PatientDoctor{}, 0, nil
	}
	f.OwnerID = callerID
	links, total, err := s.links.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	if links == nil {
		links = []*PatientDoctor{}
	}
	return links, total, nil
}

// UpdateLink repoints a link at a new pair. The duplicate check is
// skipped when the pair already belongs to the link being updated.
func (s *Service) UpdateLink(ctx context.Context, callerID, id uuid.UUID, in LinkInput) (*PatientDoctor, error) {
	link, err := s.GetLink(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	patientID := link.PatientID
	if in.PatientID != uuid.Nil {
		patientID = in.PatientID
	}
	doctorID := link.DoctorID
	if in.DoctorID != uuid.Nil {
		doctorID = in.DoctorID
	}

	p, err := s.patients.GetOwned(ctx, patientID, callerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.ValidationFields(apperr.FieldError{Field: "patient", Message: "Invalid patient."})
		}
		return nil, apperr.Internal(err)
	}
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.ValidationFields(apperr.FieldError{Field: "doctor", Message: "Invalid doctor."})
		}
		return nil, apperr.Internal(err)
	}

	link.PatientID = p.ID
	link.DoctorID = d.ID
	if err := s.links.Update(ctx, link); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateLink):
			return nil, apperr.Validation("This patient is already assigned to this doctor.")
		case errors.Is(err, ErrNotFound):
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	link.PatientName = p.Name
	link.DoctorName = d.Name
	return link, nil
}

func (s *Service) DeleteLink(ctx context.Context, callerID, id uuid.UUID) error {
	link, err := s.GetLink(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := s.links.Delete(ctx, link.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return apperr.Internal(err)
	}
	return nil
}
