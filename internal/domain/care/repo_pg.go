package care

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// mapPgError translates constraint violations into the repository's
// sentinel errors so the service layer stays driver-agnostic.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "doctor_email_uq":
			return ErrDuplicateEmail
		case "patient_doctor_pair_uq":
			return ErrDuplicateLink
		}
	}
	return err
}

// -- Patient repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, name, age, gender, notes, created_by, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	p := &Patient{}
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Notes, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patient (id, name, age, gender, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Age, p.Gender, p.Notes, p.CreatedBy,
	)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *patientRepoPG) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1 AND created_by = $2`, id, ownerID))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient SET name=$3, age=$4, gender=$5, notes=$6, updated_at=NOW()
		WHERE id = $1 AND created_by = $2`,
		p.ID, p.CreatedBy, p.Name, p.Age, p.Gender, p.Notes,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM patient WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var patientOrderings = map[string]string{
	"name":        "name ASC",
	"-name":       "name DESC",
	"age":         "age ASC NULLS LAST",
	"-age":        "age DESC NULLS LAST",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
}

func (r *patientRepoPG) List(ctx context.Context, f PatientFilter) ([]*Patient, int, error) {
	where := []string{"created_by = $1"}
	args := []interface{}{f.OwnerID}

	if f.Gender != "" {
		args = append(args, f.Gender)
		where = append(where, fmt.Sprintf("gender = $%d", len(args)))
	}
	if f.CreatedBy != uuid.Nil {
		args = append(args, f.CreatedBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR notes ILIKE $%d)", len(args), len(args)))
	}

	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := patientOrderings[f.Ordering]
	if !ok {
		orderBy = patientOrderings["-created_at"]
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM patient WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		patientCols, whereSQL, orderBy, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

// -- Doctor repository --

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `id, name, specialization, email, phone, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	d := &Doctor{}
	err := row.Scan(&d.ID, &d.Name, &d.Specialization, &d.Email, &d.Phone, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor (id, name, specialization, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		d.ID, d.Name, d.Specialization, d.Email, d.Phone,
	)
	if err := row.Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE email = $1`, email))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctor SET name=$2, specialization=$3, email=$4, phone=$5, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Specialization, d.Email, d.Phone,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctor WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var doctorOrderings = map[string]string{
	"name":            "name ASC",
	"-name":           "name DESC",
	"specialization":  "specialization ASC",
	"-specialization": "specialization DESC",
	"created_at":      "created_at ASC",
	"-created_at":     "created_at DESC",
}

func (r *doctorRepoPG) List(ctx context.Context, f DoctorFilter) ([]*Doctor, int, error) {
	where := []string{"TRUE"}
	var args []interface{}

	if f.Specialization != "" {
		args = append(args, f.Specialization)
		where = append(where, fmt.Sprintf("specialization = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR specialization ILIKE $%d)",
			len(args), len(args), len(args)))
	}

	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM doctor WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := doctorOrderings[f.Ordering]
	if !ok {
		orderBy = doctorOrderings["name"]
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM doctor WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		doctorCols, whereSQL, orderBy, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, d)
	}
	return doctors, total, rows.Err()
}

// -- Link repository --

type linkRepoPG struct {
	pool *pgxpool.Pool
}

func NewLinkRepo(pool *pgxpool.Pool) LinkRepository {
	return &linkRepoPG{pool: pool}
}

const linkCols = `l.id, l.patient_id, l.doctor_id, l.created_at, p.name, d.name`

const linkJoin = `
	FROM patient_doctor l
	JOIN patient p ON p.id = l.patient_id
	JOIN doctor d ON d.id = l.doctor_id`

func scanLink(row pgx.Row) (*PatientDoctor, error) {
	l := &PatientDoctor{}
	err := row.Scan(&l.ID, &l.PatientID, &l.DoctorID, &l.CreatedAt, &l.PatientName, &l.DoctorName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (r *linkRepoPG) Create(ctx context.Context, l *PatientDoctor) error {
	l.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patient_doctor (id, patient_id, doctor_id)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		l.ID, l.PatientID, l.DoctorID,
	)
	if err := row.Scan(&l.CreatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *linkRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientDoctor, error) {
	return scanLink(r.pool.QueryRow(ctx,
		`SELECT `+linkCols+linkJoin+` WHERE l.id = $1`, id))
}

func (r *linkRepoPG) GetByPair(ctx context.Context, patientID, doctorID uuid.UUID) (*PatientDoctor, error) {
	return scanLink(r.pool.QueryRow(ctx,
		`SELECT `+linkCols+linkJoin+` WHERE l.patient_id = $1 AND l.doctor_id = $2`,
		patientID, doctorID))
}

func (r *linkRepoPG) Update(ctx context.Context, l *PatientDoctor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient_doctor SET patient_id=$2, doctor_id=$3 WHERE id = $1`,
		l.ID, l.PatientID, l.DoctorID,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *linkRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patient_doctor WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *linkRepoPG) List(ctx context.Context, f LinkFilter) ([]*PatientDoctor, int, error) {
	where := []string{"p.created_by = $1"}
	args := []interface{}{f.OwnerID}

	if f.PatientID != uuid.Nil {
		args = append(args, f.PatientID)
		where = append(where, fmt.Sprintf("l.patient_id = $%d", len(args)))
	}
	if f.DoctorID != uuid.Nil {
		args = append(args, f.DoctorID)
		where = append(where, fmt.Sprintf("l.doctor_id = $%d", len(args)))
	}

	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)`+linkJoin+` WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s%s WHERE %s ORDER BY l.created_at DESC LIMIT $%d OFFSET $%d`,
		linkCols, linkJoin, whereSQL, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var links []*PatientDoctor
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, 0, err
		}
		links = append(links, l)
	}
	return links, total, rows.Err()
}

// Every selected column is table-qualified: patient_doctor and doctor
// both carry id and created_at columns, so bare names are ambiguous.
const doctorsByPatientsSQL = `
	SELECT l.patient_id, d.id, d.name, d.specialization, d.email, d.phone, d.created_at, d.updated_at
	FROM patient_doctor l
	JOIN doctor d ON d.id = l.doctor_id
	WHERE l.patient_id = ANY($1)
	ORDER BY d.name`

const patientsByDoctorSQL = `
	SELECT p.id, p.name, p.age, p.gender, p.notes, p.created_by, p.created_at, p.updated_at
	FROM patient_doctor l
	JOIN patient p ON p.id = l.patient_id
	WHERE l.doctor_id = $1
	ORDER BY l.created_at DESC`

func (r *linkRepoPG) DoctorsByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID][]*Doctor, error) {
	result := make(map[uuid.UUID][]*Doctor, len(patientIDs))
	if len(patientIDs) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx, doctorsByPatientsSQL, patientIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var patientID uuid.UUID
		d := &Doctor{}
		if err := rows.Scan(&patientID, &d.ID, &d.Name, &d.Specialization, &d.Email, &d.Phone, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		result[patientID] = append(result[patientID], d)
	}
	return result, rows.Err()
}

func (r *linkRepoPG) PatientsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, patientsByDoctorSQL, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
