package care

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/apperr"
	"github.com/caretrack/caretrack/internal/platform/auth"
	"github.com/caretrack/caretrack/internal/platform/respond"
	"github.com/caretrack/caretrack/pkg/pagination"
)

// Handler exposes the patient, doctor and assignment endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the care endpoints on the given group. The
// group is expected to sit behind the bearer-token middleware.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.ListPatients)
	g.POST("/patients", h.CreatePatient)
	g.GET("/patients/:id", h.GetPatient)
	g.PUT("/patients/:id", h.UpdatePatient)
	g.PATCH("/patients/:id", h.UpdatePatient)
	g.DELETE("/patients/:id", h.DeletePatient)
	g.POST("/patients/:id/assign_doctor", h.AssignDoctor)
	g.DELETE("/patients/:id/unassign_doctor", h.UnassignDoctor)

	g.GET("/doctors", h.ListDoctors)
	g.POST("/doctors", h.CreateDoctor)
	g.GET("/doctors/:id", h.GetDoctor)
	g.PUT("/doctors/:id", h.UpdateDoctor)
	g.PATCH("/doctors/:id", h.UpdateDoctor)
	g.DELETE("/doctors/:id", h.DeleteDoctor)
	g.GET("/doctors/:id/patients", h.DoctorPatients)

	g.GET("/patient-doctors", h.ListLinks)
	g.POST("/patient-doctors", h.CreateLink)
	g.GET("/patient-doctors/:id", h.GetLink)
	g.PUT("/patient-doctors/:id", h.UpdateLink)
	g.PATCH("/patient-doctors/:id", h.UpdateLink)
	g.DELETE("/patient-doctors/:id", h.DeleteLink)
}

// pathID parses the :id segment. An unparseable id behaves like a
// missing row rather than a malformed request.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound()
	}
	return id, nil
}

// -- Patients --

func (h *Handler) ListPatients(c echo.Context) error {
	callerID := auth.UserIDFromContext(c.Request().Context())
	params := pagination.FromContext(c)

	f := PatientFilter{
		Gender:   c.QueryParam("gender"),
		Search:   c.QueryParam("search"),
		Ordering: c.QueryParam("ordering"),
		Limit:    params.Limit,
		Offset:   params.Offset,
	}
	if v := c.QueryParam("created_by"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.ValidationFields(apperr.FieldError{Field: "created_by", Message: "Invalid UUID."})
		}
		f.CreatedBy = id
	}

	patients, total, err := h.svc.ListPatients(c.Request().Context(), callerID, f)
	if err != nil {
		return err
	}
	return respond.OK(c, "Patients retrieved successfully",
		pagination.NewResponse(patients, total, params.Limit, params.Offset))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	callerID := auth.UserIDFromContext(c.Request().Context())

	var in PatientInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), callerID, in)
	if err != nil {
		return err
	}
	return respond.Created(c, "Patient created successfully", p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	callerID := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.GetPatient(c.Request().Context(), callerID, id)
	if err != nil {
		return err
	}
	return respond.OK(c, "Patient retrieved successfully", p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	callerID := auth.UserIDFromContext(c.Request().Context())

	var in PatientInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), callerID, id, in)
	if err != nil {
		return err
	}
	return respond.OK(c, "Patient updated successfully", p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	callerID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.DeletePatient(c.Request().Context(), callerID, id); err != nil {
		return err
	}
	return respond.OK(c, "Patient deleted successfully", nil)
}

// assignBody carries the doctor reference for the assign and unassign
// actions. The id stays a string so a malformed value can map to the
// action's own error instead of a bind failure.
type assignBody struct {
	DoctorID string `json:"doctor_id"`
}

func (b assignBody) parsed() uuid.UUID {
	id, err := uuid.Parse(b.DoctorID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (h *Handler) AssignDoctor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	callerID := auth.UserIDFromContext(c.Request().Context())

	var body assignBody
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if body.DoctorID != "" && body.parsed() == uuid.Nil {
		return apperr.ValidationFields(apperr.FieldError{Field: "doctor_id", Message: "Doctor with this ID does not exist."})
	}

	msg, err := h.svc.AssignDoctor(c.Request().Context(), callerID, id, body.parsed())
	if err != nil {
		return err
	}
	return respond.Created(c, msg, nil)
}

func (h *Handler) UnassignDoctor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	callerID := auth.UserIDFromContext(c.Request().Context())

	var body assignBody
	if err := c.Bind(&body); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if body.DoctorID == "" {
		body.DoctorID = c.QueryParam("doctor_id")
	}
	if body.DoctorID != "" && body.parsed() == uuid.Nil {
		return apperr.NotFoundMsg("Doctor not found")
	}

	msg, err := h.svc.UnassignDoctor(c.Request().Context(), callerID, id, body.parsed())
	if err != nil {
		return err
	}
	return respond.OK(c, msg, nil)
}

// -- Doctors --

func (h *Handler) ListDoctors(c echo.Context) error {
	params := pagination.FromContext(c)
	f := DoctorFilter{
		Specialization: c.QueryParam("specialization"),
		Search:         c.QueryParam("search"),
		Ordering:       c.QueryParam("ordering"),
		Limit:          params.Limit,
		Offset:         params.Offset,
	}
	doctors, total, err := h.svc.ListDoctors(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return respond.OK(c, "Doctors retrieved successfully",
		pagination.NewResponse(doctors, total, params.Limit, params.Offset))
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var in DoctorInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.Created(c, "Doctor created successfully", d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, "Doctor retrieved successfully", d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in DoctorInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return respond.OK(c, "Doctor updated successfully", d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return err
	}
	return respond.OK(c, "Doctor deleted successfully", nil)
}

func (h *Handler) DoctorPatients(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	patients, err := h.svc.DoctorPatients(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond.OK(c, "Patients retrieved successfully", patients)
}

// -- Patient-doctor links --

func (h *Handler) ListLinks(c echo.Context) error {
	callerID := auth.UserIDFromContext(c.Request().Context())
	params := pagination.FromContext(c)

	f := LinkFilter{Limit: params.Limit, Offset: params.Offset}
	if v := c.QueryParam("patient"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.ValidationFields(apperr.FieldError{Field: "patient", Message: "Invalid UUID."})
		}
		f.PatientID = id
	}
	if v := c.QueryParam("doctor"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.ValidationFields(apperr.FieldError{Field: "doctor", Message: "Invalid UUID."})
		}
		f.DoctorID = id
	}

	links, total, err := h.svc.ListLinks(c.Request().Context(), callerID, f)
	if err != nil {
		return err
	}
	return respond.OK(c, "Assignments retrieved successfully",
		pagination.NewResponse(links, total, params.Limit, params.Offset))
}

func (h *Handler) CreateLink(c echo.Context) error {
	callerID := auth.UserIDFromContext(c.Request().Context())

	var in LinkInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	link, err := h.svc.CreateLink(c.Request().Context(), callerID, in)
	if err != nil {
		return err
	}
	return respond.Created(c, "Assignment created successfully", link)
}

func (h *Handler) GetLink(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	callerID := auth.UserIDFromContext(c.Request().Context())
	link, err := h.svc.GetLink(c.Request().Context(), callerID, id)
	if err != nil {
		return err
	}
	return respond.OK(c, "Assignment retrieved successfully", link)
}

func (h *Handler) UpdateLink(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	callerID := auth.UserIDFromContext(c.Request().Context())

	var in LinkInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	link, err := h.svc.UpdateLink(c.Request().Context(), callerID, id, in)
	if err != nil {
		return err
	}
	return respond.OK(c, "Assignment updated successfully", link)
}

func (h *Handler) DeleteLink(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	callerID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.DeleteLink(c.Request().Context(), callerID, id); err != nil {
		return err
	}
	return respond.OK(c, "Assignment deleted successfully", nil)
}
