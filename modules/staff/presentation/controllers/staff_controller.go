package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/iota-uz/staffledger/modules/staff/domain/aggregates/staff"
	"github.com/iota-uz/staffledger/modules/staff/domain/entities/assignment"
	"github.com/iota-uz/staffledger/modules/staff/services"
	"github.com/iota-uz/staffledger/pkg/application"
)

type StaffController struct {
	staff       *services.StaffService
	assignments *services.AssignmentService
	basePath    string
}

func NewStaffController(staffSvc *services.StaffService, assignmentSvc *services.AssignmentService) application.Controller {
	return &StaffController{
		staff:       staffSvc,
		assignments: assignmentSvc,
		basePath:    "/api/staff",
	}
}

func (c *StaffController) Key() string {
	return c.basePath
}

func (c *StaffController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Hire).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}", c.UpdateProfile).Methods(http.MethodPatch)
	router.HandleFunc("/{id:[0-9]+}/status", c.ChangeStatus).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}/supervisor", c.AssignSupervisor).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}/assignments", c.AssignmentHistory).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}/assignments", c.Reassign).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}/assignments/current", c.CurrentAssignment).Methods(http.MethodGet)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func parseDate(v string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(v))
}

type placementDTO struct {
	DepartmentID int64 `json:"department_id"`
	FacilityID   int64 `json:"facility_id"`
	RoleID       int64 `json:"role_id"`
	RankID       int64 `json:"rank_id"`
}

func (d placementDTO) toPlacement() staff.Placement {
	return staff.Placement{
		DepartmentID: d.DepartmentID,
		FacilityID:   d.FacilityID,
		RoleID:       d.RoleID,
		RankID:       d.RankID,
	}
}

func staffToJSON(s staff.Staff) map[string]any {
	out := map[string]any{
		"id":            s.ID(),
		"employee_no":   s.EmployeeNo(),
		"email":         s.Email(),
		"first_name":    s.FirstName(),
		"last_name":     s.LastName(),
		"department_id": s.Placement().DepartmentID,
		"facility_id":   s.Placement().FacilityID,
		"role_id":       s.Placement().RoleID,
		"rank_id":       s.Placement().RankID,
		"status":        s.Status(),
		"supervisor_id": s.SupervisorID(),
		"hire_date":     s.HireDate().Format(time.DateOnly),
		"created_at":    s.CreatedAt(),
		"updated_at":    s.UpdatedAt(),
	}
	if td := s.TerminationDate(); td != nil {
		out["termination_date"] = td.Format(time.DateOnly)
	}
	return out
}

func assignmentToJSON(a *assignment.Assignment) map[string]any {
	out := map[string]any{
		"id":            a.ID,
		"staff_id":      a.StaffID,
		"department_id": a.DepartmentID,
		"facility_id":   a.FacilityID,
		"role_id":       a.RoleID,
		"rank_id":       a.RankID,
		"start_date":    a.StartDate.Format(time.DateOnly),
		"reason":        a.Reason,
		"is_current":    a.IsCurrent,
	}
	if a.EndDate != nil {
		out["end_date"] = a.EndDate.Format(time.DateOnly)
	}
	return out
}

func (c *StaffController) List(w http.ResponseWriter, r *http.Request) {
	params := &staff.FindParams{
		Q:      strings.TrimSpace(r.URL.Query().Get("q")),
		Status: staff.Status(strings.TrimSpace(r.URL.Query().Get("status"))),
		Limit:  25,
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		params.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		params.Offset = v
	}

	items, total, err := c.staff.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(items))
	for _, s := range items {
		out = append(out, staffToJSON(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

func (c *StaffController) Get(w http.ResponseWriter, r *http.Request) {
	s, err := c.staff.GetByID(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staffToJSON(s))
}

type hireDTO struct {
	EmployeeNo string       `json:"employee_no"`
	Email      string       `json:"email"`
	FirstName  string       `json:"first_name"`
	LastName   string       `json:"last_name"`
	Placement  placementDTO `json:"placement"`
	HireDate   string       `json:"hire_date"`
}

func (c *StaffController) Hire(w http.ResponseWriter, r *http.Request) {
	var dto hireDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	hireDate, err := parseDate(dto.HireDate)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_DATE", "hire_date must be YYYY-MM-DD")
		return
	}

	created, err := c.staff.Hire(r.Context(), services.HireInput{
		EmployeeNo: dto.EmployeeNo,
		Email:      dto.Email,
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		Placement:  dto.Placement.toPlacement(),
		HireDate:   hireDate,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, staffToJSON(created))
}

type updateProfileDTO struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (c *StaffController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var dto updateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	updated, err := c.staff.UpdateProfile(r.Context(), pathID(r), services.UpdateProfileInput{
		Email:     dto.Email,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staffToJSON(updated))
}

type changeStatusDTO struct {
	Status        string `json:"status"`
	EffectiveDate string `json:"effective_date"`
}

func (c *StaffController) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var dto changeStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	effective, err := parseDate(dto.EffectiveDate)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_DATE", "effective_date must be YYYY-MM-DD")
		return
	}

	updated, err := c.staff.ChangeStatus(r.Context(), pathID(r), staff.Status(dto.Status), effective)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staffToJSON(updated))
}

type assignSupervisorDTO struct {
	SupervisorID int64 `json:"supervisor_id"`
}

func (c *StaffController) AssignSupervisor(w http.ResponseWriter, r *http.Request) {
	var dto assignSupervisorDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	updated, err := c.staff.AssignSupervisor(r.Context(), pathID(r), dto.SupervisorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staffToJSON(updated))
}

type reassignDTO struct {
	Placement placementDTO `json:"placement"`
	StartDate string       `json:"start_date"`
	Reason    string       `json:"reason"`
}

func (c *StaffController) Reassign(w http.ResponseWriter, r *http.Request) {
	var dto reassignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	startDate, err := parseDate(dto.StartDate)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "INVALID_DATE", "start_date must be YYYY-MM-DD")
		return
	}

	created, err := c.assignments.Reassign(r.Context(), pathID(r), dto.Placement.toPlacement(), startDate, dto.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignmentToJSON(created))
}

func (c *StaffController) AssignmentHistory(w http.ResponseWriter, r *http.Request) {
	history, err := c.assignments.AssignmentHistory(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(history))
	for _, a := range history {
		out = append(out, assignmentToJSON(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *StaffController) CurrentAssignment(w http.ResponseWriter, r *http.Request) {
	current, err := c.assignments.CurrentAssignment(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignmentToJSON(current))
}
