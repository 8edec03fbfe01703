package staff

import (
	"strings"
	"time"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusTerminated Status = "terminated"
	StatusSuspended  Status = "suspended"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusTerminated, StatusSuspended:
		return true
	}
	return false
}

// Placement is the current organizational position of a staff member. The
// same four pointers also appear on every assignment record; the staff row
// carries a denormalized copy of the current one.
type Placement struct {
	DepartmentID int64
	FacilityID   int64
	RoleID       int64
	RankID       int64
}

type Staff struct {
	id              int64
	employeeNo      string
	email           string
	firstName       string
	lastName        string
	placement       Placement
	status          Status
	supervisorID    *int64
	hireDate        time.Time
	terminationDate *time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

func New(employeeNo, email, firstName, lastName string, placement Placement, hireDate time.Time) Staff {
	return Staff{
		employeeNo: normalizeEmployeeNo(employeeNo),
		email:      normalizeEmail(email),
		firstName:  strings.TrimSpace(firstName),
		lastName:   strings.TrimSpace(lastName),
		placement:  placement,
		status:     StatusActive,
		hireDate:   hireDate,
	}
}

func Hydrate(
	id int64,
	employeeNo string,
	email string,
	firstName string,
	lastName string,
	placement Placement,
	status Status,
	supervisorID *int64,
	hireDate time.Time,
	terminationDate *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) Staff {
	return Staff{
		id:              id,
		employeeNo:      normalizeEmployeeNo(employeeNo),
		email:           normalizeEmail(email),
		firstName:       strings.TrimSpace(firstName),
		lastName:        strings.TrimSpace(lastName),
		placement:       placement,
		status:          status,
		supervisorID:    supervisorID,
		hireDate:        hireDate,
		terminationDate: terminationDate,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (s Staff) ID() int64                   { return s.id }
func (s Staff) EmployeeNo() string          { return s.employeeNo }
func (s Staff) Email() string               { return s.email }
func (s Staff) FirstName() string           { return s.firstName }
func (s Staff) LastName() string            { return s.lastName }
func (s Staff) Placement() Placement        { return s.placement }
func (s Staff) Status() Status              { return s.status }
func (s Staff) SupervisorID() *int64        { return s.supervisorID }
func (s Staff) HireDate() time.Time         { return s.hireDate }
func (s Staff) TerminationDate() *time.Time { return s.terminationDate }
func (s Staff) CreatedAt() time.Time        { return s.createdAt }
func (s Staff) UpdatedAt() time.Time        { return s.updatedAt }
func (s Staff) IsActive() bool              { return s.status == StatusActive }
func (s Staff) IsZero() bool                { return s.id == 0 && s.employeeNo == "" }

func (s Staff) WithProfile(email, firstName, lastName string) Staff {
	if v := normalizeEmail(email); v != "" {
		s.email = v
	}
	if v := strings.TrimSpace(firstName); v != "" {
		s.firstName = v
	}
	if v := strings.TrimSpace(lastName); v != "" {
		s.lastName = v
	}
	return s
}

func (s Staff) WithStatus(status Status) Staff {
	s.status = status
	return s
}

// WithTermination marks the staff member terminated as of effectiveDate.
func (s Staff) WithTermination(effectiveDate time.Time) Staff {
	s.status = StatusTerminated
	s.terminationDate = &effectiveDate
	return s
}

func (s Staff) WithPlacement(p Placement) Staff {
	s.placement = p
	return s
}

func (s Staff) WithSupervisor(supervisorID *int64) Staff {
	s.supervisorID = supervisorID
	return s
}

// Snapshot is the audit representation of a staff row.
type Snapshot struct {
	ID              int64      `json:"id"`
	EmployeeNo      string     `json:"employee_no"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	DepartmentID    int64      `json:"department_id"`
	FacilityID      int64      `json:"facility_id"`
	RoleID          int64      `json:"role_id"`
	RankID          int64      `json:"rank_id"`
	Status          Status     `json:"status"`
	SupervisorID    *int64     `json:"supervisor_id"`
	HireDate        string     `json:"hire_date"`
	TerminationDate *string    `json:"termination_date"`
}

func (s Staff) Snapshot() Snapshot {
	snap := Snapshot{
		ID:           s.id,
		EmployeeNo:   s.employeeNo,
		Email:        s.email,
		FirstName:    s.firstName,
		LastName:     s.lastName,
		DepartmentID: s.placement.DepartmentID,
		FacilityID:   s.placement.FacilityID,
		RoleID:       s.placement.RoleID,
		RankID:       s.placement.RankID,
		Status:       s.status,
		SupervisorID: s.supervisorID,
		HireDate:     s.hireDate.Format(time.DateOnly),
	}
	if s.terminationDate != nil {
		d := s.terminationDate.Format(time.DateOnly)
		snap.TerminationDate = &d
	}
	return snap
}

func normalizeEmployeeNo(v string) string { return strings.TrimSpace(v) }
func normalizeEmail(v string) string      { return strings.ToLower(strings.TrimSpace(v)) }
