package events

// Events published on the in-process bus after a staff mutation commits.
// Subscribers must tolerate at-most-once delivery: the bus is not durable.

type StaffHired struct {
	StaffID    int64
	EmployeeNo string
}

type StaffStatusChanged struct {
	StaffID   int64
	OldStatus string
	NewStatus string
}

type StaffReassigned struct {
	StaffID      int64
	AssignmentID int64
}

type SupervisorAssigned struct {
	StaffID      int64
	SupervisorID int64
}
