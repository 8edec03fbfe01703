package events

// Events published on the in-process bus after a leave mutation commits.

type LeaveFiled struct {
	ApplicationID int64
	StaffID       int64
	CategoryID    int64
	TotalDays     string
}

type LeaveDecided struct {
	ApplicationID int64
	StaffID       int64
	Decision      string
	ReviewerID    int64
}

type LeaveCancelled struct {
	ApplicationID int64
	StaffID       int64
}

type YearRolledOver struct {
	Year    int
	Created int
}
