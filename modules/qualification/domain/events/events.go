package events

type QualificationRecorded struct {
	QualificationID int64
	StaffID         int64
	TypeID          int64
}

type QualificationVerified struct {
	QualificationID int64
	StaffID         int64
	Status          string
	VerifierID      int64
}
