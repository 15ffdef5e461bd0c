package models

import "fmt"

// Status is the pipeline stage of an applicant. The empty value is stored as
// NULL and treated the same as StatusNew.
type Status string

const (
	StatusNone      Status = ""
	StatusNew       Status = "new"
	StatusProcess   Status = "process"
	StatusInterview Status = "interview"
	StatusHired     Status = "hired"
	StatusRejected  Status = "rejected"
)

// ParseStatus accepts only the closed set of stored values.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNew, StatusProcess, StatusInterview, StatusHired, StatusRejected:
		return st, nil
	}
	return StatusNone, fmt.Errorf("unknown status %q", s)
}

// IsNew reports whether the applicant has not been picked up yet.
func (s Status) IsNew() bool {
	return s == StatusNone || s == StatusNew
}

// InProcess covers both screening and interview stages.
func (s Status) InProcess() bool {
	return s == StatusProcess || s == StatusInterview
}

func (s Status) String() string {
	if s == StatusNone {
		return string(StatusNew)
	}
	return string(s)
}
