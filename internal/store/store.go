// Package store persists job applications and the user's resume.
package store

import (
	"errors"
	"fmt"
	"time"
)

// Status is the stage an application is in.
type Status string

const (
	StatusDrafted      Status = "Drafted"
	StatusApplied      Status = "Applied"
	StatusInterviewing Status = "Interviewing"
	StatusRejected     Status = "Rejected"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusDrafted, StatusApplied, StatusInterviewing, StatusRejected}

// ParseStatus validates a status name. Matching is exact.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if Status(s) == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

var (
	// ErrNotFound is returned when an application does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStatus is returned for unknown application statuses.
	ErrInvalidStatus = errors.New("invalid status")
)

// Application is a drafted or submitted job application.
type Application struct {
	ID             string    `json:"id" yaml:"id"`
	CompanyName    string    `json:"companyName" yaml:"companyName"`
	JobTitle       string    `json:"jobTitle" yaml:"jobTitle"`
	JobDescription string    `json:"jobDescription" yaml:"jobDescription"`
	CoverLetter    string    `json:"coverLetter" yaml:"coverLetter"`
	ColdEmail      string    `json:"coldEmail" yaml:"coldEmail"`
	Status         Status    `json:"status" yaml:"status"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
}

// Resume is the single stored resume profile.
type Resume struct {
	Text        string    `json:"resumeText"`
	CleanedText string    `json:"cleanedText,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
