package job

import (
	"time"

	"talent-match/internal/domain/matching"

	"github.com/google/uuid"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

type Job struct {
	ID                  uuid.UUID
	Title               string
	Company             string
	RequiredSkills      []string
	MinYears            float64
	EducationPreference string
	Availability        string
	MaxCandidates       int
	Currency            *string
	Budget              *float64
	Status              string
	CreatedAt           time.Time
}

func (j Job) IsOpen() bool { return j.Status == StatusOpen }

// Requirement projects the posting onto the fields used for scoring.
// Currency and budget do not take part in matching.
func (j Job) Requirement() matching.JobRequirement {
	return matching.JobRequirement{
		JobID:               j.ID,
		RequiredSkills:      append([]string(nil), j.RequiredSkills...),
		MinYears:            j.MinYears,
		EducationPreference: j.EducationPreference,
		Availability:        j.Availability,
		MaxCandidates:       j.MaxCandidates,
	}
}
