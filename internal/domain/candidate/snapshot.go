package candidate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"talent-match/internal/domain/matching"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

var ErrMalformedProfile = errors.New("malformed candidate profile")

// profileSchema is the contract for the profile document stored with each
// published candidate.
const profileSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["skills"],
	"properties": {
		"skills": {
			"type": "array",
			"items": {"type": "string"}
		},
		"yearsExperience": {"type": "number", "minimum": 0},
		"educationLevel": {"type": "string"},
		"availability": {"type": "string"}
	}
}`

var schema = mustCompileSchema(profileSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("candidate profile schema: %v", err))
	}
	return s
}

type Profile struct {
	Skills          []string `json:"skills"`
	YearsExperience float64  `json:"yearsExperience"`
	EducationLevel  string   `json:"educationLevel"`
	Availability    string   `json:"availability"`
}

// Record is one published candidate as read from storage. Analyzer scores
// are nil when the analyzer has not produced them yet.
type Record struct {
	ID             uuid.UUID
	Profile        []byte
	PortfolioDepth *float64
	GithubActivity *float64
}

func ValidateProfile(raw []byte) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty document", ErrMalformedProfile)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}
	if !res.Valid() {
		errs := make([]string, len(res.Errors()))
		for i, desc := range res.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrMalformedProfile, strings.Join(errs, "; "))
	}
	return nil
}

func ParseSnapshot(rec Record) (matching.CandidateSnapshot, error) {
	if rec.ID == uuid.Nil {
		return matching.CandidateSnapshot{}, fmt.Errorf("%w: missing candidate id", ErrMalformedProfile)
	}
	if err := ValidateProfile(rec.Profile); err != nil {
		return matching.CandidateSnapshot{}, err
	}

	var p Profile
	if err := json.Unmarshal(rec.Profile, &p); err != nil {
		return matching.CandidateSnapshot{}, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}

	return matching.CandidateSnapshot{
		CandidateID:     rec.ID,
		Skills:          p.Skills,
		YearsExperience: p.YearsExperience,
		EducationLevel:  p.EducationLevel,
		Availability:    p.Availability,
		PortfolioDepth:  rec.PortfolioDepth,
		GithubActivity:  rec.GithubActivity,
	}, nil
}
