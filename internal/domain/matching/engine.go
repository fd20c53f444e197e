package matching

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var ErrInvalidWeights = errors.New("invalid matching weights")

type Component string

const (
	ComponentSkill        Component = "skillMatch"
	ComponentExperience   Component = "experienceMatch"
	ComponentPortfolio    Component = "portfolioDepth"
	ComponentEducation    Component = "educationAlignment"
	ComponentGithub       Component = "githubActivity"
	ComponentAvailability Component = "availabilityFit"
)

// componentOrder is the fixed order used to break ties between equal
// component scores when picking strengths.
var componentOrder = []Component{
	ComponentSkill,
	ComponentExperience,
	ComponentPortfolio,
	ComponentEducation,
	ComponentGithub,
	ComponentAvailability,
}

var strengthLabels = map[Component]string{
	ComponentSkill:        "Strong skill alignment",
	ComponentExperience:   "Solid relevant experience",
	ComponentPortfolio:    "Deep project portfolio",
	ComponentEducation:    "Education fits the role",
	ComponentGithub:       "Active GitHub contributor",
	ComponentAvailability: "Availability matches the role",
}

const (
	strengthThreshold = 80
	maxStrengths      = 3
)

// Weights are integer percentages; a valid set sums to exactly 100.
type Weights struct {
	Skill        int `json:"skill"`
	Experience   int `json:"experience"`
	Portfolio    int `json:"portfolio"`
	Education    int `json:"education"`
	Github       int `json:"github"`
	Availability int `json:"availability"`
}

func DefaultWeights() Weights {
	return Weights{
		Skill:        35,
		Experience:   20,
		Portfolio:    20,
		Education:    10,
		Github:       10,
		Availability: 5,
	}
}

func (w Weights) Sum() int {
	return w.Skill + w.Experience + w.Portfolio + w.Education + w.Github + w.Availability
}

func (w Weights) Validate() error {
	byComp := w.byComponent()
	for _, c := range componentOrder {
		if v := byComp[c]; v < 0 {
			return fmt.Errorf("%w: %s is negative (%d)", ErrInvalidWeights, c, v)
		}
	}
	if s := w.Sum(); s != 100 {
		return fmt.Errorf("%w: sum is %d, want 100", ErrInvalidWeights, s)
	}
	return nil
}

func (w Weights) byComponent() map[Component]int {
	return map[Component]int{
		ComponentSkill:        w.Skill,
		ComponentExperience:   w.Experience,
		ComponentPortfolio:    w.Portfolio,
		ComponentEducation:    w.Education,
		ComponentGithub:       w.Github,
		ComponentAvailability: w.Availability,
	}
}

type JobRequirement struct {
	JobID               uuid.UUID
	RequiredSkills      []string
	MinYears            float64
	EducationPreference string
	Availability        string
	MaxCandidates       int
}

type CandidateSnapshot struct {
	CandidateID     uuid.UUID
	Skills          []string
	YearsExperience float64
	EducationLevel  string
	Availability    string
	PortfolioDepth  *float64
	GithubActivity  *float64
}

type Breakdown struct {
	SkillMatch         int `json:"skillMatch"`
	ExperienceMatch    int `json:"experienceMatch"`
	PortfolioDepth     int `json:"portfolioDepth"`
	EducationAlignment int `json:"educationAlignment"`
	GithubActivity     int `json:"githubActivity"`
	AvailabilityFit    int `json:"availabilityFit"`
}

func (b Breakdown) score(c Component) int {
	switch c {
	case ComponentSkill:
		return b.SkillMatch
	case ComponentExperience:
		return b.ExperienceMatch
	case ComponentPortfolio:
		return b.PortfolioDepth
	case ComponentEducation:
		return b.EducationAlignment
	case ComponentGithub:
		return b.GithubActivity
	case ComponentAvailability:
		return b.AvailabilityFit
	default:
		return 0
	}
}

type MatchResult struct {
	CandidateID   uuid.UUID `json:"candidateId"`
	OverallScore  int       `json:"overallScore"`
	Breakdown     Breakdown `json:"breakdown"`
	Strengths     []string  `json:"strengths"`
	MissingSkills []string  `json:"missingSkills"`
	Explanation   string    `json:"explanation"`
}

// Engine scores candidates against a job with a fixed weight set. It holds
// no mutable state and is safe for concurrent use.
type Engine struct {
	weights Weights
}

func NewEngine(w Weights) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Engine{weights: w}, nil
}

func (e *Engine) Weights() Weights {
	return e.weights
}

func (e *Engine) ComputeMatch(job JobRequirement, c CandidateSnapshot) MatchResult {
	b := Breakdown{
		SkillMatch:         SkillMatch(job.RequiredSkills, c.Skills),
		ExperienceMatch:    ExperienceMatch(job.MinYears, c.YearsExperience),
		PortfolioDepth:     PortfolioDepth(c.PortfolioDepth),
		EducationAlignment: EducationAlignment(job.EducationPreference, c.EducationLevel),
		GithubActivity:     GithubActivity(c.GithubActivity),
		AvailabilityFit:    AvailabilityFit(job.Availability, c.Availability),
	}

	overall := e.overall(b)
	strengths := topStrengths(b)

	return MatchResult{
		CandidateID:   c.CandidateID,
		OverallScore:  overall,
		Breakdown:     b,
		Strengths:     strengths,
		MissingSkills: missingSkills(job.RequiredSkills, c.Skills),
		Explanation:   explain(overall, strengths),
	}
}

// overall rounds half-up in integer arithmetic so results never depend on
// float representation.
func (e *Engine) overall(b Breakdown) int {
	w := e.weights
	sum := w.Skill*b.SkillMatch +
		w.Experience*b.ExperienceMatch +
		w.Portfolio*b.PortfolioDepth +
		w.Education*b.EducationAlignment +
		w.Github*b.GithubActivity +
		w.Availability*b.AvailabilityFit
	return clampInt((sum+50)/100, 0, 100)
}

func topStrengths(b Breakdown) []string {
	type scored struct {
		c     Component
		score int
		order int
	}
	cands := make([]scored, 0, len(componentOrder))
	for i, c := range componentOrder {
		if s := b.score(c); s >= strengthThreshold {
			cands = append(cands, scored{c: c, score: s, order: i})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].order < cands[j].order
	})
	if len(cands) > maxStrengths {
		cands = cands[:maxStrengths]
	}

	out := make([]string, 0, len(cands))
	for _, s := range cands {
		out = append(out, strengthLabels[s.c])
	}
	return out
}

func missingSkills(required, candidate []string) []string {
	have := skillSet(candidate)
	seen := make(map[string]struct{}, len(required))
	out := make([]string, 0)
	for _, r := range required {
		n := NormalizeSkill(r)
		if n == "" {
			continue
		}
		if _, ok := have[n]; ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func Tier(overall int) string {
	switch {
	case overall >= 85:
		return "Excellent"
	case overall >= 70:
		return "Good"
	case overall >= 50:
		return "Fair"
	default:
		return "Weak"
	}
}

func explain(overall int, strengths []string) string {
	lead := "no standout strengths for this role"
	if len(strengths) > 0 {
		lead = strengths[0]
	}
	return fmt.Sprintf("%s match (%d%%): %s.", Tier(overall), overall, lead)
}

// Less orders results by overall score descending, then skill match
// descending, then candidate id ascending.
func Less(a, b MatchResult) bool {
	if a.OverallScore != b.OverallScore {
		return a.OverallScore > b.OverallScore
	}
	if a.Breakdown.SkillMatch != b.Breakdown.SkillMatch {
		return a.Breakdown.SkillMatch > b.Breakdown.SkillMatch
	}
	return bytes.Compare(a.CandidateID[:], b.CandidateID[:]) < 0
}

func SortResults(results []MatchResult) {
	sort.SliceStable(results, func(i, j int) bool { return Less(results[i], results[j]) })
}
