package matching

import (
	"math"
	"strings"
)

const (
	EducationStudent  = "student"
	EducationGraduate = "graduate"
	EducationPhD      = "phd"
	EducationAny      = "any"
)

var educationRank = map[string]int{
	EducationStudent:  1,
	EducationGraduate: 2,
	EducationPhD:      3,
}

// availabilityCompat maps a required availability to the candidate
// availabilities that partially satisfy it.
var availabilityCompat = map[string][]string{
	"full-time":  {"contract"},
	"part-time":  {"freelance", "contract"},
	"contract":   {"full-time", "freelance"},
	"freelance":  {"contract", "part-time"},
	"internship": {"part-time"},
}

// SkillMatch is the share of required skills the candidate holds, normalized
// by the required count so unrelated extra skills do not dilute it.
func SkillMatch(required, candidate []string) int {
	req := skillSet(required)
	if len(req) == 0 {
		return 100
	}
	have := skillSet(candidate)

	matched := 0
	for s := range req {
		if _, ok := have[s]; ok {
			matched++
		}
	}
	return clampInt(int(math.Round(100*float64(matched)/float64(len(req)))), 0, 100)
}

func ExperienceMatch(minYears, candidateYears float64) int {
	if math.IsNaN(minYears) || minYears <= 0 {
		return 100
	}
	if math.IsNaN(candidateYears) || candidateYears <= 0 {
		return 0
	}
	ratio := candidateYears / minYears
	if ratio > 1 {
		ratio = 1
	}
	return clampInt(int(math.Round(ratio*100)), 0, 100)
}

func PortfolioDepth(score *float64) int {
	return externalScore(score)
}

func GithubActivity(score *float64) int {
	return externalScore(score)
}

func EducationAlignment(preference, candidateLevel string) int {
	pref := normalizeEducation(preference)
	prefRank, known := educationRank[pref]
	if pref == EducationAny || !known {
		return 100
	}

	candRank, ok := educationRank[normalizeEducation(candidateLevel)]
	if !ok {
		return 0
	}

	switch {
	case candRank == prefRank:
		return 100
	case candRank > prefRank:
		return 90
	default:
		return 50
	}
}

func AvailabilityFit(required, candidate string) int {
	req := NormalizeAvailability(required)
	if req == "" {
		return 100
	}
	have := NormalizeAvailability(candidate)
	if have == "" {
		return 0
	}
	if req == have {
		return 100
	}
	for _, c := range availabilityCompat[req] {
		if c == have {
			return 75
		}
	}
	return 25
}

// NormalizeAvailability lowercases and canonicalizes separators so
// "Full Time", "full_time" and "fulltime" compare equal.
func NormalizeAvailability(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.NewReplacer("_", "-", " ", "-").Replace(v)
	switch v {
	case "fulltime":
		return "full-time"
	case "parttime":
		return "part-time"
	}
	return v
}

func NormalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeEducation(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return ""
	}
	if v == "ph.d" || v == "ph.d." || v == "doctorate" {
		return EducationPhD
	}
	return v
}

func skillSet(skills []string) map[string]struct{} {
	out := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		n := NormalizeSkill(s)
		if n == "" {
			continue
		}
		out[n] = struct{}{}
	}
	return out
}

func externalScore(score *float64) int {
	if score == nil || math.IsNaN(*score) {
		return 0
	}
	v := *score
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
