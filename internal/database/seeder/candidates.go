package seeder

import (
	"context"
	"encoding/json"
	"fmt"

	"talent-match/internal/database"
	"talent-match/internal/domain/candidate"
	"talent-match/internal/repository"
)

type CandidatesSeeder struct{}

func (CandidatesSeeder) Name() string { return "candidates" }

func (CandidatesSeeder) Run(ctx context.Context, q database.Querier) error {
	if err := EnsureTableColumns(ctx, q, "candidates",
		"id", "display_name", "profile", "portfolio_depth", "github_activity", "published",
	); err != nil {
		return err
	}

	repo := repository.NewPostgresCandidateRepository(q)
	for _, d := range demoCandidates() {
		raw, err := json.Marshal(d.profile)
		if err != nil {
			return err
		}
		if err := candidate.ValidateProfile(raw); err != nil {
			return fmt.Errorf("candidate %s: %w", d.name, err)
		}
		if err := repo.Upsert(ctx, repository.CandidateUpsert{
			ID:             seedID("candidate", d.name),
			DisplayName:    d.name,
			Profile:        raw,
			PortfolioDepth: d.portfolio,
			GithubActivity: d.github,
			Published:      d.published,
		}); err != nil {
			return err
		}
	}
	return nil
}

type demoCandidate struct {
	name      string
	profile   candidate.Profile
	portfolio *float64
	github    *float64
	published bool
}

func score(v float64) *float64 { return &v }

func demoCandidates() []demoCandidate {
	return []demoCandidate{
		{
			name:      "Ada Moreno",
			profile:   candidate.Profile{Skills: []string{"Go", "PostgreSQL", "Redis", "Docker", "Kubernetes"}, YearsExperience: 6, EducationLevel: "graduate", Availability: "full-time"},
			portfolio: score(88), github: score(92), published: true,
		},
		{
			name:      "Bram Kowalski",
			profile:   candidate.Profile{Skills: []string{"Go", "MySQL"}, YearsExperience: 2, EducationLevel: "graduate", Availability: "contract"},
			portfolio: score(55), github: score(40), published: true,
		},
		{
			name:      "Chen Wei",
			profile:   candidate.Profile{Skills: []string{"Python", "SQL", "Pandas"}, YearsExperience: 0.5, EducationLevel: "student", Availability: "part-time"},
			portfolio: score(62), published: true,
		},
		{
			name:      "Dana Okafor",
			profile:   candidate.Profile{Skills: []string{"Python", "PyTorch", "Kubernetes", "Go"}, YearsExperience: 7, EducationLevel: "phd", Availability: "freelance"},
			portfolio: score(95), github: score(81), published: true,
		},
		{
			name:      "Eli Brandt",
			profile:   candidate.Profile{Skills: []string{"Docker", "Redis"}, YearsExperience: 4, EducationLevel: "graduate", Availability: "full-time"},
			published: false,
		},
	}
}
