package seeder

import (
	"context"

	"talent-match/internal/database"
	"talent-match/internal/domain/job"
	"talent-match/internal/repository"
)

type JobsSeeder struct{}

func (JobsSeeder) Name() string { return "jobs" }

func (JobsSeeder) Run(ctx context.Context, q database.Querier) error {
	if err := EnsureTableColumns(ctx, q, "jobs",
		"id", "title", "company", "required_skills", "min_years", "education_preference",
		"availability", "max_candidates", "status",
	); err != nil {
		return err
	}

	repo := repository.NewPostgresJobRepository(q)
	for _, j := range demoJobs() {
		if err := repo.Upsert(ctx, j); err != nil {
			return err
		}
	}
	return nil
}

func demoJobs() []job.Job {
	eur := "EUR"
	budget := 85000.0
	return []job.Job{
		{
			ID:                  seedID("job", "backend-go"),
			Title:               "Backend Engineer (Go)",
			Company:             "Northwind Labs",
			RequiredSkills:      []string{"go", "postgresql", "redis", "docker"},
			MinYears:            3,
			EducationPreference: "graduate",
			Availability:        "full-time",
			MaxCandidates:       10,
			Currency:            &eur,
			Budget:              &budget,
			Status:              job.StatusOpen,
		},
		{
			ID:                  seedID("job", "data-intern"),
			Title:               "Data Engineering Intern",
			Company:             "Contoso Analytics",
			RequiredSkills:      []string{"python", "sql"},
			MinYears:            0,
			EducationPreference: "student",
			Availability:        "internship",
			MaxCandidates:       5,
			Status:              job.StatusOpen,
		},
		{
			ID:                  seedID("job", "ml-research"),
			Title:               "ML Research Engineer",
			Company:             "Fabrikam AI",
			RequiredSkills:      []string{"python", "pytorch", "kubernetes"},
			MinYears:            5,
			EducationPreference: "phd",
			Availability:        "contract",
			MaxCandidates:       3,
			Status:              job.StatusClosed,
		},
	}
}
