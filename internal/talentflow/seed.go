package talentflow

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"talentflow/internal/model"
)

// SeedCounts controls how much sample data Seed creates.
type SeedCounts struct {
	Recruiters  int
	Applicants  int
	Jobs        int
	Candidates  int
	Assessments int
}

// DefaultSeedCounts matches the demo data set.
func DefaultSeedCounts() SeedCounts {
	return SeedCounts{
		Recruiters:  2,
		Applicants:  2,
		Jobs:        1000,
		Candidates:  50,
		Assessments: 10,
	}
}

var (
	seedJobTitles = []string{
		"Frontend Developer", "Backend Engineer", "Full Stack Developer", "DevOps Engineer",
		"Product Manager", "UI/UX Designer", "Data Scientist", "Mobile Developer",
	}
	seedLocations = []string{"San Francisco", "New York", "Remote", "London"}
	seedTags      = [][]string{{"Tech"}, {"Remote"}, {"Tech", "Full-time"}}

	seedRecruiters = []struct{ email, name string }{
		{"recruiter@talentflow.com", "Sarah Johnson"},
		{"hr@talentflow.com", "Michael Chen"},
	}
	seedApplicants = []struct{ email, name string }{
		{"john.doe@email.com", "John Doe"},
		{"jane.smith@email.com", "Jane Smith"},
	}

	seedAssessmentKinds = []struct{ title, focus, area string }{
		{"Technical Skills", "technical expertise", "technical"},
		{"Behavioral Interview", "soft skills", "behavioral"},
		{"Coding Test", "coding ability", "coding"},
		{"Design Review", "design skills", "design"},
		{"Presentation", "presentation skills", "presentation"},
	}
)

// SeedPassword is the password given to every seeded user.
const SeedPassword = "password123"

// Seeder fills an empty data set with demo records.
type Seeder struct {
	db     Collections
	counts SeedCounts
	clock  Clock
	rng    *rand.Rand
	logger Logger
}

// NewSeeder creates a Seeder. rng makes the generated data reproducible;
// nil uses a randomly seeded source.
func NewSeeder(db Collections, counts SeedCounts, clock Clock, rng *rand.Rand, logger Logger) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Seeder{db: db, counts: counts, clock: clock, rng: rng, logger: logger}
}

// Seed populates the collections when the users collection is empty.
// It reports whether anything was written. When the store is Transactional
// a failed seed writes nothing.
func (s *Seeder) Seed(ctx context.Context) (bool, error) {
	tx, ok := s.db.(Transactional)
	if !ok {
		return s.seed(ctx, s.db)
	}
	var seeded bool
	err := tx.Atomically(ctx, func(db Collections) error {
		var err error
		seeded, err = s.seed(ctx, db)
		return err
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

func (s *Seeder) seed(ctx context.Context, db Collections) (bool, error) {
	n, err := db.Users().Count(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		s.logger.Debug("seed skipped, users present", "users", n)
		return false, nil
	}

	now := s.clock.Now()

	recruiterIDs, err := db.Users().BulkPut(ctx, s.users(s.counts.Recruiters, model.RoleRecruiter, now))
	if err != nil {
		return false, fmt.Errorf("seeding recruiters: %w", err)
	}
	if _, err := db.Users().BulkPut(ctx, s.users(s.counts.Applicants, model.RoleApplicant, now)); err != nil {
		return false, fmt.Errorf("seeding applicants: %w", err)
	}

	var recruiterID int64
	if len(recruiterIDs) > 0 {
		recruiterID = recruiterIDs[0]
	}
	jobIDs, err := db.Jobs().BulkPut(ctx, s.jobs(recruiterID, now))
	if err != nil {
		return false, fmt.Errorf("seeding jobs: %w", err)
	}

	if _, err := db.Candidates().BulkPut(ctx, s.candidates(jobIDs, now)); err != nil {
		return false, fmt.Errorf("seeding candidates: %w", err)
	}
	if _, err := db.Assessments().BulkPut(ctx, s.assessments(jobIDs, now)); err != nil {
		return false, fmt.Errorf("seeding assessments: %w", err)
	}

	s.logger.Info("database seeded",
		"users", len(recruiterIDs)+s.counts.Applicants,
		"jobs", len(jobIDs),
		"candidates", s.counts.Candidates,
		"assessments", s.counts.Assessments,
	)
	return true, nil
}

func (s *Seeder) users(count int, role model.Role, now time.Time) []*model.User {
	known := seedApplicants
	if role == model.RoleRecruiter {
		known = seedRecruiters
	}
	users := make([]*model.User, 0, count)
	for i := range count {
		email := fmt.Sprintf("%s%d@talentflow.com", role, i+1)
		name := fmt.Sprintf("Demo %s %d", role, i+1)
		if i < len(known) {
			email, name = known[i].email, known[i].name
		}
		users = append(users, &model.User{
			Email:     email,
			Password:  SeedPassword,
			Name:      name,
			Role:      role,
			CreatedAt: now,
		})
	}
	return users
}

func (s *Seeder) jobs(recruiterID int64, now time.Time) []*model.Job {
	jobs := make([]*model.Job, 0, s.counts.Jobs)
	for i := range s.counts.Jobs {
		status := model.JobStatusArchived
		if s.rng.Float64() < 0.7 {
			status = model.JobStatusActive
		}
		jobs = append(jobs, &model.Job{
			Title:        seedJobTitles[i%len(seedJobTitles)],
			Slug:         fmt.Sprintf("job-%d", i+1),
			Description:  "Join our dynamic team and make an impact on millions of users worldwide.",
			Requirements: []string{"3+ years experience", "Strong technical skills", "Team player"},
			Status:       status,
			Tags:         append([]string(nil), seedTags[s.rng.IntN(len(seedTags))]...),
			Order:        i,
			Salary:       "$80,000 - $120,000",
			Location:     seedLocations[s.rng.IntN(len(seedLocations))],
			Type:         model.JobTypeFullTime,
			RecruiterID:  recruiterID,
			CreatedAt:    s.pastTime(now, 30*24*time.Hour),
			UpdatedAt:    now,
		})
	}
	return jobs
}

func (s *Seeder) candidates(jobIDs []int64, now time.Time) []*model.Candidate {
	candidates := make([]*model.Candidate, 0, s.counts.Candidates)
	for i := range s.counts.Candidates {
		var jobID int64
		if len(jobIDs) > 0 {
			jobID = jobIDs[s.rng.IntN(len(jobIDs))]
		}
		candidates = append(candidates, &model.Candidate{
			Name:      fmt.Sprintf("Candidate %d", i+1),
			Email:     fmt.Sprintf("candidate%d@email.com", i+1),
			Phone:     fmt.Sprintf("+1-555-%04d", s.rng.IntN(10000)),
			Stage:     model.Stages[s.rng.IntN(len(model.Stages))],
			JobID:     jobID,
			AppliedAt: s.pastTime(now, 60*24*time.Hour),
			Notes:     []model.CandidateNote{},
			Timeline:  []model.StageChange{},
		})
	}
	return candidates
}

func (s *Seeder) assessments(jobIDs []int64, now time.Time) []*model.Assessment {
	if len(jobIDs) == 0 {
		return nil
	}
	assessments := make([]*model.Assessment, 0, s.counts.Assessments)
	for i := range s.counts.Assessments {
		kind := seedAssessmentKinds[i%len(seedAssessmentKinds)]
		assessments = append(assessments, &model.Assessment{
			JobID:       jobIDs[i%len(jobIDs)],
			Title:       "Assessment for " + kind.title,
			Description: "Evaluation for " + kind.focus + ".",
			Sections: []model.AssessmentSection{{
				ID:    fmt.Sprintf("section-%d", i+1),
				Title: fmt.Sprintf("Section %d", i+1),
				Order: 1,
				Questions: []model.Question{{
					ID:       fmt.Sprintf("q-%d-1", i+1),
					Type:     model.QuestionShortText,
					Question: fmt.Sprintf("Question %d-1 for %s evaluation", i+1, kind.area),
					Required: true,
					Order:    1,
				}},
			}},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return assessments
}

// pastTime returns a uniformly random instant in (now-window, now].
func (s *Seeder) pastTime(now time.Time, window time.Duration) time.Time {
	return now.Add(-time.Duration(s.rng.Int64N(int64(window))))
}
