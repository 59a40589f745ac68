package talentflow_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"talentflow/internal/model"
	"talentflow/internal/store"
	"talentflow/internal/talentflow"
	"talentflow/internal/testutil"
)

var errCandidatesDown = errors.New("candidates unavailable")

type brokenCandidates struct {
	talentflow.Collection[model.Candidate]
}

func (brokenCandidates) BulkPut(context.Context, []*model.Candidate) ([]int64, error) {
	return nil, errCandidatesDown
}

type brokenCollections struct {
	talentflow.Collections
}

func (b brokenCollections) Candidates() talentflow.Collection[model.Candidate] {
	return brokenCandidates{b.Collections.Candidates()}
}

// brokenStore fails every candidate write made inside a transaction.
type brokenStore struct {
	*store.Store
}

func (b brokenStore) Atomically(ctx context.Context, fn func(talentflow.Collections) error) error {
	return b.Store.Atomically(ctx, func(c talentflow.Collections) error {
		return fn(brokenCollections{c})
	})
}

func TestSeeder_Seed(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds the demo data set", func(t *testing.T) {
		db := testutil.NewTestStore(t)
		clock := testutil.FixedClock()
		seeder := talentflow.NewSeeder(db, talentflow.DefaultSeedCounts(), clock, rand.New(rand.NewPCG(7, 7)), talentflow.NewNopLogger())

		seeded, err := seeder.Seed(ctx)
		if err != nil {
			t.Fatalf("Seed() error = %v", err)
		}
		if !seeded {
			t.Fatal("Seed() = false on empty store, want true")
		}

		counts := map[string]int{}
		counts["users"], _ = db.Users().Count(ctx, nil)
		counts["jobs"], _ = db.Jobs().Count(ctx, nil)
		counts["candidates"], _ = db.Candidates().Count(ctx, nil)
		counts["assessments"], _ = db.Assessments().Count(ctx, nil)
		want := map[string]int{"users": 4, "jobs": 1000, "candidates": 50, "assessments": 10}
		for k, v := range want {
			if counts[k] != v {
				t.Errorf("%s = %d, want %d", k, counts[k], v)
			}
		}

		jobs, err := db.Jobs().All(ctx, talentflow.Query{Index: "order"})
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		oldest := clock.Now().Add(-30 * 24 * time.Hour)
		for i, j := range jobs {
			if j.Order != i {
				t.Fatalf("jobs[%d].Order = %d, want dense order", i, j.Order)
			}
			if j.CreatedAt.Before(oldest) || j.CreatedAt.After(clock.Now()) {
				t.Errorf("job %d CreatedAt %v outside last 30 days", j.ID, j.CreatedAt)
			}
		}

		recruiters, _ := db.Users().All(ctx, talentflow.Query{Index: "role", Equals: model.RoleRecruiter})
		if len(recruiters) != 2 || jobs[0].RecruiterID != recruiters[0].ID {
			t.Errorf("jobs not owned by first recruiter: recruiters=%d, recruiterId=%d", len(recruiters), jobs[0].RecruiterID)
		}

		assessments, _ := db.Assessments().All(ctx, talentflow.Query{})
		for i, a := range assessments {
			if a.JobID != jobs[i].ID {
				t.Errorf("assessment %d JobID = %d, want %d", i, a.JobID, jobs[i].ID)
			}
			qs := a.Questions()
			if len(qs) != 1 || !qs[0].Required || qs[0].Type != model.QuestionShortText {
				t.Errorf("assessment %d questions = %+v, want one required short-text", i, qs)
			}
		}
	})

	t.Run("skips when users exist", func(t *testing.T) {
		db := testutil.NewTestStore(t)
		counts := talentflow.SeedCounts{Recruiters: 1, Jobs: 5, Candidates: 3, Assessments: 1}
		seeder := talentflow.NewSeeder(db, counts, testutil.FixedClock(), nil, talentflow.NewNopLogger())

		if _, err := seeder.Seed(ctx); err != nil {
			t.Fatalf("first Seed() error = %v", err)
		}
		seeded, err := seeder.Seed(ctx)
		if err != nil {
			t.Fatalf("second Seed() error = %v", err)
		}
		if seeded {
			t.Error("second Seed() = true, want false")
		}
		if n, _ := db.Jobs().Count(ctx, nil); n != 5 {
			t.Errorf("jobs = %d after reseed, want 5", n)
		}
	})

	t.Run("same source gives same data", func(t *testing.T) {
		counts := talentflow.SeedCounts{Recruiters: 1, Jobs: 20, Candidates: 10}
		statuses := func() []model.JobStatus {
			db := testutil.NewTestStore(t)
			seeder := talentflow.NewSeeder(db, counts, testutil.FixedClock(), rand.New(rand.NewPCG(3, 4)), talentflow.NewNopLogger())
			if _, err := seeder.Seed(ctx); err != nil {
				t.Fatalf("Seed() error = %v", err)
			}
			jobs, _ := db.Jobs().All(ctx, talentflow.Query{})
			out := make([]model.JobStatus, len(jobs))
			for i, j := range jobs {
				out[i] = j.Status
			}
			return out
		}

		a, b := statuses(), statuses()
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("status %d differs between runs: %s vs %s", i, a[i], b[i])
			}
		}
	})

	t.Run("failure writes nothing", func(t *testing.T) {
		db := testutil.NewTestStore(t)
		counts := talentflow.SeedCounts{Recruiters: 1, Applicants: 1, Jobs: 5, Candidates: 3}

		seeded, err := talentflow.NewSeeder(brokenStore{db}, counts, testutil.FixedClock(), nil, talentflow.NewNopLogger()).Seed(ctx)
		if !errors.Is(err, errCandidatesDown) {
			t.Fatalf("Seed() error = %v, want %v", err, errCandidatesDown)
		}
		if seeded {
			t.Error("Seed() = true on failure")
		}
		for name, count := range map[string]func() (int, error){
			"users": func() (int, error) { return db.Users().Count(ctx, nil) },
			"jobs":  func() (int, error) { return db.Jobs().Count(ctx, nil) },
		} {
			if n, err := count(); err != nil || n != 0 {
				t.Errorf("%s = %d (err %v) after failed seed, want 0", name, n, err)
			}
		}

		seeded, err = talentflow.NewSeeder(db, counts, testutil.FixedClock(), nil, talentflow.NewNopLogger()).Seed(ctx)
		if err != nil || !seeded {
			t.Fatalf("retry Seed() = %v, %v; want true, nil", seeded, err)
		}
		if n, _ := db.Candidates().Count(ctx, nil); n != 3 {
			t.Errorf("candidates = %d after retry, want 3", n)
		}
	})
}
