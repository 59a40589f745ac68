package gateway

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"talentflow/internal/model"
	"talentflow/internal/talentflow"
	"talentflow/internal/testutil"
)

// TestReorderKeepsPermutation checks that any sequence of moves leaves the
// orders a permutation of [0..N) with the moved job at its target.
func TestReorderKeepsPermutation(t *testing.T) {
	const n = 8
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("reorder preserves a dense order", prop.ForAll(
		func(moves []int) bool {
			db := testutil.NewTestStore(t)
			putJobs(t, db, n)
			f := newFixture(t, db, nil)

			for i := 0; i+1 < len(moves); i += 2 {
				from, to := moves[i], moves[i+1]
				var id int64
				for jobID, o := range ordersByID(t, db) {
					if o == from {
						id = jobID
					}
				}
				rec := f.do(t, http.MethodPatch, fmt.Sprintf("/api/jobs/%d/reorder", id),
					map[string]int{"fromOrder": from, "toOrder": to})
				if rec.Code != http.StatusOK {
					return false
				}
				if ordersByID(t, db)[id] != to {
					return false
				}
			}

			seen := make(map[int]bool)
			for _, o := range ordersByID(t, db) {
				if o < 0 || o >= n || seen[o] {
					return false
				}
				seen[o] = true
			}
			return len(seen) == n
		},
		gen.SliceOfN(10, gen.IntRange(0, n-1)),
	))

	properties.TestingRun(t)
}

// TestPaginationConsistency checks that walking every page reproduces the
// filtered, sorted list exactly once.
func TestPaginationConsistency(t *testing.T) {
	db := testutil.NewSeededStore(t, talentflow.SeedCounts{Recruiters: 1, Jobs: 57})
	f := newFixture(t, db, nil)

	full := func(query string) []model.Job {
		return decode[jobPage](t, f.do(t, http.MethodGet, "/api/jobs?pageSize=1000&"+query, nil)).Data
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("pages concatenate to the full result", prop.ForAll(
		func(size int, query string) bool {
			want := full(query)

			var got []model.Job
			totalPages := -1
			for page := 1; ; page++ {
				rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/jobs?page=%d&pageSize=%d&%s", page, size, query), nil)
				if rec.Code != http.StatusOK {
					return false
				}
				p := decode[jobPage](t, rec)
				if p.Meta.Total != len(want) || p.Meta.TotalPages != (len(want)+size-1)/size {
					return false
				}
				totalPages = p.Meta.TotalPages
				if len(p.Data) == 0 {
					break
				}
				got = append(got, p.Data...)
			}
			if len(got) != len(want) || (len(want) > 0 && totalPages == 0) {
				return false
			}
			for i := range want {
				if got[i].ID != want[i].ID {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 25),
		gen.OneConstOf("", "status=active", "status=archived", "search=engineer", "sort=created", "search=design&sort=created"),
	))

	properties.TestingRun(t)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := paginate(items, 2, 2)
	if fmt.Sprint(p.Data) != "[3 4]" || p.Meta.TotalPages != 3 || p.Meta.Total != 5 {
		t.Errorf("page 2 = %v %+v", p.Data, p.Meta)
	}
	p = paginate(items, 9, 2)
	if p.Data == nil || len(p.Data) != 0 {
		t.Errorf("page past the end = %#v, want empty slice", p.Data)
	}
	p = paginate([]int{}, 1, 10)
	if p.Meta.TotalPages != 0 {
		t.Errorf("empty totalPages = %d", p.Meta.TotalPages)
	}
}

func TestPaginate_ExtremeValues(t *testing.T) {
	items := []int{1, 2, 3}

	tests := []struct {
		name       string
		page, size int
		wantData   string
		wantPages  int
	}{
		{"huge page", math.MaxInt, 10, "[]", 1},
		{"huge page and size", math.MaxInt, math.MaxInt, "[]", 1},
		{"huge size", 1, math.MaxInt, "[1 2 3]", 1},
		{"large page times size", 1 << 40, 1 << 40, "[]", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paginate(items, tt.page, tt.size)
			if fmt.Sprint(p.Data) != tt.wantData || p.Meta.TotalPages != tt.wantPages {
				t.Errorf("paginate(%d, %d) = %v %+v", tt.page, tt.size, p.Data, p.Meta)
			}
		})
	}
}

func TestListJobs_ExtremePageParams(t *testing.T) {
	db := testutil.NewSeededStore(t, talentflow.SeedCounts{Recruiters: 1, Jobs: 5})
	f := newFixture(t, db, nil)

	for _, q := range []string{
		"page=1000000000000000000&pageSize=10",
		"page=1&pageSize=" + strconv.Itoa(math.MaxInt),
		"page=" + strconv.Itoa(math.MaxInt) + "&pageSize=" + strconv.Itoa(math.MaxInt),
	} {
		t.Run(q, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/jobs?"+q, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			p := decode[jobPage](t, rec)
			if p.Meta.TotalPages != 1 {
				t.Errorf("totalPages = %d, want 1", p.Meta.TotalPages)
			}
		})
	}

	rec := f.do(t, http.MethodGet, "/api/jobs?page=99999999999999999999", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range page status = %d, want 400", rec.Code)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Senior Go Developer":     "senior-go-developer",
		"  C++ / Rust Engineer  ": "c-rust-engineer",
		"QA":                      "qa",
		"!!!":                     "",
	}
	for in, want := range tests {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMentions(t *testing.T) {
	got := mentions("ping @ana, @bo.b- and @ana again")
	want := []string{"ana", "bo.b"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("mentions = %v, want %v", got, want)
	}
}
