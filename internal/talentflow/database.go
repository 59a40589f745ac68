package talentflow

import (
	"context"
	"iter"

	"talentflow/internal/model"
)

// Query selects records from a collection through one of its declared
// indexes. The zero Query walks the whole collection in id order.
type Query struct {
	// Index names the key the results are ordered by. Empty means "id".
	Index string

	// Equals restricts results to records whose index key equals the value.
	Equals any

	// Range restricts results to an inclusive key range. Ignored when
	// Equals is set.
	Range *Range

	Offset  int
	Limit   int // 0 means no limit
	Reverse bool
}

// Range is an inclusive key range. A nil bound is open.
type Range struct {
	Lower any
	Upper any
}

// Collection provides keyed access to one kind of record.
type Collection[T any] interface {
	// Put inserts the record, or replaces it when its id is already taken.
	// A zero id is assigned a fresh one, which is written back into rec.
	Put(ctx context.Context, rec *T) (int64, error)

	// Get returns ErrNotFound when no record has the id.
	Get(ctx context.Context, id int64) (*T, error)

	// Query returns a lazy sequence ordered by the query's index, ties
	// broken by id. Each range over the sequence re-runs the query.
	Query(ctx context.Context, q Query) iter.Seq2[*T, error]

	// All collects a Query into a slice.
	All(ctx context.Context, q Query) ([]*T, error)

	// Update merges fields into the stored record by JSON field name.
	// The id field is never changed.
	Update(ctx context.Context, id int64, fields map[string]any) (*T, error)

	// Delete removes the record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id int64) error

	// Count counts records matching pred, or every record when pred is nil.
	Count(ctx context.Context, pred func(*T) bool) (int, error)

	// BulkPut puts each record in turn. It stops at the first failure;
	// records already written stay written.
	BulkPut(ctx context.Context, recs []*T) ([]int64, error)
}

// Collections is the set of collections making up the TalentFlow data set.
type Collections interface {
	Users() Collection[model.User]
	Jobs() Collection[model.Job]
	Candidates() Collection[model.Candidate]
	Assessments() Collection[model.Assessment]
	AssessmentResponses() Collection[model.AssessmentResponse]
}

// Transactional is a Collections that can group writes so they all commit or
// none do. Inside fn only the collections passed to fn may be used.
type Transactional interface {
	Collections
	Atomically(ctx context.Context, fn func(Collections) error) error
}
