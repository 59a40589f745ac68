package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"talentflow/internal/model"
	"talentflow/internal/store"
	"talentflow/internal/talentflow"
)

const defaultJobPageSize = 10

// listJobs filters by search and status, sorts, then paginates.
func (g *Gateway) listJobs(c *gin.Context) {
	ctx := c.Request.Context()

	page, size, err := pageParams(c, defaultJobPageSize)
	if err != nil {
		g.fail(c, err)
		return
	}

	q := talentflow.Query{Index: "order"}
	switch sort := c.Query("sort"); sort {
	case "", "order":
	case "created", "createdAt":
		q = talentflow.Query{Index: "createdAt", Reverse: true}
	default:
		g.fail(c, invalid("unknown sort %q", sort))
		return
	}

	var status model.JobStatus
	if raw := c.Query("status"); raw != "" {
		status = model.JobStatus(raw)
		if !status.Valid() {
			g.fail(c, invalid("unknown job status %q", raw))
			return
		}
	}
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))

	jobs, err := g.db.Jobs().All(ctx, q)
	if err != nil {
		g.fail(c, err)
		return
	}
	matched := make([]*model.Job, 0, len(jobs))
	for _, j := range jobs {
		if status != "" && j.Status != status {
			continue
		}
		if search != "" && !jobMatches(j, search) {
			continue
		}
		matched = append(matched, j)
	}
	c.JSON(http.StatusOK, paginate(matched, page, size))
}

func jobMatches(j *model.Job, search string) bool {
	if strings.Contains(strings.ToLower(j.Title), search) {
		return true
	}
	for _, tag := range j.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func (g *Gateway) getJob(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	job, err := g.db.Jobs().Get(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{Data: job})
}

// jobRequest distinguishes an absent order from order 0.
type jobRequest struct {
	model.Job
	Order *int `json:"order"`
}

func (g *Gateway) createJob(c *gin.Context) {
	ctx := c.Request.Context()

	var req jobRequest
	if err := bindJSON(c, &req); err != nil {
		g.fail(c, err)
		return
	}
	job := req.Job
	job.ID = 0
	job.Title = strings.TrimSpace(job.Title)
	if job.Title == "" {
		g.fail(c, invalid("title is required"))
		return
	}
	if job.Status == "" {
		job.Status = model.JobStatusActive
	}
	if !job.Status.Valid() {
		g.fail(c, invalid("unknown job status %q", job.Status))
		return
	}
	if job.Type == "" {
		job.Type = model.JobTypeFullTime
	}
	if !job.Type.Valid() {
		g.fail(c, invalid("unknown job type %q", job.Type))
		return
	}
	if job.Slug == "" {
		job.Slug = slugify(job.Title)
	}
	if job.Tags == nil {
		job.Tags = []string{}
	}
	if job.Requirements == nil {
		job.Requirements = []string{}
	}
	if job.RecruiterID == 0 {
		job.RecruiterID = g.actingUser(ctx)
	}
	now := g.clock.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	err := g.db.WithTx(ctx, func(tx *store.Tx) error {
		n, err := tx.Jobs().Count(ctx, nil)
		if err != nil {
			return err
		}
		if req.Order == nil || *req.Order >= n {
			job.Order = n
		} else {
			job.Order = max(*req.Order, 0)
			if err := shiftOrders(ctx, tx, job.Order, n-1, 1); err != nil {
				return err
			}
		}
		_, err = tx.Jobs().Put(ctx, &job)
		return err
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	g.logger.Info("job created", "job_id", job.ID, "order", job.Order)
	c.JSON(http.StatusCreated, &job)
}

// immutableJobFields are ignored in PATCH bodies. Order only changes
// through reorder.
var immutableJobFields = []string{"id", "order", "createdAt", "updatedAt"}

func (g *Gateway) patchJob(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	var fields map[string]any
	if err := bindJSON(c, &fields); err != nil {
		g.fail(c, err)
		return
	}
	for _, f := range immutableJobFields {
		delete(fields, f)
	}
	if err := validateJobFields(fields); err != nil {
		g.fail(c, err)
		return
	}
	fields["updatedAt"] = g.clock.Now()

	job, err := g.db.Jobs().Update(c.Request.Context(), id, fields)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func validateJobFields(fields map[string]any) error {
	if v, ok := fields["title"]; ok {
		if s, _ := v.(string); strings.TrimSpace(s) == "" {
			return invalid("title must be a non-empty string")
		}
	}
	if v, ok := fields["status"]; ok {
		if s, _ := v.(string); !model.JobStatus(s).Valid() {
			return invalid("unknown job status %v", v)
		}
	}
	if v, ok := fields["type"]; ok {
		if s, _ := v.(string); !model.JobType(s).Valid() {
			return invalid("unknown job type %v", v)
		}
	}
	return nil
}

// deleteJob removes the job and closes the gap it leaves in the order.
func (g *Gateway) deleteJob(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	err = g.db.WithTx(ctx, func(tx *store.Tx) error {
		job, err := tx.Jobs().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Jobs().Delete(ctx, id); err != nil {
			return err
		}
		return shiftOrders(ctx, tx, job.Order+1, -1, -1)
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	g.logger.Info("job deleted", "job_id", id)
	c.Status(http.StatusNoContent)
}

type reorderRequest struct {
	FromOrder *int `json:"fromOrder"`
	ToOrder   *int `json:"toOrder"`
}

// reorderJob moves a job to toOrder and shifts the jobs in between by one.
// On an injected fault nothing is written.
func (g *Gateway) reorderJob(c *gin.Context) {
	ctx := c.Request.Context()

	if g.faults.ShouldFault("reorder") {
		g.logger.Warn("simulated reorder failure", "path", c.Request.URL.Path)
		g.fail(c, &talentflow.Fault{Operation: "reorder", Message: "Reorder failed"})
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	var req reorderRequest
	if err := bindJSON(c, &req); err != nil {
		g.fail(c, err)
		return
	}
	if req.FromOrder == nil || req.ToOrder == nil {
		g.fail(c, invalid("fromOrder and toOrder are required"))
		return
	}
	from, to := *req.FromOrder, *req.ToOrder

	var moved *model.Job
	err = g.db.WithTx(ctx, func(tx *store.Tx) error {
		job, err := tx.Jobs().Get(ctx, id)
		if err != nil {
			return err
		}
		n, err := tx.Jobs().Count(ctx, nil)
		if err != nil {
			return err
		}
		if to < 0 || to >= n {
			return invalid("toOrder %d out of range [0, %d)", to, n)
		}
		if job.Order != from {
			return fmt.Errorf("%w: job %d is at order %d, not %d",
				talentflow.ErrConflict, job.ID, job.Order, from)
		}

		switch {
		case from < to:
			err = shiftOrders(ctx, tx, from+1, to, -1)
		case to < from:
			err = shiftOrders(ctx, tx, to, from-1, 1)
		}
		if err != nil {
			return err
		}
		job.Order = to
		job.UpdatedAt = g.clock.Now()
		if _, err := tx.Jobs().Put(ctx, job); err != nil {
			return err
		}
		moved = job
		return nil
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, moved)
}

// shiftOrders adds delta to the order of every job whose order lies in
// [lower, upper]. A negative upper leaves the range open.
func shiftOrders(ctx context.Context, tx *store.Tx, lower, upper, delta int) error {
	r := &talentflow.Range{Lower: lower}
	if upper >= 0 {
		if upper < lower {
			return nil
		}
		r.Upper = upper
	}
	jobs, err := tx.Jobs().All(ctx, talentflow.Query{Index: "order", Range: r})
	if err != nil {
		return err
	}
	for _, j := range jobs {
		j.Order += delta
		if _, err := tx.Jobs().Put(ctx, j); err != nil {
			return err
		}
	}
	return nil
}

// slugify lowercases s and joins its alphanumeric runs with dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
