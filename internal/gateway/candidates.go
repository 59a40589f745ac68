package gateway

import (
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"talentflow/internal/model"
	"talentflow/internal/store"
	"talentflow/internal/talentflow"
)

const defaultCandidatePageSize = 10

func (g *Gateway) listCandidates(c *gin.Context) {
	ctx := c.Request.Context()

	page, size, err := pageParams(c, defaultCandidatePageSize)
	if err != nil {
		g.fail(c, err)
		return
	}

	q := talentflow.Query{}
	switch sort := c.Query("sort"); sort {
	case "", "id":
	case "applied", "appliedAt":
		q = talentflow.Query{Index: "appliedAt", Reverse: true}
	default:
		g.fail(c, invalid("unknown sort %q", sort))
		return
	}

	var stage model.Stage
	if raw := c.Query("stage"); raw != "" {
		stage = model.Stage(raw)
		if !stage.Valid() {
			g.fail(c, invalid("unknown stage %q", raw))
			return
		}
	}
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))

	candidates, err := g.db.Candidates().All(ctx, q)
	if err != nil {
		g.fail(c, err)
		return
	}
	matched := make([]*model.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if stage != "" && cand.Stage != stage {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(cand.Name), search) &&
			!strings.Contains(strings.ToLower(cand.Email), search) {
			continue
		}
		matched = append(matched, cand)
	}
	c.JSON(http.StatusOK, paginate(matched, page, size))
}

func (g *Gateway) getCandidate(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	cand, err := g.db.Candidates().Get(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{Data: cand})
}

func (g *Gateway) createCandidate(c *gin.Context) {
	var cand model.Candidate
	if err := bindJSON(c, &cand); err != nil {
		g.fail(c, err)
		return
	}
	cand.ID = 0
	cand.Name = strings.TrimSpace(cand.Name)
	cand.Email = strings.TrimSpace(cand.Email)
	switch {
	case cand.Name == "":
		g.fail(c, invalid("name is required"))
		return
	case cand.Email == "":
		g.fail(c, invalid("email is required"))
		return
	case cand.JobID == 0:
		g.fail(c, invalid("jobId is required"))
		return
	}
	if cand.Stage == "" {
		cand.Stage = model.StageApplied
	}
	if !cand.Stage.Valid() {
		g.fail(c, invalid("unknown stage %q", cand.Stage))
		return
	}
	cand.AppliedAt = g.clock.Now()
	cand.Notes = []model.CandidateNote{}
	cand.Timeline = []model.StageChange{}

	if _, err := g.db.Candidates().Put(c.Request.Context(), &cand); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, &cand)
}

// immutableCandidateFields are ignored in PATCH bodies. The timeline and
// notes only grow through their own operations.
var immutableCandidateFields = []string{"id", "appliedAt", "timeline", "notes"}

// patchCandidate applies a partial update. A change of stage appends exactly
// one StageChange in the same transaction.
func (g *Gateway) patchCandidate(c *gin.Context) {
	ctx := c.Request.Context()
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
	for _, f := range immutableCandidateFields {
		delete(fields, f)
	}

	var newStage model.Stage
	if v, ok := fields["stage"]; ok {
		s, _ := v.(string)
		newStage = model.Stage(s)
		if !newStage.Valid() {
			g.fail(c, invalid("unknown stage %v", v))
			return
		}
	}
	for _, f := range []string{"name", "email"} {
		if v, ok := fields[f]; ok {
			if s, _ := v.(string); strings.TrimSpace(s) == "" {
				g.fail(c, invalid("%s must be a non-empty string", f))
				return
			}
		}
	}
	actor := g.actingUser(ctx)

	var updated *model.Candidate
	err = g.db.WithTx(ctx, func(tx *store.Tx) error {
		cand, err := tx.Candidates().Get(ctx, id)
		if err != nil {
			return err
		}
		if newStage != "" && newStage != cand.Stage {
			cand.Timeline = append(cand.Timeline, model.StageChange{
				ID:        g.ids.New(),
				FromStage: cand.Stage,
				ToStage:   newStage,
				Status:    "completed",
				ChangedBy: actor,
				ChangedAt: g.clock.Now(),
				Notes:     "Stage changed to " + string(newStage),
			})
			if _, err := tx.Candidates().Put(ctx, cand); err != nil {
				return err
			}
		}
		updated, err = tx.Candidates().Update(ctx, id, fields)
		return err
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (g *Gateway) candidateTimeline(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	cand, err := g.db.Candidates().Get(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	timeline := slices.Clone(cand.Timeline)
	if timeline == nil {
		timeline = []model.StageChange{}
	}
	slices.SortStableFunc(timeline, func(a, b model.StageChange) int {
		return a.ChangedAt.Compare(b.ChangedAt)
	})
	c.JSON(http.StatusOK, dataResponse{Data: timeline})
}

var mentionPattern = regexp.MustCompile(`@(\w[\w.-]*)`)

// mentions returns the distinct @handles in content, in order of appearance.
func mentions(content string) []string {
	out := []string{}
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		handle := strings.TrimRight(m[1], ".-")
		if handle != "" && !slices.Contains(out, handle) {
			out = append(out, handle)
		}
	}
	return out
}

type noteRequest struct {
	Content  string `json:"content"`
	AuthorID int64  `json:"authorId"`
}

func (g *Gateway) addCandidateNote(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := pathID(c, "id")
	if err != nil {
		g.fail(c, err)
		return
	}
	var req noteRequest
	if err := bindJSON(c, &req); err != nil {
		g.fail(c, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		g.fail(c, invalid("content is required"))
		return
	}
	if req.AuthorID == 0 {
		req.AuthorID = g.actingUser(ctx)
	}
	note := model.CandidateNote{
		ID:        g.ids.New(),
		Content:   content,
		AuthorID:  req.AuthorID,
		CreatedAt: g.clock.Now(),
		Mentions:  mentions(content),
	}

	err = g.db.WithTx(ctx, func(tx *store.Tx) error {
		cand, err := tx.Candidates().Get(ctx, id)
		if err != nil {
			return err
		}
		cand.Notes = append(cand.Notes, note)
		_, err = tx.Candidates().Put(ctx, cand)
		return err
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dataResponse{Data: note})
}
