package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"talentflow/internal/model"
	"talentflow/internal/talentflow"
)

const (
	newApplicationWindow = 7 * 24 * time.Hour
	recentLimit          = 5
)

// Stats summarizes the data set for the dashboard.
type Stats struct {
	TotalJobs          int                `json:"totalJobs"`
	ActiveJobs         int                `json:"activeJobs"`
	TotalCandidates    int                `json:"totalCandidates"`
	NewApplications    int                `json:"newApplications"`
	HiredCandidates    int                `json:"hiredCandidates"`
	RejectedCandidates int                `json:"rejectedCandidates"`
	RecentJobs         []*model.Job       `json:"recentJobs"`
	RecentCandidates   []*model.Candidate `json:"recentCandidates"`
}

func (g *Gateway) stats(c *gin.Context) {
	ctx := c.Request.Context()
	since := g.clock.Now().Add(-newApplicationWindow)

	var st Stats
	var err error
	if st.TotalJobs, err = g.db.Jobs().Count(ctx, nil); err != nil {
		g.fail(c, err)
		return
	}
	if st.ActiveJobs, err = g.db.Jobs().Count(ctx, func(j *model.Job) bool {
		return j.Status == model.JobStatusActive
	}); err != nil {
		g.fail(c, err)
		return
	}

	candidates, err := g.db.Candidates().All(ctx, talentflow.Query{})
	if err != nil {
		g.fail(c, err)
		return
	}
	st.TotalCandidates = len(candidates)
	for _, cand := range candidates {
		if !cand.AppliedAt.Before(since) {
			st.NewApplications++
		}
		switch cand.Stage {
		case model.StageHired:
			st.HiredCandidates++
		case model.StageRejected:
			st.RejectedCandidates++
		}
	}

	if st.RecentJobs, err = g.db.Jobs().All(ctx, talentflow.Query{
		Index: "createdAt", Reverse: true, Limit: recentLimit,
	}); err != nil {
		g.fail(c, err)
		return
	}
	if st.RecentCandidates, err = g.db.Candidates().All(ctx, talentflow.Query{
		Index: "appliedAt", Reverse: true, Limit: recentLimit,
	}); err != nil {
		g.fail(c, err)
		return
	}
	if st.RecentJobs == nil {
		st.RecentJobs = []*model.Job{}
	}
	if st.RecentCandidates == nil {
		st.RecentCandidates = []*model.Candidate{}
	}
	c.JSON(http.StatusOK, dataResponse{Data: st})
}
