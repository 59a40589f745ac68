package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"talentflow/internal/model"
	"talentflow/internal/store"
	"talentflow/internal/talentflow"
)

// SubmissionPrefix is the blob key prefix under which raw assessment
// submissions are kept.
const SubmissionPrefix = "assessment_responses/"

// findAssessment returns the assessment attached to jobID, or nil.
func findAssessment(ctx context.Context, db talentflow.Collections, jobID int64) (*model.Assessment, error) {
	found, err := db.Assessments().All(ctx, talentflow.Query{Index: "jobId", Equals: jobID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (g *Gateway) getAssessment(c *gin.Context) {
	jobID, err := pathID(c, "jobId")
	if err != nil {
		g.fail(c, err)
		return
	}
	a, err := findAssessment(c.Request.Context(), g.db, jobID)
	if err != nil {
		g.fail(c, err)
		return
	}
	if a == nil {
		c.JSON(http.StatusOK, dataResponse{Data: nil})
		return
	}
	c.JSON(http.StatusOK, a)
}

// assessmentQuestions never fails: a missing assessment, or a job id that
// cannot exist, has no questions.
func (g *Gateway) assessmentQuestions(c *gin.Context) {
	questions := []model.Question{}
	jobID, err := strconv.ParseInt(c.Param("jobId"), 10, 64)
	if err == nil {
		a, err := findAssessment(c.Request.Context(), g.db, jobID)
		if err != nil {
			g.logger.Warn("looking up assessment failed", "job_id", jobID, "error", err)
		} else if a != nil {
			questions = a.Questions()
		}
	}
	c.JSON(http.StatusOK, dataResponse{Data: questions})
}

// putAssessment creates or replaces the assessment of a job.
func (g *Gateway) putAssessment(c *gin.Context) {
	ctx := c.Request.Context()
	jobID, err := pathID(c, "jobId")
	if err != nil {
		g.fail(c, err)
		return
	}
	var a model.Assessment
	if err := bindJSON(c, &a); err != nil {
		g.fail(c, err)
		return
	}
	a.JobID = jobID
	if a.Sections == nil {
		a.Sections = []model.AssessmentSection{}
	}
	for i := range a.Sections {
		s := &a.Sections[i]
		if s.ID == "" {
			s.ID = g.ids.New()
		}
		if s.Questions == nil {
			s.Questions = []model.Question{}
		}
		for j := range s.Questions {
			if s.Questions[j].ID == "" {
				s.Questions[j].ID = g.ids.New()
			}
		}
	}
	if dangling := a.DanglingConditions(); len(dangling) > 0 {
		g.fail(c, invalid("conditional logic refers to unknown questions in %s", strings.Join(dangling, ", ")))
		return
	}

	now := g.clock.Now()
	err = g.db.WithTx(ctx, func(tx *store.Tx) error {
		existing, err := findAssessment(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if existing != nil {
			a.ID = existing.ID
			a.CreatedAt = existing.CreatedAt
		} else {
			a.ID = 0
			a.CreatedAt = now
		}
		a.UpdatedAt = now
		_, err = tx.Assessments().Put(ctx, &a)
		return err
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, &a)
}

type submitRequest struct {
	CandidateID int64                    `json:"candidateId"`
	Responses   []model.QuestionResponse `json:"responses"`
}

// submission is the blob written for every submit, holding the request body
// as received.
type submission struct {
	JobID       int64           `json:"jobId"`
	Response    json.RawMessage `json:"response"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// SubmissionKey names the blob of a submission for jobID made at t.
func SubmissionKey(jobID int64, t time.Time) string {
	return fmt.Sprintf("%s%d_%d", SubmissionPrefix, jobID, t.UnixMilli())
}

// submitAssessment stores the raw submission blob and, when the job has an
// assessment, a structured AssessmentResponse. A job without an assessment
// still accepts submissions. The blob is removed again if the record does
// not commit.
func (g *Gateway) submitAssessment(c *gin.Context) {
	ctx := c.Request.Context()
	jobID, err := pathID(c, "jobId")
	if err != nil {
		g.fail(c, err)
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		g.fail(c, invalid("reading request body: %v", err))
		return
	}
	var req submitRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		g.fail(c, invalid("malformed request body: %v", err))
		return
	}
	if req.Responses == nil {
		req.Responses = []model.QuestionResponse{}
	}

	now := g.clock.Now()
	key := SubmissionKey(jobID, now)
	blobWritten := false
	err = g.db.WithTx(ctx, func(tx *store.Tx) error {
		a, err := findAssessment(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if a != nil {
			resp := &model.AssessmentResponse{
				AssessmentID: a.ID,
				CandidateID:  req.CandidateID,
				Responses:    req.Responses,
				SubmittedAt:  now,
				Completed:    true,
			}
			if _, err := tx.AssessmentResponses().Put(ctx, resp); err != nil {
				return err
			}
		}

		doc, err := json.Marshal(submission{JobID: jobID, Response: raw, SubmittedAt: now})
		if err != nil {
			return err
		}
		if err := g.blobs.Put(ctx, key, bytes.NewReader(doc), int64(len(doc))); err != nil {
			if errors.Is(err, talentflow.ErrStorage) {
				return err
			}
			return fmt.Errorf("%w: writing submission: %w", talentflow.ErrStorage, err)
		}
		blobWritten = true
		return nil
	})
	if err != nil {
		if blobWritten {
			if derr := g.blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
				g.logger.Warn("removing orphaned submission failed", "key", key, "error", derr)
			}
		}
		g.fail(c, err)
		return
	}
	g.logger.Info("assessment submitted", "job_id", jobID, "candidate_id", req.CandidateID)
	c.JSON(http.StatusOK, gin.H{"success": true, "submittedAt": now})
}
