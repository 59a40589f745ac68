package store

import "talentflow/internal/model"

var userSchema = &schema[model.User]{
	table: "users",
	id:    func(u *model.User) *int64 { return &u.ID },
	indexes: []index[model.User]{
		{name: "email", column: "email", key: func(u *model.User) any { return u.Email }},
		{name: "role", column: "role", key: func(u *model.User) any { return u.Role }},
	},
}

var jobSchema = &schema[model.Job]{
	table: "jobs",
	id:    func(j *model.Job) *int64 { return &j.ID },
	indexes: []index[model.Job]{
		{name: "slug", column: "slug", key: func(j *model.Job) any { return j.Slug }},
		{name: "status", column: "status", key: func(j *model.Job) any { return j.Status }},
		{name: "recruiterId", column: "recruiter_id", key: func(j *model.Job) any { return j.RecruiterID }},
		{name: "order", column: "sort_order", key: func(j *model.Job) any { return j.Order }},
		{name: "createdAt", column: "created_at", key: func(j *model.Job) any { return j.CreatedAt }},
	},
}

var candidateSchema = &schema[model.Candidate]{
	table: "candidates",
	id:    func(c *model.Candidate) *int64 { return &c.ID },
	indexes: []index[model.Candidate]{
		{name: "email", column: "email", key: func(c *model.Candidate) any { return c.Email }},
		{name: "jobId", column: "job_id", key: func(c *model.Candidate) any { return c.JobID }},
		{name: "stage", column: "stage", key: func(c *model.Candidate) any { return c.Stage }},
		{name: "appliedAt", column: "applied_at", key: func(c *model.Candidate) any { return c.AppliedAt }},
	},
}

var assessmentSchema = &schema[model.Assessment]{
	table: "assessments",
	id:    func(a *model.Assessment) *int64 { return &a.ID },
	indexes: []index[model.Assessment]{
		{name: "jobId", column: "job_id", key: func(a *model.Assessment) any { return a.JobID }},
		{name: "createdAt", column: "created_at", key: func(a *model.Assessment) any { return a.CreatedAt }},
	},
}

var responseSchema = &schema[model.AssessmentResponse]{
	table: "assessment_responses",
	id:    func(r *model.AssessmentResponse) *int64 { return &r.ID },
	indexes: []index[model.AssessmentResponse]{
		{name: "assessmentId", column: "assessment_id", key: func(r *model.AssessmentResponse) any { return r.AssessmentID }},
		{name: "candidateId", column: "candidate_id", key: func(r *model.AssessmentResponse) any { return r.CandidateID }},
	},
}
