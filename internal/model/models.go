package model

import "time"

// Role is the kind of account a User holds.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleApplicant Role = "applicant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleRecruiter || r == RoleApplicant
}

// User is an account that can log in. Passwords are stored in plaintext.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"` // unique
	Password  string    `json:"password"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// JobStatus is the publication state of a Job.
type JobStatus string

const (
	JobStatusActive   JobStatus = "active"
	JobStatusArchived JobStatus = "archived"
)

func (s JobStatus) Valid() bool {
	return s == JobStatusActive || s == JobStatusArchived
}

// JobType is the employment type of a Job.
type JobType string

const (
	JobTypeFullTime JobType = "full-time"
	JobTypePartTime JobType = "part-time"
	JobTypeContract JobType = "contract"
	JobTypeIntern   JobType = "intern"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeIntern:
		return true
	}
	return false
}

// Job is a job posting. Order is the job's position in the user-reorderable
// list; across the live set the orders form a permutation of [0..N).
type Job struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	Status       JobStatus `json:"status"`
	Tags         []string  `json:"tags"`
	Order        int       `json:"order"`
	Salary       string    `json:"salary,omitempty"`
	Location     string    `json:"location"`
	Type         JobType   `json:"type"`
	RecruiterID  int64     `json:"recruiterId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Stage is a candidate's position in the hiring pipeline.
type Stage string

const (
	StageApplied  Stage = "applied"
	StageScreen   Stage = "screen"
	StageTech     Stage = "tech"
	StageOffer    Stage = "offer"
	StageHired    Stage = "hired"
	StageRejected Stage = "rejected"
)

// Stages lists the pipeline in order.
var Stages = []Stage{StageApplied, StageScreen, StageTech, StageOffer, StageHired, StageRejected}

func (s Stage) Valid() bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

// Candidate is an applicant for a Job. JobID is a weak reference: a
// dangling id is tolerated.
type Candidate struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
	Resume      []byte          `json:"resume,omitempty"`
	CoverLetter string          `json:"coverLetter,omitempty"`
	Stage       Stage           `json:"stage"`
	JobID       int64           `json:"jobId"`
	AppliedAt   time.Time       `json:"appliedAt"`
	Notes       []CandidateNote `json:"notes"`
	Timeline    []StageChange   `json:"timeline"`
}

// StageChange records one stage transition. Append-only.
type StageChange struct {
	ID        string    `json:"id"`
	FromStage Stage     `json:"fromStage,omitempty"`
	ToStage   Stage     `json:"toStage"`
	Status    string    `json:"status,omitempty"`
	ChangedBy int64     `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
	Notes     string    `json:"notes,omitempty"`
}

// CandidateNote is a free-form note on a candidate. Append-only.
type CandidateNote struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	Mentions  []string  `json:"mentions"`
}

// Assessment is the questionnaire attached to a Job (at most one per job).
type Assessment struct {
	ID          int64               `json:"id"`
	JobID       int64               `json:"jobId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Sections    []AssessmentSection `json:"sections"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type AssessmentSection struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Order     int        `json:"order"`
	Questions []Question `json:"questions"`
}

// QuestionType is the kind of answer a Question expects.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single-choice"
	QuestionMultiChoice  QuestionType = "multi-choice"
	QuestionShortText    QuestionType = "short-text"
	QuestionLongText     QuestionType = "long-text"
	QuestionNumeric      QuestionType = "numeric"
	QuestionFileUpload   QuestionType = "file-upload"
)

type Question struct {
	ID               string            `json:"id"`
	Type             QuestionType      `json:"type"`
	Question         string            `json:"question"`
	Required         bool              `json:"required"`
	Options          []string          `json:"options,omitempty"`
	Validation       *Validation       `json:"validation,omitempty"`
	ConditionalLogic *ConditionalLogic `json:"conditionalLogic,omitempty"`
	Order            int               `json:"order"`
}

type Validation struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
}

type ConditionalLogic struct {
	ShowIf ShowIf `json:"showIf"`
}

type ShowIf struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

// Questions flattens the questions of every section, in section order.
func (a *Assessment) Questions() []Question {
	questions := []Question{}
	for _, s := range a.Sections {
		questions = append(questions, s.Questions...)
	}
	return questions
}

// DanglingConditions returns the ids of questions whose conditional logic
// refers to a question that does not exist in the same assessment.
func (a *Assessment) DanglingConditions() []string {
	known := make(map[string]bool)
	for _, q := range a.Questions() {
		known[q.ID] = true
	}
	var dangling []string
	for _, q := range a.Questions() {
		if q.ConditionalLogic != nil && !known[q.ConditionalLogic.ShowIf.QuestionID] {
			dangling = append(dangling, q.ID)
		}
	}
	return dangling
}

// AssessmentResponse is a candidate's submitted answers. Append-only.
type AssessmentResponse struct {
	ID           int64              `json:"id"`
	AssessmentID int64              `json:"assessmentId"`
	CandidateID  int64              `json:"candidateId"`
	Responses    []QuestionResponse `json:"responses"`
	SubmittedAt  time.Time          `json:"submittedAt"`
	Completed    bool               `json:"completed"`
}

// QuestionResponse holds one answer. Value is a string, a list of strings
// or a number, as decoded from JSON.
type QuestionResponse struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

// Snapshot is a full copy of every collection, ids included.
type Snapshot struct {
	Users               []*User               `json:"users" yaml:"users"`
	Jobs                []*Job                `json:"jobs" yaml:"jobs"`
	Candidates          []*Candidate          `json:"candidates" yaml:"candidates"`
	Assessments         []*Assessment         `json:"assessments" yaml:"assessments"`
	AssessmentResponses []*AssessmentResponse `json:"assessmentResponses" yaml:"assessmentResponses"`
}
