package questiongen

import "time"

// RunResult classifies a whole run for logs and metrics.
type RunResult string

const (
	RunCompleted      RunResult = "completed"
	RunPartial        RunResult = "partial"
	RunEmpty          RunResult = "empty"
	RunDuplicate      RunResult = "duplicate"
	RunTransportError RunResult = "transport_error"
	RunInvalid        RunResult = "invalid"
)

// OutcomeStatus is what happened to one draft.
type OutcomeStatus string

const (
	OutcomePersisted OutcomeStatus = "persisted"
	OutcomeRejected  OutcomeStatus = "rejected"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Skip reasons used in outcomes and the items_skipped metric.
const (
	ReasonValidation   = "validation"
	ReasonPersistence  = "persistence"
	ReasonAnswerFailed = "answer_persistence"
)

// Outcome records the fate of the draft at Index.
type Outcome struct {
	Index      int
	Status     OutcomeStatus
	Reason     string
	QuestionID int64

	// Type is the normalized type the question was stored under.
	Type QuestionType

	AnswersPersisted int
	AnswersSkipped   int
}

// Report aggregates the outcomes of one run.
type Report struct {
	RunID       string
	Fingerprint string
	Result      RunResult
	Drafts      int
	Outcomes    []Outcome
	Duration    time.Duration
}

// Persisted returns the number of questions stored.
func (r Report) Persisted() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == OutcomePersisted {
			n++
		}
	}
	return n
}

// Skipped returns the number of drafts that were not stored.
func (r Report) Skipped() int {
	return len(r.Outcomes) - r.Persisted()
}

// settle derives the run result from the outcomes.
func (r *Report) settle() {
	switch persisted := r.Persisted(); {
	case r.Drafts == 0 || persisted == 0:
		r.Result = RunEmpty
	case persisted < r.Drafts:
		r.Result = RunPartial
	default:
		r.Result = RunCompleted
	}
}
