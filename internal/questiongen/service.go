// Package questiongen turns document text into persisted assessment
// questions through a generative-language provider.
package questiongen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/abhisek/edugen/internal/content"
	"github.com/abhisek/edugen/internal/dedup"
	"github.com/abhisek/edugen/internal/llm"
	"github.com/abhisek/edugen/internal/store"
)

const (
	purpose    = "question-gen"
	tracerName = "github.com/abhisek/edugen/internal/questiongen"
)

// QuestionWriter persists generated questions and answers.
// store.QuestionRepo satisfies it.
type QuestionWriter interface {
	CreateQuestion(ctx context.Context, documentID int64, questionType, text string) (*store.Question, error)
	CreateAnswer(ctx context.Context, questionID int64, text string, isCorrect bool) (*store.Answer, error)
}

// Deps are the collaborators of a Service. Provider, Questions and Content
// are required.
type Deps struct {
	Provider  llm.Provider
	Questions QuestionWriter
	Content   content.Provider

	// Guard defaults to a MemoryGuard owned by the Service.
	Guard dedup.Guard

	Metrics *Metrics
	Logger  *zap.Logger
	Tracer  trace.Tracer
}

// Service runs the generation pipeline. It is safe for concurrent use.
type Service struct {
	provider  llm.Provider
	questions QuestionWriter
	content   content.Provider
	guard     dedup.Guard
	metrics   *Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
	config    Config
}

// Result is the outcome of one Run.
type Result struct {
	// Questions are the stored questions in parse order.
	Questions []store.Question
	Report    Report
}

// New creates a Service.
func New(deps Deps, cfg Config) *Service {
	s := &Service{
		provider:  deps.Provider,
		questions: deps.Questions,
		content:   deps.Content,
		guard:     deps.Guard,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		tracer:    deps.Tracer,
		config:    cfg,
	}
	if s.guard == nil {
		s.guard = dedup.NewMemoryGuard()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.config.Placeholder == "" {
		s.config.Placeholder = DefaultPlaceholder
	}
	return s
}

// Generate runs the pipeline and returns the stored questions, which may
// be fewer than requested or none at all. Only invalid arguments produce
// an error.
func (s *Service) Generate(ctx context.Context, documentID int64, req GenerationRequest) ([]store.Question, error) {
	res, err := s.Run(ctx, documentID, req)
	if err != nil {
		return nil, err
	}
	return res.Questions, nil
}

// Run is Generate with the per-item report exposed.
func (s *Service) Run(ctx context.Context, documentID int64, req GenerationRequest) (*Result, error) {
	if documentID <= 0 {
		s.metrics.observeRun(RunInvalid)
		return nil, fmt.Errorf("%w: documentId must be positive, got %d", ErrInvalidRequest, documentID)
	}
	if err := req.Validate(); err != nil {
		s.metrics.observeRun(RunInvalid)
		return nil, err
	}

	fingerprint := Fingerprint(documentID, req)
	logger := s.logger.With(
		zap.Int64("document_id", documentID),
		zap.String("fingerprint", fingerprint),
	)

	release, ok := dedup.Acquire(ctx, s.guard, fingerprint)
	if !ok {
		logger.Info("identical generation already in progress")
		s.metrics.observeRun(RunDuplicate)
		return &Result{
			Questions: []store.Question{},
			Report:    Report{Fingerprint: fingerprint, Result: RunDuplicate},
		}, nil
	}
	defer release()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	ctx = llm.WithPurpose(llm.WithRunID(ctx, runID), purpose)

	ctx, span := s.tracer.Start(ctx, "questiongen.Generate", trace.WithAttributes(
		attribute.Int64("edugen.document_id", documentID),
		attribute.String("edugen.run_id", runID),
		attribute.Int("edugen.question_count", req.QuestionCount),
		attribute.StringSlice("edugen.question_types", req.QuestionTypes),
	))
	defer span.End()

	start := time.Now()
	report := Report{RunID: runID, Fingerprint: fingerprint}
	questions := s.run(ctx, logger, documentID, req, &report)
	report.Duration = time.Since(start)

	span.SetAttributes(
		attribute.String("edugen.result", string(report.Result)),
		attribute.Int("edugen.drafts", report.Drafts),
		attribute.Int("edugen.persisted", report.Persisted()),
	)
	s.metrics.observeReport(report)
	logger.Info("generation finished",
		zap.String("result", string(report.Result)),
		zap.Int("drafts", report.Drafts),
		zap.Int("persisted", report.Persisted()),
		zap.Int("skipped", report.Skipped()),
		zap.Duration("duration", report.Duration),
	)

	return &Result{Questions: questions, Report: report}, nil
}

func (s *Service) run(ctx context.Context, logger *zap.Logger, documentID int64, req GenerationRequest, report *Report) []store.Question {
	text := s.loadContent(ctx, logger, documentID)

	resp, err := s.call(ctx, s.buildRequest(text, req))
	if err != nil {
		logger.Warn("question generation call failed", zap.Error(err))
		trace.SpanFromContext(ctx).RecordError(err)
		trace.SpanFromContext(ctx).SetStatus(codes.Error, "transport failure")
		report.Result = RunTransportError
		return []store.Question{}
	}

	env := llm.ClassifyEnvelope(resp.Envelope)
	drafts, err := Parse(env.Text)
	if err != nil {
		logger.Warn("could not parse model reply",
			zap.String("envelope", env.Kind.String()),
			zap.Error(err),
		)
	}
	report.Drafts = len(drafts)
	if len(drafts) == 0 {
		logger.Warn("model reply yielded no questions", zap.String("envelope", env.Kind.String()))
		report.settle()
		return []store.Question{}
	}

	if n := countWithoutAnswers(drafts); n > 0 {
		logger.Info("generated questions without answers", zap.Int("count", n))
	}

	questions := make([]store.Question, 0, len(drafts))
	for i, d := range drafts {
		outcome, q := s.persist(ctx, logger, documentID, i, d)
		report.Outcomes = append(report.Outcomes, outcome)
		if q != nil {
			questions = append(questions, *q)
		}
	}
	report.settle()
	return questions
}

// loadContent resolves the document text, falling back to the placeholder.
func (s *Service) loadContent(ctx context.Context, logger *zap.Logger, documentID int64) string {
	text, err := s.content.Content(ctx, documentID)
	if err != nil {
		logger.Warn("document content unavailable, using placeholder", zap.Error(err))
		return s.config.Placeholder
	}
	return text
}

// buildRequest picks the prompt variant for the configured model.
func (s *Service) buildRequest(text string, req GenerationRequest) llm.Request {
	if s.isReasoningModel() {
		return llm.Request{
			Messages: []llm.Message{
				{Role: llm.RoleUser, Content: BuildReasoningPrompt(text, req)},
			},
			MaxTokens:       s.config.MaxTokens,
			OmitTemperature: true,
		}
	}

	r := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: BuildPrompt(text, req)},
		},
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}
	if s.config.Structured {
		r.Schema = QuestionSetSchema
	}
	return r
}

func (s *Service) isReasoningModel() bool {
	model := s.provider.ModelID()
	for _, p := range s.config.ReasoningModelPrefixes {
		if p != "" && strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// call makes the single transport call.
func (s *Service) call(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("provider returned no response")
	}
	return resp, nil
}

// persist stores one draft and its answers. A failed answer does not undo
// its question.
func (s *Service) persist(ctx context.Context, logger *zap.Logger, documentID int64, index int, d QuestionDraft) (Outcome, *store.Question) {
	outcome := Outcome{Index: index}
	logger = logger.With(zap.Int("index", index))

	for _, v := range s.config.Validators {
		if verr := v.Validate(d); verr != nil {
			logger.Info("draft rejected", zap.String("validator", verr.Validator), zap.String("reason", verr.Message))
			outcome.Status = OutcomeRejected
			outcome.Reason = ReasonValidation
			return outcome, nil
		}
	}

	qt, known := ParseType(d.Type)
	if !known {
		qt = DefaultType
		logger.Warn("unknown question type, using default",
			zap.String("label", d.Type),
			zap.String("type", string(qt)),
		)
	}
	outcome.Type = qt

	q, err := s.questions.CreateQuestion(ctx, documentID, string(qt), d.Text)
	if err != nil {
		logger.Warn("failed to store question", zap.Error(err))
		outcome.Status = OutcomeFailed
		outcome.Reason = ReasonPersistence
		return outcome, nil
	}
	outcome.Status = OutcomePersisted
	outcome.QuestionID = q.ID

	for j, a := range d.Answers {
		ans, err := s.questions.CreateAnswer(ctx, q.ID, a.Text, a.IsCorrect)
		if err != nil {
			logger.Warn("failed to store answer",
				zap.Int64("question_id", q.ID),
				zap.Int("answer_index", j),
				zap.Error(err),
			)
			outcome.AnswersSkipped++
			continue
		}
		q.Answers = append(q.Answers, *ans)
		outcome.AnswersPersisted++
	}
	if q.Answers == nil {
		q.Answers = []store.Answer{}
	}

	return outcome, q
}

func countWithoutAnswers(drafts []QuestionDraft) int {
	n := 0
	for _, d := range drafts {
		if len(d.Answers) == 0 {
			n++
		}
	}
	return n
}
