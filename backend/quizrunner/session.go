// Package quizrunner drives a single quiz attempt: one fixed question list,
// one taker, one pass from the first question to the final report. A Session
// is a plain in-memory value owned by whoever created it; it does no I/O and
// no locking.
package quizrunner

import (
	"errors"
	"time"
)

// Question is one quiz item shown to the taker.
type Question struct {
	Prompt  string
	Options []string
	Correct int    // index into Options
	Hint    string // empty when the question has no hint
}

// State of a session. Transitions only move forward:
// NotStarted -> InProgress -> Completed.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	default:
		return "not_started"
	}
}

const unanswered = -1

var (
	// ErrBadQuestion is returned by Start when a question has no options or
	// its correct index points outside them.
	ErrBadQuestion = errors.New("quizrunner: correct answer index out of range")
	// ErrInvalidOption is returned when a selection does not address a valid
	// option of the current question. The session is left untouched.
	ErrInvalidOption = errors.New("quizrunner: option index out of range")
	// ErrPrematureFinish is returned by Finish before the last question has
	// been passed. The session is left untouched.
	ErrPrematureFinish = errors.New("quizrunner: questions remaining")
	// ErrCompleted is returned when a mutating operation hits a finished
	// session.
	ErrCompleted = errors.New("quizrunner: session already completed")
	// ErrNotStarted is returned when operating on a zero Session that never
	// went through Start.
	ErrNotStarted = errors.New("quizrunner: session not started")
)

// Report is the final summary of one attempt.
type Report struct {
	Score            int
	TotalQuestions   int
	IncorrectPrompts []string // prompts of missed questions, in quiz order
	HintsUsed        int
	Elapsed          time.Duration
}

// Session is the transient state of one quiz attempt.
type Session struct {
	questions []Question
	state     State
	current   int
	answers   []int // question index -> selected option, unanswered = -1
	hintsUsed map[int]bool
	score     int
	startedAt time.Time
	endedAt   time.Time
	report    Report
}

// Start validates the question list and returns a running session. An empty
// list is not an error: it yields an immediately completed session with a
// zero report.
func Start(questions []Question) (*Session, error) {
	for _, q := range questions {
		if len(q.Options) == 0 || q.Correct < 0 || q.Correct >= len(q.Options) {
			return nil, ErrBadQuestion
		}
	}

	s := &Session{
		questions: questions,
		state:     StateInProgress,
		answers:   make([]int, len(questions)),
		hintsUsed: make(map[int]bool),
		startedAt: time.Now(),
	}
	for i := range s.answers {
		s.answers[i] = unanswered
	}

	if len(questions) == 0 {
		s.endedAt = s.startedAt
		s.state = StateCompleted
		s.report = Report{IncorrectPrompts: []string{}}
	}
	return s, nil
}

// SelectAnswer records the taker's choice for the current question.
// Re-selecting before Advance overwrites the previous choice and recomputes
// correctness, so the score never double-counts a question.
func (s *Session) SelectAnswer(option int) error {
	if err := s.inProgress(); err != nil {
		return err
	}
	if s.current >= len(s.questions) {
		return ErrInvalidOption
	}

	q := s.questions[s.current]
	if option < 0 || option >= len(q.Options) {
		return ErrInvalidOption
	}

	if s.answers[s.current] == q.Correct {
		s.score--
	}
	s.answers[s.current] = option
	if option == q.Correct {
		s.score++
	}
	return nil
}

// RequestHint marks the current question as hint-used and returns its hint
// text, which may be empty. Requesting a hint twice for the same question
// counts once. The score is never affected.
func (s *Session) RequestHint() (string, error) {
	if err := s.inProgress(); err != nil {
		return "", err
	}
	if s.current >= len(s.questions) {
		return "", nil
	}
	s.hintsUsed[s.current] = true
	return s.questions[s.current].Hint, nil
}

// Advance moves to the next question. Past the last question it is a no-op,
// never an error.
func (s *Session) Advance() {
	if s.inProgress() != nil {
		return
	}
	if s.current < len(s.questions) {
		s.current++
	}
}

// Finish completes the attempt and builds the report. It is only valid once
// every question has been passed; calling it earlier returns
// ErrPrematureFinish without mutating the session. On an already completed
// session it re-returns the existing report.
func (s *Session) Finish() (Report, error) {
	if s.state == StateCompleted {
		return s.report, nil
	}
	if s.state == StateNotStarted {
		return Report{}, ErrNotStarted
	}
	if s.current < len(s.questions) {
		return Report{}, ErrPrematureFinish
	}

	s.endedAt = time.Now()
	s.state = StateCompleted

	incorrect := []string{}
	for i, q := range s.questions {
		if s.answers[i] != q.Correct {
			incorrect = append(incorrect, q.Prompt)
		}
	}
	s.report = Report{
		Score:            s.score,
		TotalQuestions:   len(s.questions),
		IncorrectPrompts: incorrect,
		HintsUsed:        len(s.hintsUsed),
		Elapsed:          s.endedAt.Sub(s.startedAt),
	}
	return s.report, nil
}

// Current returns the question the taker is on. ok is false once the taker
// has advanced past the last question or the session is not in progress.
func (s *Session) Current() (Question, bool) {
	if s.state != StateInProgress || s.current >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.current], true
}

// Progress reports the current position and the question count.
func (s *Session) Progress() (current, total int) {
	return s.current, len(s.questions)
}

// State returns the session's lifecycle state.
func (s *Session) State() State { return s.state }

// Score returns the running count of correct answers.
func (s *Session) Score() int { return s.score }

// HintsUsed returns how many distinct questions had their hint revealed.
func (s *Session) HintsUsed() int { return len(s.hintsUsed) }

// StartedAt returns when the attempt began.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Report returns the final report. ok is false until Finish has succeeded.
func (s *Session) Report() (Report, bool) {
	if s.state != StateCompleted {
		return Report{}, false
	}
	return s.report, true
}

func (s *Session) inProgress() error {
	switch s.state {
	case StateInProgress:
		return nil
	case StateCompleted:
		return ErrCompleted
	default:
		return ErrNotStarted
	}
}
