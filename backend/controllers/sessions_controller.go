package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"quizhub/backend/config"
	"quizhub/backend/models"
	"quizhub/backend/quizrunner"
	"quizhub/backend/relay"
	"quizhub/backend/sessionstore"
	"quizhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SessionsController runs live quiz attempts. Each attempt is a quizrunner
// session held in the store between requests; the database only sees the
// finished report.
type SessionsController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Store  *sessionstore.Store
	Relay  *relay.Client
	Logger *log.Logger
}

func NewSessionsController(db *gorm.DB, cfg *config.Config, store *sessionstore.Store, rc *relay.Client, logger *log.Logger) *SessionsController {
	return &SessionsController{DB: db, Cfg: cfg, Store: store, Relay: rc, Logger: logger}
}

// StartSession godoc
// @Summary Start a quiz attempt
// @Description Creates a live session for the quiz and returns its token with the first question
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/sessions [post]
func (sc *SessionsController) StartSession(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid quiz ID")
	}

	var quiz models.Quiz
	if err := sc.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Preload("AccessSettings").First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if quiz.AccessSettings.AccessLevel != "public" && !canEditQuiz(&quiz, userID) {
		return utils.Forbidden(c, "Quiz is not open for attempts")
	}

	// The date window from the access settings binds takers, not editors.
	if !canEditQuiz(&quiz, userID) {
		now := time.Now()
		if from, ok := parseWindowDate(quiz.AccessSettings.StartDate); ok && now.Before(from) {
			return utils.Forbidden(c, "Quiz is not open yet")
		}
		if until, ok := parseWindowDate(quiz.AccessSettings.EndDate); ok && now.After(until) {
			return utils.Forbidden(c, "Quiz is closed")
		}
	}

	var progress models.UserQuizProgress
	sc.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&progress)
	allowed := quiz.AccessSettings.AttemptsAllowed
	if allowed > 0 && progress.AttemptsUsed >= allowed {
		return utils.Forbidden(c, "No attempts left")
	}

	if len(quiz.Questions) == 0 {
		return utils.BadRequest(c, "Quiz has no questions")
	}

	questions := make([]quizrunner.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		var options []string
		if err := json.Unmarshal([]byte(q.Options), &options); err != nil {
			return utils.InternalServerError(c, "Corrupt question options")
		}
		questions = append(questions, quizrunner.Question{
			Prompt:  q.Prompt,
			Options: options,
			Correct: q.CorrectAnswer,
			Hint:    q.Hint,
		})
	}

	runner, err := quizrunner.Start(questions)
	if err != nil {
		return utils.InternalServerError(c, "Corrupt quiz data")
	}

	playerName := "Quiz taker"
	var user models.User
	if err := sc.DB.First(&user, userID).Error; err == nil && user.DisplayName != "" {
		playerName = user.DisplayName
	}

	attempt := &sessionstore.Attempt{
		UserID:     userID,
		QuizID:     uint(quizID),
		QuizTitle:  quiz.Title,
		PlayerName: playerName,
		Runner:     runner,
	}
	token := sc.Store.Put(attempt)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"session":  token,
		"quiz_id":  quiz.ID,
		"title":    quiz.Title,
		"question": questionView(runner),
	})
}

// GetSession returns the current question and progress indicator.
func (sc *SessionsController) GetSession(c *fiber.Ctx) error {
	attempt, errResp := sc.attempt(c)
	if attempt == nil {
		return errResp
	}
	attempt.Lock()
	defer attempt.Unlock()

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"quiz_id":  attempt.QuizID,
		"title":    attempt.QuizTitle,
		"state":    attempt.Runner.State().String(),
		"question": questionView(attempt.Runner),
	})
}

// SubmitAnswer records the taker's choice for the current question.
func (sc *SessionsController) SubmitAnswer(c *fiber.Ctx) error {
	attempt, errResp := sc.attempt(c)
	if attempt == nil {
		return errResp
	}

	var input struct {
		Option int `json:"option"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	attempt.Lock()
	defer attempt.Unlock()

	if err := attempt.Runner.SelectAnswer(input.Option); err != nil {
		switch {
		case errors.Is(err, quizrunner.ErrInvalidOption):
			return utils.BadRequest(c, "Option index out of range")
		case errors.Is(err, quizrunner.ErrCompleted):
			return utils.Conflict(c, "Session already completed")
		default:
			return utils.InternalServerError(c, "Could not record answer")
		}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"question": questionView(attempt.Runner),
	})
}

// RequestHint reveals the current question's hint, if it has one.
func (sc *SessionsController) RequestHint(c *fiber.Ctx) error {
	attempt, errResp := sc.attempt(c)
	if attempt == nil {
		return errResp
	}

	attempt.Lock()
	defer attempt.Unlock()

	hint, err := attempt.Runner.RequestHint()
	if err != nil {
		return utils.Conflict(c, "Session already completed")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"hint":       hint,
		"hints_used": attempt.Runner.HintsUsed(),
	})
}

// Advance moves the session to the next question.
func (sc *SessionsController) Advance(c *fiber.Ctx) error {
	attempt, errResp := sc.attempt(c)
	if attempt == nil {
		return errResp
	}

	attempt.Lock()
	defer attempt.Unlock()

	attempt.Runner.Advance()
	current, total := attempt.Runner.Progress()

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"question":   questionView(attempt.Runner),
		"finishable": current == total,
	})
}

// Finish completes the attempt: the report goes back to the caller, the
// attempt is persisted, the result email is relayed and the live session is
// dropped.
func (sc *SessionsController) Finish(c *fiber.Ctx) error {
	attempt, errResp := sc.attempt(c)
	if attempt == nil {
		return errResp
	}

	attempt.Lock()
	defer attempt.Unlock()

	// Only the call that actually completes the session persists and relays.
	// A racing second finish lands here after the transition and must only
	// re-read the cached report, or it would duplicate the attempt row and
	// the result email.
	if report, ok := attempt.Runner.Report(); ok {
		sc.Store.Remove(attempt.Token)
		return finishReply(c, report)
	}

	report, err := attempt.Runner.Finish()
	if err != nil {
		if errors.Is(err, quizrunner.ErrPrematureFinish) {
			return utils.Conflict(c, "Not all questions have been passed")
		}
		return utils.InternalServerError(c, "Could not finish session")
	}

	if err := sc.persistReport(attempt, report); err != nil {
		sc.Logger.Printf("sessions: persisting attempt for quiz %d failed: %v", attempt.QuizID, err)
	}

	sc.Relay.Submit(attempt.PlayerName, attempt.QuizTitle, report)
	sc.Store.Remove(attempt.Token)

	return finishReply(c, report)
}

func finishReply(c *fiber.Ctx, report quizrunner.Report) error {
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"score":             report.Score,
		"total_questions":   report.TotalQuestions,
		"incorrect_prompts": report.IncorrectPrompts,
		"hints_used":        report.HintsUsed,
		"elapsed_seconds":   report.Elapsed.Seconds(),
	})
}

// persistReport stores the attempt row and folds the result into the user's
// per-quiz progress.
func (sc *SessionsController) persistReport(attempt *sessionstore.Attempt, report quizrunner.Report) error {
	incorrectJson, err := json.Marshal(report.IncorrectPrompts)
	if err != nil {
		return err
	}

	row := models.QuizAttempt{
		UserID:           attempt.UserID,
		QuizID:           attempt.QuizID,
		Score:            report.Score,
		TotalQuestions:   report.TotalQuestions,
		IncorrectPrompts: string(incorrectJson),
		HintsUsed:        report.HintsUsed,
		DurationSeconds:  report.Elapsed.Seconds(),
		Relayed:          sc.Relay.Enabled(),
	}
	if err := sc.DB.Create(&row).Error; err != nil {
		return err
	}

	var progress models.UserQuizProgress
	if err := sc.DB.Where("user_id = ? AND quiz_id = ?", attempt.UserID, attempt.QuizID).
		First(&progress).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		progress = models.UserQuizProgress{
			UserID: attempt.UserID,
			QuizID: attempt.QuizID,
		}
	}

	progress.AttemptsUsed++
	progress.LastScore = report.Score
	if report.Score > progress.BestScore {
		progress.BestScore = report.Score
	}
	progress.LastAttempt = time.Now().Format(time.RFC3339)
	if err := sc.DB.Save(&progress).Error; err != nil {
		return err
	}

	// Refresh the quiz-wide average score
	var avg float64
	sc.DB.Model(&models.QuizAttempt{}).
		Select("COALESCE(AVG(CAST(score AS FLOAT) / total_questions * 100), 0)").
		Where("quiz_id = ? AND total_questions > 0", attempt.QuizID).
		Scan(&avg)
	return sc.DB.Model(&models.Quiz{}).
		Where("id = ?", attempt.QuizID).
		Update("completion_rate", avg).Error
}

// attempt resolves the session token and checks that the caller owns it.
// On failure the first return value is nil and the second carries the reply.
func (sc *SessionsController) attempt(c *fiber.Ctx) (*sessionstore.Attempt, error) {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
	if err != nil {
		return nil, utils.Unauthorized(c, "Unauthorized")
	}

	attempt, ok := sc.Store.Get(c.Params("token"))
	if !ok {
		return nil, utils.NotFound(c, "Session not found or expired")
	}
	if attempt.UserID != userID {
		return nil, utils.Forbidden(c, "Session belongs to another user")
	}
	return attempt, nil
}

// parseWindowDate reads the date formats access settings are written with.
func parseWindowDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// questionView shapes the current question for the taker: prompt and options
// only, never the correct index or the hint text.
func questionView(runner *quizrunner.Session) fiber.Map {
	current, total := runner.Progress()
	q, ok := runner.Current()
	if !ok {
		return fiber.Map{
			"position": current,
			"total":    total,
			"done":     true,
		}
	}
	return fiber.Map{
		"position": current,
		"total":    total,
		"prompt":   q.Prompt,
		"options":  q.Options,
		"has_hint": q.Hint != "",
	}
}
