package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"quizhub/backend/config"
	"quizhub/backend/models"
	"quizhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type QuizzesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewQuizzesController(db *gorm.DB, cfg *config.Config) *QuizzesController {
	return &QuizzesController{DB: db, Cfg: cfg}
}

// GetUserQuizzes returns the quizzes the user has attempted, with progress.
func (qc *QuizzesController) GetUserQuizzes(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var quizzes []models.Quiz
	qc.DB.Joins("JOIN user_quiz_progresses ON user_quiz_progresses.quiz_id = quizzes.id").
		Where("user_quiz_progresses.user_id = ?", userID).
		Find(&quizzes)

	var result []fiber.Map
	for _, quiz := range quizzes {
		var progress models.UserQuizProgress
		qc.DB.Where("user_id = ? AND quiz_id = ?", userID, quiz.ID).First(&progress)

		var questionCount int64
		qc.DB.Model(&models.QuizQuestion{}).Where("quiz_id = ?", quiz.ID).Count(&questionCount)

		result = append(result, fiber.Map{
			"id":            quiz.ID,
			"title":         quiz.Title,
			"topic":         quiz.Topic,
			"questions":     questionCount,
			"best_score":    progress.BestScore,
			"last_score":    progress.LastScore,
			"last_attempt":  progress.LastAttempt,
			"attempts_used": progress.AttemptsUsed,
		})
	}

	return c.JSON(result)
}

// GetAvailableQuizzes lists public quizzes, filterable by topic and difficulty.
func (qc *QuizzesController) GetAvailableQuizzes(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, qc.Cfg); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	topic := c.Query("topic")
	difficulty := c.Query("difficulty")

	query := qc.DB.Model(&models.Quiz{}).
		Joins("JOIN quiz_access_settings ON quiz_access_settings.quiz_id = quizzes.id").
		Where("quiz_access_settings.access_level = 'public'")

	if topic != "" {
		query = query.Where("topic LIKE ?", "%"+topic+"%")
	}
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	var quizzes []models.Quiz
	query.Find(&quizzes)

	var result []fiber.Map
	for _, quiz := range quizzes {
		var questionCount int64
		qc.DB.Model(&models.QuizQuestion{}).Where("quiz_id = ?", quiz.ID).Count(&questionCount)

		result = append(result, fiber.Map{
			"id":          quiz.ID,
			"title":       quiz.Title,
			"description": quiz.ShortDesc,
			"difficulty":  quiz.Difficulty,
			"topic":       quiz.Topic,
			"author":      quiz.AuthorID,
			"logo_url":    quiz.LogoURL,
			"questions":   questionCount,
		})
	}

	return c.JSON(result)
}

// GetQuizDetails returns the quiz with its questions as the taker sees them:
// prompts and options only, never correct answers or hints.
func (qc *QuizzesController) GetQuizDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var quiz models.Quiz
	if err := qc.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Preload("Comments").First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var progress models.UserQuizProgress
	qc.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&progress)

	var questions []fiber.Map
	for _, q := range quiz.Questions {
		var options []string
		json.Unmarshal([]byte(q.Options), &options)

		questions = append(questions, fiber.Map{
			"id":       q.ID,
			"prompt":   q.Prompt,
			"options":  options,
			"has_hint": q.Hint != "",
			"order":    q.SequenceOrder,
		})
	}

	return c.JSON(fiber.Map{
		"quiz": fiber.Map{
			"id":              quiz.ID,
			"title":           quiz.Title,
			"description":     quiz.Description,
			"short_desc":      quiz.ShortDesc,
			"difficulty":      quiz.Difficulty,
			"topic":           quiz.Topic,
			"logo_url":        quiz.LogoURL,
			"author":          quiz.AuthorID,
			"questions":       questions,
			"comments":        quiz.Comments,
			"completion_rate": quiz.CompletionRate,
		},
		"progress": progress,
	})
}

// GetQuizResult returns the review view: questions with correct answers and
// hints, plus the user's attempt history. Only available once the user has
// finished the quiz at least once.
func (qc *QuizzesController) GetQuizResult(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var quiz models.Quiz
	if err := qc.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var progress models.UserQuizProgress
	if err := qc.DB.Where("user_id = ? AND quiz_id = ? AND attempts_used > 0", userID, quizID).
		First(&progress).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Quiz not completed",
		})
	}

	var attempts []models.QuizAttempt
	qc.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("created_at DESC").
		Find(&attempts)

	var questions []fiber.Map
	for _, q := range quiz.Questions {
		var options []string
		json.Unmarshal([]byte(q.Options), &options)

		questions = append(questions, fiber.Map{
			"id":             q.ID,
			"prompt":         q.Prompt,
			"options":        options,
			"correct_answer": q.CorrectAnswer,
			"hint":           q.Hint,
			"order":          q.SequenceOrder,
		})
	}

	return c.JSON(fiber.Map{
		"quiz": fiber.Map{
			"id":        quiz.ID,
			"title":     quiz.Title,
			"questions": questions,
		},
		"result": fiber.Map{
			"best_score":    progress.BestScore,
			"last_score":    progress.LastScore,
			"attempts_used": progress.AttemptsUsed,
			"last_attempt":  progress.LastAttempt,
		},
		"attempts": attempts,
	})
}

// CreateQuiz creates a quiz with private default access settings.
func (qc *QuizzesController) CreateQuiz(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var quiz models.Quiz
	if err := c.BodyParser(&quiz); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	quiz.AuthorID = userID
	quiz.CompletionRate = 0

	if err := qc.DB.Create(&quiz).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create quiz",
		})
	}

	accessSettings := models.QuizAccessSettings{
		QuizID:          quiz.ID,
		AccessLevel:     "private",
		Admins:          strconv.Itoa(int(userID)),
		AttemptsAllowed: 0,
	}

	if err := qc.DB.Create(&accessSettings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create access settings",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Quiz created",
		"quiz":    quiz,
	})
}

// UpdateQuizDescription updates quiz metadata fields.
func (qc *QuizzesController) UpdateQuizDescription(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var input struct {
		Title       string `json:"title"`
		ShortDesc   string `json:"short_desc"`
		Description string `json:"description"`
		Difficulty  string `json:"difficulty"`
		Topic       string `json:"topic"`
		LogoURL     string `json:"logo_url"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var quiz models.Quiz
	if err := qc.DB.Preload("AccessSettings").First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if !canEditQuiz(&quiz, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to edit this quiz",
		})
	}

	if input.Title != "" {
		quiz.Title = input.Title
	}
	if input.ShortDesc != "" {
		quiz.ShortDesc = input.ShortDesc
	}
	if input.Description != "" {
		quiz.Description = input.Description
	}
	if input.Difficulty != "" {
		quiz.Difficulty = input.Difficulty
	}
	if input.Topic != "" {
		quiz.Topic = input.Topic
	}
	if input.LogoURL != "" {
		quiz.LogoURL = input.LogoURL
	}

	if err := qc.DB.Save(&quiz).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update quiz",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Quiz updated",
		"quiz":    quiz,
	})
}

// AddQuestion appends a question to a quiz. The correct answer index must
// address one of the supplied options.
func (qc *QuizzesController) AddQuestion(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var input struct {
		Prompt        string   `json:"prompt"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correct_answer"`
		Hint          string   `json:"hint"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var quiz models.Quiz
	if err := qc.DB.Preload("AccessSettings").First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if !canEditQuiz(&quiz, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to add questions to this quiz",
		})
	}

	if len(input.Options) == 0 || input.CorrectAnswer < 0 || input.CorrectAnswer >= len(input.Options) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid correct answer index",
		})
	}

	optionsJson, err := json.Marshal(input.Options)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not encode options",
		})
	}

	var questionCount int64
	qc.DB.Model(&models.QuizQuestion{}).Where("quiz_id = ?", quizID).Count(&questionCount)

	question := models.QuizQuestion{
		QuizID:        uint(quizID),
		Prompt:        input.Prompt,
		Options:       string(optionsJson),
		CorrectAnswer: input.CorrectAnswer,
		Hint:          input.Hint,
		SequenceOrder: int(questionCount) + 1,
	}

	if err := qc.DB.Create(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create question",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Question added",
		"question": question,
	})
}

// UpdateQuestion edits an existing question.
func (qc *QuizzesController) UpdateQuestion(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	questionID, err := strconv.Atoi(c.Params("questionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid question ID",
		})
	}

	var input struct {
		Prompt        string   `json:"prompt"`
		Options       []string `json:"options"`
		CorrectAnswer *int     `json:"correct_answer"`
		Hint          *string  `json:"hint"`
		SequenceOrder int      `json:"sequence_order"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var quiz models.Quiz
	if err := qc.DB.Preload("AccessSettings").First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if !canEditQuiz(&quiz, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to edit questions in this quiz",
		})
	}

	var question models.QuizQuestion
	if err := qc.DB.Where("id = ? AND quiz_id = ?", questionID, quizID).First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Question not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if input.Prompt != "" {
		question.Prompt = input.Prompt
	}
	if input.Options != nil {
		optionsJson, err := json.Marshal(input.Options)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not encode options",
			})
		}
		question.Options = string(optionsJson)
	}
	if input.CorrectAnswer != nil {
		var options []string
		json.Unmarshal([]byte(question.Options), &options)
		if *input.CorrectAnswer < 0 || *input.CorrectAnswer >= len(options) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid correct answer index",
			})
		}
		question.CorrectAnswer = *input.CorrectAnswer
	}
	if input.Hint != nil {
		question.Hint = *input.Hint
	}
	if input.SequenceOrder != 0 {
		question.SequenceOrder = input.SequenceOrder
	}

	if err := qc.DB.Save(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update question",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Question updated",
		"question": question,
	})
}

// UpdateQuizSettings edits access level, date window and attempt limit.
func (qc *QuizzesController) UpdateQuizSettings(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var input struct {
		AccessLevel     string `json:"access_level"`
		StartDate       string `json:"start_date"`
		EndDate         string `json:"end_date"`
		Admins          string `json:"admins"`
		AttemptsAllowed int    `json:"attempts_allowed"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var quiz models.Quiz
	if err := qc.DB.Preload("AccessSettings").First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if !canEditQuiz(&quiz, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to edit settings for this quiz",
		})
	}

	if input.AccessLevel != "" {
		quiz.AccessSettings.AccessLevel = input.AccessLevel
	}
	if input.StartDate != "" {
		quiz.AccessSettings.StartDate = input.StartDate
	}
	if input.EndDate != "" {
		quiz.AccessSettings.EndDate = input.EndDate
	}
	if input.Admins != "" {
		quiz.AccessSettings.Admins = input.Admins
	}
	if input.AttemptsAllowed >= 0 {
		quiz.AccessSettings.AttemptsAllowed = input.AttemptsAllowed
	}

	if err := qc.DB.Save(&quiz.AccessSettings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update quiz settings",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Quiz settings updated",
		"settings": quiz.AccessSettings,
	})
}

// canEditQuiz allows the author and the IDs listed in access settings.
func canEditQuiz(quiz *models.Quiz, userID uint) bool {
	if quiz.AuthorID == userID {
		return true
	}
	id := strconv.Itoa(int(userID))
	for _, admin := range strings.Split(quiz.AccessSettings.Admins, ",") {
		if strings.TrimSpace(admin) == id {
			return true
		}
	}
	return false
}
