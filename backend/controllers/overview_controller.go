package controllers

import (
	"quizhub/backend/config"
	"quizhub/backend/models"
	"quizhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type OverviewController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewOverviewController(db *gorm.DB, cfg *config.Config) *OverviewController {
	return &OverviewController{DB: db, Cfg: cfg}
}

// SearchQuizzes returns public quizzes matching the search criteria.
func (oc *OverviewController) SearchQuizzes(c *fiber.Ctx) error {
	search := c.Query("search")
	topic := c.Query("topic")
	sort := c.Query("sort", "popularity") // popularity, newest, rating

	query := oc.DB.Model(&models.Quiz{}).
		Joins("JOIN quiz_access_settings ON quiz_access_settings.quiz_id = quizzes.id").
		Where("quiz_access_settings.access_level = 'public'")

	if search != "" {
		query = query.Where("title LIKE ? OR short_desc LIKE ? OR description LIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if topic != "" {
		query = query.Where("topic = ?", topic)
	}

	switch sort {
	case "newest":
		query = query.Order("quizzes.created_at DESC")
	case "rating":
		query = query.Order("(SELECT AVG(rating) FROM quiz_comments WHERE quiz_id = quizzes.id) DESC")
	default: // popularity
		query = query.Order("(SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = quizzes.id) DESC")
	}

	var quizzes []models.Quiz
	if err := query.Find(&quizzes).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch quizzes")
	}

	var result []fiber.Map
	for _, quiz := range quizzes {
		var avgRating float64
		oc.DB.Model(&models.QuizComment{}).
			Select("COALESCE(AVG(rating), 0)").
			Where("quiz_id = ?", quiz.ID).
			Scan(&avgRating)

		var attempts int64
		oc.DB.Model(&models.QuizAttempt{}).
			Where("quiz_id = ?", quiz.ID).
			Count(&attempts)

		result = append(result, fiber.Map{
			"id":         quiz.ID,
			"title":      quiz.Title,
			"short_desc": quiz.ShortDesc,
			"difficulty": quiz.Difficulty,
			"topic":      quiz.Topic,
			"logo_url":   quiz.LogoURL,
			"rating":     avgRating,
			"attempts":   attempts,
			"created_at": quiz.CreatedAt,
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

// GetUserOverview returns the dashboard: streak, recent attempts and
// recommended quizzes.
func (oc *OverviewController) GetUserOverview(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, oc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var progress models.UserProgress
	oc.DB.Where("user_id = ?", userID).First(&progress)

	var recentAttempts []models.QuizAttempt
	oc.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(3).
		Find(&recentAttempts)

	recommended, err := oc.getRecommendedQuizzes(userID)
	if err != nil {
		return utils.InternalServerError(c, "Failed to get recommendations")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"streak_days":       progress.StreakDays,
		"quizzes_completed": progress.QuizzesCompleted,
		"recent_attempts":   recentAttempts,
		"recommendations":   recommended,
	})
}

// getRecommendedQuizzes suggests public quizzes in the topics the user has
// already attempted, then falls back to the most popular ones.
func (oc *OverviewController) getRecommendedQuizzes(userID uint) ([]fiber.Map, error) {
	var recommendations []fiber.Map

	var topics []string
	oc.DB.Model(&models.Quiz{}).
		Distinct("topic").
		Joins("JOIN quiz_attempts ON quiz_attempts.quiz_id = quizzes.id").
		Where("quiz_attempts.user_id = ? AND topic != ''", userID).
		Pluck("topic", &topics)

	if len(topics) > 0 {
		var quizzes []models.Quiz
		if err := oc.DB.Model(&models.Quiz{}).
			Joins("JOIN quiz_access_settings ON quiz_access_settings.quiz_id = quizzes.id").
			Where("quiz_access_settings.access_level = 'public' AND topic IN ?", topics).
			Where("quizzes.id NOT IN (SELECT quiz_id FROM quiz_attempts WHERE user_id = ?)", userID).
			Limit(3).
			Find(&quizzes).Error; err != nil {
			return nil, err
		}
		for _, quiz := range quizzes {
			recommendations = append(recommendations, fiber.Map{
				"id":         quiz.ID,
				"title":      quiz.Title,
				"short_desc": quiz.ShortDesc,
				"reason":     "More from a topic you practiced",
			})
		}
	}

	if len(recommendations) < 3 {
		var quizzes []models.Quiz
		if err := oc.DB.Model(&models.Quiz{}).
			Joins("JOIN quiz_access_settings ON quiz_access_settings.quiz_id = quizzes.id").
			Where("quiz_access_settings.access_level = 'public'").
			Where("quizzes.id NOT IN (SELECT quiz_id FROM quiz_attempts WHERE user_id = ?)", userID).
			Order("(SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = quizzes.id) DESC").
			Limit(3 - len(recommendations)).
			Find(&quizzes).Error; err != nil {
			return nil, err
		}
		for _, quiz := range quizzes {
			recommendations = append(recommendations, fiber.Map{
				"id":         quiz.ID,
				"title":      quiz.Title,
				"short_desc": quiz.ShortDesc,
				"reason":     "Popular right now",
			})
		}
	}

	return recommendations, nil
}
