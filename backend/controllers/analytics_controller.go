package controllers

import (
	"strconv"
	"time"

	"quizhub/backend/config"
	"quizhub/backend/models"
	"quizhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg}
}

// GetUserProgressAnalytics returns the user's attempts and logins in a period.
func (ac *AnalyticsController) GetUserProgressAnalytics(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	var start, end time.Time
	if startDate == "" {
		start = time.Now().AddDate(0, -1, 0)
	} else {
		start, err = time.Parse("2006-01-02", startDate)
		if err != nil {
			return utils.BadRequest(c, "Invalid start_date format. Use YYYY-MM-DD")
		}
	}

	if endDate == "" {
		end = time.Now()
	} else {
		end, err = time.Parse("2006-01-02", endDate)
		if err != nil {
			return utils.BadRequest(c, "Invalid end_date format. Use YYYY-MM-DD")
		}
	}

	var attempts []models.QuizAttempt
	if err := ac.DB.Where("user_id = ? AND created_at BETWEEN ? AND ?",
		userID, start, end).Find(&attempts).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch attempts")
	}

	var quizProgress []models.UserQuizProgress
	if err := ac.DB.Where("user_id = ? AND updated_at BETWEEN ? AND ?",
		userID, start, end).Find(&quizProgress).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch quiz progress")
	}

	var loginHistory []models.LoginHistory
	if err := ac.DB.Where("user_id = ? AND login_time BETWEEN ? AND ?",
		userID, start, end).Find(&loginHistory).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch login history")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"attempts":      attempts,
		"quiz_progress": quizProgress,
		"login_history": loginHistory,
		"period": fiber.Map{
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.Format("2006-01-02"),
		},
	})
}

// GetQuizAnalytics returns per-quiz attempt statistics for its author.
func (ac *AnalyticsController) GetQuizAnalytics(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid quiz ID")
	}

	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var quiz models.Quiz
	if err := ac.DB.First(&quiz, quizID).Error; err != nil {
		return utils.NotFound(c, "Quiz not found")
	}

	if quiz.AuthorID != userID {
		return utils.Forbidden(c, "You don't have permission to view this analytics")
	}

	var stats struct {
		TotalAttempts int64
		AvgScore      float64
		AvgDuration   float64
		AvgHintsUsed  float64
	}

	ac.DB.Model(&models.QuizAttempt{}).
		Where("quiz_id = ?", quizID).
		Count(&stats.TotalAttempts)

	ac.DB.Model(&models.QuizAttempt{}).
		Select("COALESCE(AVG(CAST(score AS FLOAT) / total_questions * 100), 0)").
		Where("quiz_id = ? AND total_questions > 0", quizID).
		Scan(&stats.AvgScore)

	ac.DB.Model(&models.QuizAttempt{}).
		Select("COALESCE(AVG(duration_seconds), 0)").
		Where("quiz_id = ?", quizID).
		Scan(&stats.AvgDuration)

	ac.DB.Model(&models.QuizAttempt{}).
		Select("COALESCE(AVG(hints_used), 0)").
		Where("quiz_id = ?", quizID).
		Scan(&stats.AvgHintsUsed)

	// Per-taker breakdown
	var takers []fiber.Map
	var progresses []models.UserQuizProgress
	ac.DB.Where("quiz_id = ?", quizID).Find(&progresses)
	for _, progress := range progresses {
		var user models.User
		if err := ac.DB.First(&user, progress.UserID).Error; err != nil {
			continue
		}
		takers = append(takers, fiber.Map{
			"user_id":       user.ID,
			"username":      user.Username,
			"best_score":    progress.BestScore,
			"last_score":    progress.LastScore,
			"attempts_used": progress.AttemptsUsed,
			"last_attempt":  progress.LastAttempt,
		})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"quiz_id":    quizID,
		"quiz_title": quiz.Title,
		"stats":      stats,
		"takers":     takers,
		"trend":      getAttemptTrends(ac.DB, uint(quizID)),
	})
}

// getAttemptTrends returns attempts per day for a quiz.
func getAttemptTrends(db *gorm.DB, quizID uint) []map[string]interface{} {
	var trends []map[string]interface{}

	db.Raw(`
		SELECT
			DATE(created_at) as date,
			COUNT(*) as attempts
		FROM quiz_attempts
		WHERE quiz_id = ?
		GROUP BY DATE(created_at)
		ORDER BY date
	`, quizID).Scan(&trends)

	return trends
}

// GetPlatformAnalytics returns platform-wide metrics. Admin only.
func (ac *AnalyticsController) GetPlatformAnalytics(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := ac.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	if user.Role != "admin" {
		return utils.Forbidden(c, "Admin access required")
	}

	var metrics struct {
		TotalUsers    int64   `json:"total_users"`
		NewUsers      int64   `json:"new_users"`
		TotalQuizzes  int64   `json:"total_quizzes"`
		TotalAttempts int64   `json:"total_attempts"`
		AvgScore      float64 `json:"avg_score"`
	}

	ac.DB.Model(&models.User{}).Count(&metrics.TotalUsers)
	ac.DB.Model(&models.User{}).Where("created_at > ?",
		time.Now().AddDate(0, 0, -7)).Count(&metrics.NewUsers)
	ac.DB.Model(&models.Quiz{}).Count(&metrics.TotalQuizzes)
	ac.DB.Model(&models.QuizAttempt{}).Count(&metrics.TotalAttempts)
	ac.DB.Model(&models.QuizAttempt{}).
		Select("COALESCE(AVG(CAST(score AS FLOAT) / total_questions * 100), 0)").
		Where("total_questions > 0").
		Scan(&metrics.AvgScore)

	var userGrowth []map[string]interface{}
	ac.DB.Raw(`
		SELECT
			DATE(created_at) as date,
			COUNT(*) as users
		FROM users
		GROUP BY DATE(created_at)
		ORDER BY date
	`).Scan(&userGrowth)

	var popularQuizzes []map[string]interface{}
	ac.DB.Raw(`
		SELECT
			q.id,
			q.title,
			COUNT(qa.id) as attempts,
			AVG(CAST(qa.score AS FLOAT) / qa.total_questions * 100) as avg_score
		FROM quizzes q
		LEFT JOIN quiz_attempts qa ON qa.quiz_id = q.id
		GROUP BY q.id, q.title
		ORDER BY attempts DESC
		LIMIT 5
	`).Scan(&popularQuizzes)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"metrics":         metrics,
		"user_growth":     userGrowth,
		"popular_quizzes": popularQuizzes,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}
