package controllers

import (
	"strconv"
	"time"

	"quizhub/backend/config"
	"quizhub/backend/models"
	"quizhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	var progress models.UserProgress
	uc.DB.Where("user_id = ?", userID).First(&progress)

	// Latest attempts for the profile page
	var recentAttempts []models.QuizAttempt
	uc.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(5).
		Find(&recentAttempts)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":              user.ID,
		"username":        user.Username,
		"email":           user.Email,
		"role":            user.Role,
		"display_name":    user.DisplayName,
		"created_at":      user.CreatedAt,
		"progress":        progress,
		"recent_attempts": recentAttempts,
	})
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates authenticated user's profile data
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	if input.Username != "" && input.Username != user.Username {
		var existingUser models.User
		if err := uc.DB.Where("username = ?", input.Username).First(&existingUser).Error; err == nil {
			if existingUser.ID != user.ID {
				return utils.BadRequest(c, "Username already taken")
			}
		}
		user.Username = input.Username
	}

	if input.Email != "" && input.Email != user.Email {
		var existingUser models.User
		if err := uc.DB.Where("email = ?", input.Email).First(&existingUser).Error; err == nil {
			if existingUser.ID != user.ID {
				return utils.BadRequest(c, "Email already taken")
			}
		}
		user.Email = input.Email
	}

	if input.NewPassword != "" {
		if input.OldPassword == "" {
			return utils.BadRequest(c, "Old password is required to set new password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
			return utils.Unauthorized(c, "Invalid old password")
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hashedPassword)
	}

	if input.DisplayName != "" {
		user.DisplayName = input.DisplayName
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Profile updated successfully",
	})
}

// GetUserActivity godoc
// @Summary Get user activity
// @Description Returns user's recent logins and attempts
// @Tags users
// @Accept json
// @Produce json
// @Param days query int false "Number of days to look back" default(7)
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/activity [get]
func (uc *UserController) GetUserActivity(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	days, _ := strconv.Atoi(c.Query("days", "7"))
	since := time.Now().AddDate(0, 0, -days)

	var logins []models.LoginHistory
	if err := uc.DB.Where("user_id = ? AND login_time >= ?", userID, since).
		Order("login_time DESC").
		Find(&logins).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch login history")
	}

	var attemptActivity []struct {
		Date      string  `json:"date"`
		Quizzes   int     `json:"quizzes"`
		Attempts  int     `json:"attempts"`
		AvgScore  float64 `json:"avg_score"`
		HintsUsed int     `json:"hints_used"`
	}

	uc.DB.Raw(`
		SELECT
			DATE(created_at) as date,
			COUNT(DISTINCT quiz_id) as quizzes,
			COUNT(*) as attempts,
			AVG(CAST(score AS FLOAT) / total_questions * 100) as avg_score,
			SUM(hints_used) as hints_used
		FROM quiz_attempts
		WHERE user_id = ? AND created_at >= ? AND total_questions > 0
		GROUP BY DATE(created_at)
		ORDER BY date DESC
	`, userID, since).Scan(&attemptActivity)

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"logins":           logins,
		"attempt_activity": attemptActivity,
		"period_days":      days,
	})
}
