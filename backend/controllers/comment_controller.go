package controllers

import (
	"strconv"

	"quizhub/backend/config"
	"quizhub/backend/models"
	"quizhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CommentsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCommentsController(db *gorm.DB, cfg *config.Config) *CommentsController {
	return &CommentsController{DB: db, Cfg: cfg}
}

// AddQuizComment godoc
// @Summary Add comment to quiz
// @Description Adds a comment with rating to a quiz
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/comments [post]
func (cc *CommentsController) AddQuizComment(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
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
		Text   string `json:"text"`
		Rating int    `json:"rating"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Rating < 0 || input.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Rating must be between 0 and 5",
		})
	}

	var user models.User
	if err := cc.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	comment := models.QuizComment{
		QuizID:   uint(quizID),
		UserID:   userID,
		UserName: user.Username,
		Text:     input.Text,
		Rating:   input.Rating,
	}

	if err := cc.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create comment",
		})
	}

	return c.JSON(comment)
}

// GetQuizComments godoc
// @Summary Get quiz comments
// @Description Returns all comments for a quiz
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /quizzes/{id}/comments [get]
func (cc *CommentsController) GetQuizComments(c *fiber.Ctx) error {
	quizID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var comments []models.QuizComment
	result := cc.DB.Preload("Replies").Where("quiz_id = ?", quizID).Find(&comments)

	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch comments",
		})
	}

	return c.JSON(comments)
}
