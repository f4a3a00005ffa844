// Package seed ships a built-in demo quiz so a fresh instance is playable
// before anyone has authored content.
package seed

import (
	"encoding/json"

	"quizhub/backend/models"

	"gorm.io/gorm"
)

type seedQuestion struct {
	prompt  string
	options []string
	correct int
	hint    string
}

var demoQuestions = []seedQuestion{
	{
		prompt:  "Which word best completes the sentence: \"Her argument was so ___________ that nobody could refute it.\"",
		options: []string{"tenuous", "cogent", "verbose", "oblique"},
		correct: 1,
		hint:    "Think of an argument that is clear, logical and convincing.",
	},
	{
		prompt:  "What does the word \"ephemeral\" mean?",
		options: []string{"Lasting a very short time", "Extremely fragile", "Difficult to understand", "Repeated endlessly"},
		correct: 0,
		hint:    "Mayflies are the classic example.",
	},
	{
		prompt:  "Which option is a synonym of \"ubiquitous\"?",
		options: []string{"Rare", "Omnipresent", "Obsolete", "Ambiguous"},
		correct: 1,
		hint:    "Smartphones are often described this way.",
	},
	{
		prompt:  "\"To capitulate\" most nearly means to:",
		options: []string{"Summarize", "Invest", "Surrender", "Celebrate"},
		correct: 2,
		hint:    "It is what a besieged city eventually does.",
	},
	{
		prompt:  "Which word describes a person who talks very little?",
		options: []string{"Garrulous", "Taciturn", "Gregarious", "Histrionic"},
		correct: 1,
	},
}

// Demo inserts the demo quiz unless one already exists.
func Demo(db *gorm.DB) error {
	var count int64
	db.Model(&models.Quiz{}).Where("title = ?", "Vocabulary Builder (Demo)").Count(&count)
	if count > 0 {
		return nil
	}

	quiz := models.Quiz{
		Title:      "Vocabulary Builder (Demo)",
		ShortDesc:  "Five vocabulary questions with hints",
		Difficulty: "beginner",
		Topic:      "vocabulary",
	}
	if err := db.Create(&quiz).Error; err != nil {
		return err
	}

	for i, sq := range demoQuestions {
		optionsJson, err := json.Marshal(sq.options)
		if err != nil {
			return err
		}
		question := models.QuizQuestion{
			QuizID:        quiz.ID,
			Prompt:        sq.prompt,
			Options:       string(optionsJson),
			CorrectAnswer: sq.correct,
			Hint:          sq.hint,
			SequenceOrder: i + 1,
		}
		if err := db.Create(&question).Error; err != nil {
			return err
		}
	}

	return db.Create(&models.QuizAccessSettings{
		QuizID:      quiz.ID,
		AccessLevel: "public",
	}).Error
}
