package models

import "gorm.io/gorm"

// QuizAttempt is one finished run through a quiz, persisted from the
// runner's final report.
type QuizAttempt struct {
	gorm.Model
	UserID           uint
	QuizID           uint
	Score            int
	TotalQuestions   int
	IncorrectPrompts string // JSON array of missed question prompts
	HintsUsed        int
	DurationSeconds  float64
	Relayed          bool
}
