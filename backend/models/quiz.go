package models

import "gorm.io/gorm"

type Quiz struct {
	gorm.Model
	Title          string
	ShortDesc      string
	Description    string
	Difficulty     string // beginner, intermediate, advanced
	Topic          string
	AuthorID       uint
	LogoURL        string
	CompletionRate float64
	Questions      []QuizQuestion
	Comments       []QuizComment
	AccessSettings QuizAccessSettings
}

type QuizQuestion struct {
	gorm.Model
	QuizID        uint
	Prompt        string
	Options       string // JSON array of options
	CorrectAnswer int
	Hint          string
	SequenceOrder int
}

type QuizAccessSettings struct {
	gorm.Model
	QuizID          uint
	AccessLevel     string // public, private, restricted
	StartDate       string
	EndDate         string
	Admins          string // comma-separated IDs
	AttemptsAllowed int    `gorm:"default:0"` // 0 = unlimited
}

type UserQuizProgress struct {
	gorm.Model
	UserID       uint
	QuizID       uint
	AttemptsUsed int
	BestScore    int
	LastScore    int
	LastAttempt  string
}
