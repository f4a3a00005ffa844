package models

import "time"

type MonthlyProgress struct {
	Month           time.Month
	Year            int
	StreakDays      int
	QuizzesFinished int64
	LoginFrequency  map[string]int // day -> count
}

type ProgressOverview struct {
	TotalStreakDays       int
	TotalQuizzesCompleted int
	TotalAttempts         int
	MonthlyProgress       []MonthlyProgress
}
