package models

import "gorm.io/gorm"

type QuizComment struct {
	gorm.Model
	QuizID    uint
	UserID    uint
	UserName  string
	UserImage string
	Text      string
	Rating    int                `gorm:"check:rating>=0 AND rating<=5"`
	Replies   []QuizCommentReply `gorm:"foreignKey:CommentID"`
}

type QuizCommentReply struct {
	gorm.Model
	CommentID uint
	UserID    uint
	UserName  string
	UserImage string
	Text      string
}
