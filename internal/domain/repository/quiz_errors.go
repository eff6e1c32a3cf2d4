package repository

import "errors"

var (
	// ErrShareCodeTaken означает, что сгенерированный код доступа уже занят
	// другой викториной (unique constraint на quizzes.share_code).
	ErrShareCodeTaken = errors.New("share code is already taken")
	// ErrAlreadyJoined означает, что пользователь уже присоединился к этой викторине.
	ErrAlreadyJoined = errors.New("user already joined this quiz")
	// ErrAlreadyAnswered означает, что участник уже ответил на этот вопрос.
	ErrAlreadyAnswered = errors.New("participant already answered this question")
)
