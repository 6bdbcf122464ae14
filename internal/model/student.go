package model

import "time"

// Student represents a student user.
type Student struct {
	ID           int       `json:"id"`
	NISN         string    `json:"nisn"`
	Name         string    `json:"name"`
	ClassName    string    `json:"class_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudentLoginRequest is the student login payload.
type StudentLoginRequest struct {
	NISN     string `json:"nisn" binding:"required,min=4,max=20"`
	Password string `json:"password" binding:"required,min=6"`
}

// CreateStudentRequest is the admin payload for registering a student.
type CreateStudentRequest struct {
	NISN      string `json:"nisn" binding:"required,min=4,max=20"`
	Name      string `json:"name" binding:"required,min=2,max=255"`
	ClassName string `json:"class_name" binding:"required,min=1,max=50"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
}
