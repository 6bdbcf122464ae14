package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/cbtarena/cbtarena-backend/internal/model"
)

// Compile-time pins for methods consumed across package boundaries. The
// service and handler layers call these through concrete types, so a
// signature drift only surfaces when those packages build — pinning the
// shapes here fails the repository package first.
var (
	_ AttemptStore = (*AttemptRepository)(nil)

	_ func(context.Context, uuid.UUID, []model.Question) error    = (&QuestionRepository{}).ReplaceForExam
	_ func(context.Context, int, int) ([]model.Student, int, error) = (&StudentRepository{}).List
)
