package repository

import (
	"context"
	"errors"

	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStudentNotFound is returned when a student row does not exist.
var ErrStudentNotFound = errors.New("student not found")

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByNISN retrieves a student by their NISN (login identifier).
func (r *StudentRepository) GetByNISN(ctx context.Context, nisn string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, nisn, name, class_name, password_hash, created_at
		 FROM students WHERE nisn = $1`, nisn,
	).Scan(&s.ID, &s.NISN, &s.Name, &s.ClassName, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a student by primary key.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, nisn, name, class_name, password_hash, created_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.NISN, &s.Name, &s.ClassName, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (nisn, name, class_name, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		s.NISN, s.Name, s.ClassName, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt)
}

// List retrieves students ordered by class and name.
func (r *StudentRepository) List(ctx context.Context, limit, offset int) ([]model.Student, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, nisn, name, class_name, password_hash, created_at
		 FROM students
		 ORDER BY class_name ASC, name ASC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.NISN, &s.Name, &s.ClassName, &s.PasswordHash, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}
