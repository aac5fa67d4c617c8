package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"todo_webapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, description, cover, is_finished, created_at, updated_at`

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Cover, &t.IsFinished, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// filterClause builds the owner-scoped WHERE clause. Search uses ILIKE, so
// matching is case-insensitive; wildcard characters in the query are literal.
func filterClause(ownerID int64, f domain.TaskFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{ownerID}

	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	switch f.Status {
	case domain.StatusFinished:
		conds = append(conds, "is_finished = TRUE")
	case domain.StatusPending:
		conds = append(conds, "is_finished = FALSE")
	}

	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// List returns one page of the owner's tasks, newest first.
func (r *TaskRepository) List(ctx context.Context, ownerID int64, f domain.TaskFilter, limit, offset int) ([]*domain.Task, error) {
	where, args := filterClause(ownerID, f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM todos WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		taskColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]*domain.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *TaskRepository) Count(ctx context.Context, ownerID int64, f domain.TaskFilter) (int64, error) {
	where, args := filterClause(ownerID, f)
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM todos WHERE `+where, args...).Scan(&total)
	return total, err
}

// Stats counts finished and pending tasks matching search, ignoring status.
func (r *TaskRepository) Stats(ctx context.Context, ownerID int64, search string) (domain.TaskStats, error) {
	where, args := filterClause(ownerID, domain.TaskFilter{Search: search, Status: domain.StatusAll})

	var s domain.TaskStats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_finished) FROM todos WHERE `+where,
		args...,
	).Scan(&s.Total, &s.Finished)
	s.Pending = s.Total - s.Finished
	return s, err
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM todos WHERE id = $1`, id))
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO todos (user_id, title, description, cover, is_finished)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		t.UserID, t.Title, t.Description, t.Cover, t.IsFinished,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update writes title, description and is_finished. The owner is part of
// the predicate so a row owned by someone else is never touched.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx,
		`UPDATE todos
		 SET title = $1, description = $2, is_finished = $3, updated_at = NOW()
		 WHERE id = $4 AND user_id = $5
		 RETURNING updated_at`,
		t.Title, t.Description, t.IsFinished, t.ID, t.UserID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *TaskRepository) SetCover(ctx context.Context, ownerID, id int64, cover *string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE todos SET cover = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
		cover, id, ownerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
