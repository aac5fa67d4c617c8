package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/migrations"
	"todo_webapp/internal/repository"
	"todo_webapp/internal/service"
	"todo_webapp/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := migrations.Apply(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *pgxpool.Pool, prefix string) *domain.User {
	t.Helper()
	u := &domain.User{Username: fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())}
	if err := repository.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestTaskRepository_OwnerScopedCRUD(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := repository.NewTaskRepository(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	desc := "50% off, under_score"
	first := &domain.Task{UserID: alice.ID, Title: "Buy paint", Description: &desc}
	second := &domain.Task{UserID: alice.ID, Title: "Paint the fence"}
	for _, task := range []*domain.Task{first, second} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := repo.List(ctx, alice.ID, domain.TaskFilter{Search: "PAINT", Status: domain.StatusAll}, 15, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected both tasks newest first, got %d", len(list))
	}

	// LIKE wildcards in the search text are literal
	n, err := repo.Count(ctx, alice.ID, domain.TaskFilter{Search: "50%", Status: domain.StatusAll})
	if err != nil || n != 1 {
		t.Fatalf("expected literal %% match, got %d (%v)", n, err)
	}
	n, _ = repo.Count(ctx, alice.ID, domain.TaskFilter{Search: "b_y", Status: domain.StatusAll})
	if n != 0 {
		t.Fatalf("underscore must not act as a wildcard")
	}

	if n, _ := repo.Count(ctx, bob.ID, domain.TaskFilter{Status: domain.StatusAll}); n != 0 {
		t.Fatalf("bob must not see alice's tasks")
	}

	second.IsFinished = true
	if err := repo.Update(ctx, second); err != nil {
		t.Fatalf("update: %v", err)
	}
	stats, err := repo.Stats(ctx, alice.ID, "")
	if err != nil || stats != (domain.TaskStats{Total: 2, Finished: 1, Pending: 1}) {
		t.Fatalf("unexpected stats %+v (%v)", stats, err)
	}

	foreign := *second
	foreign.UserID = bob.ID
	if err := repo.Update(ctx, &foreign); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update by non-owner should match nothing, got %v", err)
	}
	if err := repo.Delete(ctx, bob.ID, second.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete by non-owner should match nothing, got %v", err)
	}

	cover := "todos/covers/x.png"
	if err := repo.SetCover(ctx, alice.ID, first.ID, &cover); err != nil {
		t.Fatalf("set cover: %v", err)
	}
	got, err := repo.GetByID(ctx, first.ID)
	if err != nil || got.Cover == nil || *got.Cover != cover {
		t.Fatalf("cover not stored: %+v %v", got, err)
	}

	if err := repo.Delete(ctx, alice.ID, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTaskService_Postgres(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "svc")

	files, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	svc := service.NewTaskService(repository.NewTaskRepository(db), files, service.TaskServiceConfig{
		PageSize: 15,
		Audit:    service.NewAuditService(repository.NewAuditRepository(db)),
	})

	task, err := svc.Create(ctx, owner.ID, service.CreateTaskInput{Title: "From Postgres"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := svc.List(ctx, owner.ID, domain.TaskFilter{}, 1)
	if err != nil || list.Todos.Total != 1 || list.Todos.Data[0].ID != task.ID {
		t.Fatalf("list: %+v %v", list, err)
	}

	logs, err := repository.NewAuditRepository(db).GetByUserID(ctx, owner.ID, 10)
	if err != nil || len(logs) != 1 || logs[0].Action != domain.AuditActionTaskCreate {
		t.Fatalf("expected a create audit entry, got %+v %v", logs, err)
	}
}
