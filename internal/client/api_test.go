package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"todo_webapp/internal/domain"
	apphttp "todo_webapp/internal/http"
	"todo_webapp/internal/http/handlers"
	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/repository/memory"
	"todo_webapp/internal/service"
	"todo_webapp/internal/storage"
	"todo_webapp/internal/ws"

	"github.com/gin-gonic/gin"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitJWT("client-test-secret", time.Hour)
	middleware.UseRedis(nil)

	hub := ws.NewHub()
	audit := service.NewAuditService(memory.NewAuditRepository())
	tasks := service.NewTaskService(memory.NewTaskRepository(), storage.NewMemoryStore("http://test"), service.TaskServiceConfig{
		PageSize: 15,
		Notifier: hub,
		Audit:    audit,
	})
	auth := service.NewAuthService(memory.NewUserRepository(), audit, "", true)

	r := gin.New()
	apphttp.RegisterRoutes(r, handlers.NewHandler(tasks, auth, audit, 0), handlers.NewHealthHandler("test"), hub, apphttp.RouteConfig{
		APIRateLimit:      10000,
		APIRateWindow:     time.Minute,
		MutationRateLimit: 10000,
		DevMode:           true,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPI_RoundTrip(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	api := NewAPI(srv.URL, "")

	if _, err := api.List(ctx, domain.TaskFilter{}, 1); err == nil {
		t.Fatalf("listing without a token should fail")
	}

	user, err := api.LoginDev(ctx, "carol")
	if err != nil || user.Username != "carol" || api.Token == "" {
		t.Fatalf("login: %+v %v", user, err)
	}

	events := make(chan domain.TaskEvent, 8)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = api.Subscribe(subCtx, func(ev domain.TaskEvent) { events <- ev })
	}()
	waitEvent(t, events, domain.EventReady)

	desc := "with cover"
	res, err := api.Create(ctx, TaskForm{Title: "Paint", Description: &desc, Cover: &domain.Upload{Filename: "p.png", Data: pngCover}})
	if err != nil || !res.OK || res.Task.CoverURL == nil {
		t.Fatalf("create: %+v %v", res, err)
	}
	waitEvent(t, events, domain.EventTasksChanged)
	id := res.Task.ID

	res, err = api.Create(ctx, TaskForm{Title: ""})
	if err != nil || res.OK || res.Errors["title"] == "" {
		t.Fatalf("expected validation result, got %+v %v", res, err)
	}

	done := true
	res, err = api.Update(ctx, id, TaskForm{Title: "Paint the fence", Description: &desc, IsFinished: &done})
	if err != nil || !res.OK || !res.Task.IsFinished {
		t.Fatalf("update: %+v %v", res, err)
	}

	list, err := api.List(ctx, domain.TaskFilter{Search: "fence", Status: domain.StatusFinished}, 1)
	if err != nil || list.Todos.Total != 1 {
		t.Fatalf("list: %+v %v", list, err)
	}

	res, err = api.ReplaceCover(ctx, id, &domain.Upload{Filename: "n.png", Data: pngCover})
	if err != nil || !res.OK {
		t.Fatalf("cover: %+v %v", res, err)
	}

	res, err = api.Delete(ctx, id)
	if err != nil || !res.OK || res.Message != domain.MsgDeleted {
		t.Fatalf("delete: %+v %v", res, err)
	}
	res, err = api.Delete(ctx, id)
	if err != nil || res.OK || res.Message != domain.MsgForbidden {
		t.Fatalf("second delete should be denied: %+v %v", res, err)
	}
}

func waitEvent(t *testing.T, events <-chan domain.TaskEvent, typ string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == typ {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}
