package main

import (
	"context"
	"flag"
	"os"
	"time"

	"todo_webapp/internal/client"
	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
)

// Smoke test against a running server in DEV_MODE: a task created by one
// user must reach that user's socket and not another user's.
func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "server base url")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	apiA := client.NewAPI(*server, "")
	apiB := client.NewAPI(*server, "")
	if _, err := apiA.LoginDev(ctx, "smokeA"); err != nil {
		logger.Fatal("login A", "error", err)
	}
	if _, err := apiB.LoginDev(ctx, "smokeB"); err != nil {
		logger.Fatal("login B", "error", err)
	}

	evA := subscribe(ctx, apiA)
	evB := subscribe(ctx, apiB)
	waitFor(evA, domain.EventReady, 3*time.Second, "A ready")
	waitFor(evB, domain.EventReady, 3*time.Second, "B ready")

	res, err := apiA.Create(ctx, client.TaskForm{Title: "smoke " + time.Now().Format(time.RFC3339)})
	if err != nil || !res.OK {
		logger.Fatal("create failed", "error", err, "result", res)
	}
	waitFor(evA, domain.EventTasksChanged, 3*time.Second, "A tasks_changed")

	select {
	case ev := <-evB:
		logger.Fatal("B received an event for A's task", "event", ev)
	case <-time.After(500 * time.Millisecond):
	}

	if del, err := apiA.Delete(ctx, res.Task.ID); err != nil || !del.OK {
		logger.Fatal("cleanup delete failed", "error", err, "result", del)
	}
	logger.Info("ws smoke test passed")
	os.Exit(0)
}

func subscribe(ctx context.Context, api *client.API) <-chan domain.TaskEvent {
	ch := make(chan domain.TaskEvent, 16)
	go func() {
		if err := api.Subscribe(ctx, func(ev domain.TaskEvent) { ch <- ev }); err != nil {
			logger.Error("subscription ended", "error", err)
		}
	}()
	return ch
}

func waitFor(ch <-chan domain.TaskEvent, typ string, d time.Duration, what string) {
	timeout := time.After(d)
	for {
		select {
		case ev := <-ch:
			if ev.Type == typ {
				logger.Info("received", "what", what)
				return
			}
		case <-timeout:
			logger.Fatal("timed out", "waiting_for", what)
		}
	}
}
