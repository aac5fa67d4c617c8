package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"todo_webapp/internal/client"
	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
)

const help = `commands:
  search <text>        type into the search box (debounced)
  find [text]          submit the search right away
  status all|finished|pending
  page <n>
  add <title> [| description] [| cover-file]
  toggle <id>
  edit <id>            open the edit modal
  set <title> [| description] [| done]
  save                 submit the details form
  cover <file>         submit the cover form
  close                close the modal
  delete <id>
  stats
  quit`

func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "server base url")
	user := flag.String("user", "", "log in by username (server must run in DEV_MODE)")
	token := flag.String("token", os.Getenv("TODO_TOKEN"), "bearer token, instead of -user")
	flag.Parse()

	logger.Init("warn", false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := client.NewAPI(*server, *token)
	if *user != "" {
		if _, err := api.LoginDev(ctx, *user); err != nil {
			fmt.Fprintln(os.Stderr, "login:", err)
			os.Exit(1)
		}
	}

	in := bufio.NewScanner(os.Stdin)
	view := &terminalView{in: in}
	ctrl := client.NewController(api, view, client.Options{})

	go func() {
		_ = api.Subscribe(ctx, func(ev domain.TaskEvent) { ctrl.OnEvent(ctx, ev) })
	}()

	if err := ctrl.Mount(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}
	view.print(ctrl.State())
	fmt.Println(help)

	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(in.Text()), " ")
		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := run(ctx, ctrl, cmd, strings.TrimSpace(arg)); err != nil {
			fmt.Println("error:", err)
		}
		view.print(ctrl.State())
	}
}

func run(ctx context.Context, c *client.Controller, cmd, arg string) error {
	switch cmd {
	case "search":
		c.SetSearchText(ctx, arg)
		return nil
	case "find":
		if arg != "" {
			c.SetSearchText(ctx, arg)
		}
		return c.SubmitSearch(ctx)
	case "status":
		return c.SetStatusFilter(ctx, domain.StatusFilter(arg))
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return err
		}
		return c.GoToPage(ctx, n)
	case "add":
		parts := splitArgs(arg, 3)
		var cover *domain.Upload
		if parts[2] != "" {
			u, err := readFile(parts[2])
			if err != nil {
				return err
			}
			cover = u
		}
		c.SetAddDraft(parts[0], parts[1], cover)
		_, err := c.SubmitAdd(ctx)
		return err
	case "toggle":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return err
		}
		_, err = c.ToggleFinished(ctx, id)
		return err
	case "edit":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return err
		}
		return c.OpenEdit(id)
	case "set":
		parts := splitArgs(arg, 3)
		done := parts[2] == "done" || parts[2] == "true"
		return c.SetEditDraft(parts[0], parts[1], done)
	case "save":
		_, err := c.SubmitEdit(ctx)
		return err
	case "cover":
		u, err := readFile(arg)
		if err != nil {
			return err
		}
		_, err = c.SubmitCover(ctx, u)
		return err
	case "close":
		c.CloseEdit()
		return nil
	case "delete":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return err
		}
		_, err = c.Delete(ctx, id)
		return err
	case "stats":
		st := c.State().Stats
		page := c.PageStats()
		fmt.Printf("all matches: %d total, %d finished, %d pending\n", st.Total, st.Finished, st.Pending)
		fmt.Printf("this page:   %d finished of %d\n", page.Finished, page.Total)
		return nil
	case "help", "":
		fmt.Println(help)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func splitArgs(arg string, n int) []string {
	out := make([]string, n)
	for i, p := range strings.SplitN(arg, "|", n) {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func readFile(path string) (*domain.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &domain.Upload{Filename: filepath.Base(path), Data: data}, nil
}

// terminalView prints on demand; Render is a no-op because the REPL prints
// after every command.
type terminalView struct {
	in *bufio.Scanner
}

func (v *terminalView) Render(client.State) {}

func (v *terminalView) Notify(r domain.Result) {
	if r.OK {
		fmt.Println("ok:", r.Message)
		return
	}
	fmt.Println("failed:", r.Message)
	for field, msg := range r.Errors {
		fmt.Printf("  %s: %s\n", field, msg)
	}
}

func (v *terminalView) Confirm(prompt string) bool {
	fmt.Print(prompt + " [y/N] ")
	if !v.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(v.in.Text()))
	return answer == "y" || answer == "yes"
}

func (v *terminalView) print(s client.State) {
	fmt.Printf("\n[%s] search=%q  page %d/%d  (%d tasks)\n", s.Status, s.SearchText, s.Todos.CurrentPage, s.Todos.LastPage, s.Todos.Total)
	for _, t := range s.Todos.Data {
		mark := " "
		if t.IsFinished {
			mark = "x"
		}
		line := fmt.Sprintf("  [%s] #%d %s", mark, t.ID, t.Title)
		if t.Description != nil {
			line += " - " + *t.Description
		}
		if t.CoverURL != nil {
			line += "  (" + *t.CoverURL + ")"
		}
		fmt.Println(line)
	}
	if s.Edit != nil {
		fmt.Printf("editing #%d: title=%q description=%q done=%v\n", s.Edit.Task.ID, s.Edit.Title, s.Edit.Description, s.Edit.IsFinished)
	}
	if s.Error != "" {
		fmt.Println("error:", s.Error)
	}
}
