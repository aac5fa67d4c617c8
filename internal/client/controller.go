// Package client is the presentation side of the tracker: it keeps the
// page state (filters, current page, add form, edit modal), drives the task
// API and hands snapshots to a View for rendering.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
)

// SearchDelay is how long typing must pause before the search is sent.
const SearchDelay = 300 * time.Millisecond

var (
	ErrBusy        = errors.New("form is already being submitted")
	ErrModalOpen   = errors.New("another task is being edited")
	ErrNoModal     = errors.New("no task is being edited")
	ErrUnknownTask = errors.New("task is not on the current page")
)

// Backend is the task API as seen by the controller.
type Backend interface {
	List(ctx context.Context, filter domain.TaskFilter, page int) (*domain.TaskList, error)
	Create(ctx context.Context, form TaskForm) (domain.Result, error)
	Update(ctx context.Context, id int64, form TaskForm) (domain.Result, error)
	ReplaceCover(ctx context.Context, id int64, cover *domain.Upload) (domain.Result, error)
	Delete(ctx context.Context, id int64) (domain.Result, error)
}

// View renders state and talks to the user. Calls come from whichever
// goroutine changed the state, never while the controller holds its lock.
type View interface {
	Render(State)
	Notify(domain.Result)
	Confirm(prompt string) bool
}

// FormState tracks one independently submitted form.
type FormState struct {
	Processing bool
	Errors     map[string]string
}

type AddForm struct {
	Title       string
	Description string
	Cover       *domain.Upload
	FormState
}

// EditModal is open on exactly one task. Details and Cover are separate
// forms with their own processing flags.
type EditModal struct {
	Task        domain.Task
	Title       string
	Description string
	IsFinished  bool
	Details     FormState
	Cover       FormState
}

type State struct {
	SearchText string
	Status     domain.StatusFilter
	Page       int
	Todos      domain.TaskPage
	Stats      domain.TaskStats
	Loading    bool
	Error      string
	Add        AddForm
	Edit       *EditModal
}

type Options struct {
	SearchDelay time.Duration
}

type Controller struct {
	backend Backend
	view    View
	search  *Debouncer

	mu      sync.Mutex
	state   State
	seq     uint64
	applied uint64
}

func NewController(backend Backend, view View, opts Options) *Controller {
	if opts.SearchDelay <= 0 {
		opts.SearchDelay = SearchDelay
	}
	return &Controller{
		backend: backend,
		view:    view,
		search:  NewDebouncer(opts.SearchDelay),
		state:   State{Status: domain.StatusAll, Page: 1},
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Mount loads the first page.
func (c *Controller) Mount(ctx context.Context) error {
	return c.fetch(ctx, 1)
}

// SetSearchText records the typed text and schedules a search once typing
// pauses.
func (c *Controller) SetSearchText(ctx context.Context, text string) {
	c.mu.Lock()
	c.state.SearchText = text
	c.mu.Unlock()
	c.render()

	c.search.Trigger(func() {
		if err := c.fetch(ctx, 1); err != nil {
			logger.Debug("debounced search failed", "error", err)
		}
	})
}

// SubmitSearch searches right away, dropping any pending debounced search.
func (c *Controller) SubmitSearch(ctx context.Context) error {
	c.search.Cancel()
	return c.fetch(ctx, 1)
}

func (c *Controller) SetStatusFilter(ctx context.Context, status domain.StatusFilter) error {
	c.mu.Lock()
	c.state.Status = domain.ParseStatusFilter(string(status))
	c.mu.Unlock()

	c.search.Cancel()
	return c.fetch(ctx, 1)
}

func (c *Controller) GoToPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	return c.fetch(ctx, page)
}

// Refresh reloads the current page with the current filters.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	page := c.state.Page
	c.mu.Unlock()
	return c.fetch(ctx, page)
}

// OnEvent refreshes when the server reports the list changed elsewhere.
func (c *Controller) OnEvent(ctx context.Context, ev domain.TaskEvent) {
	if ev.Type != domain.EventTasksChanged {
		return
	}
	if err := c.Refresh(ctx); err != nil {
		logger.Debug("refresh after event failed", "error", err)
	}
}

func (c *Controller) SetAddDraft(title, description string, cover *domain.Upload) {
	c.mu.Lock()
	c.state.Add.Title = title
	c.state.Add.Description = description
	c.state.Add.Cover = cover
	c.mu.Unlock()
	c.render()
}

// SubmitAdd creates a task from the add form. On success the form is
// cleared and the list reloaded.
func (c *Controller) SubmitAdd(ctx context.Context) (domain.Result, error) {
	c.mu.Lock()
	if c.state.Add.Processing {
		c.mu.Unlock()
		return domain.Result{}, ErrBusy
	}
	c.state.Add.Processing = true
	form := TaskForm{Title: c.state.Add.Title, Cover: c.state.Add.Cover}
	if c.state.Add.Description != "" {
		d := c.state.Add.Description
		form.Description = &d
	}
	c.mu.Unlock()
	c.render()

	res, err := c.backend.Create(ctx, form)

	c.mu.Lock()
	c.state.Add.Processing = false
	if err == nil {
		if res.OK {
			c.state.Add = AddForm{}
		} else {
			c.state.Add.Errors = res.Errors
		}
	}
	c.mu.Unlock()

	return c.finish(ctx, res, err)
}

// ToggleFinished flips the completion flag of a task on the current page.
func (c *Controller) ToggleFinished(ctx context.Context, id int64) (domain.Result, error) {
	c.mu.Lock()
	task := c.findTask(id)
	c.mu.Unlock()
	if task == nil {
		return domain.Result{}, ErrUnknownTask
	}

	flipped := !task.IsFinished
	res, err := c.backend.Update(ctx, id, TaskForm{
		Title:       task.Title,
		Description: task.Description,
		IsFinished:  &flipped,
	})
	return c.finish(ctx, res, err)
}

// OpenEdit opens the edit modal on a task of the current page.
func (c *Controller) OpenEdit(id int64) error {
	c.mu.Lock()
	if c.state.Edit != nil {
		c.mu.Unlock()
		return ErrModalOpen
	}
	task := c.findTask(id)
	if task == nil {
		c.mu.Unlock()
		return ErrUnknownTask
	}
	m := &EditModal{Task: *task, Title: task.Title, IsFinished: task.IsFinished}
	if task.Description != nil {
		m.Description = *task.Description
	}
	c.state.Edit = m
	c.mu.Unlock()
	c.render()
	return nil
}

// CloseEdit discards the modal without saving anything.
func (c *Controller) CloseEdit() {
	c.mu.Lock()
	c.state.Edit = nil
	c.mu.Unlock()
	c.render()
}

func (c *Controller) SetEditDraft(title, description string, isFinished bool) error {
	c.mu.Lock()
	if c.state.Edit == nil {
		c.mu.Unlock()
		return ErrNoModal
	}
	c.state.Edit.Title = title
	c.state.Edit.Description = description
	c.state.Edit.IsFinished = isFinished
	c.mu.Unlock()
	c.render()
	return nil
}

// SubmitEdit saves the details form. Success closes the modal and reloads;
// failure keeps it open with the field errors.
func (c *Controller) SubmitEdit(ctx context.Context) (domain.Result, error) {
	c.mu.Lock()
	m := c.state.Edit
	if m == nil {
		c.mu.Unlock()
		return domain.Result{}, ErrNoModal
	}
	if m.Details.Processing {
		c.mu.Unlock()
		return domain.Result{}, ErrBusy
	}
	m.Details.Processing = true
	id := m.Task.ID
	desc := m.Description
	finished := m.IsFinished
	form := TaskForm{Title: m.Title, Description: &desc, IsFinished: &finished}
	c.mu.Unlock()
	c.render()

	res, err := c.backend.Update(ctx, id, form)

	c.mu.Lock()
	c.settleModal(id, res, err, func(m *EditModal) *FormState { return &m.Details })
	c.mu.Unlock()

	return c.finish(ctx, res, err)
}

// SubmitCover uploads a replacement cover from the modal.
func (c *Controller) SubmitCover(ctx context.Context, cover *domain.Upload) (domain.Result, error) {
	c.mu.Lock()
	m := c.state.Edit
	if m == nil {
		c.mu.Unlock()
		return domain.Result{}, ErrNoModal
	}
	if m.Cover.Processing {
		c.mu.Unlock()
		return domain.Result{}, ErrBusy
	}
	m.Cover.Processing = true
	id := m.Task.ID
	c.mu.Unlock()
	c.render()

	res, err := c.backend.ReplaceCover(ctx, id, cover)

	c.mu.Lock()
	c.settleModal(id, res, err, func(m *EditModal) *FormState { return &m.Cover })
	c.mu.Unlock()

	return c.finish(ctx, res, err)
}

// Delete asks for confirmation, then deletes. A declined prompt does nothing.
func (c *Controller) Delete(ctx context.Context, id int64) (domain.Result, error) {
	if !c.view.Confirm("Are you sure? This activity will be permanently deleted.") {
		return domain.Result{}, nil
	}
	res, err := c.backend.Delete(ctx, id)
	return c.finish(ctx, res, err)
}

// PageStats counts completion over the tasks on the current page against
// the overall total.
func (c *Controller) PageStats() domain.TaskStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := domain.TaskStats{Total: c.state.Todos.Total}
	for _, t := range c.state.Todos.Data {
		if t.IsFinished {
			st.Finished++
		}
	}
	st.Pending = st.Total - st.Finished
	if st.Pending < 0 {
		st.Pending = 0
	}
	return st
}

// settleModal clears the form's processing flag and closes the modal after
// a successful submit. Caller holds c.mu.
func (c *Controller) settleModal(id int64, res domain.Result, err error, form func(*EditModal) *FormState) {
	m := c.state.Edit
	if m == nil || m.Task.ID != id {
		return
	}
	f := form(m)
	f.Processing = false
	if err != nil {
		return
	}
	if res.OK {
		c.state.Edit = nil
		return
	}
	f.Errors = res.Errors
}

// finish reports a mutation outcome and reloads the list after a success.
func (c *Controller) finish(ctx context.Context, res domain.Result, err error) (domain.Result, error) {
	if err != nil {
		c.mu.Lock()
		c.state.Error = err.Error()
		c.mu.Unlock()
		c.render()
		return res, err
	}

	c.view.Notify(res)
	if !res.OK {
		c.render()
		return res, nil
	}
	return res, c.Refresh(ctx)
}

// fetch loads page with the current filters. Responses are applied in
// request order: a reply older than one already applied is dropped.
func (c *Controller) fetch(ctx context.Context, page int) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	filter := domain.TaskFilter{Search: c.state.SearchText, Status: c.state.Status}
	c.state.Loading = true
	c.mu.Unlock()
	c.render()

	list, err := c.backend.List(ctx, filter, page)

	c.mu.Lock()
	if seq < c.applied {
		c.mu.Unlock()
		return nil
	}
	c.applied = seq
	if seq == c.seq {
		c.state.Loading = false
	}
	if err != nil {
		c.state.Error = err.Error()
		c.mu.Unlock()
		c.render()
		return err
	}

	// the page emptied under us, e.g. its last task was deleted
	if len(list.Todos.Data) == 0 && page > 1 && page > list.Todos.LastPage {
		last := list.Todos.LastPage
		c.mu.Unlock()
		return c.fetch(ctx, last)
	}

	c.state.Error = ""
	c.state.Page = list.Todos.CurrentPage
	c.state.Todos = list.Todos
	c.state.Stats = list.Stats
	c.mu.Unlock()
	c.render()
	return nil
}

// findTask looks up a task on the current page. Caller holds c.mu.
func (c *Controller) findTask(id int64) *domain.Task {
	for _, t := range c.state.Todos.Data {
		if t.ID == id {
			cp := *t
			return &cp
		}
	}
	return nil
}

func (c *Controller) render() {
	c.mu.Lock()
	s := c.snapshot()
	c.mu.Unlock()
	c.view.Render(s)
}

// snapshot copies state so the view never shares the modal pointer.
// Caller holds c.mu.
func (c *Controller) snapshot() State {
	s := c.state
	if s.Edit != nil {
		m := *s.Edit
		s.Edit = &m
	}
	return s
}
