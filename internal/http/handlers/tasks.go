package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

// taskForm is accepted as JSON, urlencoded or multipart. Pointers tell an
// absent field from an empty one.
type taskForm struct {
	Title       string  `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
	IsFinished  *bool   `json:"is_finished" form:"is_finished"`
}

// ListTasks serves one page of the caller's tasks.
// GET /todos?search=&status=&page=
func (h *Handler) ListTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	filter := domain.TaskFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Status: domain.ParseStatusFilter(c.Query("status")),
	}
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}

	list, err := h.TaskService.List(c.Request.Context(), userID, filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}

	query := c.Request.URL.Query()
	path := c.Request.URL.Path
	list.Todos.BuildLinks(func(p int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(p))
		return path + "?" + q.Encode()
	})

	c.JSON(http.StatusOK, list)
}

// CreateTask accepts title, description and an optional cover file.
// POST /todos
func (h *Handler) CreateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody())

	var form taskForm
	if err := c.ShouldBind(&form); err != nil {
		h.badRequest(c, err)
		return
	}
	cover, err := readUpload(c, "cover")
	if err != nil {
		h.badRequest(c, err)
		return
	}

	task, err := h.TaskService.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Title:       form.Title,
		Description: form.Description,
		Cover:       cover,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, domain.Success(domain.MsgCreated, task))
}

// UpdateTask replaces title and description; is_finished only when sent.
// PUT /todos/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var form taskForm
	if err := c.ShouldBind(&form); err != nil {
		h.badRequest(c, err)
		return
	}

	task, err := h.TaskService.Update(c.Request.Context(), userID, taskID, service.UpdateTaskInput{
		Title:       form.Title,
		Description: form.Description,
		IsFinished:  form.IsFinished,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Success(domain.MsgUpdated, task))
}

// ReplaceCover swaps the cover image.
// POST /todos/:id/cover
func (h *Handler) ReplaceCover(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody())

	cover, err := readUpload(c, "cover")
	if err != nil {
		h.badRequest(c, err)
		return
	}

	task, err := h.TaskService.ReplaceCover(c.Request.Context(), userID, taskID, cover)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Success(domain.MsgCoverUpdated, task))
}

// DeleteTask removes a task and its cover.
// DELETE /todos/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.TaskService.Delete(c.Request.Context(), userID, taskID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Success(domain.MsgDeleted, nil))
}

// taskIDParam parses :id. A malformed id is reported like any other task the
// caller cannot access.
func taskIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusForbidden, domain.Failure(domain.ErrForbidden))
		return 0, false
	}
	return id, true
}

// readUpload returns the named multipart file, or nil when the request has
// none.
func readUpload(c *gin.Context, field string) (*domain.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*domain.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &domain.Upload{Filename: fh.Filename, Data: data}, nil
}

func (h *Handler) fail(c *gin.Context, err error) {
	var verr *domain.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotFound):
		status = http.StatusForbidden
	default:
		logger.FromContext(c.Request.Context()).Error("task request failed", "error", err)
	}
	c.JSON(status, domain.Failure(err))
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		verr := &domain.ValidationError{}
		verr.Add("cover", "The cover field must not be greater than "+strconv.FormatInt(h.MaxCoverBytes/1024, 10)+" kilobytes.")
		c.JSON(http.StatusUnprocessableEntity, domain.Failure(verr))
		return
	}
	c.JSON(http.StatusBadRequest, domain.Result{Message: "Malformed request."})
}
