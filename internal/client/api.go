package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"todo_webapp/internal/domain"

	"github.com/gorilla/websocket"
)

// TaskForm is what the add and edit forms submit. Nil pointers are left out
// of the request.
type TaskForm struct {
	Title       string
	Description *string
	IsFinished  *bool
	Cover       *domain.Upload
}

// API talks to the task service over HTTP. Mutations answer a Result even
// when the server rejected them; only transport failures and unexpected
// responses are returned as errors.
type API struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// LoginDev exchanges a username for a token and keeps it for later calls.
func (a *API) LoginDev(ctx context.Context, username string) (*domain.User, error) {
	body, _ := json.Marshal(map[string]string{"username": username})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/api/v1/auth/dev", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
		Error string       `json:"error"`
	}
	status, err := a.send(req, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("login failed: %s", resp.Error)
	}
	a.Token = resp.Token
	return resp.User, nil
}

func (a *API) List(ctx context.Context, filter domain.TaskFilter, page int) (*domain.TaskList, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Status != "" && filter.Status != domain.StatusAll {
		q.Set("status", string(filter.Status))
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}

	u := a.BaseURL + "/api/v1/todos"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var list domain.TaskList
	status, err := a.send(req, &list)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list tasks: unexpected status %d", status)
	}
	return &list, nil
}

func (a *API) Create(ctx context.Context, form TaskForm) (domain.Result, error) {
	req, err := a.formRequest(ctx, http.MethodPost, "/api/v1/todos", form)
	if err != nil {
		return domain.Result{}, err
	}
	return a.result(req)
}

func (a *API) Update(ctx context.Context, id int64, form TaskForm) (domain.Result, error) {
	payload := map[string]any{"title": form.Title}
	if form.Description != nil {
		payload["description"] = *form.Description
	}
	if form.IsFinished != nil {
		payload["is_finished"] = *form.IsFinished
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, a.taskURL(id), bytes.NewReader(body))
	if err != nil {
		return domain.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.result(req)
}

func (a *API) ReplaceCover(ctx context.Context, id int64, cover *domain.Upload) (domain.Result, error) {
	req, err := a.formRequest(ctx, http.MethodPost, "/api/v1/todos/"+strconv.FormatInt(id, 10)+"/cover", TaskForm{Cover: cover})
	if err != nil {
		return domain.Result{}, err
	}
	return a.result(req)
}

func (a *API) Delete(ctx context.Context, id int64) (domain.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.taskURL(id), nil)
	if err != nil {
		return domain.Result{}, err
	}
	return a.result(req)
}

// Subscribe streams the caller's task events until ctx ends or the socket
// drops.
func (a *API) Subscribe(ctx context.Context, onEvent func(domain.TaskEvent)) error {
	wsURL := "ws" + strings.TrimPrefix(a.BaseURL, "http") + "/ws?token=" + url.QueryEscape(a.Token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		var ev domain.TaskEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		onEvent(ev)
	}
}

func (a *API) taskURL(id int64) string {
	return a.BaseURL + "/api/v1/todos/" + strconv.FormatInt(id, 10)
}

// formRequest builds a multipart body so a cover can travel with the fields.
func (a *API) formRequest(ctx context.Context, method, path string, form TaskForm) (*http.Request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if form.Title != "" {
		_ = mw.WriteField("title", form.Title)
	}
	if form.Description != nil {
		_ = mw.WriteField("description", *form.Description)
	}
	if form.Cover != nil {
		name := form.Cover.Filename
		if name == "" {
			name = "cover"
		}
		fw, err := mw.CreateFormFile("cover", name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(form.Cover.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func (a *API) result(req *http.Request) (domain.Result, error) {
	var res domain.Result
	status, err := a.send(req, &res)
	if err != nil {
		return domain.Result{}, err
	}
	if status >= 500 && res.Message == "" {
		return domain.Result{}, fmt.Errorf("server error: status %d", status)
	}
	if status == http.StatusUnauthorized {
		return domain.Result{}, ErrUnauthorized
	}
	return res, nil
}

var ErrUnauthorized = errors.New("not logged in or session expired")

func (a *API) send(req *http.Request, out any) (int, error) {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, err
	}
	if len(body) > 0 && out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
		}
	}
	return resp.StatusCode, nil
}
