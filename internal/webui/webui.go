// ABOUTME: Web UI for the task board: login, registration and task pages
// ABOUTME: Server-rendered forms with CSRF protection, backed by the board service

package webui

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/2389/taskboard/internal/accounts"
	"github.com/2389/taskboard/internal/board"
	"github.com/2389/taskboard/internal/dedupe"
	"github.com/2389/taskboard/internal/tasks"
)

// CSRFCookieName is the name of the CSRF token cookie
const CSRFCookieName = "taskboard_csrf"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userContextKey contextKey = "user"
const csrfContextKey contextKey = "csrf_token"

// Messages shown to the user.
const (
	msgInvalidCredentials = "Credenciales inválidas. Si no tienes cuenta regístrate."
	msgRegisterMissing    = "Completa todos los campos."
	msgDuplicateEmail     = "Ya existe una cuenta con ese correo."
	msgCreateMissing      = "Título y fecha de entrega son obligatorios."
	msgEditMissing        = "Título y fecha obligatorios."
	msgInvalidRequest     = "Solicitud inválida, inténtalo de nuevo."
	msgInternal           = "Ocurrió un error. Inténtalo más tarde."
	msgTaskNotFound       = "La tarea no existe."
	msgForbidden          = "Esta tarea pertenece a otra cuenta."
)

// Submission ids of the new-task form are remembered this long.
const (
	submissionTTL   = 10 * time.Minute
	submissionLimit = 1024
)

// UI handles the task board pages.
type UI struct {
	board       *board.Service
	pages       map[string]*template.Template
	markdown    goldmark.Markdown
	submissions *dedupe.Cache
	logger      *slog.Logger
}

// New parses the page templates and returns a UI backed by svc.
func New(svc *board.Service) (*UI, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &UI{
		board:       svc,
		pages:       pages,
		markdown:    newMarkdown(),
		submissions: dedupe.New(submissionTTL, submissionLimit),
		logger:      slog.Default().With("component", "webui"),
	}, nil
}

// RegisterRoutes registers all page routes on the given mux
func (u *UI) RegisterRoutes(mux *http.ServeMux) {
	// Public routes
	mux.HandleFunc("GET /{$}", u.handleLoginPage)
	mux.HandleFunc("POST /login", u.handleLogin)
	mux.HandleFunc("GET /register", u.handleRegisterPage)
	mux.HandleFunc("POST /register", u.handleRegister)

	// Protected routes (session required)
	mux.HandleFunc("GET /dashboard", u.requireAuth(u.handleDashboard))
	mux.HandleFunc("POST /logout", u.requireAuth(u.handleLogout))
	mux.HandleFunc("GET /tasks/new", u.requireAuth(u.handleNewTaskPage))
	mux.HandleFunc("POST /tasks/new", u.requireAuth(u.handleCreateTask))
	mux.HandleFunc("GET /tasks/{id}", u.requireAuth(u.handleTaskDetail))
	mux.HandleFunc("GET /tasks/{id}/edit", u.requireAuth(u.handleEditTaskPage))
	mux.HandleFunc("POST /tasks/{id}/edit", u.requireAuth(u.handleEditTask))
	mux.HandleFunc("POST /tasks/{id}/delete", u.requireAuth(u.handleDeleteTask))

	u.logger.Info("page routes registered")
}

// requireAuth wraps a handler to require an active session. The session is
// re-read from the profile on every request.
func (u *UI) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := u.board.CurrentUser(r.Context())
		if errors.Is(err, board.ErrSessionRequired) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if err != nil {
			u.logger.Error("failed to read session", "error", err)
			u.renderError(w, http.StatusInternalServerError, "Error", msgInternal)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// getUserFromContext retrieves the logged-in account from the request context
func getUserFromContext(r *http.Request) *accounts.Account {
	user, _ := r.Context().Value(userContextKey).(*accounts.Account)
	return user
}

// getCSRFToken retrieves the CSRF token from the request context
func getCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey).(string)
	return token
}

// ensureCSRFToken generates a CSRF token if not present and adds it to context
func (u *UI) ensureCSRFToken(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		ctx := context.WithValue(r.Context(), csrfContextKey, cookie.Value)
		return r.WithContext(ctx), cookie.Value
	}

	token, err := generateSecureToken(32)
	if err != nil {
		u.logger.Error("failed to generate CSRF token", "error", err)
		token = "" // Will fail validation, but won't crash
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	ctx := context.WithValue(r.Context(), csrfContextKey, token)
	return r.WithContext(ctx), token
}

// validateCSRF checks the CSRF token from form against cookie
func (u *UI) validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}

	return formToken != "" && formToken == cookie.Value
}

// handleLoginPage renders the login page
func (u *UI) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go straight to the dashboard
	if _, err := u.board.RequireSession(r.Context()); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	_, csrfToken := u.ensureCSRFToken(w, r)
	u.render(w, http.StatusOK, "login", loginData{Title: "Iniciar sesión", CSRFToken: csrfToken})
}

// handleLogin processes login form submission
func (u *UI) handleLogin(w http.ResponseWriter, r *http.Request) {
	_, csrfToken := u.ensureCSRFToken(w, r)
	fail := func(status int, msg, email string) {
		u.render(w, status, "login", loginData{Title: "Iniciar sesión", Error: msg, Email: email, CSRFToken: csrfToken})
	}

	if err := r.ParseForm(); err != nil || !u.validateCSRF(r) {
		fail(http.StatusForbidden, msgInvalidRequest, "")
		return
	}

	email := r.FormValue("email")
	_, err := u.board.Login(r.Context(), email, r.FormValue("password"))
	switch {
	case err == nil:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	case errors.Is(err, accounts.ErrInvalidCredentials), errors.Is(err, board.ErrMissingField):
		fail(http.StatusUnauthorized, msgInvalidCredentials, email)
	default:
		u.logger.Error("login failed", "error", err)
		fail(http.StatusInternalServerError, msgInternal, email)
	}
}

// handleRegisterPage renders the registration form
func (u *UI) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	_, csrfToken := u.ensureCSRFToken(w, r)
	u.render(w, http.StatusOK, "register", registerData{
		Title:     "Registro",
		Form:      board.RegisterInput{Role: accounts.DefaultRole},
		Roles:     Roles,
		CSRFToken: csrfToken,
	})
}

// handleRegister creates the account and logs it in
func (u *UI) handleRegister(w http.ResponseWriter, r *http.Request) {
	_, csrfToken := u.ensureCSRFToken(w, r)
	form := board.RegisterInput{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Role:     r.PostFormValue("role"),
	}
	fail := func(status int, msg string) {
		form.Password = ""
		u.render(w, status, "register", registerData{Title: "Registro", Error: msg, Form: form, Roles: Roles, CSRFToken: csrfToken})
	}

	if !u.validateCSRF(r) {
		fail(http.StatusForbidden, msgInvalidRequest)
		return
	}

	_, err := u.board.Register(r.Context(), form)
	switch {
	case err == nil:
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	case errors.Is(err, board.ErrMissingField):
		fail(http.StatusUnprocessableEntity, msgRegisterMissing)
	case errors.Is(err, accounts.ErrDuplicateEmail):
		fail(http.StatusConflict, msgDuplicateEmail)
	default:
		u.logger.Error("registration failed", "error", err)
		fail(http.StatusInternalServerError, msgInternal)
	}
}

// handleLogout ends the session
func (u *UI) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !u.validateCSRF(r) {
		u.renderError(w, http.StatusForbidden, "Error", msgInvalidRequest)
		return
	}
	if err := u.board.Logout(r.Context()); err != nil {
		u.logger.Error("logout failed", "error", err)
		u.renderError(w, http.StatusInternalServerError, "Error", msgInternal)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDashboard greets the user and lists tasks
func (u *UI) handleDashboard(w http.ResponseWriter, r *http.Request) {
	r, _ = u.ensureCSRFToken(w, r)

	list, err := u.board.ListTasks(r.Context())
	if err != nil {
		u.handleTaskError(w, err)
		return
	}

	u.render(w, http.StatusOK, "dashboard", dashboardData{
		Title:     "Panel",
		User:      getUserFromContext(r),
		Tasks:     list,
		CSRFToken: getCSRFToken(r),
	})
}

// handleNewTaskPage renders an empty task form
func (u *UI) handleNewTaskPage(w http.ResponseWriter, r *http.Request) {
	_, csrfToken := u.ensureCSRFToken(w, r)
	u.render(w, http.StatusOK, "task_form", taskFormData{
		Title:        "Nueva tarea",
		Action:       "/tasks/new",
		Form:         board.TaskInput{Status: tasks.StatusPending},
		Statuses:     tasks.Statuses,
		CSRFToken:    csrfToken,
		SubmissionID: uuid.NewString(),
	})
}

// handleCreateTask stores a task owned by the session. A form whose
// submission id was already posted redirects without creating a second task.
func (u *UI) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	_, csrfToken := u.ensureCSRFToken(w, r)
	form := taskForm(r)
	data := taskFormData{
		Title:        "Nueva tarea",
		Action:       "/tasks/new",
		Form:         form,
		Statuses:     tasks.Statuses,
		CSRFToken:    csrfToken,
		SubmissionID: uuid.NewString(),
	}

	if !u.validateCSRF(r) {
		data.Error = msgInvalidRequest
		u.render(w, http.StatusForbidden, "task_form", data)
		return
	}

	if id := r.FormValue("submission_id"); id != "" && u.submissions.CheckAndMark(id) {
		u.logger.Debug("dropping repeated task form", "submission_id", id)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	_, err := u.board.CreateTask(r.Context(), form)
	if errors.Is(err, board.ErrMissingField) {
		data.Error = msgCreateMissing
		u.render(w, http.StatusUnprocessableEntity, "task_form", data)
		return
	}
	if err != nil {
		u.handleTaskError(w, err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleTaskDetail shows one task with its description rendered as Markdown
func (u *UI) handleTaskDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		u.renderError(w, http.StatusNotFound, "No encontrada", msgTaskNotFound)
		return
	}

	task, err := u.board.GetTask(r.Context(), id)
	if err != nil {
		u.handleTaskError(w, err)
		return
	}

	u.render(w, http.StatusOK, "task_view", taskViewData{
		Title:       task.Title,
		Task:        task,
		Description: u.renderMarkdown(task.Description),
	})
}

// handleEditTaskPage renders the edit form prefilled with the stored task
func (u *UI) handleEditTaskPage(w http.ResponseWriter, r *http.Request) {
	_, csrfToken := u.ensureCSRFToken(w, r)
	id, ok := taskID(r)
	if !ok {
		u.renderError(w, http.StatusNotFound, "No encontrada", msgTaskNotFound)
		return
	}

	task, err := u.board.GetTask(r.Context(), id)
	if err != nil {
		u.handleTaskError(w, err)
		return
	}

	u.render(w, http.StatusOK, "task_form", taskFormData{
		Title:   "Editar tarea",
		Action:  fmt.Sprintf("/tasks/%d/edit", task.ID),
		Editing: true,
		Form: board.TaskInput{
			Title:       task.Title,
			Description: task.Description,
			DueDate:     task.DueDate,
			Status:      task.Status,
		},
		Statuses:  tasks.Statuses,
		CSRFToken: csrfToken,
	})
}

// handleEditTask overwrites the task's editable fields
func (u *UI) handleEditTask(w http.ResponseWriter, r *http.Request) {
	_, csrfToken := u.ensureCSRFToken(w, r)
	id, ok := taskID(r)
	if !ok {
		u.renderError(w, http.StatusNotFound, "No encontrada", msgTaskNotFound)
		return
	}

	form := taskForm(r)
	data := taskFormData{
		Title:     "Editar tarea",
		Action:    fmt.Sprintf("/tasks/%d/edit", id),
		Editing:   true,
		Form:      form,
		Statuses:  tasks.Statuses,
		CSRFToken: csrfToken,
	}

	if !u.validateCSRF(r) {
		data.Error = msgInvalidRequest
		u.render(w, http.StatusForbidden, "task_form", data)
		return
	}

	_, err := u.board.EditTask(r.Context(), id, form)
	if errors.Is(err, board.ErrMissingField) {
		data.Error = msgEditMissing
		u.render(w, http.StatusUnprocessableEntity, "task_form", data)
		return
	}
	if err != nil {
		u.handleTaskError(w, err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleDeleteTask removes a task and returns to the dashboard
func (u *UI) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if !u.validateCSRF(r) {
		u.renderError(w, http.StatusForbidden, "Error", msgInvalidRequest)
		return
	}
	id, ok := taskID(r)
	if !ok {
		u.renderError(w, http.StatusNotFound, "No encontrada", msgTaskNotFound)
		return
	}

	if err := u.board.DeleteTask(r.Context(), id); err != nil {
		u.handleTaskError(w, err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleTaskError maps board errors to a status page.
func (u *UI) handleTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound):
		u.renderError(w, http.StatusNotFound, "No encontrada", msgTaskNotFound)
	case errors.Is(err, board.ErrForbidden):
		u.renderError(w, http.StatusForbidden, "Prohibido", msgForbidden)
	default:
		u.logger.Error("task operation failed", "error", err)
		u.renderError(w, http.StatusInternalServerError, "Error", msgInternal)
	}
}

func taskForm(r *http.Request) board.TaskInput {
	return board.TaskInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		DueDate:     r.PostFormValue("due_date"),
		Status:      r.PostFormValue("status"),
	}
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
