// ABOUTME: Template parsing and rendering for the task board pages
// ABOUTME: Every page is base.html plus one content template from the embedded filesystem

package webui

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/2389/taskboard/internal/accounts"
	"github.com/2389/taskboard/internal/assets"
	"github.com/2389/taskboard/internal/board"
	"github.com/2389/taskboard/internal/tasks"
)

// Roles offered by the registration form.
var Roles = []string{accounts.DefaultRole, "docente"}

// Template data types
type loginData struct {
	Title     string
	Error     string
	Email     string
	CSRFToken string
}

type registerData struct {
	Title     string
	Error     string
	Form      board.RegisterInput
	Roles     []string
	CSRFToken string
}

type dashboardData struct {
	Title     string
	User      *accounts.Account
	Tasks     []tasks.Task
	CSRFToken string
}

type taskFormData struct {
	Title        string
	Error        string
	Action       string
	Editing      bool
	Form         board.TaskInput
	Statuses     []string
	CSRFToken    string
	SubmissionID string
}

type taskViewData struct {
	Title       string
	Task        *tasks.Task
	Description template.HTML
	CSRFToken   string
}

type errorData struct {
	Title   string
	Message string
}

var pageNames = []string{"login", "register", "dashboard", "task_form", "task_view", "error"}

// parseTemplates builds one template set per page.
func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("base.html").
			Funcs(template.FuncMap{"asset": assets.Href}).
			ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// render executes page into a buffer first so a template error never leaves
// a half-written response behind.
func (u *UI) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := u.pages[page]
	if !ok {
		u.logger.Error("unknown template", "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		u.logger.Error("failed to render page", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (u *UI) renderError(w http.ResponseWriter, status int, title, message string) {
	u.render(w, status, "error", errorData{Title: title, Message: message})
}

// renderMarkdown converts a task description to HTML. The source is
// HTML-escaped first, so tags the user typed show up as text and goldmark
// passes the resulting entities through unchanged. A leading '>' becomes
// &gt; and therefore never starts a blockquote.
func (u *UI) renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := u.markdown.Convert([]byte(template.HTMLEscapeString(src)), &buf); err != nil {
		u.logger.Error("failed to convert markdown", "error", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New()
}
