// Package webui provides the browser interface to the task board.
//
// # Pages
//
//   - GET /, POST /login: login form
//   - GET/POST /register: registration (logs the new account in)
//   - GET /dashboard: greeting and task table
//   - GET/POST /tasks/new: create form
//   - GET /tasks/{id}: detail view, description rendered as Markdown
//   - GET/POST /tasks/{id}/edit: edit form
//   - POST /tasks/{id}/delete, POST /logout
//
// Pages other than login and registration redirect to / when no session
// exists. The session is the profile's single session entry, so logging in
// from the CLI also logs in the browser and the other way round.
//
// # Server
//
// Server adds GET /health, GET /health/ready, the fingerprinted stylesheet
// under /static/ and, when configured, the Prometheus endpoint. Every request passes through Chain: a uuid request id
// (X-Request-ID), an access log line and panic recovery.
//
// # CSRF Protection
//
// All form submissions require CSRF tokens:
//
//	<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
//
// The token is a random cookie echoed in the form (double submit).
//
// The new-task form also carries a submission_id. Posting the same id twice
// within ten minutes creates one task; the repeat just redirects.
//
// # Escaping
//
// Templates are html/template, so stored titles, dates, statuses and names
// are escaped on output. Descriptions go through goldmark with raw HTML
// disabled before being inserted as template.HTML.
package webui
