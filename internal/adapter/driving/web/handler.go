// Package web implements the HTML driving adapter: the session cookie, the
// environment gate and the setup wizard, rendered with templ components.
package web

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/kickstart/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/kickstart/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/kickstart/internal/application"
	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

// Handler serves the pages behind the gate.
type Handler struct {
	checks *application.CheckService
	wizard *WizardRenderer
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(checks *application.CheckService, wizard *WizardRenderer, logger *slog.Logger) *Handler {
	return &Handler{
		checks: checks,
		wizard: wizard,
		logger: logger,
	}
}

// Home renders the placeholder home page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	page := BuildHome(h.results(r))

	var buf bytes.Buffer
	if err := templates.Layout(page.Title, pages.Home(page)).Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render home page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Setup renders the wizard for GET /setup and GET /setup/database. The gate
// only lets these through while a check is failing.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	h.wizard.Render(w, r, WizardState{Status: http.StatusOK, Checks: h.results(r)})
}

func (h *Handler) results(r *http.Request) []model.DependencyCheckResult {
	if results, ok := ChecksFrom(r.Context()); ok {
		return results
	}
	return h.checks.RunAll(r.Context())
}
