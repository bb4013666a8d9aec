package web

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/kickstart/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/kickstart/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/kickstart/internal/application"
	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

// WizardState is everything a wizard response depends on besides the
// session.
type WizardState struct {
	Status int
	Checks []model.DependencyCheckResult
	// Connection overrides the stored settings, e.g. to echo a rejected
	// submission back into the form.
	Connection *model.ConnectionConfig
	Error      string
}

// WizardRenderer writes the setup wizard page. It mints the CSRF token for
// the request's session and falls back to the stored connection settings.
type WizardRenderer struct {
	checks *application.CheckService
	now    func() time.Time
	logger *slog.Logger
}

// NewWizardRenderer creates a WizardRenderer. now may be nil.
func NewWizardRenderer(checks *application.CheckService, now func() time.Time, logger *slog.Logger) *WizardRenderer {
	return &WizardRenderer{checks: checks, now: now, logger: logger}
}

// Render writes the wizard with state.Status. The page is buffered so a
// rendering error can still produce a clean 500.
func (wr *WizardRenderer) Render(w http.ResponseWriter, r *http.Request, state WizardState) {
	ctx := r.Context()

	token, tokenErr := wr.csrfToken(ctx)
	errMsg := state.Error
	if tokenErr != nil {
		wr.logger.Error("failed to issue setup csrf token", "error", tokenErr)
		if errMsg == "" {
			errMsg = application.MsgUnavailable
		}
	}

	cfg := wr.checks.StoredConnection(ctx)
	if state.Connection != nil {
		cfg = *state.Connection
	}

	page := BuildWizard(state.Checks, token, cfg, errMsg)

	var buf bytes.Buffer
	if err := templates.Layout(page.Title, pages.Wizard(page)).Render(ctx, &buf); err != nil {
		wr.logger.Error("failed to render setup wizard", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	setNoCache(w.Header())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(state.Status)
	_, _ = buf.WriteTo(w)
}

func (wr *WizardRenderer) csrfToken(ctx context.Context) (string, error) {
	sess, ok := SessionFrom(ctx)
	if !ok {
		return "", errNoSession
	}
	return application.NewSetupSession(sess, wr.now).CSRFToken(ctx)
}

// setNoCache marks a response as never cacheable.
func setNoCache(h http.Header) {
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
