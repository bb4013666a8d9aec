package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/ericfisherdev/kickstart/internal/application"
	"github.com/ericfisherdev/kickstart/internal/domain/model"
	"github.com/ericfisherdev/kickstart/internal/observability"
)

// maxSetupFormBytes caps the setup form body.
const maxSetupFormBytes = 64 << 10

var errNoSession = errors.New("no session attached to request")

// staticExtensions are served without running any probe.
var staticExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".map": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".ico": {}, ".webp": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {}, ".otf": {},
	".txt": {}, ".webmanifest": {},
}

// DefaultPassThrough lists the paths the gate never blocks.
var DefaultPassThrough = []string{"/healthz", "/metrics"}

type checksContextKey struct{}

// ChecksFrom returns the probe results the gate attached to the request.
func ChecksFrom(ctx context.Context) ([]model.DependencyCheckResult, bool) {
	results, ok := ctx.Value(checksContextKey{}).([]model.DependencyCheckResult)
	return results, ok
}

// GateOptions configures a Gate.
type GateOptions struct {
	// PassThrough paths are forwarded without probing.
	PassThrough []string
	// Now is the clock used for setup attempt accounting; nil means time.Now.
	Now func() time.Time
}

// Gate blocks the application until every required dependency is available,
// serving the setup wizard in its place.
type Gate struct {
	checks      *application.CheckService
	setup       *application.SetupService
	wizard      *WizardRenderer
	passThrough map[string]struct{}
	now         func() time.Time
	logger      *slog.Logger
}

// NewGate creates a Gate.
func NewGate(
	checks *application.CheckService,
	setup *application.SetupService,
	wizard *WizardRenderer,
	opts GateOptions,
	logger *slog.Logger,
) *Gate {
	passThrough := make(map[string]struct{}, len(opts.PassThrough))
	for _, p := range opts.PassThrough {
		passThrough[p] = struct{}{}
	}
	return &Gate{
		checks:      checks,
		setup:       setup,
		wizard:      wizard,
		passThrough: passThrough,
		now:         opts.Now,
		logger:      logger,
	}
}

// Middleware wraps next with the gate. It must run inside
// SessionManager.Middleware.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if g.bypass(p) {
			g.decide(observability.DecisionBypass, r)
			next.ServeHTTP(w, r)
			return
		}

		results := g.checks.RunAll(r.Context())
		passing := model.AllPassing(results)
		withResults := r.WithContext(context.WithValue(r.Context(), checksContextKey{}, results))

		if isSetupPath(p) {
			switch {
			case passing:
				g.decide(observability.DecisionRedirect, r)
				redirectHome(w, r)
			case r.Method == http.MethodPost && p == setupFormPath:
				g.decide(observability.DecisionSubmit, r)
				g.handleSubmission(w, r, results)
			default:
				g.decide(observability.DecisionSetup, r)
				next.ServeHTTP(w, withResults)
			}
			return
		}

		if !passing {
			g.decide(observability.DecisionBlocked, r)
			g.wizard.Render(w, r, WizardState{Status: http.StatusServiceUnavailable, Checks: results})
			return
		}

		g.decide(observability.DecisionForward, r)
		next.ServeHTTP(w, withResults)
	})
}

func (g *Gate) handleSubmission(w http.ResponseWriter, r *http.Request, results []model.DependencyCheckResult) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxSetupFormBytes)
	if err := r.ParseForm(); err != nil {
		g.logger.Warn("unreadable setup submission", "error", err)
		g.wizard.Render(w, r, WizardState{
			Status: http.StatusBadRequest,
			Checks: results,
			Error:  "The form submission could not be read.",
		})
		return
	}

	form := application.SetupForm{
		Driver:    r.PostFormValue("driver"),
		Host:      r.PostFormValue("host"),
		Port:      r.PostFormValue("port"),
		Database:  r.PostFormValue("database"),
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
		CSRFToken: submittedCSRFToken(r),
	}

	sess, ok := SessionFrom(ctx)
	if !ok {
		g.logger.Error("setup submission without session", "error", errNoSession)
		observability.RecordSubmission(string(application.OutcomeUnavailable))
		cfg := form.Connection()
		g.wizard.Render(w, r, WizardState{
			Status:     http.StatusServiceUnavailable,
			Checks:     results,
			Connection: &cfg,
			Error:      application.MsgUnavailable,
		})
		return
	}

	res := g.setup.Submit(ctx, application.NewSetupSession(sess, g.now), form)
	observability.RecordSubmission(string(res.Outcome))

	if res.Saved() {
		redirectHome(w, r)
		return
	}

	checks := results
	if res.Check != nil {
		checks = model.ReplaceCheck(results, *res.Check)
	}
	g.wizard.Render(w, r, WizardState{
		Status:     http.StatusServiceUnavailable,
		Checks:     checks,
		Connection: &res.Connection,
		Error:      res.Message,
	})
}

func (g *Gate) bypass(p string) bool {
	if _, ok := g.passThrough[p]; ok {
		return true
	}
	_, ok := staticExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

func (g *Gate) decide(decision string, r *http.Request) {
	observability.RecordGateDecision(decision)
	g.logger.Debug("gate decision", "decision", decision, "method", r.Method, "path", r.URL.Path)
}

func isSetupPath(p string) bool {
	return p == setupPath || strings.HasPrefix(p, setupPath+"/")
}

// redirectHome sends a non-cacheable 302 to the application root.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	setNoCache(w.Header())
	http.Redirect(w, r, "/", http.StatusFound)
}
