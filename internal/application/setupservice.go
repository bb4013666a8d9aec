package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// Operator-facing messages. Security rejections stay generic.
const (
	MsgTooManyAttempts = "Too many setup attempts. Please wait 15 minutes before trying again."
	MsgServerBusy      = "Too many setup requests. Please try again in a few seconds."
	MsgUnavailable     = "Setup is temporarily unavailable. Please try again shortly."
	MsgWriteFailed     = "Could not write the configuration file. Check file permissions."
)

// SubmitOutcome classifies the result of a setup submission.
type SubmitOutcome string

const (
	OutcomeSaved           SubmitOutcome = "saved"
	OutcomeRateLimited     SubmitOutcome = "rate_limited"
	OutcomeInvalidToken    SubmitOutcome = "invalid_token"
	OutcomeInvalidSettings SubmitOutcome = "invalid_settings"
	OutcomeConnectFailed   SubmitOutcome = "connect_failed"
	OutcomeWriteFailed     SubmitOutcome = "write_failed"
	OutcomeUnavailable     SubmitOutcome = "unavailable"
)

// SetupForm is the raw database setup form submission.
type SetupForm struct {
	Driver    string
	Host      string
	Port      string
	Database  string
	Username  string
	Password  string
	CSRFToken string
}

// Connection converts the form into connection settings, filling defaults
// for missing fields. Unknown drivers are kept so validation can reject them.
func (f SetupForm) Connection() model.ConnectionConfig {
	driver := model.DriverMySQL
	if d := strings.ToLower(strings.TrimSpace(f.Driver)); d != "" {
		driver = model.Driver(d)
	}

	host := strings.TrimSpace(f.Host)
	if host == "" && driver != model.DriverSQLite {
		host = "localhost"
	}

	port := strings.TrimSpace(f.Port)
	if port == "" {
		port = driver.DefaultPort()
	}

	return model.ConnectionConfig{
		Driver:   driver,
		Host:     host,
		Port:     port,
		Database: strings.TrimSpace(f.Database),
		Username: strings.TrimSpace(f.Username),
		Password: f.Password,
	}
}

// SubmitResult is what the driving adapter needs to answer a submission.
type SubmitResult struct {
	Outcome SubmitOutcome
	Message string
	// Connection holds the submitted settings, for re-rendering the form.
	Connection model.ConnectionConfig
	// Check is the database probe result when a probe was attempted.
	Check *model.DependencyCheckResult
}

// Saved reports whether the submission was persisted.
func (r SubmitResult) Saved() bool {
	return r.Outcome == OutcomeSaved
}

// SetupService validates and applies database setup submissions. Each step
// short-circuits so that connection attempts and file writes only happen
// after the cheaper checks have passed.
type SetupService struct {
	checks      *CheckService
	credentials driven.CredentialStore
	limiter     *rate.Limiter
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewSetupService creates a SetupService. limiter caps submissions across all
// sessions and may be nil to disable the process-wide limit.
func NewSetupService(checks *CheckService, credentials driven.CredentialStore, limiter *rate.Limiter, logger *slog.Logger) *SetupService {
	return &SetupService{
		checks:      checks,
		credentials: credentials,
		limiter:     limiter,
		validate:    newConnectionValidator(),
		logger:      logger,
	}
}

// Submit runs a setup submission through, in order: the process-wide limiter,
// the session rate limit, CSRF validation, settings validation, a live
// connection test and finally persistence.
func (s *SetupService) Submit(ctx context.Context, sess *SetupSession, form SetupForm) SubmitResult {
	cfg := form.Connection()
	result := SubmitResult{Connection: cfg}

	if s.limiter != nil && !s.limiter.Allow() {
		s.logger.Warn("setup submission throttled", "scope", "process")
		return result.with(OutcomeRateLimited, MsgServerBusy)
	}

	allowed, err := sess.CheckRateLimit(ctx)
	if err != nil {
		s.logger.Error("setup rate limit check failed", "error", err)
		return result.with(OutcomeUnavailable, MsgUnavailable)
	}
	if !allowed {
		s.logger.Warn("setup submission throttled", "scope", "session")
		return result.with(OutcomeRateLimited, MsgTooManyAttempts)
	}

	valid, err := sess.ValidateCSRF(ctx, form.CSRFToken)
	if err != nil {
		s.logger.Error("setup csrf check failed", "error", err)
		return result.with(OutcomeUnavailable, MsgUnavailable)
	}
	if !valid {
		s.logger.Warn("setup submission rejected", "reason", "csrf")
		return s.reject(ctx, sess, result, OutcomeInvalidToken, "Invalid or expired form token.")
	}

	if fields := s.invalidFields(cfg); len(fields) > 0 {
		s.logger.Warn("setup submission rejected", "reason", "validation", "fields", fields)
		return s.reject(ctx, sess, result, OutcomeInvalidSettings,
			fmt.Sprintf("Invalid connection settings: %s.", strings.Join(fields, ", ")))
	}

	check := s.checks.TestConnection(ctx, cfg)
	result.Check = &check
	if !check.Status {
		s.logger.Warn("setup submission rejected", "reason", "connect", "driver", cfg.Driver, "host", cfg.Host)
		return s.reject(ctx, sess, result, OutcomeConnectFailed,
			fmt.Sprintf("Connection failed: %s.", strings.TrimSuffix(check.Error, ".")))
	}

	if err := s.credentials.Write(ctx, cfg); err != nil {
		s.logger.Error("failed to persist database settings", "error", err, "template_missing", errors.Is(err, driven.ErrTemplateMissing))
		if recErr := sess.RecordFailedAttempt(ctx); recErr != nil {
			s.logger.Error("failed to record setup attempt", "error", recErr)
		}
		return result.with(OutcomeWriteFailed, MsgWriteFailed)
	}

	if err := sess.ClearRateLimit(ctx); err != nil {
		s.logger.Error("failed to clear setup attempts", "error", err)
	}
	if err := sess.RegenerateCSRF(ctx); err != nil {
		s.logger.Error("failed to rotate csrf token", "error", err)
	}

	s.logger.Info("database settings saved", "driver", cfg.Driver, "host", cfg.Host, "database", cfg.Database)
	return result.with(OutcomeSaved, "")
}

// reject records a failed attempt and appends the remaining-attempt count to
// msg.
func (s *SetupService) reject(ctx context.Context, sess *SetupSession, result SubmitResult, outcome SubmitOutcome, msg string) SubmitResult {
	if err := sess.RecordFailedAttempt(ctx); err != nil {
		s.logger.Error("failed to record setup attempt", "error", err)
		return result.with(OutcomeUnavailable, MsgUnavailable)
	}

	remaining, err := sess.RemainingAttempts(ctx)
	if err != nil {
		s.logger.Error("failed to count setup attempts", "error", err)
		return result.with(outcome, msg)
	}
	return result.with(outcome, fmt.Sprintf("%s %s", msg, attemptsLeft(remaining)))
}

func (s *SetupService) invalidFields(cfg model.ConnectionConfig) []string {
	err := s.validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"form"}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fields
}

func (r SubmitResult) with(outcome SubmitOutcome, msg string) SubmitResult {
	r.Outcome = outcome
	r.Message = msg
	return r
}

func attemptsLeft(n int) string {
	if n == 1 {
		return "1 attempt remaining."
	}
	return strconv.Itoa(n) + " attempts remaining."
}

func newConnectionValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("tcpport", validateTCPPort)
	return v
}

// validateTCPPort accepts decimal port numbers in 1-65535.
func validateTCPPort(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Field().String())
	return err == nil && n >= 1 && n <= 65535
}
