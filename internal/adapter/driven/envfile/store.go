// Package envfile implements the CredentialStore port on top of a dotenv
// style configuration file holding a DATABASE_URL assignment.
package envfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

// URLKey is the variable holding the database connection URL.
const URLKey = "DATABASE_URL"

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*Store)(nil)

// assignmentPattern matches a single DATABASE_URL assignment line, keeping
// the leading indentation and optional "export " prefix in group 1.
var assignmentPattern = regexp.MustCompile(`^(\s*(?:export\s+)?)` + URLKey + `\s*=(.*)$`)

// Store reads and rewrites the DATABASE_URL assignment in an env file.
type Store struct {
	path         string
	templatePath string
	env          driven.Environment
	logger       *slog.Logger
}

// NewStore creates a Store for the env file at path. templatePath seeds the
// file when it does not exist yet. env is consulted when the file carries no
// assignment.
func NewStore(path, templatePath string, env driven.Environment, logger *slog.Logger) *Store {
	return &Store{
		path:         path,
		templatePath: templatePath,
		env:          env,
		logger:       logger,
	}
}

// Path returns the env file location.
func (s *Store) Path() string {
	return s.path
}

// Read returns the connection configured in the env file, then the
// environment, falling back to model.DefaultConnectionConfig.
func (s *Store) Read(_ context.Context) model.ConnectionConfig {
	raw, ok := s.fileValue()
	if !ok {
		raw, ok = s.env.Lookup(URLKey)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return model.DefaultConnectionConfig()
	}

	cfg, err := model.ParseConnectionURL(raw)
	if err != nil {
		s.logger.Debug("ignoring unparseable connection url", "error", err)
		return model.DefaultConnectionConfig()
	}
	return cfg
}

// Write stores cfg as the DATABASE_URL assignment, seeding the file from the
// template if needed. All other lines are preserved.
func (s *Store) Write(_ context.Context, cfg model.ConnectionConfig) error {
	content, err := s.load()
	if err != nil {
		return err
	}

	updated := rewrite(content, cfg.URL())
	if err := atomic.WriteFile(s.path, bytes.NewReader(updated)); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}

	if err := os.Chmod(s.path, 0o600); err != nil {
		s.logger.Warn("could not restrict env file permissions", "path", s.path, "error", err)
	}
	return nil
}

// load returns the current env file content, or the template content when
// the file does not exist yet.
func (s *Store) load() ([]byte, error) {
	content, err := os.ReadFile(s.path)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read env file: %w", err)
	}

	content, err = os.ReadFile(s.templatePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("seed %s from %s: %w", s.path, s.templatePath, driven.ErrTemplateMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("read env template: %w", err)
	}
	return content, nil
}

func (s *Store) fileValue() (string, bool) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}

	for _, line := range strings.Split(string(content), "\n") {
		m := assignmentPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m != nil {
			return unquote(m[2]), true
		}
	}
	return "", false
}

// rewrite replaces the first DATABASE_URL assignment with one for url and
// drops any later duplicates. Without an assignment, one is appended.
func rewrite(content []byte, url string) []byte {
	// A trailing newline would produce an empty final element; drop it so an
	// appended line lands after the last real line.
	text := strings.TrimSuffix(string(content), "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}

	out := make([]string, 0, len(lines)+1)
	replaced := false
	for _, line := range lines {
		m := assignmentPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			out = append(out, line)
			continue
		}
		if replaced {
			continue
		}
		out = append(out, assignment(m[1], url))
		replaced = true
	}

	if !replaced {
		out = append(out, assignment("", url))
	}

	return []byte(strings.Join(out, "\n") + "\n")
}

func assignment(prefix, url string) string {
	return prefix + URLKey + `="` + url + `"`
}

// unquote strips surrounding whitespace and one pair of matching quotes.
// Anything after the closing quote, and a trailing comment on unquoted
// values, is dropped.
func unquote(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && (v[0] == '"' || v[0] == '\'') {
		if end := strings.IndexByte(v[1:], v[0]); end >= 0 {
			return v[1 : end+1]
		}
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}
