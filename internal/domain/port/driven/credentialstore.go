package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

// ErrTemplateMissing is returned by CredentialStore.Write when the env file
// does not exist and there is no template to seed it from.
var ErrTemplateMissing = errors.New("env file template not found")

// CredentialStore defines the driven port for the persisted database
// connection settings.
type CredentialStore interface {
	// Read returns the configured connection. When nothing is configured, or
	// the stored URL cannot be parsed, it returns model.DefaultConnectionConfig.
	Read(ctx context.Context) model.ConnectionConfig

	// Write persists cfg as the application's connection URL. Returns
	// ErrTemplateMissing if the target file must be seeded but no template
	// exists.
	Write(ctx context.Context, cfg model.ConnectionConfig) error
}
