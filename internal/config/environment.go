package config

import (
	"os"

	"github.com/ericfisherdev/kickstart/internal/domain/port/driven"
)

var (
	_ driven.Environment = OSEnvironment{}
	_ driven.Environment = MapEnvironment(nil)
)

// OSEnvironment reads the process environment.
type OSEnvironment struct{}

// Lookup wraps os.LookupEnv.
func (OSEnvironment) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnvironment is a fixed environment, used by tests and tools.
type MapEnvironment map[string]string

// Lookup returns the value for key.
func (m MapEnvironment) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
