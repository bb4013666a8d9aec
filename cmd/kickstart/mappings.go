package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// mappingExtensions are the file types that define an entity mapping.
var mappingExtensions = map[string]struct{}{
	".go":  {},
	".sql": {},
}

// countEntityMappings returns the number of entity mapping definitions in
// dir. A missing directory means none.
func countEntityMappings(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read models directory: %w", err)
	}

	n := 0
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if _, ok := mappingExtensions[filepath.Ext(name)]; ok {
			n++
		}
	}
	return n, nil
}
