package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks every .sql file in dir for the goose filename shape,
// unique versions, and the Up/Down section markers.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("validate needs a migrations dir")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	claimed := map[string]string{} // version -> first filename claiming it
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := entry.Name()

		version, err := migrationVersion(name)
		if err != nil {
			return err
		}
		if earlier, dup := claimed[version]; dup {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, earlier, name)
		}
		claimed[version] = name

		if err := checkGooseSections(filepath.Join(dir, name)); err != nil {
			return err
		}
	}

	return nil
}

func migrationVersion(filename string) (string, error) {
	match := migrationFileRe.FindStringSubmatch(filename)
	if match == nil {
		return "", fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", filename)
	}
	return match[1], nil
}

func checkGooseSections(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}
	body := string(raw)
	for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(body, marker) {
			return fmt.Errorf("migration %q missing %q", filepath.Base(path), marker)
		}
	}
	return nil
}
