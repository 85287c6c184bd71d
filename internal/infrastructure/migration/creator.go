package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const upTemplate = `-- {{.Name}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`

const downTemplate = `-- Rollback for {{.Name}}

`

var migrationFileRegex = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

// MigrationFile is an up/down pair on disk
type MigrationFile struct {
	Version     uint
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next sequentially numbered migration pair
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	clean := sanitizeName(name)
	if clean == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", next, clean)
	mf := &MigrationFile{
		Version:     next,
		Name:        clean,
		Description: strings.TrimSpace(description),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	if err := writeTemplate(mf.UpPath, upTemplate, mf); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeTemplate(mf.DownPath, downTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

// ListMigrations returns the migration pairs in dir ordered by version
func ListMigrations(dir string) ([]MigrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[uint]*MigrationFile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFileRegex.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		v, err := strconv.ParseUint(match[1], 10, 32)
		if err != nil {
			continue
		}
		mf, ok := byVersion[uint(v)]
		if !ok {
			mf = &MigrationFile{Version: uint(v), Name: match[2]}
			byVersion[uint(v)] = mf
		}
		path := filepath.Join(dir, entry.Name())
		if match[3] == "up" {
			mf.UpPath = path
		} else {
			mf.DownPath = path
		}
	}

	out := make([]MigrationFile, 0, len(byVersion))
	for _, mf := range byVersion {
		out = append(out, *mf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func writeTemplate(path, content string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

// sanitizeName lower-cases name and collapses separators into underscores
func sanitizeName(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == ' ' || r == '-' || r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
