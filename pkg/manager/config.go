package manager

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// The configuration document lives in the site directory as config.yaml.
// Discovery order:
//
//  1. explicit --config path
//  2. $SSG_PLUGIN_MANAGER_CONFIG
//  3. <site dir>/config.yaml
//  4. ./config.yaml
//  5. $XDG_CONFIG_HOME/ssg-plugin-manager/config.yaml
//  6. ~/.config/ssg-plugin-manager/config.yaml
//
// A missing document is not an error at this layer; the store surfaces
// ErrDocumentNotFound and the UI routes to first-run setup.

const documentFilename = "config.yaml"

// DocumentPathCandidates returns possible document paths in priority order.
func DocumentPathCandidates(explicitPath, siteDir string) []string {
	var out []string
	if explicitPath != "" {
		out = append(out, explicitPath)
	}
	if env := os.Getenv("SSG_PLUGIN_MANAGER_CONFIG"); env != "" {
		out = append(out, env)
	}
	if siteDir != "" {
		out = append(out, filepath.Join(siteDir, documentFilename))
	}
	out = append(out, documentFilename)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		out = append(out, filepath.Join(xdg, "ssg-plugin-manager", documentFilename))
	}
	out = append(out, filepath.Join("~", ".config", "ssg-plugin-manager", documentFilename))
	return out
}

// FindDocumentPath locates the first existing candidate. When none exists it
// returns the path a new document should be created at, with found=false.
func FindDocumentPath(explicitPath, siteDir string) (path string, found bool) {
	candidates := DocumentPathCandidates(explicitPath, siteDir)
	for _, p := range candidates {
		p = expandPath(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	// Prefer creating next to the site when known.
	for _, p := range candidates {
		if p = expandPath(p); p != "" {
			return p, false
		}
	}
	return documentFilename, false
}

// FilePersistence stores the document as YAML at a fixed path, rewriting the
// whole file on every save.
type FilePersistence struct {
	Path string
}

// Load implements Persistence. A missing file maps to ErrDocumentNotFound.
func (f *FilePersistence) Load() (*ConfigDocument, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("read document %s: %w", f.Path, err)
	}
	var doc ConfigDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", f.Path, err)
	}
	return &doc, nil
}

// Save implements Persistence with an atomic replace so a crash mid-write
// never truncates the document.
func (f *FilePersistence) Save(doc *ConfigDocument) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create document dir %s: %w", dir, err)
		}
	}
	if err := atomic.WriteFile(f.Path, &buf); err != nil {
		return fmt.Errorf("write document %s: %w", f.Path, err)
	}
	return nil
}

// expandPath expands environment variables and a leading "~" in a path.
func expandPath(p string) string {
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		home, _ := os.UserHomeDir()
		if home != "" {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
