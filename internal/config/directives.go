package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	LabelsFile       = "gmail_labels.md"
	DriveConfigFile  = "drive_config.md"
	InstructionsFile = "gmail_instructions.md"

	// DefaultInstructions is used when no instructions file exists.
	DefaultInstructions = "Default instructions."

	rootFolderKey = "Root_Folder_ID"
)

// Directives are the operator-maintained inputs read at the start of a run.
type Directives struct {
	// Labels maps lowercased label names to ids.
	Labels       map[string]string
	RootFolderID string
	Instructions string
}

// LoadDirectives reads the markdown directives from cfg.Directives.Dir. A
// missing labels or drive file leaves that part empty; any other read error is
// returned.
func LoadDirectives(cfg Config) (Directives, error) {
	d := Directives{
		Labels:       map[string]string{},
		Instructions: DefaultInstructions,
	}
	dir := strings.TrimSpace(cfg.Directives.Dir)

	if dir != "" {
		text, ok, err := readOptional(filepath.Join(dir, LabelsFile))
		if err != nil {
			return Directives{}, err
		}
		if ok {
			d.Labels = ParseLabels(text)
		}

		text, ok, err = readOptional(filepath.Join(dir, DriveConfigFile))
		if err != nil {
			return Directives{}, err
		}
		if ok {
			d.RootFolderID = ParseRootFolderID(text)
		}

		text, ok, err = readOptional(filepath.Join(dir, InstructionsFile))
		if err != nil {
			return Directives{}, err
		}
		if ok {
			d.Instructions = text
		}
	}

	if v := strings.TrimSpace(cfg.Directives.RootFolderID); v != "" {
		d.RootFolderID = v
	}
	if v := strings.TrimSpace(cfg.Directives.Instructions); v != "" {
		d.Instructions = v
	}
	return d, nil
}

func readOptional(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "read directive %s", path)
	}
	return string(data), true, nil
}

// ParseLabels reads lines of the form "- **Name**: `id`".
func ParseLabels(text string) map[string]string {
	labels := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "**") || !strings.Contains(line, "`") {
			continue
		}
		parts := strings.Split(line, "**")
		if len(parts) < 3 {
			continue
		}
		ticks := strings.Split(line, "`")
		if len(ticks) < 2 {
			continue
		}
		name := strings.TrimSpace(parts[1])
		id := strings.TrimSpace(ticks[1])
		if name == "" || id == "" {
			continue
		}
		labels[strings.ToLower(name)] = id
	}
	return labels
}

// ParseRootFolderID reads the id from the "Root_Folder_ID" line.
func ParseRootFolderID(text string) string {
	root := ""
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, rootFolderKey) {
			continue
		}
		ticks := strings.Split(line, "`")
		if len(ticks) < 2 {
			continue
		}
		root = strings.TrimSpace(ticks[1])
	}
	return root
}
