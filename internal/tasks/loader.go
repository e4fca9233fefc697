// Package tasks loads benchmark task definitions. A task is a markdown file
// named task_*.md with YAML frontmatter (identity, grading mode, timeout,
// workspace fixtures) and a body of ## sections (Prompt, Expected Behavior,
// Grading Criteria, Automated Checks, LLM Judge Rubric).
package tasks

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/pinchbench/pinchbench/internal/models"
)

const defaultTimeoutSec = 120

// Section headings recognized in a task body.
const (
	sectionPrompt           = "Prompt"
	sectionExpectedBehavior = "Expected Behavior"
	sectionGradingCriteria  = "Grading Criteria"
	sectionAutomatedChecks  = "Automated Checks"
	sectionJudgeRubric      = "LLM Judge Rubric"
)

// frontmatter is the typed shape of a task file's YAML header.
type frontmatter struct {
	ID             string                 `mapstructure:"id"`
	Name           string                 `mapstructure:"name"`
	Category       string                 `mapstructure:"category"`
	GradingType    string                 `mapstructure:"grading_type"`
	TimeoutSec     int                    `mapstructure:"timeout_seconds"`
	WorkspaceFiles []models.WorkspaceFile `mapstructure:"workspace_files"`
	GradingWeights map[string]float64     `mapstructure:"grading_weights"`
}

// Loader loads tasks from a directory.
type Loader struct {
	Dir string
}

// LoadAll loads every task_*.md file in the directory, sorted by filename.
// A file that fails to load is logged and skipped; the rest still load.
func (l *Loader) LoadAll() ([]*models.Task, error) {
	files, err := filepath.Glob(filepath.Join(l.Dir, "task_*.md"))
	if err != nil {
		return nil, fmt.Errorf("globbing tasks: %w", err)
	}
	sort.Strings(files)
	slog.Info("found task files", "dir", l.Dir, "count", len(files))

	var loaded []*models.Task
	for _, file := range files {
		task, err := LoadTask(file)
		if err != nil {
			slog.Error("failed to load task", "file", file, "error", err)
			continue
		}
		loaded = append(loaded, task)
	}
	return loaded, nil
}

// LoadTask loads and validates a single task file.
func LoadTask(path string) (*models.Task, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	meta, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, err
	}

	if errs := ValidateFrontmatter(meta); len(errs) > 0 {
		return nil, fmt.Errorf("invalid frontmatter: %s", strings.Join(errs, "; "))
	}

	var fm frontmatter
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &fm,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(meta); err != nil {
		return nil, fmt.Errorf("decoding frontmatter: %w", err)
	}

	if fm.GradingType == "" {
		fm.GradingType = string(models.GradingAutomated)
	}
	if fm.TimeoutSec == 0 {
		fm.TimeoutSec = defaultTimeoutSec
	}

	sections := parseSections(body)

	task := &models.Task{
		TaskID:           fm.ID,
		Name:             fm.Name,
		Category:         fm.Category,
		GradingMode:      models.GradingMode(fm.GradingType),
		TimeoutSec:       fm.TimeoutSec,
		WorkspaceFiles:   fm.WorkspaceFiles,
		Prompt:           sections[sectionPrompt],
		ExpectedBehavior: sections[sectionExpectedBehavior],
		GradingCriteria:  extractCriteria(sections[sectionGradingCriteria]),
		AutomatedChecks:  sections[sectionAutomatedChecks],
		JudgeRubric:      sections[sectionJudgeRubric],
		GradingWeights:   fm.GradingWeights,
		FilePath:         path,
		Frontmatter:      meta,
	}
	return task, nil
}

// splitFrontmatter separates the YAML header (delimited by ---) from the
// markdown body.
func splitFrontmatter(content string) (map[string]any, string, error) {
	if !strings.HasPrefix(content, "---") {
		return nil, "", errors.New("no YAML frontmatter found")
	}

	rest := content[3:]
	if strings.HasPrefix(rest, "\r\n") {
		rest = rest[2:]
	} else if strings.HasPrefix(rest, "\n") {
		rest = rest[1:]
	}

	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return nil, "", errors.New("closing frontmatter delimiter not found")
	}

	yamlBlock := rest[:idx]
	body := rest[idx+4:]

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(yamlBlock), &meta); err != nil {
		return nil, "", fmt.Errorf("unmarshalling frontmatter: %w", err)
	}
	return meta, body, nil
}

// parseSections splits a markdown body on ## headings. Content before the
// first heading is discarded; each section's text is trimmed.
func parseSections(body string) map[string]string {
	sections := map[string]string{}
	current := ""
	var lines []string

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(lines, "\n"))
		}
	}

	for _, line := range strings.Split(body, "\n") {
		if heading, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			current = strings.TrimSpace(heading)
			lines = nil
			continue
		}
		if current != "" {
			lines = append(lines, line)
		}
	}
	flush()
	return sections
}

// extractCriteria pulls checklist items ("- [ ]" or "- [x]") out of the
// Grading Criteria section.
func extractCriteria(text string) []string {
	var criteria []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "- [")
		if !ok || len(rest) < 2 {
			continue
		}
		if rest[0] != ' ' && rest[0] != 'x' {
			continue
		}
		if rest[1] != ']' {
			continue
		}
		item := strings.TrimSpace(rest[2:])
		if item != "" {
			criteria = append(criteria, item)
		}
	}
	return criteria
}
