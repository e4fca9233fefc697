// Package session locates and reads openclaw session transcripts.
//
// The openclaw CLI ignores the --session-id passed by the caller and invents
// its own UUID-based session id, so the transcript for a run has to be
// discovered after the fact: first from the CLI's persisted session index,
// then by scanning the sessions directory for recently modified files, and
// only then by trying the caller's id literally.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pinchbench/pinchbench/internal/models"
)

const (
	// defaultAttempts bounds the resolve-retry loop; transcripts can lag the
	// process exit by a few seconds.
	defaultAttempts = 6
	defaultBackoff  = time.Second

	// mtimeTolerance widens the "modified since run start" window to absorb
	// clock skew between the store's stat times and the run clock.
	mtimeTolerance = 5 * time.Second

	indexFilename = "sessions.json"
)

// indexEntry is one record of the CLI's sessions.json index.
type indexEntry struct {
	SessionID string  `json:"sessionId"`
	UpdatedAt float64 `json:"updatedAt"`
}

// Store resolves transcripts under a per-agent session directory tree
// (by default ~/.openclaw/agents/<agent-id>/sessions).
type Store struct {
	// BaseDir is the agents root. Empty means ~/.openclaw/agents.
	BaseDir string

	// Attempts and Backoff bound the retry loop. Zero values use the
	// package defaults.
	Attempts int
	Backoff  time.Duration

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// NewStore returns a Store rooted at baseDir (or the default root when
// baseDir is empty).
func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir, sleep: time.Sleep}
}

func (s *Store) root() string {
	if s.BaseDir != "" {
		return s.BaseDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".openclaw", "agents")
	}
	return filepath.Join(home, ".openclaw", "agents")
}

func (s *Store) attempts() int {
	if s.Attempts > 0 {
		return s.Attempts
	}
	return defaultAttempts
}

func (s *Store) backoff() time.Duration {
	if s.Backoff > 0 {
		return s.Backoff
	}
	return defaultBackoff
}

// AgentDir returns the store directory for an agent. Agent ids containing
// colons may be stored under a dash-normalized directory name.
func (s *Store) AgentDir(agentID string) string {
	direct := filepath.Join(s.root(), agentID)
	if isDir(direct) {
		return direct
	}
	normalized := filepath.Join(s.root(), strings.ReplaceAll(agentID, ":", "-"))
	if isDir(normalized) {
		return normalized
	}
	return direct
}

// Cleanup removes stored transcripts and the session index for an agent.
// It must run before each new run for the agent: most-recently-modified
// resolution is only unambiguous when the directory holds a single run's
// files. Failures are logged, never fatal.
func (s *Store) Cleanup(agentID string) {
	sessionsDir := filepath.Join(s.AgentDir(agentID), "sessions")
	entries, err := filepath.Glob(filepath.Join(sessionsDir, "*.jsonl"))
	if err != nil {
		return
	}

	removed := 0
	for _, path := range entries {
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove session transcript", "path", path, "error", err)
			continue
		}
		removed++
	}

	indexPath := filepath.Join(sessionsDir, indexFilename)
	if _, err := os.Stat(indexPath); err == nil {
		if err := os.Remove(indexPath); err != nil {
			slog.Warn("failed to remove session index", "path", indexPath, "error", err)
		}
	}

	if removed > 0 {
		slog.Info("removed old session transcripts", "agent", agentID, "count", removed)
	}
}

// Collect returns the ordered transcript events for the run that started at
// startedAt, or an empty slice if no transcript appears within the retry
// budget. It never returns an error: a missing transcript degrades to an
// empty result and a diagnostic log.
func (s *Store) Collect(agentID, sessionID string, startedAt time.Time) []models.TranscriptEvent {
	agentDir := s.AgentDir(agentID)
	sleep := s.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var transcriptPath string

	attempts := s.attempts()
	for attempt := 0; attempt < attempts; attempt++ {
		// 1. The session index holds the CLI's real session id.
		if resolved := s.resolveFromIndex(agentID); resolved != "" {
			candidate := filepath.Join(agentDir, "sessions", resolved+".jsonl")
			if isFile(candidate) {
				transcriptPath = candidate
				slog.Info("found transcript via session index", "file", filepath.Base(candidate), "attempt", attempt+1)
				break
			}
		}

		// 2. Most-recently-modified file, preferring files touched since the
		// run started.
		if recent := findRecent(agentDir, startedAt); recent != "" {
			transcriptPath = recent
			slog.Info("found transcript via directory scan", "file", filepath.Base(recent), "attempt", attempt+1)
			break
		}

		// 3. The caller's session id, in case the CLI honored it after all.
		direct := filepath.Join(agentDir, "sessions", sessionID+".jsonl")
		if isFile(direct) {
			transcriptPath = direct
			slog.Info("found transcript via supplied session id", "file", filepath.Base(direct), "attempt", attempt+1)
			break
		}

		if attempt < attempts-1 {
			sleep(s.backoff())
		}
	}

	if transcriptPath == "" {
		s.logMissing(agentID, agentDir)
		return []models.TranscriptEvent{}
	}

	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		slog.Warn("failed to read transcript", "path", transcriptPath, "error", err)
		return []models.TranscriptEvent{}
	}

	return ParseTranscript(data)
}

// resolveFromIndex reads the CLI's sessions.json and returns the session id
// for the agent's preferred logical session, else the most recently updated
// entry. A malformed index is treated as absent.
func (s *Store) resolveFromIndex(agentID string) string {
	indexPath := filepath.Join(s.AgentDir(agentID), "sessions", indexFilename)
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return ""
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("failed to parse session index", "path", indexPath, "error", err)
		return ""
	}

	entries := make(map[string]indexEntry, len(raw))
	for key, payload := range raw {
		var entry indexEntry
		if err := json.Unmarshal(payload, &entry); err != nil || entry.SessionID == "" {
			continue
		}
		entries[key] = entry
	}

	preferred := []string{
		fmt.Sprintf("agent:%s:main", agentID),
		fmt.Sprintf("agent:%s:default", agentID),
	}
	for _, key := range preferred {
		if entry, ok := entries[key]; ok {
			return entry.SessionID
		}
	}

	var newest indexEntry
	newestAt := -1.0
	for _, entry := range entries {
		if entry.UpdatedAt > newestAt {
			newestAt = entry.UpdatedAt
			newest = entry
		}
	}
	return newest.SessionID
}

// findRecent returns the most-recently-modified transcript in the agent's
// sessions directory. When any file was modified at or after
// startedAt-mtimeTolerance the search restricts to those; otherwise it falls
// back to the newest file overall.
func findRecent(agentDir string, startedAt time.Time) string {
	candidates, err := filepath.Glob(filepath.Join(agentDir, "sessions", "*.jsonl"))
	if err != nil || len(candidates) == 0 {
		return ""
	}

	type candidate struct {
		path  string
		mtime time.Time
	}

	var all []candidate
	for _, path := range candidates {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		all = append(all, candidate{path: path, mtime: fi.ModTime()})
	}
	if len(all) == 0 {
		return ""
	}

	cutoff := startedAt.Add(-mtimeTolerance)
	var recent []candidate
	for _, c := range all {
		if !c.mtime.Before(cutoff) {
			recent = append(recent, c)
		}
	}

	pool := recent
	if len(pool) == 0 {
		pool = all
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].mtime.After(pool[j].mtime) })
	return pool[0].path
}

func (s *Store) logMissing(agentID, agentDir string) {
	sessionsDir := filepath.Join(agentDir, "sessions")
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		slog.Warn("transcript not found, sessions dir missing", "agent", agentID, "dir", sessionsDir)
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slog.Warn("transcript not found", "agent", agentID, "dir_contents", names)
}

// ParseTranscript parses JSONL transcript bytes. Each non-blank line becomes
// exactly one event; a line that fails to parse is retained as a malformed
// event carrying the raw text and the parse error.
func ParseTranscript(data []byte) []models.TranscriptEvent {
	events := []models.TranscriptEvent{}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var evt models.TranscriptEvent
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			slog.Warn("failed to parse transcript line", "error", err)
			events = append(events, models.TranscriptEvent{
				Raw:        line,
				ParseError: err.Error(),
			})
			continue
		}
		events = append(events, evt)
	}
	return events
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
