// Package store persists the user's working résumé, job description, recent
// jobs, saved presets and API credential across sessions.
package store

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikogura/resumeforge/pkg/capped"
	"github.com/pkg/errors"
)

// Slot names. These match the keys the browser build used so exported data stays portable.
const (
	KeyResume     = "resumeTailor_resume"
	KeyJob        = "resumeTailor_job"
	KeyRecentJobs = "resumeTailor_recent_jobs"
	KeyPresets    = "resumeTailor_presets"
	KeyAPIKey     = "resumeTailor_apiKey"
)

const (
	// MaxRecentJobs caps the recent job list.
	MaxRecentJobs = 8
	// MaxPresets caps the preset list.
	MaxPresets = 8
	// SnippetLength is the number of characters kept for a job snippet.
	SnippetLength = 160
)

var (
	// ErrPresetNameRequired is returned when saving a preset without a name.
	ErrPresetNameRequired = errors.New("preset name is required")
	// ErrPresetResumeRequired is returned when saving a preset without résumé text.
	ErrPresetResumeRequired = errors.New("add your resume before saving a preset")
)

//nolint:gochecknoglobals // compiled once
var whitespaceRun = regexp.MustCompile(`\s+`)

// JobHistoryEntry is a previously used job description.
type JobHistoryEntry struct {
	ID          string `json:"id"`
	Snippet     string `json:"snippet"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
	SavedAt     int64  `json:"savedAt"`
}

// ProfilePreset pairs a résumé with a job description under a name.
type ProfilePreset struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
}

// Store offers typed access to the persisted slots.
type Store struct {
	kv  KV
	mu  sync.Mutex
	now func() time.Time
}

// New wraps kv.
func New(kv KV) (s *Store) {
	s = &Store{
		kv:  kv,
		now: time.Now,
	}
	return s
}

// Resume returns the saved résumé text, or "" if none.
func (s *Store) Resume(ctx context.Context) (text string, err error) {
	text, err = s.loadString(ctx, KeyResume)
	return text, err
}

// SetResume saves the résumé text.
func (s *Store) SetResume(ctx context.Context, text string) (err error) {
	err = s.kv.Save(ctx, KeyResume, text)
	return err
}

// Job returns the saved job description, or "" if none.
func (s *Store) Job(ctx context.Context) (text string, err error) {
	text, err = s.loadString(ctx, KeyJob)
	return text, err
}

// SetJob saves the job description.
func (s *Store) SetJob(ctx context.Context, text string) (err error) {
	err = s.kv.Save(ctx, KeyJob, text)
	return err
}

// APIKey returns the stored AI credential, or "" if none.
func (s *Store) APIKey(ctx context.Context) (key string, err error) {
	key, err = s.loadString(ctx, KeyAPIKey)
	return key, err
}

// SetAPIKey stores the AI credential. An empty key clears the slot.
func (s *Store) SetAPIKey(ctx context.Context, key string) (err error) {
	if key == "" {
		err = s.kv.Delete(ctx, KeyAPIKey)
		return err
	}
	err = s.kv.Save(ctx, KeyAPIKey, key)
	return err
}

// RecentJobs returns recent jobs, newest first. Corrupt data reads as an empty list.
func (s *Store) RecentJobs(ctx context.Context) (jobs []JobHistoryEntry, err error) {
	var list *capped.Deque[JobHistoryEntry]
	list, err = loadList[JobHistoryEntry](ctx, s.kv, KeyRecentJobs, MaxRecentJobs)
	if err != nil {
		return jobs, err
	}
	jobs = list.Items()
	return jobs, err
}

// RecentJob looks up a recent job by id.
func (s *Store) RecentJob(ctx context.Context, id string) (job JobHistoryEntry, ok bool, err error) {
	var jobs []JobHistoryEntry
	jobs, err = s.RecentJobs(ctx)
	if err != nil {
		return job, ok, err
	}
	for _, candidate := range jobs {
		if candidate.ID == id {
			job = candidate
			ok = true
			return job, ok, err
		}
	}
	return job, ok, err
}

// SaveRecentJob records description at the front of the recent job list,
// replacing any entry with the same description. Blank descriptions are ignored.
func (s *Store) SaveRecentJob(ctx context.Context, description, url string) (entry JobHistoryEntry, err error) {
	if strings.TrimSpace(description) == "" {
		return entry, err
	}

	entry = JobHistoryEntry{
		ID:          uuid.NewString(),
		Snippet:     Snippet(description),
		Description: description,
		URL:         url,
		SavedAt:     s.now().UnixMilli(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var list *capped.Deque[JobHistoryEntry]
	list, err = loadList[JobHistoryEntry](ctx, s.kv, KeyRecentJobs, MaxRecentJobs)
	if err != nil {
		return entry, err
	}

	list.PushFront(entry, func(a, b JobHistoryEntry) bool {
		return a.Description == b.Description
	})

	err = saveList(ctx, s.kv, KeyRecentJobs, list)
	return entry, err
}

// Presets returns saved presets, newest first. Corrupt data reads as an empty list.
func (s *Store) Presets(ctx context.Context) (presets []ProfilePreset, err error) {
	var list *capped.Deque[ProfilePreset]
	list, err = loadList[ProfilePreset](ctx, s.kv, KeyPresets, MaxPresets)
	if err != nil {
		return presets, err
	}
	presets = list.Items()
	return presets, err
}

// Preset looks up a preset by id, falling back to an exact name match.
func (s *Store) Preset(ctx context.Context, idOrName string) (preset ProfilePreset, ok bool, err error) {
	var presets []ProfilePreset
	presets, err = s.Presets(ctx)
	if err != nil {
		return preset, ok, err
	}
	for _, candidate := range presets {
		if candidate.ID == idOrName {
			preset = candidate
			ok = true
			return preset, ok, err
		}
	}
	for _, candidate := range presets {
		if candidate.Name == idOrName {
			preset = candidate
			ok = true
			return preset, ok, err
		}
	}
	return preset, ok, err
}

// SavePreset stores a named résumé/job pairing, replacing any preset with the same name.
func (s *Store) SavePreset(ctx context.Context, name, resume, job string) (preset ProfilePreset, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		err = ErrPresetNameRequired
		return preset, err
	}
	if strings.TrimSpace(resume) == "" {
		err = ErrPresetResumeRequired
		return preset, err
	}

	preset = ProfilePreset{
		ID:             uuid.NewString(),
		Name:           name,
		Resume:         resume,
		JobDescription: job,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var list *capped.Deque[ProfilePreset]
	list, err = loadList[ProfilePreset](ctx, s.kv, KeyPresets, MaxPresets)
	if err != nil {
		return preset, err
	}

	list.PushFront(preset, func(a, b ProfilePreset) bool {
		return a.Name == b.Name
	})

	err = saveList(ctx, s.kv, KeyPresets, list)
	return preset, err
}

// DeletePreset removes the preset with the given id and reports whether one was removed.
func (s *Store) DeletePreset(ctx context.Context, id string) (removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list *capped.Deque[ProfilePreset]
	list, err = loadList[ProfilePreset](ctx, s.kv, KeyPresets, MaxPresets)
	if err != nil {
		return removed, err
	}

	n := list.RemoveFunc(func(p ProfilePreset) bool { return p.ID == id })
	if n == 0 {
		return removed, err
	}

	removed = true
	err = saveList(ctx, s.kv, KeyPresets, list)
	return removed, err
}

// Snippet collapses whitespace in description and keeps the first SnippetLength characters.
func Snippet(description string) (snippet string) {
	collapsed := whitespaceRun.ReplaceAllString(description, " ")
	runes := []rune(collapsed)
	if len(runes) > SnippetLength {
		runes = runes[:SnippetLength]
	}
	snippet = string(runes)
	return snippet
}

func (s *Store) loadString(ctx context.Context, key string) (value string, err error) {
	value, _, err = s.kv.Load(ctx, key)
	if err != nil {
		err = errors.Wrapf(err, "failed to load %s", key)
		return value, err
	}
	return value, err
}

func loadList[T any](ctx context.Context, kv KV, key string, limit int) (list *capped.Deque[T], err error) {
	var raw string
	var ok bool
	raw, ok, err = kv.Load(ctx, key)
	if err != nil {
		err = errors.Wrapf(err, "failed to load %s", key)
		return list, err
	}

	var items []T
	if ok && raw != "" {
		if jsonErr := json.Unmarshal([]byte(raw), &items); jsonErr != nil {
			items = nil
		}
	}

	list = capped.From(limit, items)
	return list, err
}

func saveList[T any](ctx context.Context, kv KV, key string, list *capped.Deque[T]) (err error) {
	var data []byte
	data, err = json.Marshal(list.Items())
	if err != nil {
		err = errors.Wrapf(err, "failed to encode %s", key)
		return err
	}

	err = kv.Save(ctx, key, string(data))
	if err != nil {
		err = errors.Wrapf(err, "failed to save %s", key)
		return err
	}
	return err
}
