package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikogura/resumeforge/pkg/capped"
	"github.com/nikogura/resumeforge/pkg/llm"
	"github.com/nikogura/resumeforge/pkg/scorer"
	"github.com/nikogura/resumeforge/pkg/store"
	"github.com/pkg/errors"
)

// MaxHistory is how many snapshots a session keeps.
const MaxHistory = 10

// History labels.
const (
	LabelOriginal    = "Original resume"
	LabelAIReady     = "AI suggestions ready"
	LabelAccepted    = "Accepted suggestion"
	LabelRejected    = "Rejected suggestion"
	LabelAcceptedAll = "Accepted all suggestions"
	LabelResetToAI   = "Reset to AI version"
	LabelManualEdit  = "Manual edit"
)

var (
	// ErrJobRequired is returned when the job description is blank.
	ErrJobRequired = errors.New("job description is required")
	// ErrResumeRequired is returned when the résumé is blank.
	ErrResumeRequired = errors.New("resume is required")
	// ErrBusy is returned while a remote call for the same purpose is in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrNoStore is returned by operations that need persistence when none is attached.
	ErrNoStore = errors.New("no store attached")
	// ErrNotFound is returned when a saved job or preset id does not exist.
	ErrNotFound = errors.New("not found")
)

// Tailorer produces suggestions and cover letters. *llm.Client implements it.
type Tailorer interface {
	Tailor(ctx context.Context, job, resume string) (result llm.TailoringResult, err error)
	CoverLetter(ctx context.Context, job, tailoredResume string) (letter string, err error)
}

// JobRecorder remembers submitted job descriptions. *store.Store implements it.
type JobRecorder interface {
	SaveRecentJob(ctx context.Context, description, url string) (entry store.JobHistoryEntry, err error)
}

// HistoryEntry is an immutable snapshot of the résumé text.
type HistoryEntry struct {
	ID        string
	Label     string
	Timestamp time.Time
	Content   string
}

// CoverLetterStatus tracks the cover letter request.
type CoverLetterStatus string

// Cover letter statuses.
const (
	CoverLetterIdle    CoverLetterStatus = "idle"
	CoverLetterLoading CoverLetterStatus = "loading"
	CoverLetterReady   CoverLetterStatus = "ready"
	CoverLetterError   CoverLetterStatus = "error"
)

// Session is one user's tailoring workflow.
type Session struct {
	mu sync.Mutex

	tailorer Tailorer
	recorder JobRecorder
	store    *store.Store
	scorer   *scorer.Scorer
	now      func() time.Time

	stage  Stage
	job    string
	jobURL string
	resume string

	baseline string
	result   *llm.TailoringResult
	source   TextSource
	history  *capped.Deque[HistoryEntry]

	coverLetter       string
	coverLetterStatus CoverLetterStatus
}

// Option configures a Session.
type Option func(s *Session)

// WithStore persists inputs to st and records submitted jobs in its recent list.
func WithStore(st *store.Store) (opt Option) {
	opt = func(s *Session) {
		s.store = st
		if st != nil {
			s.recorder = st
		}
	}
	return opt
}

// WithJobRecorder overrides where submitted jobs are recorded.
func WithJobRecorder(r JobRecorder) (opt Option) {
	opt = func(s *Session) {
		s.recorder = r
	}
	return opt
}

// WithClock sets the time source for history timestamps.
func WithClock(now func() time.Time) (opt Option) {
	opt = func(s *Session) {
		s.now = now
	}
	return opt
}

// NewSession creates a session in the Input stage.
func NewSession(tailorer Tailorer, opts ...Option) (s *Session) {
	s = &Session{
		tailorer:          tailorer,
		scorer:            scorer.NewScorer(),
		now:               time.Now,
		stage:             StageInput,
		source:            Derived(),
		history:           capped.New[HistoryEntry](MaxHistory),
		coverLetterStatus: CoverLetterIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores the last job and résumé from the attached store.
func (s *Session) Load(ctx context.Context) (err error) {
	if s.store == nil {
		return err
	}

	var job, resume string
	job, err = s.store.Job(ctx)
	if err != nil {
		return err
	}
	resume, err = s.store.Resume(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if job != "" {
		s.job = job
	}
	if resume != "" {
		s.resume = resume
	}
	s.mu.Unlock()

	return err
}

// Stage returns the current stage.
func (s *Session) Stage() (stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stage = s.stage
	return stage
}

// Inputs returns the job description, its source URL and the résumé.
func (s *Session) Inputs() (job, jobURL, resume string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, jobURL, resume = s.job, s.jobURL, s.resume
	return job, jobURL, resume
}

// Baseline returns the résumé as it was when suggestions were last requested.
func (s *Session) Baseline() (baseline string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	baseline = s.baseline
	return baseline
}

// SetJob replaces the job description and persists it.
func (s *Session) SetJob(ctx context.Context, text string) (err error) {
	s.mu.Lock()
	s.job = text
	s.mu.Unlock()

	if s.store != nil {
		err = s.store.SetJob(ctx, text)
	}
	return err
}

// SetJobURL records where the job description came from.
func (s *Session) SetJobURL(url string) {
	s.mu.Lock()
	s.jobURL = url
	s.mu.Unlock()
}

// SetResume replaces the résumé and persists it.
func (s *Session) SetResume(ctx context.Context, text string) (err error) {
	s.mu.Lock()
	s.resume = text
	s.mu.Unlock()

	if s.store != nil {
		err = s.store.SetResume(ctx, text)
	}
	return err
}

// ImportJob sets a scraped job description and remembers it in the recent list.
func (s *Session) ImportJob(ctx context.Context, description, url string) (err error) {
	s.SetJobURL(url)

	err = s.SetJob(ctx, description)
	if err != nil {
		return err
	}

	if s.recorder != nil {
		_, err = s.recorder.SaveRecentJob(ctx, description, url)
	}
	return err
}

// LoadRecentJob makes a saved job description the current one.
func (s *Session) LoadRecentJob(ctx context.Context, id string) (entry store.JobHistoryEntry, err error) {
	if s.store == nil {
		err = ErrNoStore
		return entry, err
	}

	var ok bool
	entry, ok, err = s.store.RecentJob(ctx, id)
	if err != nil {
		return entry, err
	}
	if !ok {
		err = errors.Wrapf(ErrNotFound, "recent job %q", id)
		return entry, err
	}

	s.SetJobURL(entry.URL)
	err = s.SetJob(ctx, entry.Description)
	return entry, err
}

// LoadPreset replaces both inputs with a saved preset, looked up by id or name.
func (s *Session) LoadPreset(ctx context.Context, idOrName string) (preset store.ProfilePreset, err error) {
	if s.store == nil {
		err = ErrNoStore
		return preset, err
	}

	var ok bool
	preset, ok, err = s.store.Preset(ctx, idOrName)
	if err != nil {
		return preset, err
	}
	if !ok {
		err = errors.Wrapf(ErrNotFound, "preset %q", idOrName)
		return preset, err
	}

	err = s.SetResume(ctx, preset.Resume)
	if err != nil {
		return preset, err
	}
	err = s.SetJob(ctx, preset.JobDescription)
	return preset, err
}

// SavePreset stores the current inputs under name.
func (s *Session) SavePreset(ctx context.Context, name string) (preset store.ProfilePreset, err error) {
	if s.store == nil {
		err = ErrNoStore
		return preset, err
	}

	job, _, resume := s.Inputs()
	preset, err = s.store.SavePreset(ctx, name, resume, job)
	return preset, err
}

// Submit requests suggestions for the current inputs. It is only allowed from
// Input. On failure the session returns to Input and everything else, including
// any earlier suggestions, override and history, is left as it was.
func (s *Session) Submit(ctx context.Context) (result llm.TailoringResult, err error) {
	s.mu.Lock()
	if strings.TrimSpace(s.job) == "" {
		s.mu.Unlock()
		err = ErrJobRequired
		return result, err
	}
	if strings.TrimSpace(s.resume) == "" {
		s.mu.Unlock()
		err = ErrResumeRequired
		return result, err
	}
	if s.stage == StageProcessing {
		s.mu.Unlock()
		err = ErrBusy
		return result, err
	}

	var next Stage
	next, err = transition(s.stage, StageProcessing)
	if err != nil {
		s.mu.Unlock()
		return result, err
	}

	job, jobURL, resume := s.job, s.jobURL, s.resume
	s.stage = next
	recorder := s.recorder
	s.mu.Unlock()

	if recorder != nil {
		// A failed write only loses the recent-jobs entry.
		_, _ = recorder.SaveRecentJob(ctx, job, jobURL)
	}

	var tailorErr error
	result, tailorErr = s.tailorer.Tailor(ctx, job, resume)

	s.mu.Lock()
	defer s.mu.Unlock()

	if tailorErr != nil {
		s.stage, _ = transition(s.stage, StageInput)
		err = tailorErr
		return result, err
	}

	s.stage, err = transition(s.stage, StageResults)
	if err != nil {
		return result, err
	}

	// Earlier results, edits and history are replaced only once the new set has arrived.
	stored := result.Clone()
	for i := range stored.Suggestions {
		stored.Suggestions[i].Acceptance = llm.Undecided
	}
	s.result = &stored
	s.baseline = resume
	s.source = Derived()
	s.coverLetter = ""
	s.coverLetterStatus = CoverLetterIdle
	s.history.Reset()
	s.capture(LabelOriginal, resume)
	s.capture(LabelAIReady, resume)

	result = stored.Clone()
	return result, err
}

// StartOver returns to the Input stage keeping the inputs.
func (s *Session) StartOver() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stage, err = transition(s.stage, StageInput)
	return err
}

// Result returns a copy of the current suggestion set.
func (s *Session) Result() (result llm.TailoringResult, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return result, ok
	}
	result = s.result.Clone()
	ok = true
	return result, ok
}

// Suggestions returns a copy of the current suggestions.
func (s *Session) Suggestions() (suggestions []llm.Suggestion) {
	result, ok := s.Result()
	if ok {
		suggestions = result.Suggestions
	}
	return suggestions
}

// AcceptSuggestion records a decision on one suggestion. Accepting while an
// override is active applies that edit to the override text. It returns false
// for an unknown id or outside the Results stage.
func (s *Session) AcceptSuggestion(id string, accept bool) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageResults {
		return ok
	}

	target := s.findSuggestion(id)
	if target == nil {
		return ok
	}
	ok = true

	target.Acceptance = llm.Rejected
	if accept {
		target.Acceptance = llm.Accepted
	}

	if accept && s.source.IsCustom() {
		if text, applied := replaceFirst(s.source.Text(), target.Original, target.Suggested); applied {
			s.source = Custom(text)
		}
	}

	label := LabelRejected
	if accept {
		label = LabelAccepted
	}
	s.capture(label, s.currentLocked())

	return ok
}

// AcceptAll accepts every suggestion. The result always becomes an override:
// an existing override gets every edit applied, otherwise the derived text is pinned.
func (s *Session) AcceptAll() (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageResults || s.result == nil {
		return ok
	}
	ok = true

	for i := range s.result.Suggestions {
		s.result.Suggestions[i].Acceptance = llm.Accepted
	}

	var tailored string
	if s.source.IsCustom() {
		tailored = ApplyAccepted(s.source.Text(), s.result.Suggestions)
		s.source = Custom(tailored)
	} else {
		tailored = ApplyAccepted(s.resume, s.result.Suggestions)
		if tailored != "" {
			s.source = Custom(tailored)
		}
	}

	s.capture(LabelAcceptedAll, tailored)
	return ok
}

// EditSuggestionText changes what a suggestion would insert. Its decision is kept.
func (s *Session) EditSuggestionText(id, text string) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageResults {
		return ok
	}

	target := s.findSuggestion(id)
	if target == nil {
		return ok
	}

	target.Suggested = text
	ok = true
	return ok
}

// ManualEdit makes text the override.
func (s *Session) ManualEdit(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = Custom(text)
	s.capture(LabelManualEdit, text)
}

// ResetToAI drops the override so the text is derived from accepted suggestions again.
// It returns false outside the Results stage.
func (s *Session) ResetToAI() (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageResults {
		return ok
	}

	s.source = Derived()
	s.capture(LabelResetToAI, s.derivedLocked())
	ok = true
	return ok
}

// UndoLast discards the newest snapshot and makes the one before it the override.
// It needs at least two snapshots and the Results stage.
func (s *Session) UndoLast() (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageResults || s.history.Len() < 2 {
		return ok
	}

	s.history.PopBack()
	latest, _ := s.history.Back()
	s.source = Custom(latest.Content)

	ok = true
	return ok
}

// Restore makes a snapshot the override without discarding newer snapshots.
// Like the other edits it needs the Results stage.
func (s *Session) Restore(id string) (entry HistoryEntry, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageResults {
		return entry, ok
	}

	entry, ok = s.history.Find(func(e HistoryEntry) bool { return e.ID == id })
	if !ok {
		return entry, ok
	}

	s.source = Custom(entry.Content)
	return entry, ok
}

// History returns the snapshots, oldest first.
func (s *Session) History() (entries []HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries = s.history.Items()
	return entries
}

// Source returns the active text source.
func (s *Session) Source() (src TextSource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src = s.source
	return src
}

// Current returns the résumé text as it stands: the override if one is active,
// otherwise the résumé with accepted suggestions applied.
func (s *Session) Current() (text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text = s.currentLocked()
	return text
}

// Diff compares the baseline (or the résumé before any submit) with Current.
func (s *Session) Diff() (lines []DiffLine) {
	s.mu.Lock()
	before := s.baseline
	if before == "" {
		before = s.resume
	}
	after := s.currentLocked()
	s.mu.Unlock()

	lines = DiffLines(before, after)
	return lines
}

// Keywords reports which of the job's keywords the current text covers.
func (s *Session) Keywords() (coverage scorer.Coverage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched, missing []string
	if s.result != nil {
		matched = s.result.KeywordsMatched
		missing = s.result.KeywordsMissing
	}

	coverage = s.scorer.KeywordCoverage(s.currentLocked(), matched, missing)
	return coverage
}

// CoverLetter returns the last drafted letter and the request status.
func (s *Session) CoverLetter() (letter string, status CoverLetterStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	letter, status = s.coverLetter, s.coverLetterStatus
	return letter, status
}

// GenerateCoverLetter drafts a cover letter from the job and the current text.
func (s *Session) GenerateCoverLetter(ctx context.Context) (letter string, err error) {
	s.mu.Lock()
	if strings.TrimSpace(s.job) == "" {
		s.mu.Unlock()
		err = ErrJobRequired
		return letter, err
	}
	if strings.TrimSpace(s.resume) == "" {
		s.mu.Unlock()
		err = ErrResumeRequired
		return letter, err
	}
	if s.coverLetterStatus == CoverLetterLoading {
		s.mu.Unlock()
		err = ErrBusy
		return letter, err
	}

	s.coverLetterStatus = CoverLetterLoading
	job := s.job
	current := s.currentLocked()
	s.mu.Unlock()

	letter, err = s.tailorer.CoverLetter(ctx, job, current)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.coverLetterStatus = CoverLetterError
		err = errors.Wrap(err, "could not generate cover letter")
		return letter, err
	}

	s.coverLetter = letter
	s.coverLetterStatus = CoverLetterReady
	return letter, err
}

func (s *Session) findSuggestion(id string) (target *llm.Suggestion) {
	if s.result == nil {
		return target
	}
	for i := range s.result.Suggestions {
		if s.result.Suggestions[i].ID == id {
			target = &s.result.Suggestions[i]
			return target
		}
	}
	return target
}

func (s *Session) derivedLocked() (text string) {
	if s.result == nil {
		text = s.resume
		return text
	}
	text = ApplyAccepted(s.resume, s.result.Suggestions)
	return text
}

func (s *Session) currentLocked() (text string) {
	if s.source.IsCustom() {
		text = s.source.Text()
		return text
	}
	text = s.derivedLocked()
	return text
}

// capture appends a snapshot. Empty content is not recorded.
func (s *Session) capture(label, content string) {
	if content == "" {
		return
	}
	s.history.PushBack(HistoryEntry{
		ID:        uuid.NewString(),
		Label:     label,
		Timestamp: s.now(),
		Content:   content,
	})
}
