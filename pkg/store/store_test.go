package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	fileKV, err := NewFileKV(filepath.Join(t.TempDir(), "state", "store.json"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisKV, err := NewRedisKV(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisKV.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"redis":  redisKV,
	}
}

func TestAbsentKeysReadEmpty(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(kv)

			resume, err := s.Resume(ctx)
			require.NoError(t, err)
			assert.Empty(t, resume)

			jobs, err := s.RecentJobs(ctx)
			require.NoError(t, err)
			assert.Empty(t, jobs)

			presets, err := s.Presets(ctx)
			require.NoError(t, err)
			assert.Empty(t, presets)
		})
	}
}

func TestFreeTextRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(kv)

			require.NoError(t, s.SetResume(ctx, "# Jane Doe"))
			require.NoError(t, s.SetJob(ctx, "Go engineer"))
			require.NoError(t, s.SetAPIKey(ctx, "secret"))

			resume, err := s.Resume(ctx)
			require.NoError(t, err)
			assert.Equal(t, "# Jane Doe", resume)

			job, err := s.Job(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Go engineer", job)

			key, err := s.APIKey(ctx)
			require.NoError(t, err)
			assert.Equal(t, "secret", key)

			require.NoError(t, s.SetAPIKey(ctx, ""))
			key, err = s.APIKey(ctx)
			require.NoError(t, err)
			assert.Empty(t, key)
		})
	}
}

func TestCorruptCollectionsReadEmpty(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Save(ctx, KeyRecentJobs, "{not json"))
			require.NoError(t, kv.Save(ctx, KeyPresets, "[{]"))

			s := New(kv)

			jobs, err := s.RecentJobs(ctx)
			require.NoError(t, err)
			assert.Empty(t, jobs)

			presets, err := s.Presets(ctx)
			require.NoError(t, err)
			assert.Empty(t, presets)

			// A save over corrupt data starts a fresh collection.
			_, err = s.SaveRecentJob(ctx, "Platform engineer", "")
			require.NoError(t, err)

			jobs, err = s.RecentJobs(ctx)
			require.NoError(t, err)
			assert.Len(t, jobs, 1)
		})
	}
}

func TestRecentJobsCapAndDedup(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	for i := 0; i < 25; i++ {
		_, err := s.SaveRecentJob(ctx, fmt.Sprintf("job description %d", i%11), "")
		require.NoError(t, err)

		jobs, err := s.RecentJobs(ctx)
		require.NoError(t, err)
		require.LessOrEqual(t, len(jobs), MaxRecentJobs)
	}

	jobs, err := s.RecentJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, MaxRecentJobs)

	seen := map[string]bool{}
	for _, job := range jobs {
		assert.False(t, seen[job.Description], "duplicate description %q", job.Description)
		seen[job.Description] = true
	}

	// Newest first: 24 % 11 == 2.
	assert.Equal(t, "job description 2", jobs[0].Description)
}

func TestSaveRecentJobIgnoresBlank(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	entry, err := s.SaveRecentJob(ctx, "   \n", "")
	require.NoError(t, err)
	assert.Empty(t, entry.ID)

	jobs, err := s.RecentJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRecentJobLookup(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	entry, err := s.SaveRecentJob(ctx, "SRE role", "https://example.com/jobs/1")
	require.NoError(t, err)

	found, ok, err := s.RecentJob(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/jobs/1", found.URL)

	_, ok, err = s.RecentJob(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPresetsDedupByName(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	_, err := s.SavePreset(ctx, "PM roles", "resume v1", "job 1")
	require.NoError(t, err)
	_, err = s.SavePreset(ctx, "SRE roles", "resume v2", "job 2")
	require.NoError(t, err)
	_, err = s.SavePreset(ctx, " PM roles ", "resume v3", "job 3")
	require.NoError(t, err)

	presets, err := s.Presets(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "PM roles", presets[0].Name)
	assert.Equal(t, "resume v3", presets[0].Resume)
	assert.Equal(t, "SRE roles", presets[1].Name)
}

func TestPresetsCap(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	for i := 0; i < 12; i++ {
		_, err := s.SavePreset(ctx, fmt.Sprintf("preset %d", i), "resume", "")
		require.NoError(t, err)
	}

	presets, err := s.Presets(ctx)
	require.NoError(t, err)
	assert.Len(t, presets, MaxPresets)
	assert.Equal(t, "preset 11", presets[0].Name)
}

func TestSavePresetValidation(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	_, err := s.SavePreset(ctx, "  ", "resume", "")
	require.ErrorIs(t, err, ErrPresetNameRequired)

	_, err = s.SavePreset(ctx, "name", " ", "")
	require.ErrorIs(t, err, ErrPresetResumeRequired)
}

func TestPresetLookupAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())

	saved, err := s.SavePreset(ctx, "Backend", "resume", "job")
	require.NoError(t, err)

	byID, ok, err := s.Preset(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Backend", byID.Name)

	byName, ok, err := s.Preset(ctx, "Backend")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved.ID, byName.ID)

	removed, err := s.DeletePreset(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeletePreset(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	presets, err := s.Presets(ctx)
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("word  \n", 100)
	snippet := Snippet(long)

	assert.Len(t, []rune(snippet), SnippetLength)
	assert.NotContains(t, snippet, "\n")
	assert.NotContains(t, snippet, "  ")
	assert.Equal(t, "short text", Snippet("short\t\ttext"))
}

func TestFileKVPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	first, err := NewFileKV(path)
	require.NoError(t, err)
	require.NoError(t, New(first).SetResume(ctx, "persisted"))

	second, err := NewFileKV(path)
	require.NoError(t, err)
	resume, err := New(second).Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", resume)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileKVCorruptFileReadsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

	kv, err := NewFileKV(path)
	require.NoError(t, err)

	_, ok, err := kv.Load(ctx, KeyResume)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Save(ctx, KeyResume, "fresh"))
	value, ok, err := kv.Load(ctx, KeyResume)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh", value)
}
