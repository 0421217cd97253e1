package state

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydayarxiv/daydayarxiv/internal/domain"
	"github.com/daydayarxiv/daydayarxiv/internal/storage"
)

func testManager(t *testing.T, opts Options) (*Manager, storage.OutputPaths) {
	t.Helper()
	paths := storage.OutputPaths{BaseDir: t.TempDir()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(paths, "2025-04-01", "cs.AI", logger, opts), paths
}

func rawPapers(ids ...string) []domain.RawPaper {
	out := make([]domain.RawPaper, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.RawPaper{
			ArxivID:  id,
			Title:    "Paper " + id,
			Abstract: "Abstract " + id,
		})
	}
	return out
}

func TestLoadMissingFileStartsFresh(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t, Options{})

	assert.False(t, m.Load())
	data := m.Data()
	assert.Equal(t, domain.DailyStatusPending, data.ProcessingStatus)
	assert.Empty(t, data.Papers)
}

func TestRegisterRawPapersIdempotent(t *testing.T) {
	t.Parallel()
	m, paths := testManager(t, Options{})

	require.NoError(t, m.RegisterRawPapers(rawPapers("2504.00001", "2504.00002")))
	require.NoError(t, m.UpdatePaper("2504.00001", domain.TaskStatusInProgress, PaperUpdate{}))

	// Registering again must not reset the in-flight paper.
	require.NoError(t, m.RegisterRawPapers(rawPapers("2504.00001", "2504.00002", "2504.00003")))

	data := m.Data()
	assert.Len(t, data.Papers, 3)
	assert.True(t, data.RawPapersFetched)
	first := data.FindPaper("2504.00001")
	require.NotNil(t, first)
	assert.Equal(t, domain.TaskStatusInProgress, first.ProcessingStatus)
	assert.Equal(t, 1, first.Attempts)

	assert.True(t, storage.FileExists(paths.DailyPath("2025-04-01", "cs.AI")))
}

func TestLoadResumesPersistedState(t *testing.T) {
	t.Parallel()
	m, paths := testManager(t, Options{})

	require.NoError(t, m.RegisterRawPapers(rawPapers("2504.00001")))
	require.NoError(t, m.UpdatePaper("2504.00001", domain.TaskStatusCompleted, PaperUpdate{
		TitleZh:        "中文标题",
		TldrZh:         "中文摘要",
		CompletedSteps: []string{domain.StepTranslation, domain.StepTLDR},
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fresh := NewManager(paths, "2025-04-01", "cs.AI", logger, Options{})
	require.True(t, fresh.Load())

	data := fresh.Data()
	require.Len(t, data.Papers, 1)
	assert.Equal(t, "中文标题", data.Papers[0].TitleZh)
	assert.Equal(t, 1, data.ProcessedPapersCount)
}

func TestLoadRejectsMismatchedBatch(t *testing.T) {
	t.Parallel()
	paths := storage.OutputPaths{BaseDir: t.TempDir()}
	other := domain.NewDailyData("2025-04-02", "cs.CL")
	require.NoError(t, storage.WriteJSONAtomic(paths.DailyPath("2025-04-01", "cs.AI"), other))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(paths, "2025-04-01", "cs.AI", logger, Options{})
	assert.False(t, m.Load())
}

func TestResetDiscardsState(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t, Options{})

	require.NoError(t, m.RegisterRawPapers(rawPapers("2504.00001")))
	require.NoError(t, m.Reset())

	data := m.Data()
	assert.Empty(t, data.Papers)
	assert.False(t, data.RawPapersFetched)
	assert.Equal(t, domain.DailyStatusPending, data.ProcessingStatus)
}

func TestUpdatePaperAttemptsAndMerge(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t, Options{})
	require.NoError(t, m.RegisterRawPapers(rawPapers("2504.00001")))

	require.NoError(t, m.UpdatePaper("2504.00001", domain.TaskStatusInProgress, PaperUpdate{}))
	require.NoError(t, m.UpdatePaper("2504.00001", domain.TaskStatusFailed, PaperUpdate{Error: "翻译失败"}))
	require.NoError(t, m.UpdatePaper("2504.00001", domain.TaskStatusInProgress, PaperUpdate{}))
	require.NoError(t, m.UpdatePaper("2504.00001", domain.TaskStatusCompleted, PaperUpdate{
		TitleZh:        "标题",
		TldrZh:         "摘要",
		CompletedSteps: []string{domain.StepTranslation, domain.StepTLDR},
		BackupCalls:    1,
	}))

	data := m.Data()
	p := data.FindPaper("2504.00001")
	require.NotNil(t, p)
	assert.Equal(t, 2, p.Attempts, "only entering in_progress counts")
	assert.Empty(t, p.Error, "completion clears the failure message")
	assert.Equal(t, []string{domain.StepTranslation, domain.StepTLDR}, p.CompletedSteps)
	assert.Equal(t, 1, p.LLMBackupCalls)
	assert.Equal(t, 1, data.ProcessedPapersCount)
	assert.Equal(t, 1, data.LLMBackupCalls)
}

func TestUpdatePaperUnknownIDCreatesPlaceholder(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t, Options{})

	require.NoError(t, m.UpdatePaper("2504.99999", domain.TaskStatusFailed, PaperUpdate{Error: "boom"}))
	data := m.Data()
	p := data.FindPaper("2504.99999")
	require.NotNil(t, p)
	assert.Equal(t, domain.TaskStatusFailed, p.ProcessingStatus)
	assert.Equal(t, "boom", p.Error)
}

func TestPendingPaperIDsPromotesRetryable(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t, Options{})
	require.NoError(t, m.RegisterRawPapers(rawPapers("a", "b", "c", "d")))

	// a: untouched pending. b: interrupted in_progress. c: failed with
	// attempts left. d: terminally failed.
	require.NoError(t, m.UpdatePaper("b", domain.TaskStatusInProgress, PaperUpdate{}))
	require.NoError(t, m.UpdatePaper("c", domain.TaskStatusInProgress, PaperUpdate{}))
	require.NoError(t, m.UpdatePaper("c", domain.TaskStatusFailed, PaperUpdate{Error: "x"}))
	for i := 0; i < domain.DefaultMaxAttempts; i++ {
		require.NoError(t, m.UpdatePaper("d", domain.TaskStatusInProgress, PaperUpdate{}))
		require.NoError(t, m.UpdatePaper("d", domain.TaskStatusFailed, PaperUpdate{Error: "x"}))
	}

	ids, err := m.PendingPaperIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)

	data := m.Data()
	assert.Equal(t, domain.TaskStatusRetrying, data.FindPaper("c").ProcessingStatus)
	assert.Equal(t, domain.TaskStatusFailed, data.FindPaper("d").ProcessingStatus)
	assert.Equal(t, 1, data.FailedPapersCount)
}

func TestCompletedAndFailedPapers(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t, Options{MaxAttempts: 1})
	require.NoError(t, m.RegisterRawPapers(rawPapers("ok", "bad")))

	require.NoError(t, m.UpdatePaper("ok", domain.TaskStatusInProgress, PaperUpdate{}))
	require.NoError(t, m.UpdatePaper("ok", domain.TaskStatusCompleted, PaperUpdate{TitleZh: "t", TldrZh: "s"}))
	require.NoError(t, m.UpdatePaper("bad", domain.TaskStatusInProgress, PaperUpdate{}))
	require.NoError(t, m.UpdatePaper("bad", domain.TaskStatusFailed, PaperUpdate{Error: "x"}))

	completed := m.CompletedPapers()
	require.Len(t, completed, 1)
	assert.Equal(t, "ok", completed[0].ArxivID)

	failed := m.FailedPapers()
	require.Len(t, failed, 1)
	assert.Equal(t, "bad", failed[0].ArxivID)

	// Returned papers are copies; mutating them must not leak back.
	completed[0].TitleZh = "mutated"
	assert.Equal(t, "t", m.Data().FindPaper("ok").TitleZh)
}

func TestThrottledSaveCoalescesHeartbeats(t *testing.T) {
	t.Parallel()
	m, paths := testManager(t, Options{SaveInterval: time.Hour})
	require.NoError(t, m.RegisterRawPapers(rawPapers("a")))

	path := paths.DailyPath("2025-04-01", "cs.AI")

	// in_progress heartbeats inside the interval are coalesced.
	require.NoError(t, m.UpdatePaper("a", domain.TaskStatusInProgress, PaperUpdate{}))
	var unchanged domain.DailyData
	require.NoError(t, storage.ReadJSON(path, &unchanged))
	assert.Equal(t, domain.TaskStatusPending, unchanged.Papers[0].ProcessingStatus)

	// Flush forces the coalesced write out.
	require.NoError(t, m.Flush())
	var persisted domain.DailyData
	require.NoError(t, storage.ReadJSON(path, &persisted))
	assert.Equal(t, domain.TaskStatusInProgress, persisted.Papers[0].ProcessingStatus)
}

func TestTerminalTransitionBypassesThrottle(t *testing.T) {
	t.Parallel()
	m, paths := testManager(t, Options{SaveInterval: time.Hour})
	require.NoError(t, m.RegisterRawPapers(rawPapers("a")))
	require.NoError(t, m.UpdatePaper("a", domain.TaskStatusInProgress, PaperUpdate{}))
	require.NoError(t, m.UpdatePaper("a", domain.TaskStatusCompleted, PaperUpdate{TitleZh: "t", TldrZh: "s"}))

	var persisted domain.DailyData
	require.NoError(t, storage.ReadJSON(paths.DailyPath("2025-04-01", "cs.AI"), &persisted))
	require.Len(t, persisted.Papers, 1)
	assert.Equal(t, domain.TaskStatusCompleted, persisted.Papers[0].ProcessingStatus)
	assert.Equal(t, 1, persisted.ProcessedPapersCount)
}

func TestMarkFailedClearsMilestonesUnlessRetained(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t, Options{})
	require.NoError(t, m.SetSummary("快报"))
	require.NoError(t, m.MarkSaved())

	require.NoError(t, m.MarkFailed("index update failed", true))
	data := m.Data()
	assert.True(t, data.DailyDataSaved)
	assert.True(t, data.SummaryGenerated)
	assert.Equal(t, "index update failed", data.Error)

	require.NoError(t, m.MarkFailed("2 papers failed", false))
	data = m.Data()
	assert.False(t, data.DailyDataSaved)
	assert.False(t, data.SummaryGenerated)
}
