package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/rfpaudit/internal/audit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func cleanResult(ref string, n int) *audit.DocumentAuditResult {
	result := &audit.DocumentAuditResult{
		SourceDocumentRef: ref,
		Corrections:       []audit.Correction{},
		StageProvenance:   map[int][]string{},
	}
	for i := 1; i <= n; i++ {
		result.Corrections = append(result.Corrections, audit.Correction{
			ID:         i,
			Location:   "p1:l1",
			TextBefore: "teh",
			TextAfter:  "the",
			Reason:     "misspelling",
			Category:   audit.CategorySpelling,
			Severity:   audit.SeverityMinor,
		})
		result.StageProvenance[i] = []string{"spelling-grammar"}
	}
	return result
}

func TestStore_SaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.SaveRun(ctx, cleanResult("proposal.md", 2))
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := store.GetResult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "proposal.md", got.SourceDocumentRef)
	require.Len(t, got.Corrections, 2)
	assert.Equal(t, audit.SeverityMinor, got.Corrections[0].Severity)
	assert.Equal(t, []string{"spelling-grammar"}, got.StageProvenance[1])
}

func TestStore_GetMissingRun(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetResult(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run with id 42")
}

func TestStore_ListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, ref := range []string{"a.md", "b.md", "c.md"} {
		_, err := store.SaveRun(ctx, cleanResult(ref, 1))
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c.md", runs[0].DocumentRef)
	assert.Equal(t, "b.md", runs[1].DocumentRef)
	assert.Equal(t, "completed", runs[0].Status)
	assert.False(t, runs[0].CompletedAt.IsZero())
}

func TestStore_DegradedStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	result := cleanResult("doc.md", 0)
	result.StageFailures = []audit.StageFailure{
		{Stage: "guidelines-compliance", Reason: "no rule set supplied"},
	}

	_, err := store.SaveRun(ctx, result)
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "degraded", runs[0].Status)
	assert.Equal(t, 1, runs[0].Failures)
}

func TestStore_Prune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.SaveRun(ctx, cleanResult("doc.md", 0))
		require.NoError(t, err)
	}

	removed, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
