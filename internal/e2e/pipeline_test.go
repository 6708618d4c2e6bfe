//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/rfpaudit/internal/audit"
	"github.com/dusk-indust/rfpaudit/internal/history"
	"github.com/dusk-indust/rfpaudit/internal/report"
	"github.com/dusk-indust/rfpaudit/internal/retrieval"
	"github.com/dusk-indust/rfpaudit/internal/rules"
)

// TestAudit_E2E_FileToHistory runs the full flow an operator would: audit a
// document from disk with the built-in rules, render JSON, save the run, and
// read it back from history.
func TestAudit_E2E_FileToHistory(t *testing.T) {
	ruleset, err := rules.Default()
	require.NoError(t, err)

	pipeline := audit.NewPipeline(audit.Config{Parallel: true},
		retrieval.NewFileRetriever(), ruleset)

	// Drain progress events in the background so the pipeline does not block.
	progressCh := pipeline.Progress()
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for range progressCh {
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := pipeline.Run(ctx, fixturePath("proposal.md"))
	require.NoError(t, err)
	require.NotEmpty(t, result.Corrections)
	assert.Equal(t, audit.RunCompleted, pipeline.State())

	pipeline.Close()
	<-drainDone

	// The JSON rendering round-trips through the model.
	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, result))
	var decoded audit.DocumentAuditResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, result.Corrections, decoded.Corrections)

	// Save and reload through the history store.
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	id, err := store.SaveRun(ctx, result)
	require.NoError(t, err)

	reloaded, err := store.GetResult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, result.Corrections, reloaded.Corrections)
	assert.Equal(t, result.StageProvenance, reloaded.StageProvenance)
}

// TestAudit_E2E_RerunIsStable audits the same document twice and requires
// identical output, sequential against parallel.
func TestAudit_E2E_RerunIsStable(t *testing.T) {
	ruleset, err := rules.Default()
	require.NoError(t, err)

	run := func(parallel bool) *audit.DocumentAuditResult {
		pipeline := audit.NewPipeline(audit.Config{Parallel: parallel},
			retrieval.NewFileRetriever(), ruleset)
		defer pipeline.Close()

		result, err := pipeline.Run(context.Background(), fixturePath("proposal.md"))
		require.NoError(t, err)
		return result
	}

	first := run(false)
	second := run(true)
	assert.Equal(t, first.Corrections, second.Corrections)
	assert.Equal(t, first.StageProvenance, second.StageProvenance)
}
