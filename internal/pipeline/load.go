package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/handiism/lyrics-harvester/internal/audio"
	"github.com/handiism/lyrics-harvester/internal/export"
	"github.com/handiism/lyrics-harvester/internal/model"
	"github.com/handiism/lyrics-harvester/internal/sink"
)

// Export writes docs as chunked JSON with a manifest and, when enabled,
// one playlist per suitability group.
func (m *Manager) Export(docs []model.Song) (export.Manifest, StageReport, error) {
	start := time.Now()
	rep := StageReport{Stage: StageExport}

	manifest, err := export.WriteChunks(m.settings.ExportDir, m.settings.ExportPrefix, docs, m.settings.DocumentsPerFile, export.Meta{
		DatasetVersion: m.settings.DatasetVersion,
		Source:         Source,
		RunID:          m.runID,
		Now:            m.now(),
	})
	if err != nil {
		return manifest, rep, fmt.Errorf("export: %w", err)
	}
	rep.Batches = manifest.TotalFiles
	rep.Stats.Found = manifest.TotalDocuments
	m.progress(ProgressEvent{Message: fmt.Sprintf("Exported %d documents to %d files in %s", manifest.TotalDocuments, manifest.TotalFiles, m.settings.ExportDir), Level: LevelInfo})

	if m.settings.CreatePlaylist {
		names, err := export.WritePlaylists(filepath.Join(m.settings.ExportDir, "playlists"), audio.SuitabilityPlaylists(docs), m.playlist)
		if err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlists: %v", err), Level: LevelWarning})
		} else {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Created %d playlists", len(names)), Level: LevelSuccess})
		}
	}

	m.finish(&rep, start)
	return manifest, rep, nil
}

// Load writes docs to dst in batches. With FullRefresh the collection is
// reset and documents are inserted; otherwise they are upserted by
// unique_id. Indexes are ensured afterwards and the stored count is
// checked.
func (m *Manager) Load(ctx context.Context, dst Sink, docs []model.Song) (sink.WriteResult, StageReport, error) {
	start := time.Now()
	rep := StageReport{Stage: StageLoad}
	var total sink.WriteResult

	write := dst.UpsertMany
	if m.settings.FullRefresh {
		if err := dst.Reset(ctx); err != nil {
			return total, rep, fmt.Errorf("reset sink: %w", err)
		}
		write = dst.InsertMany
	}

	bar := m.newBar(len(docs), "4/4", "Loading documents...")
	for _, batch := range model.Batches(docs, m.settings.BatchSize) {
		res, err := write(ctx, batch)
		total.Written += res.Written
		total.Failed += res.Failed
		total.Errors = append(total.Errors, res.Errors...)
		rep.Batches++
		bar.Add(len(batch))

		for _, e := range res.Errors {
			m.log.Warn("document_rejected", zap.Error(e))
		}
		if err != nil {
			return total, rep, fmt.Errorf("write batch %d: %w", rep.Batches, err)
		}
	}
	bar.Finish()

	rep.Stats.Found = total.Written
	rep.Stats.Errors = total.Failed

	if err := dst.EnsureIndexes(ctx); err != nil {
		return total, rep, err
	}

	count, err := dst.Count(ctx)
	if err != nil {
		return total, rep, err
	}
	m.metrics.SinkDocuments(int(count))
	if m.settings.FullRefresh && count != int64(total.Written) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Sink holds %d documents, %d were written", count, total.Written), Level: LevelWarning})
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Loaded %d documents (%d failed), collection holds %d", total.Written, total.Failed, count), Level: LevelInfo})

	m.finish(&rep, start)
	if total.Written == 0 {
		return total, rep, ErrNothingWritten
	}
	return total, rep, nil
}
