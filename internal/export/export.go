// Package export writes documents as chunked JSON files with a manifest
// and reads them back for loading.
//
// A run with 12,000 documents and 5,000 per file produces:
//
//	songs_batch_001_of_003.json
//	songs_batch_002_of_003.json
//	songs_batch_003_of_003.json
//	processing_summary.json
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ioutils "github.com/handiism/lyrics-harvester/internal/io"
)

// ManifestName is the summary file written next to the chunks.
const ManifestName = "processing_summary.json"

// ErrManifestMismatch is returned by ReadChunks when the files on disk do
// not match the manifest.
var ErrManifestMismatch = errors.New("export files do not match manifest")

// Manifest describes one export.
type Manifest struct {
	ProcessingDate   time.Time `json:"processing_date"`
	TotalDocuments   int       `json:"total_documents"`
	TotalFiles       int       `json:"total_files"`
	DocumentsPerFile int       `json:"documents_per_file"`
	Files            []string  `json:"files"`
	DatasetVersion   string    `json:"dataset_version"`
	Source           string    `json:"source"`
	RunID            string    `json:"run_id,omitempty"`
}

// Meta carries the manifest fields chosen by the caller.
type Meta struct {
	DatasetVersion string
	Source         string
	RunID          string
	Now            time.Time
}

// WriteChunks writes docs to dir in files of at most perFile documents,
// then writes the manifest. Files are named
// <prefix>_batch_<i>_of_<n>.json with three-digit counters.
func WriteChunks[T any](dir, prefix string, docs []T, perFile int, meta Meta) (Manifest, error) {
	if perFile <= 0 {
		return Manifest{}, fmt.Errorf("documents per file must be positive, got %d", perFile)
	}
	if err := ioutils.EnsureDir(dir); err != nil {
		return Manifest{}, err
	}

	total := (len(docs) + perFile - 1) / perFile
	m := Manifest{
		ProcessingDate:   meta.Now,
		TotalDocuments:   len(docs),
		DocumentsPerFile: perFile,
		Files:            make([]string, 0, total),
		DatasetVersion:   meta.DatasetVersion,
		Source:           meta.Source,
		RunID:            meta.RunID,
	}
	if m.ProcessingDate.IsZero() {
		m.ProcessingDate = time.Now()
	}

	for i := 0; i < total; i++ {
		start := i * perFile
		end := min(start+perFile, len(docs))

		name := fmt.Sprintf("%s_batch_%03d_of_%03d.json", prefix, i+1, total)
		if err := WriteArray(filepath.Join(dir, name), docs[start:end]); err != nil {
			return m, fmt.Errorf("write %s: %w", name, err)
		}
		m.Files = append(m.Files, name)
	}
	m.TotalFiles = len(m.Files)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return m, err
	}
	if err := ioutils.WriteFileAtomic(filepath.Join(dir, ManifestName), data); err != nil {
		return m, err
	}
	return m, nil
}

// WriteArray writes docs to path as one compact JSON array. Non-ASCII text
// and HTML characters are written unescaped.
func WriteArray[T any](path string, docs []T) error {
	if docs == nil {
		docs = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return ioutils.WriteFileAtomic(path, buf.Bytes())
}

// ReadManifest reads the manifest in dir.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// ReadChunks reads every file listed in dir's manifest and verifies the
// file and document counts.
func ReadChunks[T any](dir string) ([]T, Manifest, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, m, err
	}
	if len(m.Files) != m.TotalFiles {
		return nil, m, fmt.Errorf("%w: %d files listed, %d declared", ErrManifestMismatch, len(m.Files), m.TotalFiles)
	}

	docs := make([]T, 0, m.TotalDocuments)
	for _, name := range m.Files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, m, err
		}
		var chunk []T
		if err := json.Unmarshal(data, &chunk); err != nil {
			return nil, m, fmt.Errorf("decode %s: %w", name, err)
		}
		docs = append(docs, chunk...)
	}

	if len(docs) != m.TotalDocuments {
		return nil, m, fmt.Errorf("%w: read %d documents, manifest declares %d", ErrManifestMismatch, len(docs), m.TotalDocuments)
	}
	return docs, m, nil
}
