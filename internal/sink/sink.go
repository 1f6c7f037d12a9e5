package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3"

	"github.com/handiism/lyrics-harvester/internal/model"
)

var collectionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidCollection is returned for collection names that are not
// plain identifiers.
var ErrInvalidCollection = errors.New("invalid collection name")

// Sink is a document collection backed by SQLite.
type Sink struct {
	db         *sql.DB
	collection string
}

// WriteResult counts the outcome of a bulk write.
type WriteResult struct {
	Written int
	Failed  int
	Errors  []error
}

// Stats summarizes a collection.
type Stats struct {
	Total        int64
	SpotifyFound int64
	Estimated    int64
	Genres       int64
	Artists      int64
}

// Open connects to the database at path, verifies the connection and
// creates the collection table if needed.
func Open(ctx context.Context, path, collection string) (*Sink, error) {
	if !collectionName.MatchString(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	// one writer avoids "database is locked" under concurrent callers
	db.SetMaxOpenConns(1)

	s := &Sink{db: db, collection: collection}
	if err := s.create(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Collection returns the table name.
func (s *Sink) Collection() string {
	return s.collection
}

func (s *Sink) create(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS `+s.collection+` (
		unique_id TEXT PRIMARY KEY,
		genre TEXT,
		artist TEXT,
		popularity INTEGER,
		spotify_found INTEGER NOT NULL DEFAULT 0,
		estimated INTEGER NOT NULL DEFAULT 0,
		doc TEXT NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.collection, err)
	}
	return nil
}

// Reset drops the collection and recreates it empty.
func (s *Sink) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+s.collection); err != nil {
		return fmt.Errorf("drop %s: %w", s.collection, err)
	}
	return s.create(ctx)
}

// InsertMany inserts docs. Documents that fail are skipped.
func (s *Sink) InsertMany(ctx context.Context, docs []model.Song) (WriteResult, error) {
	return s.write(ctx, `INSERT INTO `+s.collection+` `, docs)
}

// UpsertMany inserts docs, replacing any stored document with the same
// unique_id.
func (s *Sink) UpsertMany(ctx context.Context, docs []model.Song) (WriteResult, error) {
	return s.write(ctx, `INSERT OR REPLACE INTO `+s.collection+` `, docs)
}

func (s *Sink) write(ctx context.Context, verb string, docs []model.Song) (WriteResult, error) {
	var res WriteResult
	if len(docs) == 0 {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, verb+
		`(unique_id, genre, artist, popularity, spotify_found, estimated, doc) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return res, err
	}
	defer stmt.Close()

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := d.Validate(); err != nil {
			res.fail(err)
			continue
		}

		body, err := json.Marshal(d)
		if err != nil {
			res.fail(fmt.Errorf("%s: %w", d.UniqueID, err))
			continue
		}

		var popularity sql.NullInt64
		if d.Popularity != nil {
			popularity = sql.NullInt64{Int64: int64(*d.Popularity), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, d.UniqueID, d.Genre, d.Artist, popularity, d.SpotifyFound, d.IsEstimated, body); err != nil {
			res.fail(fmt.Errorf("%s: %w", d.UniqueID, err))
			continue
		}
		res.Written++
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{Failed: len(docs), Errors: []error{err}}, err
	}
	return res, nil
}

func (r *WriteResult) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err)
}

// EnsureIndexes creates the secondary indexes.
func (s *Sink) EnsureIndexes(ctx context.Context) error {
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_unique_id ON %[1]s (unique_id)`,
		`CREATE INDEX IF NOT EXISTS idx_%[1]s_genre ON %[1]s (genre)`,
		`CREATE INDEX IF NOT EXISTS idx_%[1]s_artist ON %[1]s (artist)`,
		`CREATE INDEX IF NOT EXISTS idx_%[1]s_popularity ON %[1]s (popularity)`,
		`CREATE INDEX IF NOT EXISTS idx_%[1]s_spotify_found ON %[1]s (spotify_found)`,
	}
	for _, q := range indexes {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(q, s.collection)); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored documents.
func (s *Sink) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+s.collection).Scan(&n)
	return n, err
}

// Get returns the document with the given unique_id.
func (s *Sink) Get(ctx context.Context, id string) (model.Song, error) {
	var (
		song model.Song
		body string
	)
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM `+s.collection+` WHERE unique_id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return song, fmt.Errorf("%s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return song, err
	}
	if err := json.Unmarshal([]byte(body), &song); err != nil {
		return song, fmt.Errorf("decode %s: %w", id, err)
	}
	return song, nil
}

// Stats returns collection totals.
func (s *Sink) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
	SELECT
		COUNT(*),
		COALESCE(SUM(spotify_found), 0),
		COALESCE(SUM(estimated), 0),
		COUNT(DISTINCT genre),
		COUNT(DISTINCT artist)
	FROM `+s.collection).Scan(&st.Total, &st.SpotifyFound, &st.Estimated, &st.Genres, &st.Artists)
	return st, err
}

// Close closes the database.
func (s *Sink) Close() error {
	return s.db.Close()
}
