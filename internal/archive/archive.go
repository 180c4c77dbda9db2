// Package archive persists completed transcripts to a local sqlite
// database. Archiving is a best-effort side channel at job finalization:
// the job record store stays the source of truth for results, the archive
// exists for later retrieval and dedupe by content hash.
package archive

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// Archive wraps the sqlite handle. Construct with Open; the handle is
// injected into the controller so tests get their own database file.
type Archive struct {
	db *sql.DB
}

// Open creates or opens the archive database and ensures the schema.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive db: %w", err)
	}

	_, err = db.Exec(`
	PRAGMA busy_timeout  = 10000;
	PRAGMA journal_mode  = WAL;
	PRAGMA synchronous   = NORMAL;
	PRAGMA foreign_keys  = ON;

	create table if not exists transcripts (
		job_id       text primary key not null,
		blake3_hash  text not null,
		created_at   text not null,
		speakers     integer not null,
		duration_ms  integer not null
	);

	create table if not exists utterances (
		id         integer not null,
		job_id     text not null,
		speaker    text not null,
		text       text not null,
		start_ms   integer not null,
		end_ms     integer not null,
		primary key (id, job_id)
	);

	create table if not exists words (
		id           integer not null,
		utterance_id integer not null,
		job_id       text not null,
		text         text not null,
		start_ms     integer not null,
		end_ms       integer not null,
		primary key (id, utterance_id, job_id)
	);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores one completed transcript with its utterances and words.
func (a *Archive) Save(ctx context.Context, jobID, contentHash, createdAt string, duration float64, segments []transcript.Segment) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive save: begin tx: %w", err)
	}

	if err := a.save(ctx, tx, jobID, contentHash, createdAt, duration, segments); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("archive save: rollback: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive save: commit: %w", err)
	}
	return nil
}

func (a *Archive) save(ctx context.Context, tx *sql.Tx, jobID, contentHash, createdAt string, duration float64, segments []transcript.Segment) error {
	_, err := tx.ExecContext(ctx, `
		insert into transcripts (job_id, blake3_hash, created_at, speakers, duration_ms)
		values ($1, $2, $3, $4, $5)
		on conflict (job_id) do nothing`,
		jobID, contentHash, createdAt, transcript.SpeakerCount(segments), secondsToMs(duration),
	)
	if err != nil {
		return fmt.Errorf("archive save: transcript row: %w", err)
	}

	utterStmt, err := tx.PrepareContext(ctx, `
		insert into utterances (id, job_id, speaker, text, start_ms, end_ms)
		values ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("archive save: prepare utterances: %w", err)
	}
	defer utterStmt.Close()

	wordStmt, err := tx.PrepareContext(ctx, `
		insert into words (id, utterance_id, job_id, text, start_ms, end_ms)
		values ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("archive save: prepare words: %w", err)
	}
	defer wordStmt.Close()

	for i, seg := range segments {
		_, err := utterStmt.ExecContext(ctx, i, jobID, seg.Speaker, seg.Text,
			secondsToMs(seg.Start), secondsToMs(seg.End))
		if err != nil {
			return fmt.Errorf("archive save: utterance %d: %w", i, err)
		}

		for j, w := range seg.Words {
			_, err := wordStmt.ExecContext(ctx, j, i, jobID, w.Word,
				secondsToMs(w.Start), secondsToMs(w.End))
			if err != nil {
				return fmt.Errorf("archive save: word %d/%d: %w", i, j, err)
			}
		}
	}

	return nil
}

// Lookup returns the job id of an archived transcript with the same
// content hash, if any.
func (a *Archive) Lookup(ctx context.Context, contentHash string) (string, error) {
	var jobID string
	err := a.db.QueryRowContext(ctx,
		"select job_id from transcripts where blake3_hash = $1 order by created_at limit 1",
		contentHash,
	).Scan(&jobID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("archive lookup: %w", err)
	}
	return jobID, nil
}

// secondsToMs converts float seconds to integer milliseconds without
// accumulating binary float error on the way.
func secondsToMs(seconds float64) int64 {
	return decimal.NewFromFloat(seconds).Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
}
