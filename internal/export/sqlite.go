package export

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/code-assistant/internal"

	_ "modernc.org/sqlite"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace   TEXT NOT NULL,
	thread      TEXT NOT NULL,
	exported_at TEXT
);
CREATE TABLE IF NOT EXISTS messages (
	transcript_id INTEGER NOT NULL REFERENCES transcripts(id),
	position      INTEGER NOT NULL,
	sender        TEXT NOT NULL,
	text          TEXT NOT NULL,
	PRIMARY KEY (transcript_id, position)
);`

// SQLiteExporter exports transcripts into a SQLite archive
type SQLiteExporter struct{}

// Export writes a single-transcript archive to w
func (e *SQLiteExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	dir, err := os.MkdirTemp("", "code-assistant-export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "transcript.db")
	if err := e.ExportToFile(context.Background(), transcript, path); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to reopen archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to copy archive: %w", err)
	}
	return nil
}

// ExportToFile appends transcript to the archive at path, creating it if needed
func (e *SQLiteExporter) ExportToFile(ctx context.Context, transcript *internal.Transcript, path string) error {
	db, err := OpenArchive(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := WriteTranscript(ctx, db, transcript); err != nil {
		return err
	}
	return nil
}

// Extension returns the file extension for this format
func (e *SQLiteExporter) Extension() string {
	return "db"
}

// OpenArchive opens (or creates) a transcript archive and ensures its schema
func OpenArchive(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive ping failed: %w", err)
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return db, nil
}

// WriteTranscript stores transcript and its messages in one transaction and returns its row id
func WriteTranscript(ctx context.Context, db *sql.DB, transcript *internal.Transcript) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO transcripts (workspace, thread, exported_at) VALUES (?, ?, ?)",
		transcript.Workspace, transcript.Thread, transcript.Metadata.ExportedAt)
	if err != nil {
		return 0, fmt.Errorf("insert transcript failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read transcript id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO messages (transcript_id, position, sender, text) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare failed: %w", err)
	}
	defer stmt.Close()

	for i, msg := range transcript.Messages {
		if _, err := stmt.ExecContext(ctx, id, i, string(msg.Sender), msg.Text); err != nil {
			return 0, fmt.Errorf("insert message %d failed: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit failed: %w", err)
	}
	return id, nil
}

// ReadTranscripts loads every transcript of an archive in insertion order
func ReadTranscripts(ctx context.Context, db *sql.DB) ([]*internal.Transcript, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, workspace, thread, exported_at FROM transcripts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var transcripts []*internal.Transcript
	for rows.Next() {
		var id int64
		var exportedAt sql.NullString
		t := &internal.Transcript{}
		if err := rows.Scan(&id, &t.Workspace, &t.Thread, &exportedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		t.Metadata.ExportedAt = exportedAt.String
		ids = append(ids, id)
		transcripts = append(transcripts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	for i, id := range ids {
		msgs, err := readMessages(ctx, db, id)
		if err != nil {
			return nil, err
		}
		transcripts[i].Messages = msgs
		transcripts[i].Metadata.MessageCount = len(msgs)
	}
	return transcripts, nil
}

func readMessages(ctx context.Context, db *sql.DB, transcriptID int64) ([]internal.ChatMessage, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT sender, text FROM messages WHERE transcript_id = ? ORDER BY position", transcriptID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	msgs := []internal.ChatMessage{}
	for rows.Next() {
		var sender, text string
		if err := rows.Scan(&sender, &text); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		msgs = append(msgs, internal.ChatMessage{Sender: internal.Sender(sender), Text: text})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return msgs, nil
}
