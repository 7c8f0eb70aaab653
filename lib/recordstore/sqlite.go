// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
	"github.com/bureau-foundation/gather/lib/sqlitepool"
)

// The row id of actions is the append order. Headers are stored
// verbatim; the other action columns exist only to be indexed.
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS actions (
		position   INTEGER PRIMARY KEY AUTOINCREMENT,
		hash       BLOB NOT NULL UNIQUE,
		kind       TEXT NOT NULL,
		author     BLOB NOT NULL,
		author_seq INTEGER NOT NULL,
		original   BLOB,
		base       BLOB,
		link_type  TEXT,
		header     BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_actions_reference ON actions(original, kind);
	CREATE INDEX IF NOT EXISTS idx_actions_links ON actions(base, link_type, kind);
	CREATE INDEX IF NOT EXISTS idx_actions_chain ON actions(author, author_seq);

	CREATE TABLE IF NOT EXISTS entries (
		hash        BLOB PRIMARY KEY,
		type        TEXT NOT NULL,
		compression INTEGER NOT NULL,
		size        INTEGER NOT NULL,
		payload     BLOB NOT NULL
	);
`

// SQLiteConfig holds the parameters for a durable backend.
type SQLiteConfig struct {
	// Path is the database file. Required.
	Path string

	// PoolSize is passed to sqlitepool.
	PoolSize int

	// Compression is applied to entry payloads of at least
	// CompressionThreshold bytes.
	Compression          Compression
	CompressionThreshold int

	// Logger receives pool and backend messages. Required.
	Logger *slog.Logger
}

// SQLiteBackend persists actions and entries in a SQLite database.
type SQLiteBackend struct {
	pool        *sqlitepool.Pool
	logger      *slog.Logger
	compression Compression
	threshold   int
}

var _ Backend = (*SQLiteBackend)(nil)

// OpenSQLite opens (creating if needed) a SQLite backend.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteBackend, error) {
	if cfg.Logger == nil {
		return nil, errors.New("recordstore: sqlite Logger is required")
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   cfg.Logger,
		Schema:   sqliteSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("recordstore: %w", err)
	}
	return &SQLiteBackend{
		pool:        pool,
		logger:      cfg.Logger,
		compression: cfg.Compression,
		threshold:   cfg.CompressionThreshold,
	}, nil
}

// Close implements Backend.
func (s *SQLiteBackend) Close() error {
	return s.pool.Close()
}

// Put implements Backend.
func (s *SQLiteBackend) Put(ctx context.Context, action Action, entry *Entry) (err error) {
	header, err := action.header()
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}

	var (
		stored      []byte
		compression Compression
	)
	if entry != nil {
		stored, compression, err = compressPayload(entry.Content, s.compression, s.threshold)
		if err != nil {
			return fmt.Errorf("compressing %s entry: %w", entry.Type, err)
		}
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("recordstore: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `
		INSERT OR IGNORE INTO actions (hash, kind, author, author_seq, original, base, link_type, header)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			action.Hash[:],
			string(action.Kind),
			action.Author[:],
			int64(action.Seq),
			nullableHash(action.Original),
			nullableHash(action.Base),
			string(action.LinkType),
			header,
		}})
	if err != nil {
		return fmt.Errorf("recordstore: inserting action: %w", err)
	}

	if entry != nil {
		err = sqlitex.Execute(conn, `
			INSERT OR IGNORE INTO entries (hash, type, compression, size, payload)
			VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				action.EntryHash[:],
				entry.Type,
				int64(compression),
				int64(len(entry.Content)),
				stored,
			}})
		if err != nil {
			return fmt.Errorf("recordstore: inserting entry: %w", err)
		}
	}
	return nil
}

// Action implements Backend.
func (s *SQLiteBackend) Action(ctx context.Context, id address.Hash) (Action, bool, error) {
	actions, err := s.queryActions(ctx, `SELECT hash, header FROM actions WHERE hash = ?`, id[:])
	if err != nil || len(actions) == 0 {
		return Action{}, false, err
	}
	return actions[0], true, nil
}

// Entry implements Backend.
func (s *SQLiteBackend) Entry(ctx context.Context, id address.Hash) (Entry, bool, error) {
	var (
		entry Entry
		found bool
	)
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT type, compression, size, payload FROM entries WHERE hash = ?`,
			&sqlitex.ExecOptions{
				Args: []any{id[:]},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					content, err := decompressPayload(
						columnBlob(stmt, 3),
						Compression(stmt.ColumnInt(1)),
						stmt.ColumnInt(2),
					)
					if err != nil {
						return fmt.Errorf("entry %s: %w", id.Short(), err)
					}
					entry = Entry{Type: stmt.ColumnText(0), Content: content}
					found = true
					return nil
				},
			})
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("recordstore: reading entry: %w", err)
	}
	return entry, found, nil
}

// Referencing implements Backend.
func (s *SQLiteBackend) Referencing(ctx context.Context, id address.Hash, kind Kind) ([]Action, error) {
	return s.queryActions(ctx,
		`SELECT hash, header FROM actions WHERE original = ? AND kind = ? ORDER BY position`,
		id[:], string(kind))
}

// LinksFrom implements Backend.
func (s *SQLiteBackend) LinksFrom(ctx context.Context, base address.Hash, types []LinkType) ([]LinkHistory, error) {
	typeFilter, typeArgs := linkTypeFilter(types)

	args := append([]any{base[:], string(KindCreateLink)}, typeArgs...)
	creates, err := s.queryActions(ctx,
		`SELECT hash, header FROM actions
		 WHERE base = ? AND kind = ?`+typeFilter+`
		 ORDER BY position`,
		args...)
	if err != nil || len(creates) == 0 {
		return nil, err
	}

	args = append([]any{string(KindDeleteLink), base[:], string(KindCreateLink)}, typeArgs...)
	deletes, err := s.queryActions(ctx,
		`SELECT hash, header FROM actions
		 WHERE kind = ? AND original IN (
			SELECT hash FROM actions WHERE base = ? AND kind = ?`+typeFilter+`
		 )
		 ORDER BY position`,
		args...)
	if err != nil {
		return nil, err
	}

	deletesByEdge := make(map[address.Hash][]Action, len(deletes))
	for _, deletion := range deletes {
		deletesByEdge[deletion.Original] = append(deletesByEdge[deletion.Original], deletion)
	}
	histories := make([]LinkHistory, len(creates))
	for i, create := range creates {
		histories[i] = LinkHistory{Create: create, Deletes: deletesByEdge[create.Hash]}
	}
	return histories, nil
}

// ChainHead implements Backend.
func (s *SQLiteBackend) ChainHead(ctx context.Context, author address.Hash) (Action, bool, error) {
	actions, err := s.queryActions(ctx,
		`SELECT hash, header FROM actions WHERE author = ? ORDER BY author_seq DESC LIMIT 1`,
		author[:])
	if err != nil || len(actions) == 0 {
		return Action{}, false, err
	}
	return actions[0], true, nil
}

// queryActions runs a query whose first two columns are the action id
// and its header.
func (s *SQLiteBackend) queryActions(ctx context.Context, query string, args ...any) ([]Action, error) {
	var actions []Action
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var action Action
				if err := codec.Unmarshal(columnBlob(stmt, 1), &action); err != nil {
					return fmt.Errorf("decoding action header: %w", err)
				}
				hash, err := address.FromBytes(columnBlob(stmt, 0))
				if err != nil {
					return err
				}
				action.Hash = hash
				actions = append(actions, action)
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("recordstore: querying actions: %w", err)
	}
	return actions, nil
}

func linkTypeFilter(types []LinkType) (string, []any) {
	if len(types) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(types))
	args := make([]any, len(types))
	for i, linkType := range types {
		placeholders[i] = "?"
		args[i] = string(linkType)
	}
	return " AND link_type IN (" + strings.Join(placeholders, ", ") + ")", args
}

func nullableHash(h address.Hash) any {
	if h.IsZero() {
		return nil
	}
	return h[:]
}

func columnBlob(stmt *sqlite.Stmt, column int) []byte {
	buffer := make([]byte, stmt.ColumnLen(column))
	stmt.ColumnBytes(column, buffer)
	return buffer
}
