package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"quotis/internal/core/apperror"
	uctx "quotis/internal/core/context"
	"quotis/internal/core/id"
	"quotis/internal/domain/documents/calculation"
)

const historyTable = "doc_calculation_history"

var _ calculation.HistoryStore = (*HistoryStore)(nil)

// HistoryStore records immutable revision snapshots of calculations.
// Snapshot bodies are JSON, zstd-compressed above a size threshold.
type HistoryStore struct {
	txm     *TxManager
	encoder *zstd.Encoder
	decoder *zstd.Decoder

	// compressThreshold in bytes; smaller snapshots are stored raw
	compressThreshold int
}

// NewHistoryStore creates a history store with shared codec instances.
func NewHistoryStore(txm *TxManager) (*HistoryStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &HistoryStore{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
	}, nil
}

// Record stores a snapshot of the document under the given action.
func (s *HistoryStore) Record(ctx context.Context, calc *calculation.Calculation, action string) error {
	snapshot, err := json.Marshal(calc)
	if err != nil {
		return fmt.Errorf("marshal calculation snapshot: %w", err)
	}

	var raw []byte
	var compressed []byte
	algo := "none"
	if len(snapshot) > s.compressThreshold {
		compressed = s.encoder.EncodeAll(snapshot, nil)
		algo = "zstd"
	} else {
		raw = snapshot
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert(historyTable).
		Columns(
			"id", "calculation_id", "action", "version", "overall_total",
			"snapshot", "snapshot_compressed", "compression_algo",
			"recorded_by", "recorded_at",
		).
		Values(
			id.New(), calc.ID, action, calc.Version, calc.OverallTotal,
			raw, compressed, algo,
			uctx.GetUsername(ctx), time.Now().UTC(),
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// Revision loads a single snapshot of a calculation.
func (s *HistoryStore) Revision(ctx context.Context, calcID, revisionID id.ID) (*calculation.Revision, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(
			"id", "calculation_id", "action", "version", "overall_total",
			"snapshot", "snapshot_compressed", "compression_algo",
			"recorded_by", "recorded_at",
		).
		From(historyTable).
		Where(squirrel.Eq{"id": revisionID, "calculation_id": calcID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build revision query: %w", err)
	}

	var row historyRow
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("revision", revisionID.String())
		}
		return nil, fmt.Errorf("load revision: %w", err)
	}

	rev := row.Revision
	if row.CompressionAlgo == "zstd" {
		body, err := s.decoder.DecodeAll(row.SnapshotCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot %s: %w", rev.ID, err)
		}
		rev.Snapshot = body
	} else {
		rev.Snapshot = row.RawSnapshot
	}
	return &rev, nil
}

type historyRow struct {
	calculation.Revision
	RawSnapshot        []byte `db:"snapshot"`
	SnapshotCompressed []byte `db:"snapshot_compressed"`
	CompressionAlgo    string `db:"compression_algo"`
}

// Revisions lists snapshots for a calculation, newest first, decompressing
// the bodies on the way out.
func (s *HistoryStore) Revisions(ctx context.Context, calcID id.ID, limit int) ([]calculation.Revision, error) {
	if limit <= 0 {
		limit = 20
	}

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(
			"id", "calculation_id", "action", "version", "overall_total",
			"snapshot", "snapshot_compressed", "compression_algo",
			"recorded_by", "recorded_at",
		).
		From(historyTable).
		Where(squirrel.Eq{"calculation_id": calcID}).
		OrderBy("recorded_at DESC").
		Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var rows []historyRow
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	revisions := make([]calculation.Revision, 0, len(rows))
	for _, row := range rows {
		rev := row.Revision
		switch row.CompressionAlgo {
		case "zstd":
			body, err := s.decoder.DecodeAll(row.SnapshotCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress snapshot %s: %w", rev.ID, err)
			}
			rev.Snapshot = body
		default:
			rev.Snapshot = row.RawSnapshot
		}
		revisions = append(revisions, rev)
	}
	return revisions, nil
}
