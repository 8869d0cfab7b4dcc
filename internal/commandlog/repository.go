// Package commandlog records every capture packet handed to a stream's
// observers and serves the history back with filtering and pagination.
package commandlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-capture/internal/capture"
)

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// timeLayout is fixed-width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrInvalidFilter is returned when a filter names an unknown kind or
// negative paging.
var ErrInvalidFilter = errors.New("commandlog: invalid filter")

// Entry is one recorded packet.
type Entry struct {
	ID           string    `json:"id"`
	Stream       string    `json:"stream"`
	DeviceID     string    `json:"device_id,omitempty"`
	Channel      int       `json:"channel"`
	PacketNumber uint32    `json:"packet_number"`
	Kind         string    `json:"kind"`
	Size         int       `json:"size"`
	Data         []byte    `json:"data"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewEntry captures a dispatched packet. The data is copied.
func NewEntry(stream capture.StreamInfo, packet capture.Packet) *Entry {
	return &Entry{
		Stream:       stream.Name,
		DeviceID:     stream.DeviceID,
		Channel:      stream.Channel,
		PacketNumber: packet.Number,
		Kind:         packet.Kind.String(),
		Size:         packet.Size,
		Data:         append([]byte(nil), packet.Data...),
	}
}

// Filter controls which entries to return.
type Filter struct {
	Stream string // optional: exact stream name
	Kind   string // optional: payload kind wire name (metadata, isp_3a, ...)
	Limit  int    // default 50, max 200
	Offset int
}

// ListResult is a page of entries, newest first.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the command log operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores entries in the capture_packets table.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository over an open database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Create inserts an entry. ID and CreatedAt are generated when empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "pkt-" + uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	data := entry.Data
	if data == nil {
		data = []byte{}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO capture_packets (id, stream, device_id, channel, packet_number, kind, size, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Stream, entry.DeviceID, entry.Channel,
		int64(entry.PacketNumber), entry.Kind, entry.Size, data,
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting capture packet: %w", err)
	}

	return nil
}

// normalise validates paging and the kind, then clamps the limit.
func (f Filter) normalise() (Filter, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return f, fmt.Errorf("%w: negative limit or offset", ErrInvalidFilter)
	}
	if f.Limit == 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Kind != "" {
		kind, err := capture.ParseKind(f.Kind)
		if err != nil {
			return f, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
		f.Kind = kind.String()
	}
	return f, nil
}

// where builds the parameterised WHERE clause for a filter.
func (f Filter) where() (string, []any) {
	var conditions []string
	var args []any

	if f.Stream != "" {
		conditions = append(conditions, "stream = ?")
		args = append(args, f.Stream)
	}
	if f.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, f.Kind)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns entries matching the filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	filter, err := filter.normalise()
	if err != nil {
		return nil, err
	}
	where, args := filter.where()

	countQuery := "SELECT COUNT(*) FROM capture_packets " + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting capture packets: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, stream, device_id, channel, packet_number, kind, size, data, created_at FROM capture_packets %s ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying capture packets: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var packetNumber int64
		var createdAt string

		if err := rows.Scan(&e.ID, &e.Stream, &e.DeviceID, &e.Channel,
			&packetNumber, &e.Kind, &e.Size, &e.Data, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning capture packet: %w", err)
		}
		e.PacketNumber = uint32(packetNumber) //nolint:gosec // stored from a uint32

		e.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing capture packet timestamp %q: %w", createdAt, err)
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating capture packets: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
