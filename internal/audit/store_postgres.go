package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"miecredit/pkg/platform/sentinel"
)

// PostgresStore persists audit events in PostgreSQL over database/sql.
// Id assignment is serialized by the audit_events sequence, so concurrent
// appends always receive distinct, strictly increasing ids without any
// application-level counter.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const storedEventColumns = "id, ts, request_id, event_type, model_version, subject_id, payload_json"

func (s *PostgresStore) Append(ctx context.Context, event Event) (StoredEvent, error) {
	payloadJSON, err := marshalPayload(event.Payload)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_events (ts, request_id, event_type, model_version, subject_id, payload_json)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err = s.db.QueryRowContext(ctx, query,
		event.TS,
		event.RequestID,
		event.EventType,
		nullString(event.ModelVersion),
		nullString(event.SubjectID),
		payloadJSON,
	).Scan(&id)
	if err != nil {
		return StoredEvent{}, fmt.Errorf("insert audit event: %w", err)
	}

	return StoredEvent{ID: id, Event: event}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (StoredEvent, error) {
	query := "SELECT " + storedEventColumns + " FROM audit_events WHERE id = $1"

	event, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredEvent{}, sentinel.ErrNotFound
		}
		return StoredEvent{}, fmt.Errorf("get audit event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]StoredEvent, error) {
	where, params := buildWhere(filter)

	query := "SELECT " + storedEventColumns + " FROM audit_events " + where +
		" ORDER BY ts DESC, id DESC" +
		" LIMIT $" + strconv.Itoa(len(params)+1) +
		" OFFSET $" + strconv.Itoa(len(params)+2)
	params = append(params, filter.ClampedLimit(), filter.ClampedOffset())

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) Count(ctx context.Context, filter Filter) (int64, error) {
	where, params := buildWhere(filter)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM audit_events "+where, params...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return count, nil
}

// buildWhere turns the filter conjunction into a WHERE clause with
// positional parameters. Timestamp bounds are inclusive on both ends.
func buildWhere(filter Filter) (string, []any) {
	var (
		clauses []string
		params  []any
	)
	add := func(clause string, value any) {
		params = append(params, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(params)))
	}

	if filter.SinceTS != nil {
		add("ts >= $%d", *filter.SinceTS)
	}
	if filter.UntilTS != nil {
		add("ts <= $%d", *filter.UntilTS)
	}
	if filter.RequestID != "" {
		add("request_id = $%d", filter.RequestID)
	}
	if filter.EventType != "" {
		add("event_type = $%d", filter.EventType)
	}
	if filter.SubjectID != "" {
		add("subject_id = $%d", filter.SubjectID)
	}
	if filter.ModelVersion != "" {
		add("model_version = $%d", filter.ModelVersion)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), params
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (StoredEvent, error) {
	var (
		event        StoredEvent
		modelVersion sql.NullString
		subjectID    sql.NullString
		payloadRaw   string
	)
	err := row.Scan(
		&event.ID,
		&event.TS,
		&event.RequestID,
		&event.EventType,
		&modelVersion,
		&subjectID,
		&payloadRaw,
	)
	if err != nil {
		return StoredEvent{}, err
	}

	if modelVersion.Valid {
		event.ModelVersion = &modelVersion.String
	}
	if subjectID.Valid {
		event.SubjectID = &subjectID.String
	}
	event.Payload = parseStoredPayload(payloadRaw)
	return event, nil
}

// parseStoredPayload decodes a persisted payload. A corrupted row must not
// fail the surrounding batch, so parse failures map to a sentinel payload
// carrying the raw text, and non-mapping JSON is wrapped under "_payload".
func parseStoredPayload(raw string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		if payload == nil {
			payload = map[string]any{}
		}
		return payload
	}

	var other any
	if err := json.Unmarshal([]byte(raw), &other); err == nil {
		return map[string]any{"_payload": other}
	}
	return map[string]any{
		"_payload_parse_error": true,
		"_payload_raw":         raw,
	}
}

func marshalPayload(payload map[string]any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
