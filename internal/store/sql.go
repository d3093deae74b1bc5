package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// sqlStore holds the queries shared by the SQLite and PostgreSQL backends.
// Queries are written with ? placeholders and rebound per driver.
type sqlStore struct {
	db     *sql.DB
	driver string
	name   string // log prefix
}

func (s *sqlStore) q(query string) string {
	if s.driver == "postgres" {
		return rebindDollar(query)
	}
	return query
}

func (s *sqlStore) CreateSession(rec models.SessionRecord) error {
	explored, insights, err := encodeLists(rec.ExploredValues, rec.Insights)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(s.q(`
		INSERT INTO sessions (id, status, current_phase, company_name, user_name, scenario_completed,
			synthesis_delivered, explored_values, insights, started_at, completed_at, duration_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.Status, rec.Phase, nilIfEmpty(rec.CompanyName), nilIfEmpty(rec.UserName), rec.ScenarioCompleted,
		rec.SynthesisDelivered, explored, insights, rec.StartedAt, nullTime(rec.CompletedAt), rec.DurationSeconds, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		slog.Error(s.name+" CreateSession failed", "error", err, "sessionID", rec.ID)
		return fmt.Errorf("failed to insert session %s: %w", rec.ID, err)
	}
	slog.Debug(s.name+" CreateSession succeeded", "sessionID", rec.ID)
	return nil
}

func (s *sqlStore) GetSession(id string) (*models.SessionRecord, error) {
	row := s.db.QueryRow(s.q(`
		SELECT id, status, current_phase, company_name, user_name, scenario_completed, synthesis_delivered,
			explored_values, insights, started_at, completed_at, duration_seconds, created_at, updated_at
		FROM sessions WHERE id = ?`), id)

	var rec models.SessionRecord
	var company, user sql.NullString
	var explored, insights string
	var completedAt sql.NullTime
	err := row.Scan(&rec.ID, &rec.Status, &rec.Phase, &company, &user, &rec.ScenarioCompleted, &rec.SynthesisDelivered,
		&explored, &insights, &rec.StartedAt, &completedAt, &rec.DurationSeconds, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error(s.name+" GetSession scan failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	rec.CompanyName = company.String
	rec.UserName = user.String
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	if rec.ExploredValues, err = decodeList(explored); err != nil {
		return nil, err
	}
	if rec.Insights, err = decodeList(insights); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *sqlStore) UpdateSession(rec models.SessionRecord) error {
	explored, insights, err := encodeLists(rec.ExploredValues, rec.Insights)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(s.q(`
		UPDATE sessions SET status = ?, current_phase = ?, company_name = ?, user_name = ?, scenario_completed = ?,
			synthesis_delivered = ?, explored_values = ?, insights = ?, completed_at = ?, duration_seconds = ?, updated_at = ?
		WHERE id = ?`),
		rec.Status, rec.Phase, nilIfEmpty(rec.CompanyName), nilIfEmpty(rec.UserName), rec.ScenarioCompleted,
		rec.SynthesisDelivered, explored, insights, nullTime(rec.CompletedAt), rec.DurationSeconds, rec.UpdatedAt, rec.ID)
	if err != nil {
		slog.Error(s.name+" UpdateSession failed", "error", err, "sessionID", rec.ID)
		return fmt.Errorf("failed to update session %s: %w", rec.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrSessionNotFound
	}
	slog.Debug(s.name+" UpdateSession succeeded", "sessionID", rec.ID, "phase", rec.Phase, "status", rec.Status)
	return nil
}

func (s *sqlStore) AddMessage(m models.MessageRecord) error {
	_, err := s.db.Exec(s.q(`
		INSERT INTO conversation_messages (id, session_id, role, content, response_data, sequence_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.SessionID, m.Role, m.Content, nilIfEmpty(m.ResponseData), m.Sequence, m.CreatedAt)
	if err != nil {
		slog.Error(s.name+" AddMessage failed", "error", err, "sessionID", m.SessionID, "sequence", m.Sequence)
		return fmt.Errorf("failed to insert message %d for session %s: %w", m.Sequence, m.SessionID, err)
	}
	return nil
}

func (s *sqlStore) ListMessages(sessionID string) ([]models.MessageRecord, error) {
	rows, err := s.db.Query(s.q(`
		SELECT id, session_id, role, content, response_data, sequence_number, created_at
		FROM conversation_messages WHERE session_id = ? ORDER BY sequence_number`), sessionID)
	if err != nil {
		slog.Error(s.name+" ListMessages query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	out := []models.MessageRecord{}
	for rows.Next() {
		var m models.MessageRecord
		var data sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &data, &m.Sequence, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		m.ResponseData = data.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return out, nil
}

func (s *sqlStore) AddRapidFireResponse(r models.RapidFireRecord) error {
	var elapsed sql.NullInt64
	if r.ResponseTimeMs != nil {
		elapsed = sql.NullInt64{Int64: *r.ResponseTimeMs, Valid: true}
	}
	_, err := s.db.Exec(s.q(`
		INSERT INTO rapid_fire_responses (id, session_id, value_word, response, response_time_ms, sequence_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.SessionID, r.Word, r.Response, elapsed, r.Sequence, r.CreatedAt)
	if err != nil {
		slog.Error(s.name+" AddRapidFireResponse failed", "error", err, "sessionID", r.SessionID, "word", r.Word)
		return fmt.Errorf("failed to insert rapid fire response: %w", err)
	}
	return nil
}

func (s *sqlStore) ListRapidFireResponses(sessionID string) ([]models.RapidFireRecord, error) {
	rows, err := s.db.Query(s.q(`
		SELECT id, session_id, value_word, response, response_time_ms, sequence_number, created_at
		FROM rapid_fire_responses WHERE session_id = ? ORDER BY sequence_number`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rapid fire responses: %w", err)
	}
	defer rows.Close()

	out := []models.RapidFireRecord{}
	for rows.Next() {
		var r models.RapidFireRecord
		var elapsed sql.NullInt64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Word, &r.Response, &elapsed, &r.Sequence, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rapid fire row: %w", err)
		}
		if elapsed.Valid {
			r.ResponseTimeMs = &elapsed.Int64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqlStore) UpsertValue(v models.ValueRecord) error {
	quotes, err := json.Marshal(nonNil(v.Quotes))
	if err != nil {
		return fmt.Errorf("failed to encode quotes: %w", err)
	}
	_, err = s.db.Exec(s.q(`
		INSERT INTO identified_values (id, session_id, value_name, personalized_definition, in_practice, anti_pattern,
			user_quotes, confidence_score, is_final, display_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, value_name) DO UPDATE SET
			personalized_definition = excluded.personalized_definition,
			in_practice = excluded.in_practice,
			anti_pattern = excluded.anti_pattern,
			user_quotes = excluded.user_quotes,
			confidence_score = excluded.confidence_score,
			is_final = excluded.is_final,
			updated_at = excluded.updated_at`),
		v.ID, v.SessionID, v.Name, nilIfEmpty(v.Definition), nilIfEmpty(v.InPractice), nilIfEmpty(v.AntiPattern),
		string(quotes), v.ConfidenceScore, v.IsFinal, v.DisplayOrder, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		slog.Error(s.name+" UpsertValue failed", "error", err, "sessionID", v.SessionID, "value", v.Name)
		return fmt.Errorf("failed to upsert value %s: %w", v.Name, err)
	}
	return nil
}

func (s *sqlStore) ListValues(sessionID string) ([]models.ValueRecord, error) {
	rows, err := s.db.Query(s.q(`
		SELECT id, session_id, value_name, personalized_definition, in_practice, anti_pattern, user_quotes,
			confidence_score, is_final, display_order, created_at, updated_at
		FROM identified_values WHERE session_id = ? ORDER BY display_order, created_at`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query values: %w", err)
	}
	defer rows.Close()

	out := []models.ValueRecord{}
	for rows.Next() {
		var v models.ValueRecord
		var def, practice, anti sql.NullString
		var quotes string
		if err := rows.Scan(&v.ID, &v.SessionID, &v.Name, &def, &practice, &anti, &quotes,
			&v.ConfidenceScore, &v.IsFinal, &v.DisplayOrder, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan value row: %w", err)
		}
		v.Definition, v.InPractice, v.AntiPattern = def.String, practice.String, anti.String
		if v.Quotes, err = decodeList(quotes); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *sqlStore) MarkValuesFinal(sessionID string) error {
	_, err := s.db.Exec(s.q(`UPDATE identified_values SET is_final = ?, updated_at = ? WHERE session_id = ?`),
		true, time.Now().UTC(), sessionID)
	if err != nil {
		slog.Error(s.name+" MarkValuesFinal failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to finalize values: %w", err)
	}
	return nil
}

// SaveDeliverable keeps the original id, slug and created_at on update.
func (s *sqlStore) SaveDeliverable(d models.DeliverableRecord) error {
	content, err := json.Marshal(d.Content)
	if err != nil {
		return fmt.Errorf("failed to encode deliverable: %w", err)
	}
	_, err = s.db.Exec(s.q(`
		INSERT INTO deliverables (id, session_id, share_slug, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at`),
		d.ID, d.SessionID, d.ShareSlug, string(content), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		slog.Error(s.name+" SaveDeliverable failed", "error", err, "sessionID", d.SessionID)
		return fmt.Errorf("failed to save deliverable: %w", err)
	}
	slog.Debug(s.name+" SaveDeliverable succeeded", "sessionID", d.SessionID)
	return nil
}

func (s *sqlStore) GetDeliverableBySession(sessionID string) (*models.DeliverableRecord, error) {
	return s.getDeliverable(`session_id = ?`, sessionID)
}

func (s *sqlStore) GetDeliverableBySlug(slug string) (*models.DeliverableRecord, error) {
	return s.getDeliverable(`share_slug = ?`, slug)
}

func (s *sqlStore) getDeliverable(where, arg string) (*models.DeliverableRecord, error) {
	row := s.db.QueryRow(s.q(`SELECT id, session_id, share_slug, content, created_at, updated_at FROM deliverables WHERE `+where), arg)
	var d models.DeliverableRecord
	var content string
	err := row.Scan(&d.ID, &d.SessionID, &d.ShareSlug, &content, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deliverable: %w", err)
	}
	if err := json.Unmarshal([]byte(content), &d.Content); err != nil {
		return nil, fmt.Errorf("failed to decode deliverable content: %w", err)
	}
	return &d, nil
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	slog.Debug(s.name + " closing database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error(s.name+" failed to close database", "error", err)
	}
	return err
}
