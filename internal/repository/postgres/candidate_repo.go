package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/calmerhq/calmer/internal/domain/notification"
	"github.com/calmerhq/calmer/internal/domain/user"
)

var _ notification.CandidateSource = (*CandidateRepo)(nil)

// CandidateRepo builds the reminder selection snapshot in a single read
// pass. The offset-window test runs both here and again in the application
// layer; the raw tzOffset text is returned untouched so the two checks stay
// independent.
type CandidateRepo struct {
	db *DB
}

func NewCandidateRepo(db *DB) *CandidateRepo { return &CandidateRepo{db: db} }

// tzOffsetExpr extracts the latest session's tzOffset as an integer,
// defaulting to 0 for missing or non-numeric values. Users with no session
// at all fall through the LEFT JOIN and also default to 0.
const tzOffsetExpr = `COALESCE(
        CASE WHEN s.data->>'tzOffset' ~ '^-?[0-9]+$'
             THEN (s.data->>'tzOffset')::int
        END, 0)`

const qCandidatesHead = `
WITH latest_session AS (
    SELECT DISTINCT ON (user_id)
           user_id, created_at, finished_at, data
    FROM user_session
    ORDER BY user_id, created_at DESC
)
SELECT u.user_id,
       COALESCE(s.data->>'tzOffset', '') AS tz_offset,
       u.notification_details,
       s.finished_at
FROM calmer_user u
LEFT JOIN latest_session s ON s.user_id = u.id
WHERE u.notifications_enabled_at IS NOT NULL
  AND u.identity_provider = $1
  AND (s.user_id IS NULL
       OR s.finished_at IS NOT NULL
       OR s.created_at < now() - make_interval(secs => $2))
`

func (r *CandidateRepo) SelectCandidates(ctx context.Context, q notification.CandidateQuery) ([]notification.Candidate, error) {
	if len(q.Windows) == 0 {
		return nil, nil
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	args := []any{string(q.Provider), q.QuietWindow.Seconds()}

	var sb strings.Builder
	sb.WriteString(qCandidatesHead)
	sb.WriteString("  AND (")
	for i, w := range q.Windows {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		fmt.Fprintf(&sb, "%s BETWEEN $%d AND $%d", tzOffsetExpr, len(args)+1, len(args)+2)
		args = append(args, w.StartOffsetMinutes, w.EndOffsetMinutes)
	}
	sb.WriteString(");")

	rows, err := r.db.Pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []notification.Candidate
	for rows.Next() {
		var (
			c       notification.Candidate
			details []byte
		)
		if err := rows.Scan(&c.UserID, &c.TZOffsetRaw, &details, &c.SessionFinishedAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if len(details) > 0 {
			c.Details = &user.NotificationDetails{}
			if err := unmarshalJSON(details, c.Details); err != nil {
				return nil, err
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
