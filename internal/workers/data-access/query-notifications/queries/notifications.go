// internal/workers/data-access/query-notifications/queries/notifications.go
package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"wallet-workers/internal/models"
	"wallet-workers/internal/notification"
)

const defaultLimit = 50

const selectColumns = `
	SELECT id, user_id, type, title, description, status, priority, display_location, metadata, created_at, updated_at
	FROM notifications`

// Rows come back ordered by stored calculatedPriority, then recency. The
// stored score is authoritative: it is never re-derived at read time.
const orderByPriority = ` ORDER BY (priority->>'calculatedPriority')::int DESC, created_at DESC`

// ActiveForUser returns the user's active notifications, as seen by the
// viewer. Rows whose expiry has passed are reported as expired and dropped
// from the feed without being mutated in storage.
func ActiveForUser(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := params["userId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}
	viewerID := viewerOrOwner(params, userID)

	start := time.Now()

	query := selectColumns + ` WHERE user_id = $1 AND status = 'active'` + orderByPriority + ` LIMIT $2`
	rows, err := db.QueryContext(ctx, query, userID, limitParam(params))
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	list, err := scanNotifications(rows)
	if err != nil {
		return nil, 0, 0, err
	}

	visible := applyReadView(list, viewerID, time.Now().UTC(), true)
	return visible, len(visible), time.Since(start).Milliseconds(), nil
}

// SuggestedActions returns active notifications surfaced on the suggested
// actions rail, highest priority first.
func SuggestedActions(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	return activeByLocation(ctx, db, params, models.DisplaySuggestedActions)
}

// ToastFeed returns active notifications surfaced as toasts.
func ToastFeed(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	return activeByLocation(ctx, db, params, models.DisplayToast)
}

func activeByLocation(ctx context.Context, db *sql.DB, params map[string]interface{}, loc models.DisplayLocation) (interface{}, int, int64, error) {
	userID, ok := params["userId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}
	viewerID := viewerOrOwner(params, userID)

	start := time.Now()

	query := selectColumns + ` WHERE user_id = $1 AND status = 'active' AND display_location IN ($2, 'both')` + orderByPriority + ` LIMIT $3`
	rows, err := db.QueryContext(ctx, query, userID, loc, limitParam(params))
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	list, err := scanNotifications(rows)
	if err != nil {
		return nil, 0, 0, err
	}

	visible := applyReadView(list, viewerID, time.Now().UTC(), true)
	return visible, len(visible), time.Since(start).Milliseconds(), nil
}

// ByParent returns every record fanned out from one two-party event, in any
// status, still filtered by what the viewer is allowed to see.
func ByParent(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	parentID, ok := params["parentId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}
	viewerID, _ := params["viewerId"].(string)

	start := time.Now()

	query := selectColumns + ` WHERE metadata->>'parentNotificationId' = $1 ORDER BY created_at`
	rows, err := db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	list, err := scanNotifications(rows)
	if err != nil {
		return nil, 0, 0, err
	}

	visible := applyReadView(list, viewerID, time.Now().UTC(), false)
	return visible, len(visible), time.Since(start).Milliseconds(), nil
}

func scanNotifications(rows *sql.Rows) ([]*models.Notification, error) {
	var list []*models.Notification
	for rows.Next() {
		var n models.Notification
		var priorityJSON, metadataJSON []byte
		err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Description, &n.Status,
			&priorityJSON, &n.DisplayLocation, &metadataJSON,
			&n.CreatedAt, &n.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(priorityJSON, &n.Priority); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
			return nil, err
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

// applyReadView reports each row at its effective status and drops rows the
// viewer may not see. The expiry override only changes the returned view;
// the stored row is untouched until the sweeper commits it.
func applyReadView(list []*models.Notification, viewerID string, now time.Time, activeOnly bool) []*models.Notification {
	result := make([]*models.Notification, 0, len(list))
	for _, n := range list {
		rel := notification.RelationshipOf(viewerID, n)
		if !notification.IsVisible(n.Metadata.Visibility, rel) {
			continue
		}
		n.Status = notification.EffectiveStatus(n.Status, n.Metadata.ExpiresAt, now)
		if activeOnly && n.Status != models.StatusActive {
			continue
		}
		result = append(result, n)
	}
	return result
}

func viewerOrOwner(params map[string]interface{}, owner string) string {
	if viewerID, ok := params["viewerId"].(string); ok && viewerID != "" {
		return viewerID
	}
	return owner
}

func limitParam(params map[string]interface{}) int {
	switch v := params["limit"].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return defaultLimit
}
