package repository // repository defines data access for activities and their route points

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/activity-tracker/internal/model"
)

// pointChunk bounds the rows per multi-row INSERT so a long GPS trace stays
// well under MySQL's placeholder limit.
const pointChunk = 1000

const activityColumns = "id,user_id,date,distance,pace,bpm,time,route,activity_type,created_at,updated_at"

// ActivityFilter narrows ListByOwner.  Zero values disable a filter.  A
// Limit of zero returns every matching row.
type ActivityFilter struct {
	Year          int
	Month         int
	Type          model.ActivityType
	Skip          int
	Limit         int
	WithoutPoints bool
}

// ActivityPatch carries the fields of a partial update.  A nil pointer leaves
// the column untouched; the Clear flags set a nullable column to NULL and
// win over a value.  RoutePoints, when non-nil, replaces the stored route
// wholesale; an empty slice clears it.
type ActivityPatch struct {
	Date         *time.Time
	Distance     *float64
	Pace         *string
	BPM          *int
	Time         *string
	Route        *string
	ActivityType *model.ActivityType
	RoutePoints  *[]model.RoutePoint

	ClearPace  bool
	ClearBPM   bool
	ClearTime  bool
	ClearRoute bool
}

// Empty reports whether the patch would change nothing.
func (p ActivityPatch) Empty() bool {
	return p.Date == nil && p.Distance == nil && p.Pace == nil && p.BPM == nil &&
		p.Time == nil && p.Route == nil && p.ActivityType == nil && p.RoutePoints == nil &&
		!p.ClearPace && !p.ClearBPM && !p.ClearTime && !p.ClearRoute
}

// ActivityRepo persists activities.  Every method is scoped by owner, and a
// row owned by someone else behaves exactly like a missing one.
type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a and its route points in one transaction and refreshes a
// from the stored row.  Points are numbered by their position in the slice.
func (r *ActivityRepo) Create(ctx context.Context, a *model.Activity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO activities (user_id, date, distance, pace, bpm, time, route, activity_type)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, a.UserID, a.Date.UTC(), a.Distance, a.Pace, a.BPM, a.Time, a.Route, string(a.ActivityType))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := insertPointsTx(ctx, tx, uint64(id), a.RoutePoints); err != nil {
		return err
	}
	stored, err := getOwned(ctx, tx, uint64(id), a.UserID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*a = *stored
	return nil
}

// GetByIDAndOwner returns one activity with its ordered route points.
func (r *ActivityRepo) GetByIDAndOwner(ctx context.Context, id, userID uint64) (*model.Activity, error) {
	return getOwned(ctx, r.db, id, userID)
}

// ListByOwner returns the owner's activities newest first, ties broken by
// the higher id.
func (r *ActivityRepo) ListByOwner(ctx context.Context, userID uint64, f ActivityFilter) ([]model.Activity, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + activityColumns + " FROM activities WHERE user_id = ?")
	args := []any{userID}
	if f.Year > 0 {
		sb.WriteString(" AND YEAR(date) = ?")
		args = append(args, f.Year)
	}
	if f.Month > 0 {
		sb.WriteString(" AND MONTH(date) = ?")
		args = append(args, f.Month)
	}
	if f.Type != "" {
		sb.WriteString(" AND activity_type = ?")
		args = append(args, string(f.Type))
	}
	sb.WriteString(" ORDER BY date DESC, id DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, f.Limit, f.Skip)
	} else if f.Skip > 0 {
		// MySQL has no OFFSET without LIMIT.
		sb.WriteString(" LIMIT 18446744073709551615 OFFSET ?")
		args = append(args, f.Skip)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if f.WithoutPoints || len(out) == 0 {
		return out, nil
	}
	if err := attachPoints(ctx, r.db, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateByIDAndOwner applies p under a row lock and returns the refreshed
// activity.  An empty patch returns the current state unchanged.
func (r *ActivityRepo) UpdateByIDAndOwner(ctx context.Context, id, userID uint64, p ActivityPatch) (*model.Activity, error) {
	if p.Empty() {
		return r.GetByIDAndOwner(ctx, id, userID)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockOwned(ctx, tx, id, userID); err != nil {
		return nil, err
	}

	// updated_at is set explicitly: replacing only the route leaves the
	// activity row unchanged, which would skip ON UPDATE.
	sets := []string{"updated_at = CURRENT_TIMESTAMP(6)"}
	args := []any{}
	if p.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, p.Date.UTC())
	}
	if p.Distance != nil {
		sets = append(sets, "distance = ?")
		args = append(args, *p.Distance)
	}
	sets, args = setNullable(sets, args, "pace", p.Pace, p.ClearPace)
	sets, args = setNullable(sets, args, "bpm", p.BPM, p.ClearBPM)
	sets, args = setNullable(sets, args, "time", p.Time, p.ClearTime)
	sets, args = setNullable(sets, args, "route", p.Route, p.ClearRoute)
	if p.ActivityType != nil {
		sets = append(sets, "activity_type = ?")
		args = append(args, string(*p.ActivityType))
	}
	args = append(args, id, userID)
	q := "UPDATE activities SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}

	if p.RoutePoints != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM route_points WHERE activity_id = ?", id); err != nil {
			return nil, err
		}
		if err := insertPointsTx(ctx, tx, id, *p.RoutePoints); err != nil {
			return nil, err
		}
	}

	stored, err := getOwned(ctx, tx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return stored, nil
}

// DeleteByIDAndOwner removes the activity and its route points together.
func (r *ActivityRepo) DeleteByIDAndOwner(ctx context.Context, id, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockOwned(ctx, tx, id, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM route_points WHERE activity_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM activities WHERE id = ? AND user_id = ?", id, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func lockOwned(ctx context.Context, tx *sql.Tx, id, userID uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM activities WHERE id = ? AND user_id = ? FOR UPDATE", id, userID).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func getOwned(ctx context.Context, q querier, id, userID uint64) (*model.Activity, error) {
	row := q.QueryRowContext(ctx, "SELECT "+activityColumns+" FROM activities WHERE id = ? AND user_id = ?", id, userID)
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	list := []model.Activity{*a}
	if err := attachPoints(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(s rowScanner) (*model.Activity, error) {
	var (
		a       model.Activity
		pace    sql.NullString
		bpm     sql.NullInt64
		dur     sql.NullString
		route   sql.NullString
		kind    string
		updated sql.NullTime
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.Date, &a.Distance, &pace, &bpm, &dur, &route, &kind, &a.CreatedAt, &updated); err != nil {
		return nil, err
	}
	a.Date = a.Date.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.Pace = nullStringPtr(pace)
	a.Time = nullStringPtr(dur)
	a.Route = nullStringPtr(route)
	if bpm.Valid {
		v := int(bpm.Int64)
		a.BPM = &v
	}
	a.ActivityType = model.ActivityType(kind)
	a.UpdatedAt = nullTimePtr(updated)
	a.RoutePoints = []model.RoutePoint{}
	return &a, nil
}

// setNullable appends "col = NULL" when null is set, "col = ?" when v is
// non-nil, and nothing otherwise.
func setNullable[T any](sets []string, args []any, col string, v *T, null bool) ([]string, []any) {
	switch {
	case null:
		return append(sets, col+" = NULL"), args
	case v != nil:
		return append(sets, col+" = ?"), append(args, *v)
	}
	return sets, args
}

// idChunk bounds the ids per IN list when loading route points, for the
// same placeholder limit pointChunk respects.
var idChunk = 1000

// attachPoints loads route points for every activity in list, one query per
// idChunk activities, and assigns them in order_index order.
func attachPoints(ctx context.Context, q querier, list []model.Activity) error {
	idx := make(map[uint64]int, len(list))
	ids := make([]any, 0, len(list))
	for i := range list {
		idx[list[i].ID] = i
		ids = append(ids, list[i].ID)
	}
	for start := 0; start < len(ids); start += idChunk {
		end := min(start+idChunk, len(ids))
		if err := loadPoints(ctx, q, ids[start:end], func(p model.RoutePoint) {
			if i, ok := idx[p.ActivityID]; ok {
				list[i].RoutePoints = append(list[i].RoutePoints, p)
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

func loadPoints(ctx context.Context, q querier, ids []any, add func(model.RoutePoint)) error {
	query := `SELECT id, activity_id, latitude, longitude, elevation, timestamp, order_index
	          FROM route_points WHERE activity_id IN (` + placeholders(len(ids)) + `)
	          ORDER BY activity_id, order_index, id`
	rows, err := q.QueryContext(ctx, query, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p    model.RoutePoint
			elev sql.NullFloat64
			ts   sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.Latitude, &p.Longitude, &elev, &ts, &p.OrderIndex); err != nil {
			return err
		}
		if elev.Valid {
			v := elev.Float64
			p.Elevation = &v
		}
		p.Timestamp = nullTimePtr(ts)
		add(p)
	}
	return rows.Err()
}

func insertPointsTx(ctx context.Context, tx *sql.Tx, activityID uint64, points []model.RoutePoint) error {
	for start := 0; start < len(points); start += pointChunk {
		end := start + pointChunk
		if end > len(points) {
			end = len(points)
		}
		var sb strings.Builder
		sb.WriteString("INSERT INTO route_points (activity_id, latitude, longitude, elevation, timestamp, order_index) VALUES ")
		args := make([]any, 0, (end-start)*6)
		for i := start; i < end; i++ {
			if i > start {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?)")
			p := points[i]
			var ts any
			if p.Timestamp != nil {
				ts = p.Timestamp.UTC()
			}
			args = append(args, activityID, p.Latitude, p.Longitude, p.Elevation, ts, i)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
