package model

import "time"

// ActivityType enumerates the kinds of activity a user can record.
type ActivityType string

const (
	ActivityRun     ActivityType = "run"
	ActivityWorkout ActivityType = "workout"
	ActivityCycling ActivityType = "cycling"
)

// ActivityTypes lists every accepted ActivityType value.
var ActivityTypes = []ActivityType{ActivityRun, ActivityWorkout, ActivityCycling}

// Valid reports whether t is one of ActivityTypes.
func (t ActivityType) Valid() bool {
	for _, v := range ActivityTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Activity is one recorded session in the `activities` table.  Distance is
// in kilometres; Pace is formatted as M'SS"/km and Time is the free-text
// duration the user entered (e.g. "1h 23m").
//
// RoutePoints is populated by the repository, ordered by OrderIndex.
type Activity struct {
	ID           uint64       // activities.id
	UserID       uint64       // activities.user_id
	Date         time.Time    // activities.date
	Distance     float64      // activities.distance
	Pace         *string      // activities.pace (nullable)
	BPM          *int         // activities.bpm (nullable)
	Time         *string      // activities.time (nullable)
	Route        *string      // activities.route (nullable)
	ActivityType ActivityType // activities.activity_type
	CreatedAt    time.Time    // activities.created_at
	UpdatedAt    *time.Time   // activities.updated_at (nullable)
	RoutePoints  []RoutePoint
}

// RoutePoint is one GPS sample in `route_points`.  OrderIndex runs 0..N-1
// in the order the points were submitted.
type RoutePoint struct {
	ID         uint64     // route_points.id
	ActivityID uint64     // route_points.activity_id
	Latitude   float64    // route_points.latitude
	Longitude  float64    // route_points.longitude
	Elevation  *float64   // route_points.elevation (nullable), metres
	Timestamp  *time.Time // route_points.timestamp (nullable)
	OrderIndex int        // route_points.order_index
}
