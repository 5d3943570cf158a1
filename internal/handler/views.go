package handler

import (
	"time"

	"github.com/iliyamo/activity-tracker/internal/model"
	"github.com/iliyamo/activity-tracker/internal/stats"
)

// Response shapes.  Field names are what the web front-end reads.

type userView struct {
	ID        uint64     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	FullName  *string    `json:"full_name"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func toUserView(u *model.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type coordinateView struct {
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Elevation *float64   `json:"elevation"`
	Timestamp *time.Time `json:"timestamp"`
}

type activityView struct {
	ID           uint64             `json:"id"`
	UserID       uint64             `json:"user_id"`
	Date         time.Time          `json:"date"`
	Distance     float64            `json:"distance"`
	Pace         *string            `json:"pace"`
	BPM          *int               `json:"bpm"`
	Time         *string            `json:"time"`
	Route        *string            `json:"route"`
	ActivityType model.ActivityType `json:"activity_type"`
	Coordinates  []coordinateView   `json:"coordinates"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    *time.Time         `json:"updated_at"`
}

func toActivityView(a *model.Activity) activityView {
	coords := make([]coordinateView, 0, len(a.RoutePoints))
	for _, p := range a.RoutePoints {
		coords = append(coords, coordinateView{
			Lat:       p.Latitude,
			Lng:       p.Longitude,
			Elevation: p.Elevation,
			Timestamp: p.Timestamp,
		})
	}
	return activityView{
		ID:           a.ID,
		UserID:       a.UserID,
		Date:         a.Date,
		Distance:     a.Distance,
		Pace:         a.Pace,
		BPM:          a.BPM,
		Time:         a.Time,
		Route:        a.Route,
		ActivityType: a.ActivityType,
		Coordinates:  coords,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toActivityViews(list []model.Activity) []activityView {
	out := make([]activityView, 0, len(list))
	for i := range list {
		out = append(out, toActivityView(&list[i]))
	}
	return out
}

type yearView struct {
	Year       int            `json:"year"`
	Stats      stats.Summary  `json:"stats"`
	Activities []activityView `json:"activities"`
}

type tokenView struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
