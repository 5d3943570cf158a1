package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/iliyamo/activity-tracker/internal/model"
	"github.com/iliyamo/activity-tracker/internal/repository"
	"github.com/iliyamo/activity-tracker/internal/utils"
)

type createUserReq struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	FullName *string `json:"full_name"`
	Password string  `json:"password"`
}

func (r *createUserReq) normalise() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)
}

func (r createUserReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.FullName, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 256)),
	)
}

// activityTypeRule accepts the three known activity kinds.
var activityTypeRule = validation.In(model.ActivityRun, model.ActivityWorkout, model.ActivityCycling).
	Error("must be one of run, workout, cycling")

type coordinateReq struct {
	Lat       *float64        `json:"lat"`
	Lng       *float64        `json:"lng"`
	Elevation *float64        `json:"elevation"`
	Timestamp *utils.FlexTime `json:"timestamp"`
}

func (r coordinateReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Lat, validation.NotNil, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Lng, validation.NotNil, validation.Min(-180.0), validation.Max(180.0)),
	)
}

func (r coordinateReq) toModel() model.RoutePoint {
	return model.RoutePoint{
		Latitude:  *r.Lat,
		Longitude: *r.Lng,
		Elevation: r.Elevation,
		Timestamp: r.Timestamp.Ptr(),
	}
}

// validateCoordinates checks every point and reports failures as
// coordinates.<index>.
func validateCoordinates(coords []coordinateReq, errs validation.Errors) {
	for i, c := range coords {
		if err := c.Validate(); err != nil {
			errs[fmt.Sprintf("coordinates.%d", i)] = err
		}
	}
}

func toRoutePoints(coords []coordinateReq) []model.RoutePoint {
	out := make([]model.RoutePoint, 0, len(coords))
	for _, c := range coords {
		out = append(out, c.toModel())
	}
	return out
}

// mergeErrors folds a ValidateStruct result into errs.  Non-field errors are
// returned as is.
func mergeErrors(err error, errs validation.Errors) error {
	if err == nil {
		return nil
	}
	ve, ok := err.(validation.Errors)
	if !ok {
		return err
	}
	for k, v := range ve {
		errs[k] = v
	}
	return nil
}

type createActivityReq struct {
	Date         *utils.FlexTime     `json:"date"`
	Distance     *float64            `json:"distance"`
	Pace         *string             `json:"pace"`
	BPM          *int                `json:"bpm"`
	Time         *string             `json:"time"`
	Route        *string             `json:"route"`
	ActivityType *model.ActivityType `json:"activity_type"`
	Coordinates  []coordinateReq     `json:"coordinates"`
}

func (r createActivityReq) Validate() error {
	errs := validation.Errors{}
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Date, validation.NotNil),
		validation.Field(&r.Distance, validation.NotNil, validation.Min(0.0)),
		validation.Field(&r.Pace, validation.Length(0, 32)),
		validation.Field(&r.BPM, validation.Min(0), validation.Max(300)),
		validation.Field(&r.Time, validation.Length(0, 64)),
		validation.Field(&r.Route, validation.Length(0, 255)),
		validation.Field(&r.ActivityType, validation.Required, activityTypeRule),
	)
	if err := mergeErrors(err, errs); err != nil {
		return err
	}
	validateCoordinates(r.Coordinates, errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// toModel builds the activity to insert.  Call Validate first.
func (r createActivityReq) toModel(userID uint64) model.Activity {
	return model.Activity{
		UserID:       userID,
		Date:         r.Date.Time,
		Distance:     *r.Distance,
		Pace:         blankToNil(r.Pace),
		BPM:          r.BPM,
		Time:         blankToNil(r.Time),
		Route:        r.Route,
		ActivityType: *r.ActivityType,
		RoutePoints:  toRoutePoints(r.Coordinates),
	}
}

// nullable remembers whether its JSON key was present, so an explicit null
// can be told apart from an absent key.
type nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// isNull reports an explicit null.
func (n nullable[T]) isNull() bool { return n.Set && n.Value == nil }

// updateActivityReq is a partial update.  Absent fields are left alone.  An
// explicit null clears pace, bpm, time, route or coordinates and is ignored
// for the required columns.  A present coordinates array replaces the whole
// route.
type updateActivityReq struct {
	Date         *utils.FlexTime           `json:"date"`
	Distance     *float64                  `json:"distance"`
	Pace         nullable[string]          `json:"pace"`
	BPM          nullable[int]             `json:"bpm"`
	Time         nullable[string]          `json:"time"`
	Route        nullable[string]          `json:"route"`
	ActivityType *model.ActivityType       `json:"activity_type"`
	Coordinates  nullable[[]coordinateReq] `json:"coordinates"`
}

func (r updateActivityReq) Validate() error {
	errs := validation.Errors{}
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Distance, validation.Min(0.0)),
		validation.Field(&r.ActivityType, validation.NilOrNotEmpty, activityTypeRule),
	)
	if err := mergeErrors(err, errs); err != nil {
		return err
	}
	nested := validation.Errors{
		"pace":  validation.Validate(r.Pace.Value, validation.Length(0, 32)),
		"bpm":   validation.Validate(r.BPM.Value, validation.Min(0), validation.Max(300)),
		"time":  validation.Validate(r.Time.Value, validation.Length(0, 64)),
		"route": validation.Validate(r.Route.Value, validation.Length(0, 255)),
	}.Filter()
	if err := mergeErrors(nested, errs); err != nil {
		return err
	}
	if r.Coordinates.Value != nil {
		validateCoordinates(*r.Coordinates.Value, errs)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r updateActivityReq) toPatch() repository.ActivityPatch {
	p := repository.ActivityPatch{
		Date:         r.Date.Ptr(),
		Distance:     r.Distance,
		Pace:         r.Pace.Value,
		BPM:          r.BPM.Value,
		Time:         r.Time.Value,
		Route:        r.Route.Value,
		ActivityType: r.ActivityType,
		ClearPace:    r.Pace.isNull(),
		ClearBPM:     r.BPM.isNull(),
		ClearTime:    r.Time.isNull(),
		ClearRoute:   r.Route.isNull(),
	}
	if r.Coordinates.Set {
		pts := []model.RoutePoint{}
		if r.Coordinates.Value != nil {
			pts = toRoutePoints(*r.Coordinates.Value)
		}
		p.RoutePoints = &pts
	}
	return p
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
