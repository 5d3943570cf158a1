package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/activity-tracker/internal/model"
)

var (
	activityCols = []string{"id", "user_id", "date", "distance", "pace", "bpm", "time", "route", "activity_type", "created_at", "updated_at"}
	pointCols    = []string{"id", "activity_id", "latitude", "longitude", "elevation", "timestamp", "order_index"}
)

func strPtr(s string) *string { return &s }

func TestActivityRepo_Create_InsertsPointsInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	when := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	a := &model.Activity{
		UserID:       7,
		Date:         when,
		Distance:     5,
		Pace:         strPtr("5'00\"/km"),
		Time:         strPtr("25m"),
		Route:        strPtr("Park"),
		ActivityType: model.ActivityRun,
		RoutePoints: []model.RoutePoint{
			{Latitude: 1, Longitude: 2},
			{Latitude: 1.1, Longitude: 2.1},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO activities").
		WithArgs(7, sqlmock.AnyArg(), 5.0, "5'00\"/km", nil, "25m", "Park", "run").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO route_points").
		WithArgs(42, 1.0, 2.0, nil, nil, 0, 42, 1.1, 2.1, nil, nil, 1).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectQuery("FROM activities WHERE id = \\? AND user_id = \\?").
		WithArgs(42, 7).
		WillReturnRows(sqlmock.NewRows(activityCols).
			AddRow(42, 7, when, 5.0, "5'00\"/km", nil, "25m", "Park", "run", when, nil))
	mock.ExpectQuery("FROM route_points WHERE activity_id IN").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(pointCols).
			AddRow(1, 42, 1.0, 2.0, nil, nil, 0).
			AddRow(2, 42, 1.1, 2.1, nil, nil, 1))
	mock.ExpectCommit()

	require.NoError(t, NewActivityRepo(db).Create(context.Background(), a))

	assert.Equal(t, uint64(42), a.ID)
	assert.Nil(t, a.BPM)
	assert.Nil(t, a.UpdatedAt)
	require.Len(t, a.RoutePoints, 2)
	assert.Equal(t, 0, a.RoutePoints[0].OrderIndex)
	assert.Equal(t, 1, a.RoutePoints[1].OrderIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_Create_RollsBackWhenPointsFail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO activities").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO route_points").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = NewActivityRepo(db).Create(context.Background(), &model.Activity{
		UserID:       1,
		Date:         time.Now(),
		ActivityType: model.ActivityWorkout,
		RoutePoints:  []model.RoutePoint{{Latitude: 1, Longitude: 1}},
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_GetByIDAndOwner_OtherOwnerIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM activities WHERE id = \\? AND user_id = \\?").
		WithArgs(3, 99).
		WillReturnRows(sqlmock.NewRows(activityCols))

	_, err = NewActivityRepo(db).GetByIDAndOwner(context.Background(), 3, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_ListByOwner_FiltersAndAttachesPoints(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d1 := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("YEAR\\(date\\) = \\? AND MONTH\\(date\\) = \\? AND activity_type = \\? ORDER BY date DESC, id DESC LIMIT \\? OFFSET \\?").
		WithArgs(7, 2024, 3, "run", 10, 5).
		WillReturnRows(sqlmock.NewRows(activityCols).
			AddRow(2, 7, d1, 10.0, nil, 150, nil, "River", "run", d1, d1).
			AddRow(1, 7, d2, 5.0, nil, nil, nil, nil, "run", d2, nil))
	mock.ExpectQuery("FROM route_points WHERE activity_id IN \\(\\?,\\?\\)").
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows(pointCols).
			AddRow(10, 1, 1.0, 1.0, 12.5, nil, 0).
			AddRow(11, 2, 2.0, 2.0, nil, d1, 0).
			AddRow(12, 2, 2.1, 2.1, nil, d1, 1))

	got, err := NewActivityRepo(db).ListByOwner(context.Background(), 7, ActivityFilter{
		Year: 2024, Month: 3, Type: model.ActivityRun, Skip: 5, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, uint64(2), got[0].ID)
	require.NotNil(t, got[0].BPM)
	assert.Equal(t, 150, *got[0].BPM)
	assert.Len(t, got[0].RoutePoints, 2)
	assert.Equal(t, uint64(1), got[1].ID)
	require.Len(t, got[1].RoutePoints, 1)
	require.NotNil(t, got[1].RoutePoints[0].Elevation)
	assert.Equal(t, 12.5, *got[1].RoutePoints[0].Elevation)
	assert.Nil(t, got[1].Route)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_ListByOwner_ChunksPointQueries(t *testing.T) {
	prev := idChunk
	idChunk = 2
	t.Cleanup(func() { idChunk = prev })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := time.Date(2023, 6, 1, 7, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM activities WHERE user_id = \\? ORDER BY date DESC, id DESC$").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(activityCols).
			AddRow(3, 7, d, 1.0, nil, nil, nil, nil, "run", d, nil).
			AddRow(2, 7, d, 1.0, nil, nil, nil, nil, "run", d, nil).
			AddRow(1, 7, d, 1.0, nil, nil, nil, nil, "run", d, nil))
	mock.ExpectQuery("FROM route_points WHERE activity_id IN \\(\\?,\\?\\)").
		WithArgs(3, 2).
		WillReturnRows(sqlmock.NewRows(pointCols).AddRow(30, 3, 1.0, 1.0, nil, nil, 0))
	mock.ExpectQuery("FROM route_points WHERE activity_id IN \\(\\?\\)").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(pointCols).AddRow(10, 1, 2.0, 2.0, nil, nil, 0))

	got, err := NewActivityRepo(db).ListByOwner(context.Background(), 7, ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Len(t, got[0].RoutePoints, 1)
	assert.Empty(t, got[1].RoutePoints)
	assert.Len(t, got[2].RoutePoints, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_ListByOwner_EmptySkipsPointQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM activities WHERE user_id = \\? ORDER BY date DESC, id DESC$").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(activityCols))

	got, err := NewActivityRepo(db).ListByOwner(context.Background(), 7, ActivityFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_Update_ReplacesRoute(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	when := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	distance := 10.0
	points := []model.RoutePoint{{Latitude: 3, Longitude: 4}}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(9, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec("UPDATE activities SET updated_at = CURRENT_TIMESTAMP\\(6\\), distance = \\? WHERE id = \\? AND user_id = \\?").
		WithArgs(10.0, 9, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM route_points WHERE activity_id = \\?").WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO route_points").
		WithArgs(9, 3.0, 4.0, nil, nil, 0).
		WillReturnResult(sqlmock.NewResult(20, 1))
	mock.ExpectQuery("FROM activities WHERE id = \\? AND user_id = \\?").WithArgs(9, 7).
		WillReturnRows(sqlmock.NewRows(activityCols).
			AddRow(9, 7, when, 10.0, nil, nil, nil, nil, "cycling", when, when))
	mock.ExpectQuery("FROM route_points").WithArgs(9).
		WillReturnRows(sqlmock.NewRows(pointCols).AddRow(20, 9, 3.0, 4.0, nil, nil, 0))
	mock.ExpectCommit()

	got, err := NewActivityRepo(db).UpdateByIDAndOwner(context.Background(), 9, 7, ActivityPatch{
		Distance:    &distance,
		RoutePoints: &points,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Distance)
	require.Len(t, got.RoutePoints, 1)
	assert.Equal(t, uint64(20), got.RoutePoints[0].ID)
	assert.NotNil(t, got.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_Update_ClearsNullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	when := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	empty := []model.RoutePoint{}
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(9, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec("UPDATE activities SET updated_at = CURRENT_TIMESTAMP\\(6\\), pace = \\?, route = NULL WHERE id = \\? AND user_id = \\?").
		WithArgs("6'00\"/km", 9, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM route_points WHERE activity_id = \\?").WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("FROM activities WHERE id = \\? AND user_id = \\?").WithArgs(9, 7).
		WillReturnRows(sqlmock.NewRows(activityCols).
			AddRow(9, 7, when, 5.0, "6'00\"/km", nil, nil, nil, "run", when, when))
	mock.ExpectQuery("FROM route_points").WithArgs(9).
		WillReturnRows(sqlmock.NewRows(pointCols))
	mock.ExpectCommit()

	got, err := NewActivityRepo(db).UpdateByIDAndOwner(context.Background(), 9, 7, ActivityPatch{
		Pace:        strPtr("6'00\"/km"),
		ClearRoute:  true,
		RoutePoints: &empty,
	})
	require.NoError(t, err)
	assert.Nil(t, got.Route)
	assert.Empty(t, got.RoutePoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityPatch_Empty(t *testing.T) {
	assert.True(t, ActivityPatch{}.Empty())
	assert.False(t, ActivityPatch{ClearBPM: true}.Empty())
}

func TestActivityRepo_Update_OtherOwnerIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	distance := 1.0
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(9, 8).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = NewActivityRepo(db).UpdateByIDAndOwner(context.Background(), 9, 8, ActivityPatch{Distance: &distance})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_Delete_RemovesPointsThenActivity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(4, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectExec("DELETE FROM route_points WHERE activity_id = \\?").WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM activities WHERE id = \\? AND user_id = \\?").WithArgs(4, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewActivityRepo(db).DeleteByIDAndOwner(context.Background(), 4, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepo_Delete_OtherOwnerIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(4, 8).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err = NewActivityRepo(db).DeleteByIDAndOwner(context.Background(), 4, 8)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
