package gtfsdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/klinck004/ntta/internal/appconf"
	"github.com/klinck004/ntta/internal/logging"
)

//go:embed schema.sql
var ddl string

// createDB opens the SQLite database and applies the schema
func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("test database must use in-memory storage, got %q", config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, err
	}

	if config.DBPath == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx := context.Background()
	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

// processAndStoreGTFSDataWithSource replaces the stored static data with the
// parsed feed in b. Feeds identical to the last import are skipped.
func (c *Client) processAndStoreGTFSDataWithSource(ctx context.Context, b []byte, source string) error {
	startTime := time.Now()
	defer func() {
		c.importRuntime = time.Since(startTime)
		if c.config.verbose {
			logging.LogOperation(c.logger, "static_import_finished",
				slog.String("source", source),
				slog.Duration("duration", c.importRuntime))
		}
	}()

	sum := sha256.Sum256(b)
	hash := hex.EncodeToString(sum[:])

	previous, err := c.lastImportHash(ctx)
	if err != nil {
		return err
	}
	if previous == hash {
		logging.LogOperation(c.logger, "static_import_skipped_unchanged",
			slog.String("source", source))
		return nil
	}

	staticData, err := parseStatic(b)
	if err != nil {
		return err
	}
	untimed, err := untimedStopTimes(b, staticData)
	if err != nil {
		return err
	}

	if c.config.verbose {
		attrs := []slog.Attr{
			slog.Int("warnings", len(staticData.Warnings)),
			slog.Int("untimed_stop_times", len(untimed)),
		}
		for k, v := range staticDataCounts(staticData) {
			attrs = append(attrs, slog.Int(k, v))
		}
		logging.LogOperation(c.logger, "static_feed_parsed", attrs...)
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "static_import")

	qtx := c.Queries.WithTx(tx)
	if err := clearStaticData(ctx, tx); err != nil {
		return err
	}
	if err := storeStatic(ctx, qtx, staticData); err != nil {
		return err
	}
	for _, st := range untimed {
		if err := qtx.CreateStopTime(ctx, st); err != nil {
			return fmt.Errorf("creating stop time %s/%d: %w", st.TripID, st.StopSequence, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO import_metadata (id, file_hash, source, imported_at) VALUES (1, ?, ?, ?)`,
		hash, source, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("recording import metadata: %w", err)
	}

	return tx.Commit()
}

func (c *Client) lastImportHash(ctx context.Context) (string, error) {
	var hash string
	err := c.DB.QueryRowContext(ctx, `SELECT file_hash FROM import_metadata WHERE id = 1`).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

var staticTables = []string{"stop_times", "trips", "calendar_dates", "calendar", "stops", "routes"}

func clearStaticData(ctx context.Context, tx *sql.Tx) error {
	for _, table := range staticTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

func storeStatic(ctx context.Context, q *Queries, staticData *gtfs.Static) error {
	singleAgencyID := ""
	if len(staticData.Agencies) == 1 {
		singleAgencyID = staticData.Agencies[0].Id
	}

	for _, r := range staticData.Routes {
		agencyID := singleAgencyID
		if r.Agency != nil {
			agencyID = pickFirstAvailable(r.Agency.Id, singleAgencyID)
		}
		err := q.CreateRoute(ctx, Route{
			ID:          r.Id,
			AgencyID:    agencyID,
			ShortName:   r.ShortName,
			LongName:    r.LongName,
			Description: r.Description,
			Type:        int(r.Type),
			URL:         r.Url,
			Color:       r.Color,
			TextColor:   r.TextColor,
		})
		if err != nil {
			return fmt.Errorf("creating route %s: %w", r.Id, err)
		}
	}

	for _, s := range staticData.Stops {
		stop := Stop{
			ID:                 s.Id,
			Code:               s.Code,
			Name:               s.Name,
			Description:        s.Description,
			ZoneID:             s.ZoneId,
			LocationType:       int(s.Type),
			Timezone:           s.Timezone,
			WheelchairBoarding: int(s.WheelchairBoarding),
			PlatformCode:       s.PlatformCode,
		}
		if s.Latitude != nil {
			stop.Lat = *s.Latitude
		}
		if s.Longitude != nil {
			stop.Lon = *s.Longitude
		}
		if err := q.CreateStop(ctx, stop); err != nil {
			return fmt.Errorf("creating stop %s: %w", s.Id, err)
		}
	}

	for _, s := range staticData.Services {
		if err := storeService(ctx, q, s); err != nil {
			return err
		}
	}

	for _, t := range staticData.Trips {
		trip := Trip{
			ID:          t.ID,
			RouteID:     t.Route.Id,
			ServiceID:   t.Service.Id,
			Headsign:    t.Headsign,
			ShortName:   t.ShortName,
			DirectionID: directionID(t.DirectionId),
			BlockID:     t.BlockID,
		}
		if t.Shape != nil {
			trip.ShapeID = t.Shape.ID
		}
		if err := q.CreateTrip(ctx, trip); err != nil {
			return fmt.Errorf("creating trip %s: %w", t.ID, err)
		}

		for _, st := range t.StopTimes {
			err := q.CreateStopTime(ctx, StopTime{
				TripID:        t.ID,
				StopID:        st.Stop.Id,
				StopSequence:  st.StopSequence,
				ArrivalTime:   int64(st.ArrivalTime / time.Second),
				DepartureTime: int64(st.DepartureTime / time.Second),
				StopHeadsign:  st.Headsign,
			})
			if err != nil {
				return fmt.Errorf("creating stop time %s/%d: %w", t.ID, st.StopSequence, err)
			}
		}
	}

	return nil
}

// storeService writes the weekly rule and its date exceptions. Services that
// only exist in calendar_dates.txt have no weekday flags set.
func storeService(ctx context.Context, q *Queries, s gtfs.Service) error {
	cal := Calendar{
		ServiceID: s.Id,
		StartDate: FormatDate(s.StartDate),
		EndDate:   FormatDate(s.EndDate),
	}
	cal.Days[time.Monday] = s.Monday
	cal.Days[time.Tuesday] = s.Tuesday
	cal.Days[time.Wednesday] = s.Wednesday
	cal.Days[time.Thursday] = s.Thursday
	cal.Days[time.Friday] = s.Friday
	cal.Days[time.Saturday] = s.Saturday
	cal.Days[time.Sunday] = s.Sunday

	if err := q.CreateCalendar(ctx, cal); err != nil {
		return fmt.Errorf("creating calendar %s: %w", s.Id, err)
	}

	for _, d := range s.AddedDates {
		if err := q.CreateCalendarDate(ctx, CalendarDate{
			ServiceID: s.Id, Date: FormatDate(d), ExceptionType: ExceptionAdded,
		}); err != nil {
			return fmt.Errorf("creating calendar date %s: %w", s.Id, err)
		}
	}
	for _, d := range s.RemovedDates {
		if err := q.CreateCalendarDate(ctx, CalendarDate{
			ServiceID: s.Id, Date: FormatDate(d), ExceptionType: ExceptionRemoved,
		}); err != nil {
			return fmt.Errorf("creating calendar date %s: %w", s.Id, err)
		}
	}
	return nil
}

// directionID maps the parser's tri-state direction (0 unspecified, 1 true,
// 2 false) back to the direction_id column value.
func directionID(d gtfs.DirectionID) int {
	if d == 1 {
		return 1
	}
	return 0
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// toNullString converts a string to sql.NullString
func toNullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}

func pickFirstAvailable(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
