package fieldnote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"backend-fieldnotes/internal/db"
	"backend-fieldnotes/internal/gpx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("field note not found")

const (
	listCacheTTL    = time.Minute
	cacheVersionKey = "fieldnotes:ver"
)

type Service struct {
	db    db.Querier
	cache *redis.Client
}

func NewService(db db.Querier, cache *redis.Client) *Service {
	return &Service{db: db, cache: cache}
}

// Create inserts a field note. When rawGPX is supplied it is parsed and
// the track coordinates stored; distance, elevation gain, and date are
// derived from it only where the caller left them unset. Stats are
// derived once here and never recomputed on update.
func (s *Service) Create(ctx context.Context, input FieldNote, rawGPX []byte) (FieldNote, error) {
	if len(rawGPX) > 0 {
		track, err := gpx.Parse(rawGPX)
		if err != nil {
			return FieldNote{}, err
		}
		if input.DistanceMiles == 0 {
			input.DistanceMiles = track.DistanceMiles
		}
		if input.ElevationGainFt == 0 {
			input.ElevationGainFt = track.ElevationGainFt
		}
		if input.Date.IsZero() {
			input.Date = track.Date
		}
		input.Track = &track
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO field_notes (id, title, description, trip_type, date, distance_miles, elevation_gain_ft, track)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, input.ID, input.Title, input.Description, input.TripType, timePtr(input.Date), input.DistanceMiles, input.ElevationGainFt, trackJSON(input.Track))
	if err := row.Scan(&input.CreatedAt); err != nil {
		return FieldNote{}, err
	}
	s.bumpCacheVersion(ctx)
	return input, nil
}

// Update applies a partial patch. The track payload and its derived
// stats are left alone unless the caller supplies explicit overrides.
func (s *Service) Update(ctx context.Context, id string, patch FieldNote) (FieldNote, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return FieldNote{}, err
	}
	if patch.Title != "" {
		note.Title = patch.Title
	}
	if patch.Description != "" {
		note.Description = patch.Description
	}
	if patch.TripType != "" {
		note.TripType = patch.TripType
	}
	if !patch.Date.IsZero() {
		note.Date = patch.Date
	}
	if patch.DistanceMiles != 0 {
		note.DistanceMiles = patch.DistanceMiles
	}
	if patch.ElevationGainFt != 0 {
		note.ElevationGainFt = patch.ElevationGainFt
	}

	_, err = s.db.Exec(ctx, `
		UPDATE field_notes
		SET title=$2, description=$3, trip_type=$4, date=$5, distance_miles=$6, elevation_gain_ft=$7
		WHERE id=$1
	`, note.ID, note.Title, note.Description, note.TripType, timePtr(note.Date), note.DistanceMiles, note.ElevationGainFt)
	if err != nil {
		return FieldNote{}, err
	}
	s.bumpCacheVersion(ctx)
	return note, nil
}

func (s *Service) Get(ctx context.Context, id string) (FieldNote, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, description, trip_type, date, distance_miles, elevation_gain_ft, track, created_at
		FROM field_notes WHERE id=$1
	`, id)
	note, err := scanNote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return FieldNote{}, ErrNotFound
	}
	return note, err
}

// Delete removes a field note and all photos referencing it, so no
// orphan photo rows survive.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM photos WHERE field_note_id=$1`, id); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM field_notes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.bumpCacheVersion(ctx)
	return nil
}

// List returns field notes filtered by a case-insensitive search over
// title and description, an optional trip type, and sorted by date
// (newest first unless sortOrder is "oldest"). Results are served from
// a redis read-through cache keyed by a version counter that every
// write bumps.
func (s *Service) List(ctx context.Context, search, tripType, sortOrder string) ([]FieldNote, error) {
	cacheKey := s.listCacheKey(ctx, search, tripType, sortOrder)
	if notes, ok := s.cachedList(ctx, cacheKey); ok {
		return notes, nil
	}

	query := `
		SELECT id, title, description, trip_type, date, distance_miles, elevation_gain_ft, track, created_at
		FROM field_notes`
	var args []any
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" WHERE (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if tripType != "" {
		args = append(args, tripType)
		clause := " WHERE"
		if search != "" {
			clause = " AND"
		}
		query += fmt.Sprintf("%s trip_type=$%d", clause, len(args))
	}
	if sortOrder == "oldest" {
		query += " ORDER BY date ASC"
	} else {
		query += " ORDER BY date DESC"
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []FieldNote
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.storeList(ctx, cacheKey, notes)
	return notes, nil
}

func scanNote(row pgx.Row) (FieldNote, error) {
	var note FieldNote
	var track []byte
	var date *time.Time
	if err := row.Scan(&note.ID, &note.Title, &note.Description, &note.TripType, &date, &note.DistanceMiles, &note.ElevationGainFt, &track, &note.CreatedAt); err != nil {
		return FieldNote{}, err
	}
	if date != nil {
		note.Date = *date
	}
	if len(track) > 0 {
		var t gpx.Track
		if err := json.Unmarshal(track, &t); err == nil && len(t.Coordinates) > 0 {
			note.Track = &t
		}
	}
	return note, nil
}

// Cache helpers. Every failure falls through to postgres silently so a
// missing or unreachable redis never affects reads.

func (s *Service) listCacheKey(ctx context.Context, search, tripType, sortOrder string) string {
	if s.cache == nil {
		return ""
	}
	ver, err := s.cache.Get(ctx, cacheVersionKey).Result()
	if err != nil {
		ver = "0"
	}
	// query-escape each part so a ":" inside a filter value can't make
	// two distinct queries share a key
	return "fieldnotes:list:" + ver + ":" + url.QueryEscape(search) + ":" + url.QueryEscape(tripType) + ":" + url.QueryEscape(sortOrder)
}

func (s *Service) cachedList(ctx context.Context, key string) ([]FieldNote, bool) {
	if s.cache == nil || key == "" {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var notes []FieldNote
	if err := json.Unmarshal(payload, &notes); err != nil {
		return nil, false
	}
	return notes, true
}

func (s *Service) storeList(ctx context.Context, key string, notes []FieldNote) {
	if s.cache == nil || key == "" {
		return
	}
	payload, err := json.Marshal(notes)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, payload, listCacheTTL)
}

func (s *Service) bumpCacheVersion(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Incr(ctx, cacheVersionKey)
}

func trackJSON(track *gpx.Track) []byte {
	if track == nil {
		return nil
	}
	payload, err := json.Marshal(track)
	if err != nil {
		return nil
	}
	return payload
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
