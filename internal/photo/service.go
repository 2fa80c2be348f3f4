package photo

import (
	"context"
	"errors"

	"backend-fieldnotes/internal/db"
	"backend-fieldnotes/internal/exif"
	"backend-fieldnotes/internal/objectstore"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound          = errors.New("photo not found")
	ErrFieldNoteNotFound = errors.New("field note not found")
)

type Service struct {
	db    db.Querier
	store *objectstore.Store
}

func NewService(db db.Querier, store *objectstore.Store) *Service {
	return &Service{db: db, store: store}
}

// Create records an uploaded photo against a field note. The object is
// read back from the store and its EXIF metadata extracted; extraction
// failure (or a missing object) degrades to an empty metadata set and
// never blocks the create.
func (s *Service) Create(ctx context.Context, fieldNoteID, filename, objectPath string) (Photo, error) {
	var meta exif.Metadata
	if s.store != nil {
		data, err := s.store.Get(objectPath)
		if err != nil {
			logrus.WithError(err).WithField("object", objectPath).Warn("photo object unreadable, skipping exif")
		} else {
			meta = exif.Extract(data)
		}
	}

	p := Photo{
		ID:           uuid.NewString(),
		FieldNoteID:  fieldNoteID,
		Filename:     filename,
		ObjectPath:   objectPath,
		URL:          "/objects/" + objectPath,
		Latitude:     meta.Latitude,
		Longitude:    meta.Longitude,
		Altitude:     meta.Altitude,
		TakenAt:      meta.TakenAt,
		Camera:       meta.Camera,
		Lens:         meta.Lens,
		Aperture:     meta.Aperture,
		ShutterSpeed: meta.ShutterSpeed,
		ISO:          meta.ISO,
		FocalLength:  meta.FocalLength,
		FileSize:     meta.FileSize,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO photos (id, field_note_id, filename, object_path, url, latitude, longitude, altitude, taken_at,
		                    camera, lens, aperture, shutter_speed, iso, focal_length, file_size)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at
	`, p.ID, p.FieldNoteID, p.Filename, p.ObjectPath, p.URL, p.Latitude, p.Longitude, p.Altitude, p.TakenAt,
		p.Camera, p.Lens, p.Aperture, p.ShutterSpeed, p.ISO, p.FocalLength, p.FileSize)
	if err := row.Scan(&p.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Photo{}, ErrFieldNoteNotFound
		}
		return Photo{}, err
	}
	return p, nil
}

// List returns photos, optionally scoped to one field note.
func (s *Service) List(ctx context.Context, fieldNoteID string) ([]Photo, error) {
	query := `
		SELECT id, field_note_id, filename, object_path, url, latitude, longitude, altitude, taken_at,
		       COALESCE(camera,''), COALESCE(lens,''), COALESCE(aperture,''), COALESCE(shutter_speed,''),
		       COALESCE(iso,''), COALESCE(focal_length,''), COALESCE(file_size,''), created_at
		FROM photos`
	var args []any
	if fieldNoteID != "" {
		args = append(args, fieldNoteID)
		query += " WHERE field_note_id=$1"
	}
	query += " ORDER BY taken_at NULLS LAST, created_at"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.FieldNoteID, &p.Filename, &p.ObjectPath, &p.URL,
			&p.Latitude, &p.Longitude, &p.Altitude, &p.TakenAt,
			&p.Camera, &p.Lens, &p.Aperture, &p.ShutterSpeed, &p.ISO, &p.FocalLength, &p.FileSize,
			&p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM photos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
