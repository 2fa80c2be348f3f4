package photo

import "time"

type Photo struct {
	ID           string     `json:"id"`
	FieldNoteID  string     `json:"field_note_id"`
	Filename     string     `json:"filename"`
	ObjectPath   string     `json:"object_path"`
	URL          string     `json:"url"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Altitude     *float64   `json:"altitude,omitempty"`
	TakenAt      *time.Time `json:"taken_at,omitempty"`
	Camera       string     `json:"camera,omitempty"`
	Lens         string     `json:"lens,omitempty"`
	Aperture     string     `json:"aperture,omitempty"`
	ShutterSpeed string     `json:"shutter_speed,omitempty"`
	ISO          string     `json:"iso,omitempty"`
	FocalLength  string     `json:"focal_length,omitempty"`
	FileSize     string     `json:"file_size,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
