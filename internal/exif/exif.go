// Package exif pulls photo metadata out of image buffers. Extraction
// is best-effort: a photo with no EXIF block, or a buffer that is not
// an image at all, yields an empty Metadata and never an error, so a
// failed parse can't block a photo upload.
package exif

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// EXIF lives in the APP1 segment at the front of a JPEG, so scanning
// the first 64KB is enough for any camera we have seen.
const scanLimit = 64 << 10

type Metadata struct {
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
}

// Extract decodes EXIF metadata from an image buffer. Every field is
// optional; decode failures return a zero Metadata. goexif can panic
// on hostile input, so the whole walk runs under a recover.
func Extract(data []byte) (meta Metadata) {
	defer func() {
		if r := recover(); r != nil {
			meta = Metadata{}
		}
	}()
	if len(data) == 0 {
		return meta
	}

	head := data
	if len(head) > scanLimit {
		head = head[:scanLimit]
	}
	x, err := exif.Decode(bytes.NewReader(head))
	if err != nil || x == nil {
		return meta
	}

	meta.Latitude = gpsCoordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	meta.Longitude = gpsCoordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	meta.Altitude = gpsAltitude(x)
	meta.TakenAt = captureTime(x)
	meta.Camera = normalizeCamera(tagString(x, exif.Make), tagString(x, exif.Model))
	meta.Lens = tagString(x, exif.LensModel)
	meta.Aperture = aperture(x)
	meta.ShutterSpeed = shutterSpeed(x)
	meta.ISO = isoValue(x)
	meta.FocalLength = focalLength(x)
	meta.FileSize = humanFileSize(len(data))
	return meta
}

// gpsCoordinate converts the three DMS rationals of a GPS tag into a
// signed decimal degree value, negative for S and W references.
func gpsCoordinate(x *exif.Exif, field, refField exif.FieldName) *float64 {
	tag, err := x.Get(field)
	if err != nil || tag.Count < 3 {
		return nil
	}
	var parts [3]float64
	for i := 0; i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return nil
		}
		parts[i] = float64(num) / float64(den)
	}
	dec := dmsToDecimal(parts[0], parts[1], parts[2], tagString(x, refField))
	return &dec
}

func dmsToDecimal(deg, min, sec float64, ref string) float64 {
	dec := deg + min/60 + sec/3600
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		return -dec
	}
	return dec
}

func gpsAltitude(x *exif.Exif) *float64 {
	tag, err := x.Get(exif.GPSAltitude)
	if err != nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}
	alt := float64(num) / float64(den)
	if ref, err := x.Get(exif.GPSAltitudeRef); err == nil {
		if v, err := ref.Int(0); err == nil && v == 1 {
			alt = -alt
		}
	}
	return &alt
}

var captureTimeFields = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

func captureTime(x *exif.Exif) *time.Time {
	for _, field := range captureTimeFields {
		raw := tagString(x, field)
		if raw == "" {
			continue
		}
		if ts, err := time.Parse("2006:01:02 15:04:05", raw); err == nil {
			return &ts
		}
	}
	return nil
}

// normalizeCamera joins make and model, dropping the make when the
// model already repeats it (e.g. "Canon" + "Canon EOS R5").
func normalizeCamera(maker, model string) string {
	if model == "" {
		return maker
	}
	if maker == "" || strings.HasPrefix(strings.ToLower(model), strings.ToLower(maker)) {
		return model
	}
	return maker + " " + model
}

func aperture(x *exif.Exif) string {
	if f, ok := tagRatio(x, exif.FNumber); ok && f > 0 {
		return formatAperture(f)
	}
	// APEX aperture value: f-number = 2^(Av/2).
	if av, ok := tagRatio(x, exif.ApertureValue); ok {
		return formatAperture(math.Pow(2, av/2))
	}
	return ""
}

func formatAperture(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("f/%.0f", f)
	}
	return fmt.Sprintf("f/%.1f", f)
}

func shutterSpeed(x *exif.Exif) string {
	tag, err := x.Get(exif.ExposureTime)
	if err != nil {
		return ""
	}
	num, den, err := tag.Rat2(0)
	if err != nil || num == 0 || den == 0 {
		return ""
	}
	return formatShutter(num, den)
}

func formatShutter(num, den int64) string {
	seconds := float64(num) / float64(den)
	if seconds >= 1 {
		return strconv.FormatFloat(seconds, 'f', -1, 64) + "s"
	}
	return fmt.Sprintf("1/%d", int64(math.Round(float64(den)/float64(num))))
}

func isoValue(x *exif.Exif) string {
	tag, err := x.Get(exif.ISOSpeedRatings)
	if err != nil {
		return ""
	}
	v, err := tag.Int(0)
	if err != nil {
		return ""
	}
	return strconv.Itoa(v)
}

func focalLength(x *exif.Exif) string {
	v, ok := tagRatio(x, exif.FocalLength)
	if !ok || v == 0 {
		return ""
	}
	return formatFocal(v)
}

func formatFocal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " mm"
}

func humanFileSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := int64(n) / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

func tagString(x *exif.Exif, field exif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

func tagRatio(x *exif.Exif, field exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}
