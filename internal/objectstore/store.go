// Package objectstore is a filesystem-backed object store with
// HMAC-signed upload URLs. Clients ask for an upload URL, PUT the
// photo bytes straight to it, then reference the object path when
// creating the photo record. Objects are served back through the
// same /objects namespace.
package objectstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const uploadTTL = 15 * time.Minute

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid object path")
)

type Store struct {
	dir     string
	secret  []byte
	baseURL string
	now     func() time.Time
}

func New(dir, secret, baseURL string) *Store {
	return &Store{
		dir:     dir,
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// PresignUpload issues a signed, expiring upload URL for a new object.
// The object path is server-chosen; only the original extension is
// kept from the client filename.
func (s *Store) PresignUpload(filename string) (objectPath, uploadURL string, expiresAt time.Time) {
	ext := strings.ToLower(path.Ext(path.Base(filename)))
	if len(ext) > 10 {
		ext = ""
	}
	objectPath = uuid.NewString() + ext
	expiresAt = s.now().Add(uploadTTL)
	sig := s.sign(objectPath, expiresAt.Unix())
	uploadURL = fmt.Sprintf("%s/objects/%s?exp=%d&sig=%s", s.baseURL, objectPath, expiresAt.Unix(), sig)
	return objectPath, uploadURL, expiresAt
}

// VerifyUpload checks the signature and expiry carried by an upload URL.
func (s *Store) VerifyUpload(objectPath string, exp int64, sig string) bool {
	if s.now().Unix() > exp {
		return false
	}
	expected := s.sign(objectPath, exp)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *Store) sign(objectPath string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", objectPath, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Store) Put(objectPath string, data []byte) error {
	full, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (s *Store) Get(objectPath string) ([]byte, error) {
	full, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// resolve rejects anything that would escape the store directory.
func (s *Store) resolve(objectPath string) (string, error) {
	if objectPath == "" || strings.Contains(objectPath, "..") || strings.ContainsAny(objectPath, "/\\") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.dir, objectPath), nil
}
