// Package photos stores place photos on local disk along with a thumbnail.
package photos

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/placenotes/internal/models"
)

const (
	// DefaultMaxBytes is the largest upload accepted.
	DefaultMaxBytes = 20 << 20
	thumbnailSize   = 320
	thumbnailDir    = "thumbs"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("photo exceeds size limit")
)

// Photo describes a stored upload. Location and TakenAt come from EXIF data
// when the camera recorded them.
type Photo struct {
	ID           string           `json:"id"`
	URL          string           `json:"url"`
	ThumbnailURL string           `json:"thumbnail_url"`
	Width        int              `json:"width"`
	Height       int              `json:"height"`
	Location     *models.Location `json:"location,omitempty"`
	TakenAt      *time.Time       `json:"taken_at,omitempty"`
}

// LocalStorage keeps photos under Dir and addresses them below BaseURL.
type LocalStorage struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

// NewLocalStorage creates the photo and thumbnail directories if needed.
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Join(dir, thumbnailDir), 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &LocalStorage{
		Dir:      dir,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		MaxBytes: DefaultMaxBytes,
	}, nil
}

// Save validates and stores an uploaded image. filename is only used to pick
// the format.
func (s *LocalStorage) Save(filename string, r io.Reader) (*Photo, error) {
	if _, err := imaging.FormatFromFilename(filename); err != nil {
		return nil, ErrUnsupportedFormat
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	id := uuid.NewString()
	name := id + strings.ToLower(filepath.Ext(filename))
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("write photo: %w", err)
	}

	thumb := imaging.Thumbnail(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
	thumbName := id + ".jpg"
	if err := imaging.Save(thumb, filepath.Join(s.Dir, thumbnailDir, thumbName), imaging.JPEGQuality(80)); err != nil {
		os.Remove(filepath.Join(s.Dir, name))
		return nil, fmt.Errorf("write thumbnail: %w", err)
	}

	bounds := img.Bounds()
	photo := &Photo{
		ID:           id,
		URL:          s.BaseURL + "/" + name,
		ThumbnailURL: s.BaseURL + "/" + thumbnailDir + "/" + thumbName,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
	}
	photo.Location, photo.TakenAt = readMetadata(data)

	log.WithFields(log.Fields{
		"id":      id,
		"bytes":   len(data),
		"has_gps": photo.Location != nil,
	}).Info("Photo stored")
	return photo, nil
}

// Delete removes the photo addressed by url and its thumbnail. URLs outside
// BaseURL and files that are already gone are ignored.
func (s *LocalStorage) Delete(url string) error {
	if !s.Owns(url) {
		return nil
	}
	name := strings.TrimPrefix(url, s.BaseURL+"/")
	if name == "" || name != path.Base(name) || name == "." || name == ".." {
		return nil
	}

	id := strings.TrimSuffix(name, path.Ext(name))
	for _, p := range []string{
		filepath.Join(s.Dir, name),
		filepath.Join(s.Dir, thumbnailDir, id+".jpg"),
	} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove photo: %w", err)
		}
	}
	return nil
}

// Owns reports whether url points into this storage.
func (s *LocalStorage) Owns(url string) bool {
	return strings.HasPrefix(url, s.BaseURL+"/")
}
