// Package whiteboard keeps the saved whiteboard canvases and uploaded images
// as files under the upload directory.
package whiteboard

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/storage"
)

// Dir is the whiteboard subdirectory of the upload root.
const Dir = "whiteboard"

// URLPrefix is where stored images are served from.
const URLPrefix = "/uploads/whiteboard/"

const listPattern = Dir + "/*.{png,jpg,jpeg,gif,webp,PNG,JPG,JPEG,GIF,WEBP}"

// Image describes one stored whiteboard file.
type Image struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Registry stores whiteboard images through a storage provider.
type Registry struct {
	store  storage.Provider
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Registry on top of store.
func New(store storage.Provider, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger, now: time.Now}
}

// SaveDataURL stores a canvas snapshot sent as a base64 data URL under a
// generated whiteboard_<unix>_<hex> name.
func (r *Registry) SaveDataURL(dataURL string) (Image, error) {
	if strings.TrimSpace(dataURL) == "" {
		return Image{}, apperr.NewValidationError(errors.New("no image data provided"), "imageData")
	}
	data, ext, err := decodeDataURL(dataURL)
	if err != nil {
		return Image{}, apperr.NewValidationError(err, "imageData")
	}
	if err := validateMagicBytes(data, ext); err != nil {
		return Image{}, apperr.NewValidationError(err, "imageData")
	}
	name := "whiteboard_" + strconv.FormatInt(r.now().Unix(), 10) + "_" + shortHex() + ext
	return r.write(name, data)
}

// Upload stores an uploaded image. The name is sanitized and made unique when
// a file with the same name already exists.
func (r *Registry) Upload(name string, src io.Reader) (Image, error) {
	name = sanitizeFilename(name)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return Image{}, apperr.NewValidationError(
			fmt.Errorf("unsupported file extension %q (allowed: png, jpg, jpeg, gif, webp)", ext), "image")
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ext

	data, err := io.ReadAll(io.LimitReader(src, MaxImageSize+1))
	if err != nil {
		return Image{}, fmt.Errorf("whiteboard: read upload: %w", err)
	}
	if len(data) == 0 {
		return Image{}, apperr.NewValidationError(errors.New("image is empty"), "image")
	}
	if len(data) > MaxImageSize {
		return Image{}, apperr.NewValidationError(fmt.Errorf("image too large (max %d bytes)", MaxImageSize), "image")
	}
	if err := validateMagicBytes(data, ext); err != nil {
		return Image{}, apperr.NewValidationError(err, "image")
	}

	if _, err := r.store.Read(path.Join(Dir, name)); err == nil {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + "_" + shortHex() + ext
	}
	return r.write(name, data)
}

// List returns stored images sorted by filename.
func (r *Registry) List() ([]Image, error) {
	files, err := r.store.List(listPattern)
	if err != nil {
		return nil, fmt.Errorf("whiteboard: list: %w", err)
	}
	out := make([]Image, 0, len(files))
	for _, f := range files {
		name := path.Base(f.Path)
		out = append(out, Image{
			Filename:   name,
			URL:        URLPrefix + name,
			Size:       f.Size,
			ModifiedAt: f.ModTime,
		})
	}
	return out, nil
}

// Delete removes an image. It reports false when no such image exists.
func (r *Registry) Delete(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	err := r.store.Delete(path.Join(Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("whiteboard: delete: %w", err)
	}
	r.logger.Info("whiteboard image deleted", slog.String("file", name))
	return true, nil
}

// Path returns the absolute location of an existing image.
func (r *Registry) Path(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	abs, err := r.store.Abs(path.Join(Dir, name))
	if err != nil {
		return "", apperr.NewValidationError(err, "filename")
	}
	if info, err := os.Stat(abs); err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", apperr.ErrNotFound, name)
	}
	return abs, nil
}

// Dir returns the absolute whiteboard directory.
func (r *Registry) Dir() (string, error) {
	return r.store.Abs(Dir)
}

func (r *Registry) write(name string, data []byte) (Image, error) {
	if err := r.store.Write(path.Join(Dir, name), data); err != nil {
		return Image{}, fmt.Errorf("whiteboard: save %s: %w", name, err)
	}
	r.logger.Info("whiteboard image saved", slog.String("file", name), slog.Int("bytes", len(data)))
	return Image{
		Filename:   name,
		URL:        URLPrefix + name,
		Size:       int64(len(data)),
		ModifiedAt: r.now(),
	}, nil
}

// checkName accepts only plain image file names produced by this package.
func checkName(name string) error {
	if name == "" || name != sanitizeFilename(name) || !isImageName(name) {
		return apperr.NewValidationError(fmt.Errorf("invalid image name %q", name), "filename")
	}
	return nil
}

func shortHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
