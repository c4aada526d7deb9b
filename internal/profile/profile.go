// Package profile implements the profile screen: the display name lives with
// the identity provider, the picture in the local key-value store.
package profile

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"todosync/internal/logger"
	"todosync/internal/service"
)

// ImageKeyPrefix prefixes the per-user image key.
const ImageKeyPrefix = "profileImage_"

var (
	// ErrEmptyUsername is returned by UpdateUsername for blank input.
	ErrEmptyUsername = errors.New("username required")

	// ErrNotImage is returned by SetImage when the bytes are not a recognised image.
	ErrNotImage = errors.New("not an image")
)

// Profile is what the profile screen shows.
type Profile struct {
	DisplayName string
	Email       string

	// Image is a data URI, empty when none is stored.
	Image string
}

// Service reads and edits the signed-in user's profile.
type Service struct {
	auth   service.AuthProvider
	images service.KeyValueStore
	log    *logger.Logger
}

// New creates a Service. A nil log discards output.
func New(auth service.AuthProvider, images service.KeyValueStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{auth: auth, images: images, log: log}
}

// ImageKey returns the key the user's picture is stored under.
func ImageKey(userID string) string {
	return ImageKeyPrefix + userID
}

// Load returns the current user's profile. A missing picture is not an error.
func (s *Service) Load(ctx context.Context) (Profile, error) {
	user, ok := s.auth.CurrentUser()
	if !ok {
		return Profile{}, service.ErrNotSignedIn
	}

	p := Profile{DisplayName: user.DisplayName, Email: user.Email}
	img, found, err := s.images.Get(ctx, ImageKey(user.ID))
	if err != nil {
		return Profile{}, fmt.Errorf("load image: %w", err)
	}
	if found {
		p.Image = img
	}
	return p, nil
}

// UpdateUsername sets the display name. Blank input fails with
// ErrEmptyUsername before the provider is called.
func (s *Service) UpdateUsername(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyUsername
	}
	if _, ok := s.auth.CurrentUser(); !ok {
		return service.ErrNotSignedIn
	}

	if err := s.auth.UpdateDisplayName(ctx, name); err != nil {
		return fmt.Errorf("update username: %w", err)
	}
	s.log.DebugContext(ctx, "display name updated", "name", name)
	return nil
}

// SetImage stores data as the user's picture and returns the stored data URI.
// The media type is sniffed from the bytes; anything but an image is rejected.
func (s *Service) SetImage(ctx context.Context, userID string, data []byte) (string, error) {
	if userID == "" {
		return "", service.ErrNotSignedIn
	}
	if len(data) == 0 {
		return "", ErrNotImage
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotImage, mime)
	}

	uri := EncodeDataURI(mime, data)
	if err := s.images.Set(ctx, ImageKey(userID), uri); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	s.log.DebugContext(ctx, "profile image saved", "user", userID, "type", mime, "bytes", len(data))
	return uri, nil
}

// EncodeDataURI renders data as "data:<mime>;base64,<payload>".
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its media type and payload.
func DecodeDataURI(uri string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data URI")
	}
	mime, ok = strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, errors.New("data URI is not base64")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("malformed data URI: %w", err)
	}
	return mime, data, nil
}
