package avatars

import "errors"

var (
	// ErrUnsupportedImage indicates the fetched content is not a usable image.
	ErrUnsupportedImage = errors.New("unsupported avatar image")
	// ErrImageTooLarge indicates the remote image exceeds the configured size limit.
	ErrImageTooLarge = errors.New("avatar image too large")
)
