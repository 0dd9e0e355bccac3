package assets

import "errors"

// Sentinel errors for theme loading.
var (
	// ErrThemeNotFound indicates the requested theme does not exist.
	ErrThemeNotFound = errors.New("theme not found")

	// ErrInvalidThemeName indicates a name with path separators, dots or nothing at all.
	ErrInvalidThemeName = errors.New("invalid theme name")

	// ErrInvalidBasePath indicates the theme directory is not a readable directory.
	ErrInvalidBasePath = errors.New("invalid theme directory")

	// ErrThemeRead indicates an I/O error while reading a theme file.
	ErrThemeRead = errors.New("failed to read theme")

	// ErrPathTraversal indicates an attempt to read outside the theme directory.
	ErrPathTraversal = errors.New("path traversal detected")
)
