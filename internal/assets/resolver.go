package assets

import "errors"

// Resolver loads themes from a custom directory first and falls back to
// the built-in themes when the custom directory lacks one.
type Resolver struct {
	custom   ThemeLoader // nil without a custom directory
	embedded ThemeLoader
}

// Compile-time interface check.
var _ ThemeLoader = (*Resolver)(nil)

// NewResolver creates a Resolver. An empty customDir uses only the built-in
// themes; an invalid one is an error.
func NewResolver(customDir string) (*Resolver, error) {
	r := &Resolver{embedded: NewEmbeddedLoader()}
	if customDir != "" {
		fsLoader, err := NewFilesystemLoader(customDir)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}
	return r, nil
}

// LoadTheme loads name, trying the custom directory first.
func (r *Resolver) LoadTheme(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadTheme(name)
	}

	css, err := r.custom.LoadTheme(name)
	if err == nil {
		return css, nil
	}
	// Only a missing file falls back; validation and I/O errors surface.
	if !errors.Is(err, ErrThemeNotFound) {
		return "", err
	}
	return r.embedded.LoadTheme(name)
}

// HasCustomLoader reports whether a custom directory is configured.
func (r *Resolver) HasCustomLoader() bool {
	return r.custom != nil
}
