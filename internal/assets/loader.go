package assets

// ThemeNone disables the page stylesheet. Loaders return "" for it.
const ThemeNone = "none"

// DefaultTheme is the built-in theme used when none is configured.
const DefaultTheme = "default"

// ThemeLoader loads a preview stylesheet by name (without .css extension).
type ThemeLoader interface {
	// LoadTheme returns ErrThemeNotFound if the theme doesn't exist and
	// ErrInvalidThemeName if the name could address a path.
	LoadTheme(name string) (string, error)
}
