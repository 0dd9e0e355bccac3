// Package assets provides the page stylesheets ("themes") of HTML previews.
//
// # Loader Architecture
//
//	ThemeLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in themes compiled in with go:embed
//	    ├── FilesystemLoader  - {name}.css files from a directory on disk
//	    └── Resolver          - custom directory first, embedded fallback
//
// A custom directory can override one built-in theme and leave the others
// in place.
//
// # Security
//
// Theme names are validated so they cannot name a path. FilesystemLoader
// resolves symlinks and verifies every file stays within its directory.
package assets
