// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - SQLite dataset import, file watching, background music
// 0.2.0 - Oversampled terminator mask, dark-side texture, face shading
// 0.1.0 - Initial release: CSV phase lookup, half-block terminal moon
