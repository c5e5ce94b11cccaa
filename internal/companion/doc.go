// Package companion keeps the per-directory movie.xml in step with the date
// derived from the sidecar.
//
// The document is loaded as a generic element tree so unknown structure
// survives the round trip. Only the first Added element found depth-first
// (the root included) is touched; when none exists one is appended under the
// root, and a missing file is created with a bare root element.
package companion
