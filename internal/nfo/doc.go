// Package nfo rewrites the dateadded and mpaa tags of movie sidecar files.
//
// Sidecars are treated as text, not XML: tags are located with lazy
// <tag>...</tag> pattern matches and edited in place so the rest of the file
// is preserved byte for byte. The release date comes from <releasedate>, or
// <premiered> when the former is absent or blank. Every run overwrites the
// first <dateadded> with "<date> <fixed time>" and drops any duplicates, so
// processing a file twice yields the same bytes.
package nfo
