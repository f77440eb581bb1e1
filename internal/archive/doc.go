// Package archive builds and extracts snapshot archives.
//
// A snapshot archive is a standard zip file. Every regular file of the source
// tree becomes one Deflate-compressed entry keyed by its forward-slash path
// relative to the tree root; directories are implied by entry names. The
// Deflate codec is github.com/klauspost/compress/flate, which produces and
// reads standard zip streams.
//
// Archives are written to a temp file in the destination directory, fsynced
// and renamed into place, so a visible archive is always complete. Reading
// classifies malformed input as errors.ErrCorruptArchive.
package archive
