// Package archive unpacks zip-packaged games. Entries are extracted one at a
// time with progress reported per entry; paths that would land outside the
// destination directory are rejected as corrupt.
package archive
