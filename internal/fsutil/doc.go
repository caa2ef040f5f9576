// Package fsutil holds the filesystem primitives the packaging stages share:
// clean-before-write directories, atomic checksum-verified file replacement
// and recursive copies built on top of it.
package fsutil
