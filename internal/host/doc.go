// Package host implements the session collaborators for a terminal.
//
// [Files] reads from the local file system and watches paths with fsnotify.
// [Editors] hands out buffers backed by files on disk, plus unsaved buffers
// for text that has no path, and owns one [Gutter] per editor and name.
// A [Gutter] is an in-memory decoration store the CLI renders from.
//
//	files := host.NewFiles(300*time.Millisecond, logger)
//	defer files.Close()
//
//	editors := host.NewEditors(files, logger)
//	id, err := editors.Open(ctx, "Gemfile")
//	...
//	reg := session.NewRegistry(editors.Host())
package host
