// Package ruby reads the two Bundler file roles: the Gemfile manifest and
// its resolved Gemfile.lock.
//
// # Lock files
//
// [ParseLockfile] turns lock-file text into a [Versions] mapping:
//
//	versions := ruby.ParseLockfile(text)
//	versions["rails"] // "6.1.0"
//
// Parsing is best-effort. Lines that do not look like `name (version)` are
// skipped, so the function never fails.
//
// # Manifests
//
// [ScanGemfile] classifies every physical line of a buffer as a gem
// declaration, a block terminator (`end`) or anything else:
//
//	for _, l := range ruby.ScanGemfile(text, ruby.ModeManifest) {
//	    if l.Kind == ruby.Declaration {
//	        fmt.Println(l.Index, l.Name, l.Column)
//	    }
//	}
//
// The scan mode is always chosen by the caller. [ModeManifest] matches
// `gem "name"` lines; [ModeLock] matches the indented `name (version)` spec
// entries of a lock file, so annotations also work when the lock file
// itself is open. [ModeFor] picks the mode from a file path.
package ruby
