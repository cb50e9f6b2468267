// Command keepgen generates opaque-holder facades over keep.Unique /
// keep.Shared.
//
// The PIMPL idiom in Go still involves a paragraph of delegation
// boilerplate per wrapped field: a facade struct holding the holder, a
// constructor, a getter/setter pair per accessor, and the
// ownership-specific operations (Clone/Move for unique, Share/Release for
// shared). keepgen writes that paragraph from a small JSON spec so the
// facade stays mechanically in sync with its spec.
//
// # Usage
//
//	keepgen -spec <file.holder.json> -out <file.gen.go>
//
// Typically driven from the package that owns the implementation type:
//
//	//go:generate go run github.com/sghaida/okeep/cmd/keepgen -spec file.holder.json -out file.gen.go
//
// # Spec schema
//
//	{
//	  "package":    "store",          // package clause of the generated file
//	  "facadeName": "File",           // exported facade type
//	  "implType":   "fileImpl",       // wrapped implementation type (same package)
//	  "ownership":  "unique",         // "unique" or "shared"
//	  "imports":    { "keep": "" },   // optional fallback import path for keep
//	  "accessors": [
//	    { "name": "Path", "field": "path", "type": "string" }
//	  ]
//	}
//
// Each accessor generates a Name() getter and SetName() setter delegating
// through the holder. Ownership "unique" additionally generates Clone and
// Move; "shared" generates Share and Release. Swap is always generated.
//
// # Key behaviors
//
//   - Reads the spec JSON and validates it up front (missing fields,
//     unknown ownership, duplicate accessor names/fields all abort before
//     any output is written).
//   - Locates the "owner" Go file (the file containing the go:generate
//     for cmd/keepgen) in the output directory and reuses its imports, so
//     generated code matches local import style.
//   - Guarantees an import usable as identifier `keep`: the owner file's
//     import if present, the module's keep package otherwise, or
//     spec.imports.keep as an explicit override (useful for forks).
//   - Writes output atomically (temp file + rename) so readers never
//     observe partial generated files.
package main
