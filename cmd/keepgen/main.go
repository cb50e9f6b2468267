// cmd/keepgen/main.go
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
)

// This binary is a code-generation tool.
//
// It reads a JSON specification describing an implementation type and the
// accessors to expose, then generates a facade struct that owns the
// implementation through a keep.Unique or keep.Shared holder.
//
// Key behaviors:
// - Reads spec JSON: package, facadeName, implType, ownership, accessors
// - Locates the "owner" Go file (the file containing the go:generate for cmd/keepgen) in the output directory
// - Reads imports from the owner file and reuses them in the generated file (so generated code matches local style)
// - Ensures an import usable as identifier `keep` (owner import, default module path, or spec.imports.keep)
// - Writes output atomically (temp file + rename) to avoid partial writes

// defaultKeepImport is the holder package generated facades delegate to.
const defaultKeepImport = "github.com/sghaida/okeep/keep"

// Ownership selects which holder backs the generated facade.
const (
	ownershipUnique = "unique"
	ownershipShared = "shared"
)

// Accessor describes one delegated field of the implementation type.
// Each accessor results in a generated <Name>() getter and Set<Name>() setter.
type Accessor struct {
	// Name is used for method naming (<Name>, Set<Name>).
	Name string `json:"name"`

	// Field is the field on the implementation type being delegated to.
	Field string `json:"field"`

	// Type is the Go type of the field.
	Type string `json:"type"`
}

// Imports defines external packages required by the generated code.
//
// Keep is optional: we prefer the owner file's import of the holder
// package, then the module default. It exists as an explicit override for
// forks or vendored copies.
type Imports struct {
	// Optional override import path for the keep holder package.
	Keep string `json:"keep"`
}

// Spec is the full input schema consumed by the generator.
type Spec struct {
	Package string `json:"package"`

	FacadeName string `json:"facadeName"`
	ImplType   string `json:"implType"`

	// Ownership is "unique" (Clone/Move facade) or "shared" (Share/Release
	// facade). Empty defaults to "unique".
	Ownership string `json:"ownership"`

	Imports   Imports    `json:"imports"`
	Accessors []Accessor `json:"accessors"`
}

// ImportSpec models one Go import: optional alias and full import path.
type ImportSpec struct {
	Alias string
	Path  string
}

// templateData is the input passed to the Go template.
type templateData struct {
	Spec        Spec
	ImportsList []ImportSpec
	IsShared    bool
}

// run executes the generator logic and returns an exit code.
// It exists separately from main to allow unit testing without os.Exit.
func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("keepgen", flag.ContinueOnError)
	flags.SetOutput(stderr)

	specPath := flags.String("spec", "", "path to service.holder.json")
	outPath := flags.String("out", "", "output .gen.go file path")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*specPath) == "" || strings.TrimSpace(*outPath) == "" {
		_, _ = fmt.Fprintln(stderr, "usage: keepgen -spec <file.holder.json> -out <file.gen.go>")
		return 2
	}

	specBytes, err := os.ReadFile(*specPath)
	must(err)

	var spec Spec
	must(json.Unmarshal(specBytes, &spec))

	validateSpec(&spec)

	if strings.TrimSpace(spec.Ownership) == "" {
		spec.Ownership = ownershipUnique
	}

	generatedFilePath := filepath.Clean(*outPath)
	packageDir := filepath.Dir(generatedFilePath)

	ownerGoFilePath, err := findOwnerGoGenerateFile(packageDir)
	if err != nil {
		// If we can’t find the owner file, we can still generate.
		// resolveImports falls back to the default keep import path.
		ownerGoFilePath = ""
	}

	importsList := resolveImports(ownerGoFilePath, &spec)

	data := templateData{
		Spec:        spec,
		ImportsList: importsList,
		IsShared:    spec.Ownership == ownershipShared,
	}

	var out strings.Builder
	must(genTemplate.Execute(&out, data))

	must(writeFileAtomic(generatedFilePath, []byte(out.String()), 0o644))
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// validateSpec validates semantic correctness of the input specification.
func validateSpec(spec *Spec) {
	var missingFields []string

	requireNonEmpty := func(fieldName, value string) {
		if strings.TrimSpace(value) == "" {
			missingFields = append(missingFields, fieldName)
		}
	}

	requireNonEmpty("package", spec.Package)
	requireNonEmpty("facadeName", spec.FacadeName)
	requireNonEmpty("implType", spec.ImplType)

	if len(missingFields) > 0 {
		panic(fmt.Errorf("spec missing required fields: %v", missingFields))
	}

	switch strings.TrimSpace(spec.Ownership) {
	case "", ownershipUnique, ownershipShared:
	default:
		panic(fmt.Errorf("ownership must be %q or %q; got: %q", ownershipUnique, ownershipShared, spec.Ownership))
	}

	seenNames := make(map[string]struct{}, len(spec.Accessors))
	seenFields := make(map[string]struct{}, len(spec.Accessors))

	for _, acc := range spec.Accessors {
		if acc.Name == "" || acc.Field == "" || acc.Type == "" {
			panic(fmt.Errorf("each accessor must have name/field/type; got: %+v", acc))
		}
		if _, ok := seenNames[acc.Name]; ok {
			panic(fmt.Errorf("duplicate accessor name: %s", acc.Name))
		}
		if _, ok := seenFields[acc.Field]; ok {
			panic(fmt.Errorf("duplicate accessor field: %s", acc.Field))
		}
		seenNames[acc.Name] = struct{}{}
		seenFields[acc.Field] = struct{}{}
	}
}

// findOwnerGoGenerateFile finds the Go source file in packageDir that contains a go:generate
// directive invoking cmd/keepgen.
//
// This is used to discover the owner file’s imports so generated code matches local style.
func findOwnerGoGenerateFile(packageDir string) (string, error) {
	dirEntries, err := os.ReadDir(packageDir)
	if err != nil {
		return "", err
	}

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}

		fileName := entry.Name()
		if !strings.HasSuffix(fileName, ".go") ||
			strings.HasSuffix(fileName, "_test.go") ||
			strings.HasSuffix(fileName, ".gen.go") {
			continue
		}

		filePath := filepath.Join(packageDir, fileName)
		fileBytes, err := os.ReadFile(filePath)
		if err != nil {
			// Best-effort: unreadable file shouldn’t break generation.
			continue
		}

		if bytes.Contains(fileBytes, []byte("go:generate")) && bytes.Contains(fileBytes, []byte("cmd/keepgen")) {
			return filePath, nil
		}
	}

	return "", fmt.Errorf("could not find owner file with go:generate invoking cmd/keepgen in %s", packageDir)
}

// readImportsFromFile parses imports from a Go file.
func readImportsFromFile(goFilePath string) ([]ImportSpec, error) {
	fileSet := token.NewFileSet()
	parsedFile, err := parser.ParseFile(fileSet, goFilePath, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	var imports []ImportSpec
	for _, importDecl := range parsedFile.Imports {
		importPath := strings.Trim(importDecl.Path.Value, `"`)
		importAlias := ""
		if importDecl.Name != nil {
			importAlias = importDecl.Name.Name
		}
		imports = append(imports, ImportSpec{Alias: importAlias, Path: importPath})
	}

	return imports, nil
}

func ensureImport(imports *[]ImportSpec, required ImportSpec) {
	for _, existing := range *imports {
		if existing.Path == required.Path {
			// Don’t duplicate the path; keep existing alias as-is.
			return
		}
	}
	*imports = append(*imports, required)
}

func containsAlias(imports []ImportSpec, alias string) bool {
	for _, existing := range imports {
		if existing.Alias == alias && alias != "" {
			return true
		}
	}
	return false
}

func importDefaultIdent(importPath string) string {
	// Import paths always use forward slashes, even on Windows.
	return path.Base(strings.TrimSpace(importPath))
}

// hasUsableKeepIdent returns true if generated code can refer to
// `keep.Unique` / `keep.Shared` with the imports currently present.
func hasUsableKeepIdent(imports []ImportSpec) bool {
	// Explicit alias keep "..."
	if containsAlias(imports, "keep") {
		return true
	}
	// Default identifier is the base of the import path if Alias == "".
	for _, imp := range imports {
		if imp.Alias == "" && importDefaultIdent(imp.Path) == "keep" {
			return true
		}
	}
	return false
}

// resolveImports builds the final imports list for the generated file.
//
// Rules:
// - Prefer imports from owner file, if available
// - Guarantee a usable `keep` identifier:
//   - Explicit alias `keep "..."`, OR
//   - default import name is `keep` (import path base == "keep"), OR
//   - spec.imports.keep imported as `keep "..."` when set, OR
//   - the module default keep package otherwise.
func resolveImports(ownerFilePath string, spec *Spec) []ImportSpec {
	// Start with owner imports, best-effort.
	var importsFromOwner []ImportSpec
	if strings.TrimSpace(ownerFilePath) != "" {
		parsedOwnerImports, err := readImportsFromFile(ownerFilePath)
		if err == nil {
			importsFromOwner = parsedOwnerImports
		}
		// If parsing fails, fall back to the default keep import below.
	}

	finalImports := make([]ImportSpec, 0, len(importsFromOwner)+1)
	finalImports = append(finalImports, importsFromOwner...)

	if hasUsableKeepIdent(finalImports) {
		return finalImports
	}

	keepImportPath := strings.TrimSpace(spec.Imports.Keep)
	if keepImportPath == "" {
		keepImportPath = defaultKeepImport
	}

	if importDefaultIdent(keepImportPath) == "keep" {
		ensureImport(&finalImports, ImportSpec{Path: keepImportPath})
	} else {
		// Explicit alias so generated code can reference keep.Unique/keep.Shared.
		ensureImport(&finalImports, ImportSpec{Alias: "keep", Path: keepImportPath})
	}
	return finalImports
}

// genTemplate is the Go source template used to generate the facade code.
var genTemplate = template.Must(
	template.New("keepgen").Parse(`// Code generated by keepgen; DO NOT EDIT.

package {{.Spec.Package}}

import (
{{range .ImportsList}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}}
)

// {{.Spec.FacadeName}} is a public facade owning a {{.Spec.ImplType}}
// through a {{if .IsShared}}shared{{else}}unique{{end}} keep holder.
type {{.Spec.FacadeName}} struct {
	impl keep.{{if .IsShared}}Shared{{else}}Unique{{end}}[{{.Spec.ImplType}}]
}

func New{{.Spec.FacadeName}}(impl {{.Spec.ImplType}}) {{.Spec.FacadeName}} {
	return {{.Spec.FacadeName}}{
		impl: keep.New{{if .IsShared}}Shared{{else}}Unique{{end}}(impl),
	}
}

{{- range .Spec.Accessors}}

func (f *{{$.Spec.FacadeName}}) {{.Name}}() {{.Type}} {
	return f.impl.MustGet().{{.Field}}
}

func (f *{{$.Spec.FacadeName}}) Set{{.Name}}(v {{.Type}}) {
	f.impl.MustGet().{{.Field}} = v
}
{{- end}}

{{- if .IsShared}}

func (f *{{.Spec.FacadeName}}) Share() {{.Spec.FacadeName}} {
	return {{.Spec.FacadeName}}{impl: f.impl.Share()}
}

func (f *{{.Spec.FacadeName}}) Release() error {
	return f.impl.Release()
}
{{- else}}

func (f *{{.Spec.FacadeName}}) Clone() {{.Spec.FacadeName}} {
	return {{.Spec.FacadeName}}{impl: f.impl.Clone()}
}

func (f *{{.Spec.FacadeName}}) Move() {{.Spec.FacadeName}} {
	return {{.Spec.FacadeName}}{impl: f.impl.Move()}
}
{{- end}}

func (f *{{.Spec.FacadeName}}) Swap(o *{{.Spec.FacadeName}}) {
	f.impl.Swap(&o.impl)
}
`),
)

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes a file atomically.
//
// It writes to a temporary file in the same directory and then renames it
// over the target path, ensuring readers never observe partial writes.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	targetDir := filepath.Dir(targetPath)

	tmpFile, err := createTempFile(targetDir, filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	if err = renameFile(tmpPath, targetPath); err != nil {
		return err
	}
	return nil
}

// must panics if err is non-nil.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
