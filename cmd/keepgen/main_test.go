package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// must()
// -----------------------------------------------------------------------------

func TestMust_PanicsOnError(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() { must(nil) })
	require.PanicsWithError(t, "boom", func() { must(errors.New("boom")) })
}

//
// -----------------------------------------------------------------------------
// validateSpec()
// -----------------------------------------------------------------------------

func validSpec() Spec {
	return Spec{
		Package:    "store",
		FacadeName: "File",
		ImplType:   "fileImpl",
		Ownership:  ownershipUnique,
		Accessors: []Accessor{
			{Name: "Path", Field: "path", Type: "string"},
		},
	}
}

func TestValidateSpec_OK(t *testing.T) {
	t.Parallel()

	spec := validSpec()
	require.NotPanics(t, func() { validateSpec(&spec) })

	// No accessors is fine: a facade can be pure ownership plumbing.
	spec = validSpec()
	spec.Accessors = nil
	require.NotPanics(t, func() { validateSpec(&spec) })

	// Empty ownership defaults later; validation accepts it.
	spec = validSpec()
	spec.Ownership = ""
	require.NotPanics(t, func() { validateSpec(&spec) })
}

func TestValidateSpec_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Spec)
		wantSub string
	}{
		{
			name:    "missing package",
			mutate:  func(s *Spec) { s.Package = " " },
			wantSub: "spec missing required fields",
		},
		{
			name:    "missing facadeName",
			mutate:  func(s *Spec) { s.FacadeName = "" },
			wantSub: "spec missing required fields",
		},
		{
			name:    "missing implType",
			mutate:  func(s *Spec) { s.ImplType = "" },
			wantSub: "spec missing required fields",
		},
		{
			name:    "bad ownership",
			mutate:  func(s *Spec) { s.Ownership = "borrowed" },
			wantSub: "ownership must be",
		},
		{
			name: "accessor missing field",
			mutate: func(s *Spec) {
				s.Accessors = []Accessor{{Name: "Path", Type: "string"}}
			},
			wantSub: "each accessor must have name/field/type",
		},
		{
			name: "duplicate accessor name",
			mutate: func(s *Spec) {
				s.Accessors = []Accessor{
					{Name: "Path", Field: "path", Type: "string"},
					{Name: "Path", Field: "other", Type: "string"},
				}
			},
			wantSub: "duplicate accessor name: Path",
		},
		{
			name: "duplicate accessor field",
			mutate: func(s *Spec) {
				s.Accessors = []Accessor{
					{Name: "Path", Field: "path", Type: "string"},
					{Name: "FullPath", Field: "path", Type: "string"},
				}
			},
			wantSub: "duplicate accessor field: path",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			spec := validSpec()
			tc.mutate(&spec)
			mustPanicContains(t, tc.wantSub, func() { validateSpec(&spec) })
		})
	}
}

//
// -----------------------------------------------------------------------------
// findOwnerGoGenerateFile()
// -----------------------------------------------------------------------------

func TestFindOwnerGoGenerateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Distractors: test file, generated file, unrelated file.
	writeTempFile(t, dir, "x_test.go", "package store\n//go:generate go run cmd/keepgen\n", 0o644)
	writeTempFile(t, dir, "x.gen.go", "package store\n//go:generate go run cmd/keepgen\n", 0o644)
	writeTempFile(t, dir, "plain.go", "package store\n", 0o644)

	_, err := findOwnerGoGenerateFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not find owner file")

	owner := writeTempFile(t, dir, "file.go",
		"package store\n\n//go:generate go run github.com/sghaida/okeep/cmd/keepgen -spec file.holder.json -out file.gen.go\n",
		0o644)

	got, err := findOwnerGoGenerateFile(dir)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestFindOwnerGoGenerateFile_BadDir(t *testing.T) {
	t.Parallel()

	_, err := findOwnerGoGenerateFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

//
// -----------------------------------------------------------------------------
// readImportsFromFile() / import helpers
// -----------------------------------------------------------------------------

func TestReadImportsFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeTempFile(t, dir, "owner.go", `package store

import (
	"fmt"
	k "github.com/sghaida/okeep/keep"
)

var _ = fmt.Sprint
var _ k.Slot[int]
`, 0o644)

	imports, err := readImportsFromFile(p)
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, ImportSpec{Path: "fmt"}, imports[0])
	assert.Equal(t, ImportSpec{Alias: "k", Path: "github.com/sghaida/okeep/keep"}, imports[1])
}

func TestReadImportsFromFile_ParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeTempFile(t, dir, "broken.go", "not go source", 0o644)

	_, err := readImportsFromFile(p)
	require.Error(t, err)
}

func TestEnsureImport_NoDuplicatePaths(t *testing.T) {
	t.Parallel()

	imports := []ImportSpec{{Alias: "k", Path: defaultKeepImport}}
	ensureImport(&imports, ImportSpec{Path: defaultKeepImport})

	require.Len(t, imports, 1)
	assert.Equal(t, "k", imports[0].Alias)
}

func TestHasUsableKeepIdent(t *testing.T) {
	t.Parallel()

	assert.False(t, hasUsableKeepIdent(nil))
	assert.False(t, hasUsableKeepIdent([]ImportSpec{{Path: "fmt"}}))

	// Default ident from path base.
	assert.True(t, hasUsableKeepIdent([]ImportSpec{{Path: defaultKeepImport}}))

	// Explicit alias wins regardless of path base.
	assert.True(t, hasUsableKeepIdent([]ImportSpec{{Alias: "keep", Path: "example.com/fork/holders"}}))

	// Aliased away: the default ident no longer applies.
	assert.False(t, hasUsableKeepIdent([]ImportSpec{{Alias: "k", Path: defaultKeepImport}}))
}

//
// -----------------------------------------------------------------------------
// resolveImports()
// -----------------------------------------------------------------------------

func TestResolveImports(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("no owner file falls back to default keep import", func(t *testing.T) {
		t.Parallel()

		spec := validSpec()
		imports := resolveImports("", &spec)
		require.Len(t, imports, 1)
		assert.Equal(t, ImportSpec{Path: defaultKeepImport}, imports[0])
	})

	t.Run("owner file already imports keep", func(t *testing.T) {
		t.Parallel()

		owner := writeTempFile(t, dir, "owner_keep.go", `package store

import "github.com/sghaida/okeep/keep"

var _ keep.Slot[int]
`, 0o644)

		spec := validSpec()
		imports := resolveImports(owner, &spec)
		require.Len(t, imports, 1)
		assert.Equal(t, defaultKeepImport, imports[0].Path)
	})

	t.Run("spec override is imported with explicit alias when needed", func(t *testing.T) {
		t.Parallel()

		spec := validSpec()
		spec.Imports.Keep = "example.com/fork/holders"

		imports := resolveImports("", &spec)
		require.Len(t, imports, 1)
		assert.Equal(t, ImportSpec{Alias: "keep", Path: "example.com/fork/holders"}, imports[0])
	})

	t.Run("unparseable owner file falls back to default", func(t *testing.T) {
		t.Parallel()

		owner := writeTempFile(t, dir, "owner_broken.go", "not go source", 0o644)

		spec := validSpec()
		imports := resolveImports(owner, &spec)
		require.Len(t, imports, 1)
		assert.Equal(t, defaultKeepImport, imports[0].Path)
	})
}

//
// -----------------------------------------------------------------------------
// run() end to end
// -----------------------------------------------------------------------------

func TestRun_UsageAndFlagErrors(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stderr))
	assert.Contains(t, stderr.String(), "usage: keepgen")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"-bogus"}, &stderr))
}

func TestRun_GeneratesUniqueFacade(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	specPath := writeTempFile(t, dir, "file.holder.json", string(minimalSpecJSON()), 0o644)
	outPath := filepath.Join(dir, "file.gen.go")

	var stderr bytes.Buffer
	code := run([]string{"-spec", specPath, "-out", outPath}, &stderr)
	require.Equal(t, 0, code, stderr.String())

	generated := readFileString(t, outPath)

	assert.Contains(t, generated, "// Code generated by keepgen; DO NOT EDIT.")
	assert.Contains(t, generated, "package store")
	assert.Contains(t, generated, `"`+defaultKeepImport+`"`)
	assert.Contains(t, generated, "impl keep.Unique[fileImpl]")
	assert.Contains(t, generated, "func NewFile(impl fileImpl) File")
	assert.Contains(t, generated, "keep.NewUnique(impl)")
	assert.Contains(t, generated, "func (f *File) Path() string")
	assert.Contains(t, generated, "func (f *File) SetPath(v string)")
	assert.Contains(t, generated, "func (f *File) Clone() File")
	assert.Contains(t, generated, "func (f *File) Move() File")
	assert.Contains(t, generated, "func (f *File) Swap(o *File)")
	assert.NotContains(t, generated, "Share()")
	assert.NotContains(t, generated, "Release()")
}

func TestRun_GeneratesSharedFacade(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	specPath := writeTempFile(t, dir, "blob.holder.json", string(sharedSpecJSON()), 0o644)
	outPath := filepath.Join(dir, "blob.gen.go")

	var stderr bytes.Buffer
	code := run([]string{"-spec", specPath, "-out", outPath}, &stderr)
	require.Equal(t, 0, code, stderr.String())

	generated := readFileString(t, outPath)

	assert.Contains(t, generated, "impl keep.Shared[blobImpl]")
	assert.Contains(t, generated, "keep.NewShared(impl)")
	assert.Contains(t, generated, "func (f *Blob) Share() Blob")
	assert.Contains(t, generated, "func (f *Blob) Release() error")
	assert.NotContains(t, generated, "Clone()")
	assert.NotContains(t, generated, "Move()")
}

func TestRun_ReusesOwnerFileImports(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTempFile(t, dir, "file.go", `package store

//go:generate go run github.com/sghaida/okeep/cmd/keepgen -spec file.holder.json -out file.gen.go

import (
	"time"

	"github.com/sghaida/okeep/keep"
)

var _ keep.Slot[time.Time]
`, 0o644)

	specPath := writeTempFile(t, dir, "file.holder.json", string(minimalSpecJSON()), 0o644)
	outPath := filepath.Join(dir, "file.gen.go")

	var stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-spec", specPath, "-out", outPath}, &stderr))

	generated := readFileString(t, outPath)
	assert.Contains(t, generated, `"time"`)
	// keep import appears once, from the owner file.
	assert.Equal(t, 1, strings.Count(generated, defaultKeepImport))
}

func TestRun_BadSpecJSONPanics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	specPath := writeTempFile(t, dir, "bad.holder.json", "{not json", 0o644)
	outPath := filepath.Join(dir, "out.gen.go")

	var stderr bytes.Buffer
	require.Panics(t, func() {
		_ = run([]string{"-spec", specPath, "-out", outPath}, &stderr)
	})
}

func TestRun_MissingSpecFilePanics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var stderr bytes.Buffer
	require.Panics(t, func() {
		_ = run([]string{"-spec", filepath.Join(dir, "nope.json"), "-out", filepath.Join(dir, "out.gen.go")}, &stderr)
	})
}

//
// -----------------------------------------------------------------------------
// writeFileAtomic()
// -----------------------------------------------------------------------------

// Covers every writeFileAtomic error branch, including deferred cleanup:
// - createTempFile failure
// - Write failure triggers Close + deferred remove
// - Close failure triggers deferred remove
// - chmod failure triggers deferred remove
// - rename failure triggers deferred remove
func TestWriteFileAtomic_AllErrorBranches(t *testing.T) {
	// NOT parallel: mutates global seams.

	type seamOverrides struct {
		createTemp func(dir, pattern string) (tempFile, error)
		removeTmp  func(path string) error
		chmodTmp   func(path string, mode os.FileMode) error
		renameTmp  func(oldpath, newpath string) error
	}

	testCases := []struct {
		name                 string
		seams                seamOverrides
		expectedErrSubstring string
		expectedRemoveCount  int
	}{
		{
			name: "create temp error",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return nil, errors.New("create temp failed")
				},
			},
			expectedErrSubstring: "create temp failed",
			expectedRemoveCount:  0,
		},
		{
			name: "write error closes and removes temp via deferred cleanup",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return &fakeTempFile{
						fileName: filepath.Join(dir, "tmpfile"),
						writeErr: errors.New("write failed"),
					}, nil
				},
				removeTmp: func(path string) error { return nil },
			},
			expectedErrSubstring: "write failed",
			expectedRemoveCount:  1,
		},
		{
			name: "close error removes temp via deferred cleanup",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return &fakeTempFile{
						fileName: filepath.Join(dir, "tmpfile"),
						closeErr: errors.New("close failed"),
					}, nil
				},
				removeTmp: func(path string) error { return nil },
			},
			expectedErrSubstring: "close failed",
			expectedRemoveCount:  1,
		},
		{
			name: "chmod error removes temp via deferred cleanup",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return &fakeTempFile{fileName: filepath.Join(dir, "tmpfile")}, nil
				},
				chmodTmp:  func(path string, mode os.FileMode) error { return errors.New("chmod failed") },
				removeTmp: func(path string) error { return nil },
			},
			expectedErrSubstring: "chmod failed",
			expectedRemoveCount:  1,
		},
		{
			name: "rename error removes temp via deferred cleanup",
			seams: seamOverrides{
				createTemp: func(dir, pattern string) (tempFile, error) {
					return &fakeTempFile{fileName: filepath.Join(dir, "tmpfile")}, nil
				},
				chmodTmp:  func(path string, mode os.FileMode) error { return nil },
				renameTmp: func(oldpath, newpath string) error { return errors.New("rename failed") },
				removeTmp: func(path string) error { return nil },
			},
			expectedErrSubstring: "rename failed",
			expectedRemoveCount:  1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			origCreate, origRemove, origChmod, origRename := snapWriteSeams(t)
			t.Cleanup(func() {
				createTempFile = origCreate
				removeFile = origRemove
				chmodFile = origChmod
				renameFile = origRename
			})

			removeCount := 0
			removeFn := tc.seams.removeTmp
			if removeFn != nil {
				inner := removeFn
				removeFn = func(path string) error {
					removeCount++
					return inner(path)
				}
			}

			setWriteSeams(t, tc.seams.createTemp, removeFn, tc.seams.chmodTmp, tc.seams.renameTmp)

			err := writeFileAtomic(filepath.Join(t.TempDir(), "out.gen.go"), []byte("data"), 0o644)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrSubstring)
			assert.Equal(t, tc.expectedRemoveCount, removeCount)
		})
	}
}

func TestWriteFileAtomic_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "out.gen.go")

	require.NoError(t, writeFileAtomic(target, []byte("package store\n"), 0o644))
	assert.Equal(t, "package store\n", readFileString(t, target))

	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
