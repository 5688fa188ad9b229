package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OutragedMetro/manjaro-hello/internal/project"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	// Subtests change the working directory: no parallelism here.

	// Unique enough that no ancestor of the temp dir accidentally contains it.
	const marker = "po-layout-for-tests"

	tests := map[string]struct {
		explicitDir  string
		explicitFile bool
		markerDirs   []string
		cwd          string

		wantRoot string
		wantErr  bool
	}{
		"Explicit directory":                 {explicitDir: "project", wantRoot: "project"},
		"Explicit directory ignores markers": {explicitDir: "project", markerDirs: []string{marker}, cwd: ".", wantRoot: "project"},
		"Marker in the working directory":    {markerDirs: []string{marker}, cwd: ".", wantRoot: "."},
		"Marker above the working directory": {markerDirs: []string{marker, "src/pages"}, cwd: "src/pages", wantRoot: "."},

		"Error when the explicit directory does not exist": {explicitDir: "missing", wantErr: true},
		"Error when the explicit directory is a file":      {explicitDir: "file", explicitFile: true, wantErr: true},
		"Error without a marker above":                     {cwd: ".", wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			tmp := t.TempDir()

			require.NoError(t, os.MkdirAll(filepath.Join(tmp, "project"), 0700), "Setup: could not create project dir")
			if tc.explicitFile {
				require.NoError(t, os.WriteFile(filepath.Join(tmp, "file"), nil, 0600), "Setup: could not write file")
			}
			for _, d := range tc.markerDirs {
				require.NoError(t, os.MkdirAll(filepath.Join(tmp, d), 0700), "Setup: could not create marker dir")
			}

			if tc.cwd != "" {
				chdir(t, filepath.Join(tmp, tc.cwd))
			}

			var dir string
			if tc.explicitDir != "" {
				dir = filepath.Join(tmp, tc.explicitDir)
			}

			got, err := project.FindRoot(dir, marker)
			if tc.wantErr {
				require.Error(t, err, "FindRoot should have failed")
				return
			}
			require.NoError(t, err, "FindRoot should succeed")

			want, err := filepath.EvalSymlinks(filepath.Join(tmp, tc.wantRoot))
			require.NoError(t, err, "Setup: could not resolve expected root")
			gotResolved, err := filepath.EvalSymlinks(got)
			require.NoError(t, err, "FindRoot should return an existing directory")
			require.Equal(t, want, gotResolved, "Unexpected project root")
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		emptyFields []string

		wantErr bool
	}{
		"Complete layout": {},

		"Error on empty root":       {emptyFields: []string{"root"}, wantErr: true},
		"Error on empty domain":     {emptyFields: []string{"domain"}, wantErr: true},
		"Error on empty pot file":   {emptyFields: []string{"pot"}, wantErr: true},
		"Error on empty locale dir": {emptyFields: []string{"localedir"}, wantErr: true},
		"Error on empty mo dir":     {emptyFields: []string{"modir"}, wantErr: true},
		"Error lists every problem": {emptyFields: []string{"domain", "modir"}, wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := project.Layout{
				Root:      "/project",
				Domain:    "manjaro-hello",
				PotFile:   "/project/po/manjaro-hello.pot",
				LocaleDir: "/project/po",
				MoDir:     "/project/locale",
			}
			for _, f := range tc.emptyFields {
				switch f {
				case "root":
					l.Root = ""
				case "domain":
					l.Domain = ""
				case "pot":
					l.PotFile = ""
				case "localedir":
					l.LocaleDir = ""
				case "modir":
					l.MoDir = ""
				}
			}

			err := l.Validate()
			if !tc.wantErr {
				require.NoError(t, err, "Validate should accept a complete layout")
				return
			}
			require.Error(t, err, "Validate should have failed")
			require.Equal(t, len(tc.emptyFields), strings.Count(err.Error(), "\n")+1, "Every empty parameter should be reported")
		})
	}
}

func TestResolvePaths(t *testing.T) {
	t.Parallel()

	l := project.Layout{
		Root:       "/project",
		Domain:     "manjaro-hello",
		PotFile:    "po/manjaro-hello.pot",
		LocaleDir:  "po",
		MoDir:      "/somewhere/else",
		AppEntry:   "src/manjaro_hello.py",
		SearchPath: "src",
	}

	l.ResolvePaths()

	require.Equal(t, "/project/po/manjaro-hello.pot", l.PotFile, "Relative paths should resolve under the root")
	require.Equal(t, "/project/po", l.LocaleDir, "Relative paths should resolve under the root")
	require.Equal(t, "/somewhere/else", l.MoDir, "Absolute paths should not change")
	require.Equal(t, "/project/src/manjaro_hello.py", l.AppEntry, "Relative paths should resolve under the root")
	require.Equal(t, "/project/src", l.SearchPath, "Relative paths should resolve under the root")
	require.Empty(t, l.Preferences, "Empty paths should stay empty")
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()

	orig, err := os.Getwd()
	require.NoError(t, err, "Setup: could not get the working directory")
	require.NoError(t, os.Chdir(dir), "Setup: could not change the working directory")
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatalf("Teardown: could not restore the working directory: %v", err)
		}
	})
}
