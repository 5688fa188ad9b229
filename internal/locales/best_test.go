package locales_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OutragedMetro/manjaro-hello/internal/locales"
	"github.com/stretchr/testify/require"
)

const testDomain = "manjaro-hello"

func TestBest(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		catalogs  []string
		saved     string
		sysLocale string

		want string
	}{
		"Saved locale wins":                   {catalogs: []string{"fr", "de"}, saved: "fr", sysLocale: "de_DE", want: "fr"},
		"Saved locale needs its catalog":      {catalogs: []string{"de"}, saved: "fr", sysLocale: "de_DE", want: "de"},
		"System locale normalized to hyphens": {catalogs: []string{"pt-BR"}, sysLocale: "pt_BR", want: "pt-BR"},
		"Bare language of the system locale":  {catalogs: []string{"pt"}, sysLocale: "pt_BR", want: "pt"},
		"Exact system locale":                 {catalogs: []string{"fr"}, sysLocale: "fr", want: "fr"},

		"Fallback when no catalog matches": {catalogs: []string{"de"}, sysLocale: "fr_FR", want: "en"},
		"Fallback without catalogs":        {sysLocale: "fr_FR", want: "en"},
		"Fallback on an empty environment": {catalogs: []string{"de"}, want: "en"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			moRoot := t.TempDir()
			for _, loc := range tc.catalogs {
				writeCatalog(t, moRoot, loc)
			}

			got := locales.Best(moRoot, testDomain, tc.saved, tc.sysLocale, "en")
			require.Equal(t, tc.want, got, "Unexpected locale selection")
		})
	}
}

func TestInstalled(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		catalogs   []string
		emptyDirs  []string
		strayFiles []string
		noRoot     bool

		want    []string
		wantErr bool
	}{
		"Lists every compiled locale":           {catalogs: []string{"fr", "pt-BR"}, want: []string{"fr", "pt-BR"}},
		"Ignores directories without a catalog": {catalogs: []string{"fr"}, emptyDirs: []string{"ru"}, want: []string{"fr"}},
		"Ignores stray files":                   {catalogs: []string{"fr"}, strayFiles: []string{"notes.txt"}, want: []string{"fr"}},
		"Empty output root":                     {},

		"Error when the output root does not exist": {noRoot: true, wantErr: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			moRoot := t.TempDir()
			if tc.noRoot {
				moRoot = filepath.Join(moRoot, "missing")
			}
			for _, loc := range tc.catalogs {
				writeCatalog(t, moRoot, loc)
			}
			for _, d := range tc.emptyDirs {
				require.NoError(t, os.MkdirAll(filepath.Join(moRoot, d), 0700), "Setup: could not create empty dir")
			}
			for _, f := range tc.strayFiles {
				require.NoError(t, os.WriteFile(filepath.Join(moRoot, f), []byte("stray"), 0600), "Setup: could not write stray file")
			}

			got, err := locales.Installed(moRoot, testDomain)
			if tc.wantErr {
				require.Error(t, err, "Installed should have failed")
				return
			}
			require.NoError(t, err, "Installed should succeed")
			require.ElementsMatch(t, tc.want, got, "Unexpected list of compiled locales")
		})
	}
}

// writeCatalog drops a compiled catalog for loc under moRoot.
func writeCatalog(t *testing.T, moRoot, loc string) {
	t.Helper()

	dir := filepath.Join(moRoot, loc, "LC_MESSAGES")
	require.NoError(t, os.MkdirAll(dir, 0700), "Setup: could not create catalog dir")
	require.NoError(t, os.WriteFile(filepath.Join(dir, testDomain+".mo"), []byte("catalog"), 0600), "Setup: could not write catalog")
}
