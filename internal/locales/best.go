package locales

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/ubuntu/decorate"
	"golang.org/x/text/language"
)

// Best returns the locale whose compiled catalog the application would use,
// based on the user's preferences:
//  1. the locale saved by the application, when its catalog exists;
//  2. the system locale, normalized to the catalog naming convention;
//  3. the bare language of the system locale;
//  4. fallback otherwise.
func Best(moRoot, domain, saved, sysLocale, fallback string) string {
	if saved != "" && catalogExists(moRoot, saved, domain) {
		return saved
	}

	if loc := dirNameForLocale(sysLocale); loc != "" {
		if catalogExists(moRoot, loc, domain) {
			return loc
		}

		// A regional catalog may not exist while the bare language one does
		// (ex: pt-BR -> pt).
		if base := baseLanguage(loc); base != "" && catalogExists(moRoot, base, domain) {
			return base
		}
	}

	return fallback
}

// Installed lists the locales with a compiled catalog under moRoot.
func Installed(moRoot, domain string) (locales []string, err error) {
	defer decorate.OnError(&err, i18n.G("could not list the installed catalogs"))

	entries, err := os.ReadDir(moRoot)
	if err != nil {
		return nil, fmt.Errorf("couldn't list content of %q: %v", moRoot, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if !catalogExists(moRoot, e.Name(), domain) {
			continue
		}
		locales = append(locales, e.Name())
	}

	return locales, nil
}

// catalogExists reports whether the compiled catalog for loc is present.
func catalogExists(moRoot, loc, domain string) bool {
	fi, err := os.Stat(catalogPath(moRoot, loc, domain))
	return err == nil && fi.Mode().IsRegular()
}

// catalogPath is the conventional location of a compiled catalog.
func catalogPath(moRoot, loc, domain string) string {
	return filepath.Join(moRoot, loc, "LC_MESSAGES", domain+".mo")
}

// baseLanguage extracts the bare language from a locale code (pt-BR -> pt),
// preferring the canonical interpretation of the tag when it parses.
func baseLanguage(loc string) string {
	if tag, err := language.Parse(loc); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}

	base, _, _ := strings.Cut(loc, "-")
	return base
}
