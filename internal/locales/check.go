package locales

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/OutragedMetro/manjaro-hello/internal/project"
	"github.com/OutragedMetro/manjaro-hello/internal/system"
	"github.com/ubuntu/decorate"
)

// Stats is the completeness report of a single PO file.
type Stats struct {
	Locale       string
	Translated   int
	Fuzzy        int
	Untranslated int
}

// Complete returns true when every message of the catalog is translated.
func (s Stats) Complete() bool {
	return s.Fuzzy == 0 && s.Untranslated == 0
}

var (
	translatedRe   = regexp.MustCompile(`(\d+) translated message`)
	fuzzyRe        = regexp.MustCompile(`(\d+) fuzzy translation`)
	untranslatedRe = regexp.MustCompile(`(\d+) untranslated message`)
)

// Check validates every PO file in strict mode and reports how complete its
// translations are. Validation failures abort with the compiler output; an
// incomplete catalog is not an error, it is visible in the returned stats.
func Check(ctx context.Context, sys system.System, l project.Layout) (stats []Stats, err error) {
	defer decorate.OnError(&err, i18n.G("could not check the translation catalogs"))

	if err := l.Validate(); err != nil {
		return nil, err
	}

	poCandidates, err := os.ReadDir(l.LocaleDir)
	if err != nil {
		return nil, fmt.Errorf("couldn't list content of %q: %v", l.LocaleDir, err)
	}

	for _, f := range poCandidates {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".po") {
			continue
		}

		candidate := filepath.Join(l.LocaleDir, f.Name())
		exe, args := sys.Msgfmt("--check", "--statistics", "--output-file="+os.DevNull, candidate)
		//nolint:gosec // outside of tests, this simply prepends "msgfmt" to the args.
		out, err := exec.CommandContext(ctx, exe, args...).CombinedOutput()
		if err != nil {
			return nil, fmt.Errorf("%q failed validation: %v.\nCommand output: %s", candidate, err, out)
		}

		s := Stats{Locale: strings.TrimSuffix(f.Name(), ".po")}
		for _, c := range []struct {
			re   *regexp.Regexp
			dest *int
		}{
			{translatedRe, &s.Translated},
			{fuzzyRe, &s.Fuzzy},
			{untranslatedRe, &s.Untranslated},
		} {
			m := c.re.FindSubmatch(out)
			if m == nil {
				continue
			}
			n, err := strconv.Atoi(string(m[1]))
			if err != nil {
				return nil, fmt.Errorf("couldn't parse statistics for %q: %v. Output: %s", candidate, err, out)
			}
			*c.dest = n
		}

		stats = append(stats, s)
	}

	return stats, nil
}
