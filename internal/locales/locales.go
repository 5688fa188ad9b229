// Package locales regenerates the compiled catalogs of the application and
// keeps its translation sources up to date, shelling out to the gettext
// toolchain for the heavy lifting.
package locales

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/OutragedMetro/manjaro-hello/internal/project"
	"github.com/OutragedMetro/manjaro-hello/internal/system"
	log "github.com/sirupsen/logrus"
	"github.com/ubuntu/decorate"
)

// GenerateMo rebuilds the compiled catalog tree from scratch: the output root is
// destroyed and recreated, then every PO file in the locale directory is
// compiled in strict check mode into <mo-dir>/<locale>/LC_MESSAGES/<domain>.mo,
// with underscores in the locale code replaced by hyphens in the directory name.
// It returns the directory names of the compiled locales.
func GenerateMo(ctx context.Context, sys system.System, l project.Layout) (compiled []string, err error) {
	defer decorate.OnError(&err, i18n.G("could not generate the compiled catalogs"))

	if err := l.Validate(); err != nil {
		return nil, err
	}

	if err := cleanDirectory(l.MoDir); err != nil {
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
		loc := dirNameForLocale(strings.TrimSuffix(f.Name(), ".po"))

		outDir := filepath.Join(l.MoDir, loc, "LC_MESSAGES")
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return nil, fmt.Errorf("couldn't create %q: %v", outDir, err)
		}

		exe, args := sys.Msgfmt("--check",
			"--output-file="+filepath.Join(outDir, l.Domain+".mo"),
			candidate)
		//nolint:gosec // outside of tests, this simply prepends "msgfmt" to the args.
		if out, err := exec.CommandContext(ctx, exe, args...).CombinedOutput(); err != nil {
			return nil, fmt.Errorf("couldn't compile mo file from %q: %v.\nCommand output: %s", candidate, err, out)
		}

		log.Debugf("Compiled catalog for locale %q", loc)
		compiled = append(compiled, loc)
	}

	return compiled, nil
}

// CreatePo creates new PO files from the POT template for the provided locales.
// Locales with an existing PO file are skipped.
func CreatePo(ctx context.Context, sys system.System, l project.Layout, locales ...string) (err error) {
	defer decorate.OnError(&err, i18n.G("could not create po files"))

	if err := l.Validate(); err != nil {
		return err
	}

	if _, err := os.Stat(l.PotFile); err != nil {
		return fmt.Errorf("%q can't be read: %v", l.PotFile, err)
	}

	if len(locales) == 0 {
		return errors.New("no locales provided")
	}

	for _, loc := range locales {
		pofile := filepath.Join(l.LocaleDir, loc+".po")
		if _, err := os.Stat(pofile); err == nil {
			log.Warningf("Skipping %q as it already exists. Please use update-po to refresh it or delete it first.", loc)
			continue
		}

		exe, args := sys.Msginit(
			"--input="+l.PotFile,
			"--locale="+loc+".UTF-8",
			"--no-translator",
			"--output="+pofile)
		//nolint:gosec // outside of tests, this simply prepends "msginit" to the args.
		if out, err := exec.CommandContext(ctx, exe, args...).CombinedOutput(); err != nil {
			return fmt.Errorf("couldn't create %q: %v.\nCommand output: %s", pofile, err, out)
		}
	}

	return nil
}

// UpdatePo regenerates the POT template from the project sources and refreshes
// every existing PO file against it. The POT-Creation-Date of regenerated files
// is preserved so that refreshes without content changes stay diff-free.
func UpdatePo(ctx context.Context, sys system.System, l project.Layout) (err error) {
	defer decorate.OnError(&err, i18n.G("could not update po files"))

	if err := l.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(l.LocaleDir, 0755); err != nil {
		return fmt.Errorf("couldn't create directory for %q: %v", l.LocaleDir, err)
	}

	files, err := translatableFiles(l.Root, l.Sources, l.MoDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no source files matching %q under %q", l.Sources, l.Root)
	}

	// If the pot already existed: extract its creation date to keep it (xgettext always updates it).
	var potcreation string
	if _, err := os.Stat(l.PotFile); err == nil {
		if potcreation, err = getPOTCreationDate(l.PotFile); err != nil {
			return err
		}
	}

	args := append([]string{
		"--keyword=_", "--keyword=N_:1,2", "--add-comments", "--sort-output",
		"--package-name=" + strings.TrimSuffix(filepath.Base(l.PotFile), ".pot"),
		"-D", l.Root,
		"--output=" + l.PotFile,
	}, files...)
	exe, args := sys.Xgettext(args...)
	//nolint:gosec // outside of tests, this simply prepends "xgettext" to the args.
	if out, err := exec.CommandContext(ctx, exe, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("couldn't compile pot file: %v\nCommand output: %s", err, out)
	}

	if potcreation != "" {
		if err := rewritePOTCreationDate(potcreation, l.PotFile); err != nil {
			return err
		}
	}

	// Merge existing po files.
	poCandidates, err := os.ReadDir(l.LocaleDir)
	if err != nil {
		return fmt.Errorf("couldn't list content of %q: %v", l.LocaleDir, err)
	}
	for _, f := range poCandidates {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".po") {
			continue
		}

		pofile := filepath.Join(l.LocaleDir, f.Name())

		// Extract the po creation date to keep it (msgmerge always updates it).
		potcreation, err := getPOTCreationDate(pofile)
		if err != nil {
			return err
		}

		exe, args := sys.Msgmerge("--update", "--backup=none", pofile, l.PotFile)
		//nolint:gosec // outside of tests, this simply prepends "msgmerge" to the args.
		if out, err := exec.CommandContext(ctx, exe, args...).CombinedOutput(); err != nil {
			return fmt.Errorf("couldn't refresh %q: %v.\nCommand output: %s", pofile, err, out)
		}

		if err := rewritePOTCreationDate(potcreation, pofile); err != nil {
			return err
		}

		log.Debugf("Refreshed %q", pofile)
	}

	return nil
}

// translatableFiles walks root and collects the files translatable strings are
// extracted from, as paths relative to root. moDir is skipped: it only ever
// contains generated content.
func translatableFiles(root string, suffixes []string, moDir string) (files []string, err error) {
	err = filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("fail to access %q: %v", p, err)
		}

		if de.IsDir() {
			if p == moDir || strings.HasPrefix(de.Name(), ".") && p != root {
				return filepath.SkipDir
			}
			return nil
		}

		var match bool
		for _, suffix := range suffixes {
			if strings.HasSuffix(p, suffix) {
				match = true
				break
			}
		}
		if !match {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("path %q cannot be made relative to %q", p, root)
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// dirNameForLocale derives the catalog directory name from a locale code:
// underscores become hyphens, nothing else changes.
func dirNameForLocale(loc string) string {
	return strings.ReplaceAll(loc, "_", "-")
}

// cleanDirectory removes dir and all its content before recreating it empty.
func cleanDirectory(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("couldn't remove %q: %v", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("couldn't create %q: %v", dir, err)
	}
	return nil
}

const potCreationDatePrefix = `"POT-Creation-Date:`

func getPOTCreationDate(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("couldn't open %q: %v", p, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), potCreationDatePrefix) {
			return scanner.Text(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error while reading %q: %v", p, err)
	}

	return "", fmt.Errorf("didn't find %q in %q", potCreationDatePrefix, p)
}

func rewritePOTCreationDate(potcreation, p string) (err error) {
	defer decorate.OnError(&err, "couldn't restore POT creation date of %q", p)

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	out, err := os.Create(p + ".new")
	if err != nil {
		return err
	}
	defer out.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		t := scanner.Text()
		if strings.HasPrefix(t, potCreationDatePrefix) {
			t = potcreation
		}
		if _, err := out.WriteString(t + "\n"); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	f.Close()
	out.Close()

	return os.Rename(p+".new", p)
}
