// Package i18n is responsible for internationalization/translation handling and generation.
package i18n

import (
	"github.com/snapcore/go-gettext"
)

type i18n struct {
	domain    string
	localeDir string

	gettext.Catalog
	translations gettext.Translations
}

var (
	locale *i18n

	// G is the shorthand for Gettext.
	G = func(msgid string) string { return msgid }
	// NG is the shorthand for NGettext.
	NG = func(msgid string, msgidPlural string, n uint32) string { return msgid }
)

// Option is the function signature used to tweak the domain initialization.
type Option func(*i18n)

// WithLocaleDir overrides the default system locale directory.
func WithLocaleDir(dir string) Option {
	return func(l *i18n) {
		l.localeDir = dir
	}
}

// InitI18nDomain binds domain and sets G and NG to the user locale translations.
func InitI18nDomain(domain string, options ...Option) {
	locale = &i18n{
		domain:    domain,
		localeDir: "/usr/share/locale",
	}

	for _, option := range options {
		option(locale)
	}

	locale.translations = gettext.NewTranslations(locale.localeDir, locale.domain, gettext.DefaultResolver)
	locale.Catalog = locale.translations.UserLocale()

	G = locale.Gettext
	NG = locale.NGettext
}
