// Package i18n loads the embedded message catalogs and hands out per-locale
// message printers. Notification emails are rendered with the printer for the
// recipient's preferred language; the locale is always passed per call, never
// set process-wide.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is the canonical source locale for catalogs.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// localeFile is the on-disk shape of one locale catalog.
type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Translator resolves language tags against the loaded catalogs and creates
// message printers bound to them.
type Translator struct {
	supported []language.Tag
	matcher   language.Matcher
	builder   *catalog.Builder
}

// Load parses the embedded locale catalogs and builds a Translator.
func Load() (*Translator, error) {
	return LoadFromFS(localeFS)
}

// LoadFromFS parses locale catalogs from the provided filesystem.
func LoadFromFS(fsys fs.FS) (*Translator, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale catalogs found")
	}
	sort.Strings(paths)

	fallback := language.MustParse(DefaultLocale)
	builder := catalog.NewBuilder(catalog.Fallback(fallback))

	var supported []language.Tag
	seen := map[string]bool{}

	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}

		var lf localeFile
		if err := yaml.Unmarshal(data, &lf); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}

		tag, err := language.Parse(lf.Locale)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: invalid locale %q: %w", path, lf.Locale, err)
		}
		if seen[tag.String()] {
			return nil, fmt.Errorf("catalog %s: duplicate locale %q", path, lf.Locale)
		}
		seen[tag.String()] = true

		for key, msg := range lf.Messages {
			if err := builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s: message %q: %w", path, key, err)
			}
		}

		// The default locale leads the matcher so unknown languages fall
		// back to it.
		if tag == fallback {
			supported = append([]language.Tag{tag}, supported...)
		} else {
			supported = append(supported, tag)
		}
	}

	if !seen[fallback.String()] {
		return nil, fmt.Errorf("default locale %q has no catalog", DefaultLocale)
	}

	return &Translator{
		supported: supported,
		matcher:   language.NewMatcher(supported),
		builder:   builder,
	}, nil
}

// Supported returns the loaded locale tags, default locale first.
func (t *Translator) Supported() []language.Tag {
	out := make([]language.Tag, len(t.supported))
	copy(out, t.supported)
	return out
}

// Match resolves an arbitrary locale string to the closest supported tag.
// Invalid or unknown locales resolve to the default locale.
func (t *Translator) Match(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return t.supported[0]
	}
	_, idx, _ := t.matcher.Match(tag)
	return t.supported[idx]
}

// Printer returns a message printer for the given locale string.
func (t *Translator) Printer(locale string) *message.Printer {
	return message.NewPrinter(t.Match(locale), message.Catalog(t.builder))
}
