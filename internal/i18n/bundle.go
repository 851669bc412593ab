// Package i18n provides locale-keyed message dictionaries for API responses.
package i18n

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultLocale is the base locale every lookup falls back to.
const DefaultLocale = "en"

// SecondaryLocale is the second dictionary loaded alongside the default.
const SecondaryLocale = "ar"

// Bundle holds the per-locale message dictionaries. It is constructed once
// by the application root and shared; the dictionaries are loaded lazily on
// first lookup and are immutable afterwards.
type Bundle struct {
	logger zerolog.Logger

	// Candidate directories searched for <locale>.json, in order.
	// Supports both running from the source tree and from a deployed layout.
	candidates []string

	once    sync.Once
	locales map[string]map[string]string
}

// New creates a Bundle that searches the given directories for locale files.
// If dirs is empty, DefaultCandidates() is used.
func New(logger zerolog.Logger, dirs ...string) *Bundle {
	if len(dirs) == 0 {
		dirs = DefaultCandidates()
	}
	return &Bundle{
		logger:     logger.With().Str("component", "i18n").Logger(),
		candidates: dirs,
	}
}

// DefaultCandidates returns the standard search path for locale files:
// the working directory's locales/ folder, then the folder next to the
// executable.
func DefaultCandidates() []string {
	dirs := []string{"locales"}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "locales"))
	}
	return dirs
}

// Translate resolves a dotted key to a message in the requested locale.
// Unknown locales fall back to the default locale's dictionary; unknown
// keys fall back to the key itself.
func (b *Bundle) Translate(key, lang string) string {
	dict := b.dictionary(lang)
	if msg, ok := dict[key]; ok {
		return msg
	}
	return key
}

// Translations returns the full resolved dictionary for a locale, falling
// back to the default locale. Used for bulk lookups such as localized
// validation messages. The returned map must not be mutated.
func (b *Bundle) Translations(lang string) map[string]string {
	return b.dictionary(lang)
}

func (b *Bundle) dictionary(lang string) map[string]string {
	b.once.Do(b.load)

	if dict, ok := b.locales[strings.ToLower(lang)]; ok {
		return dict
	}
	return b.locales[DefaultLocale]
}

// load reads the locale files exactly once. Any failure degrades to empty
// dictionaries so that lookups return the key itself; it never propagates.
func (b *Bundle) load() {
	b.locales = map[string]map[string]string{
		DefaultLocale:   {},
		SecondaryLocale: {},
	}

	dir := ""
	for _, cand := range b.candidates {
		if _, err := os.Stat(filepath.Join(cand, DefaultLocale+".json")); err == nil {
			dir = cand
			break
		}
	}
	if dir == "" {
		b.logger.Warn().Strs("candidates", b.candidates).Msg("No locale files found, messages degrade to keys")
		return
	}

	for _, locale := range []string{DefaultLocale, SecondaryLocale} {
		path := filepath.Join(dir, locale+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			b.logger.Warn().Err(err).Str("path", path).Msg("Failed to read locale file")
			continue
		}
		dict := map[string]string{}
		if err := json.Unmarshal(data, &dict); err != nil {
			b.logger.Warn().Err(err).Str("path", path).Msg("Failed to parse locale file")
			continue
		}
		b.locales[locale] = dict
	}

	b.logger.Info().Str("dir", dir).
		Int("en", len(b.locales[DefaultLocale])).
		Int("ar", len(b.locales[SecondaryLocale])).
		Msg("Locale dictionaries loaded")
}
