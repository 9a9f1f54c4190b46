package message

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Source is a per-locale message catalog. Lookups match the requested locale
// against the loaded ones and fall back to the default locale.
type Source struct {
	fallback language.Tag

	mu       sync.RWMutex
	tags     []language.Tag
	catalogs map[language.Tag]map[string]string
	matcher  language.Matcher
}

// NewSource creates an empty catalog whose lookups fall back to fallback.
func NewSource(fallback language.Tag) *Source {
	return &Source{
		fallback: fallback,
		catalogs: make(map[language.Tag]map[string]string),
	}
}

// Add merges messages for a locale into the catalog.
func (s *Source) Add(tag language.Tag, messages map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, ok := s.catalogs[tag]
	if !ok {
		catalog = make(map[string]string, len(messages))
		s.catalogs[tag] = catalog
		s.tags = append(s.tags, tag)
		s.matcher = nil
	}
	for key, msg := range messages {
		catalog[key] = msg
	}
}

// LoadYAML reads a document whose top-level keys are locale tags and whose
// values are flat key/message maps:
//
//	en:
//	  size.max: size must be at most 100
//	az:
//	  size.max: ölçü 100-dən çox ola bilməz
func (s *Source) LoadYAML(r io.Reader) error {
	catalogs, err := decodeCatalogs(r)
	if err != nil {
		return err
	}
	for tag, messages := range catalogs {
		s.Add(tag, messages)
	}
	return nil
}

// Replace swaps the whole catalog for catalogs, dropping locales and keys
// that are no longer present.
func (s *Source) Replace(catalogs map[language.Tag]map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalogs = make(map[language.Tag]map[string]string, len(catalogs))
	s.tags = make([]language.Tag, 0, len(catalogs))
	s.matcher = nil
	for tag, messages := range catalogs {
		catalog := make(map[string]string, len(messages))
		for key, msg := range messages {
			catalog[key] = msg
		}
		s.catalogs[tag] = catalog
		s.tags = append(s.tags, tag)
	}
}

func decodeCatalogs(r io.Reader) (map[language.Tag]map[string]string, error) {
	raw := map[string]map[string]string{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode message catalog: %w", err)
	}

	catalogs := make(map[language.Tag]map[string]string, len(raw))
	for locale, messages := range raw {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q in message catalog: %w", locale, err)
		}
		catalogs[tag] = messages
	}
	return catalogs, nil
}

// Lookup returns the message stored under key for the locale closest to tag.
func (s *Source) Lookup(tag language.Tag, key string) (string, bool) {
	if s == nil || key == "" {
		return "", false
	}

	s.mu.Lock()
	if s.matcher == nil && len(s.tags) > 0 {
		s.matcher = language.NewMatcher(s.orderedTags())
	}
	matcher := s.matcher
	tags := s.orderedTags()
	s.mu.Unlock()

	if matcher == nil {
		return "", false
	}

	_, idx, confidence := matcher.Match(tag)
	if confidence != language.No {
		if msg, ok := s.get(tags[idx], key); ok {
			return msg, true
		}
	}
	return s.get(s.fallback, key)
}

// Localize returns the catalog message for key, or key itself when the
// catalog has no entry.
func (s *Source) Localize(tag language.Tag, key string) string {
	if msg, ok := s.Lookup(tag, key); ok {
		return msg
	}
	return key
}

// Fallback returns the locale used when nothing matches.
func (s *Source) Fallback() language.Tag {
	if s == nil {
		return language.English
	}
	return s.fallback
}

// orderedTags puts the fallback first so the matcher prefers it on ties.
// Callers hold s.mu.
func (s *Source) orderedTags() []language.Tag {
	ordered := make([]language.Tag, 0, len(s.tags)+1)
	if _, ok := s.catalogs[s.fallback]; ok {
		ordered = append(ordered, s.fallback)
	}
	for _, tag := range s.tags {
		if tag != s.fallback {
			ordered = append(ordered, tag)
		}
	}
	return ordered
}

func (s *Source) get(tag language.Tag, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.catalogs[tag][key]
	return msg, ok
}
