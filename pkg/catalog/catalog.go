// Package catalog loads per-locale message catalogs from YAML files and
// serves localized story texts.
//
// Files live at locales/<locale>/<namespace>.yaml:
//
//	locale: "en-US"
//	namespace: "events"
//	messages:
//	  "pick-action": "{character} picks up {item}"
package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every bundle must define; lookups fall back to it.
const BaseLocale = "en-US"

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

type localeCatalog struct {
	locale     string
	namespaces map[string]struct{}
	messages   map[string]string
}

// Bundle holds every locale of one catalog. It is read-only after loading
// and safe for concurrent use.
type Bundle struct {
	locales map[string]*localeCatalog
	tags    []language.Tag
	matcher language.Matcher
}

// LoadFromFS loads every locales/*/*.yaml file of fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{locales: map[string]*localeCatalog{}}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.addFile(p, file); err != nil {
			return nil, err
		}
	}

	if !b.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// The base locale goes first so the matcher falls back to it.
	b.tags = append(b.tags, language.MustParse(BaseLocale))
	for _, locale := range b.Locales() {
		if locale == BaseLocale {
			continue
		}
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// MustLoad is LoadFromFS for embedded catalogs, which are fixed at build time.
func MustLoad(fsys fs.FS) *Bundle {
	b, err := LoadFromFS(fsys)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bundle) addFile(p string, file catalogFile) error {
	localeFromPath := path.Base(path.Dir(p))
	namespaceFromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))

	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", p)
	}
	if locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, locale, localeFromPath)
	}
	namespace := strings.TrimSpace(file.Namespace)
	if namespace != namespaceFromPath {
		return fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", p, namespace, namespaceFromPath)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages map is required", p)
	}

	lc, ok := b.locales[locale]
	if !ok {
		lc = &localeCatalog{
			locale:     locale,
			namespaces: map[string]struct{}{},
			messages:   map[string]string{},
		}
		b.locales[locale] = lc
	}
	if _, exists := lc.namespaces[namespace]; exists {
		return fmt.Errorf("catalog %s: namespace %q already defined for locale %q", p, namespace, locale)
	}
	lc.namespaces[namespace] = struct{}{}

	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if _, exists := lc.messages[key]; exists {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, key, locale)
		}
		lc.messages[key] = value
	}
	return nil
}

// HasLocale reports whether the bundle defines locale exactly.
func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales returns the defined locales in sorted order.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.locales))
	for locale := range b.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Match resolves a requested language ("cs", "cs-CZ", an Accept-Language
// value) to the closest defined locale, BaseLocale when nothing matches.
func (b *Bundle) Match(lang string) string {
	if b == nil || b.matcher == nil {
		return BaseLocale
	}
	tags, _, err := language.ParseAcceptLanguage(strings.TrimSpace(lang))
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, index, confidence := b.matcher.Match(tags...)
	if confidence == language.No {
		return BaseLocale
	}
	return b.tags[index].String()
}

// Lookup returns the raw message for key in the locale matching lang, falling
// back to BaseLocale.
func (b *Bundle) Lookup(lang, key string) (string, bool) {
	if b == nil {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	locale := b.Match(lang)
	if lc, ok := b.locales[locale]; ok {
		if value, exists := lc.messages[key]; exists {
			return value, true
		}
	}
	if locale != BaseLocale {
		value, exists := b.locales[BaseLocale].messages[key]
		return value, exists
	}
	return "", false
}

// Message returns the localized message with {name} placeholders replaced by
// args. Unknown keys yield the key itself.
func (b *Bundle) Message(key, lang string, args map[string]string) string {
	value, ok := b.Lookup(lang, key)
	if !ok {
		return key
	}
	return Format(value, args)
}

// Format replaces every {name} placeholder present in args. Placeholders
// without an argument are kept verbatim.
func Format(template string, args map[string]string) string {
	if len(args) == 0 || !strings.Contains(template, "{") {
		return template
	}
	var sb strings.Builder
	sb.Grow(len(template))
	for {
		start := strings.IndexByte(template, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(template[start:], '}')
		if end < 0 {
			break
		}
		end += start
		name := template[start+1 : end]
		if value, ok := args[name]; ok {
			sb.WriteString(template[:start])
			sb.WriteString(value)
		} else {
			sb.WriteString(template[:end+1])
		}
		template = template[end+1:]
	}
	sb.WriteString(template)
	return sb.String()
}
