// Package i18n translates UI strings and formats numbers and dates per locale.
// Catalogs are embedded YAML files with nested sections flattened into dotted
// keys such as "Common.pagination.next". Missing keys fall back to the default
// locale, then to the key itself.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/robby/pmdash/internal/domain"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en"

// ErrUnknownLocale indicates there is no catalog for the requested locale.
var ErrUnknownLocale = errors.New("unknown locale")

//go:embed locales/*.yaml
var catalogFS embed.FS

// Translator resolves keys for one locale.
type Translator struct {
	locale   string
	messages map[string]string
	fallback map[string]string
	printer  *message.Printer
}

// New returns a Translator for locale, e.g. "en" or "zh-TW".
func New(locale string) (*Translator, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	msgs, err := loadCatalog(locale)
	if err != nil {
		return nil, err
	}

	var fallback map[string]string
	if locale != DefaultLocale {
		if fallback, err = loadCatalog(DefaultLocale); err != nil {
			return nil, err
		}
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}

	return &Translator{
		locale:   locale,
		messages: msgs,
		fallback: fallback,
		printer:  message.NewPrinter(tag),
	}, nil
}

// MustNew is New for locales known to be embedded.
func MustNew(locale string) *Translator {
	t, err := New(locale)
	if err != nil {
		panic(err)
	}
	return t
}

// Available lists the embedded locales.
func Available() []string {
	entries, err := catalogFS.ReadDir("locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(out)
	return out
}

// Locale returns the active locale name.
func (t *Translator) Locale() string {
	return t.locale
}

// T translates key.
func (t *Translator) T(key string) string {
	if msg, ok := t.messages[key]; ok {
		return msg
	}
	if msg, ok := t.fallback[key]; ok {
		return msg
	}
	return key
}

// Tf translates key and substitutes {name} placeholders from params.
// Numeric params are formatted for the locale.
func (t *Translator) Tf(key string, params map[string]any) string {
	msg := t.T(key)
	for name, v := range params {
		var s string
		switch n := v.(type) {
		case int:
			s = t.FormatNumber(n)
		default:
			s = fmt.Sprint(v)
		}
		msg = strings.ReplaceAll(msg, "{"+name+"}", s)
	}
	return msg
}

// FormatNumber renders n with the locale's digit grouping.
func (t *Translator) FormatNumber(n int) string {
	return t.printer.Sprintf("%d", n)
}

// FormatDate renders a date, or "-" when absent.
func (t *Translator) FormatDate(d *domain.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

// FormatLongDate renders a date in the locale's long form, or "-" when absent.
func (t *Translator) FormatLongDate(d *domain.Date) string {
	if d == nil {
		return "-"
	}
	tm := d.Time()
	if strings.HasPrefix(t.locale, "zh") {
		return fmt.Sprintf("%d年%d月%d日", tm.Year(), int(tm.Month()), tm.Day())
	}
	return tm.Format("Jan 2, 2006")
}

// StatusLabel translates a status or the "all" filter value.
func (t *Translator) StatusLabel(status string) string {
	if status == "" || status == domain.StatusAll {
		return t.T("Common.all")
	}
	return t.T("Status." + status)
}

func loadCatalog(locale string) (map[string]string, error) {
	data, err := catalogFS.ReadFile("locales/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", locale, err)
	}

	out := make(map[string]string)
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
