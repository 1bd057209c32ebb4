// Пакет i18n: переводы интерфейса консоли.
//
// Ключи перевода приходят из конфигурации таблиц (заголовки колонок),
// из данных backend'а (статусы с флагом translate) и из уведомлений.
// Поддерживаемые языки: English (en), Deutsch (de), Русский (ru).
// Язык определяется middleware: cookie "lang" → Accept-Language → "en".
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLang: язык по умолчанию и источник недостающих переводов.
const DefaultLang = "en"

var (
	// SupportedLanguages: поддерживаемые языки. Порядок важен для matcher:
	// первый элемент выбирается, если совпадений нет.
	SupportedLanguages = []language.Tag{
		language.English,
		language.German,
		language.Russian,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle: каталоги переводов всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang → key → translation
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		logger:   logger,
	}
}

// LoadMessages загружает плоский JSON-каталог {"key": "translation"}.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	if b.logger != nil {
		b.logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// Lookup возвращает перевод и признак его наличия (с fallback на DefaultLang).
func (b *Bundle) Lookup(lang, key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg, true
	}
	if lang != DefaultLang {
		if msg, ok := b.catalogs[DefaultLang][key]; ok {
			return msg, true
		}
	}
	return "", false
}

// Translate возвращает перевод. Неизвестный ключ возвращается как есть.
func (b *Bundle) Translate(lang, key string) string {
	if msg, ok := b.Lookup(lang, key); ok {
		return msg
	}
	return key
}

// Translatef возвращает перевод с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// Languages возвращает загруженные языки.
func (b *Bundle) Languages() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.catalogs))
	for _, tag := range SupportedLanguages {
		if _, ok := b.catalogs[tag.String()]; ok {
			out = append(out, tag.String())
		}
	}
	return out
}

// --- Глобальный Bundle ---

var (
	globalBundle *Bundle
	globalOnce   sync.Once
)

// Init инициализирует глобальный Bundle. Вызывается один раз при старте.
func Init(logger *slog.Logger) *Bundle {
	globalOnce.Do(func() {
		globalBundle = NewBundle(logger)
	})
	return globalBundle
}

// GetBundle возвращает глобальный Bundle (nil, если не инициализирован).
func GetBundle() *Bundle {
	return globalBundle
}

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста. По умолчанию DefaultLang.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// T возвращает перевод ключа на язык из контекста.
func T(ctx context.Context, key string) string {
	if globalBundle == nil {
		return key
	}
	return globalBundle.Translate(LangFromContext(ctx), key)
}

// Tf возвращает перевод ключа с аргументами.
func Tf(ctx context.Context, key string, args ...any) string {
	if globalBundle == nil {
		if len(args) == 0 {
			return key
		}
		return formatFunc(key, args...)
	}
	return globalBundle.Translatef(LangFromContext(ctx), key, args...)
}

// formatFunc: fmt.Sprintf через переменную: формат-строки приходят
// из каталогов, go vet не может их проверить.
//
//nolint:govet // обход printf-анализатора
var formatFunc = fmt.Sprintf

// IsSupported сообщает, поддерживается ли язык lang.
func IsSupported(lang string) bool {
	for _, tag := range SupportedLanguages {
		if tag.String() == lang {
			return true
		}
	}
	return false
}

// MatchLanguage выбирает лучший поддерживаемый язык по Accept-Language.
func MatchLanguage(acceptLanguage string) string {
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	return SupportedLanguages[idx].String()
}
