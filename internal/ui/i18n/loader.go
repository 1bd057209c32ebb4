package i18n

import (
	"embed"
	"fmt"
	"log/slog"
)

// localeFS: встроенные каталоги переводов.
//
//go:embed locales/*.json
var localeFS embed.FS

// LoadFromEmbedFS загружает каталоги всех поддерживаемых языков.
func LoadFromEmbedFS(bundle *Bundle, logger *slog.Logger) error {
	for _, tag := range SupportedLanguages {
		lang := tag.String()
		path := fmt.Sprintf("locales/%s.json", lang)
		data, err := localeFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return err
		}
	}

	logger.Info("i18n каталоги загружены", slog.Int("languages", len(SupportedLanguages)))
	return nil
}
