// Пакет render: HTML-представление консоли: таблицы, фильтры, профили,
// уведомления, вкладка политик доступа и страница здоровья системы.
//
// Компоненты устроены как код, генерируемый templ: templruntime.GeneratedTemplate,
// буфер из пула templruntime и контекст templ. Они только отображают
// переданный снимок состояния и не меняют его: каждое действие пользователя
// отправляется формой, которую обработчик превращает в действие контейнера.
package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	templruntime "github.com/a-h/templ/runtime"

	"github.com/bigkaa/castadmin/internal/ui/i18n"
)

// component оборачивает body в templ.Component. Запись идёт в буфер
// templruntime: вложенные компоненты пишут в тот же буфер, внешний
// сбрасывает его в writer по завершении.
func component(body func(ctx context.Context, h *html)) templ.Component {
	return templruntime.GeneratedTemplate(func(input templruntime.GeneratedComponentInput) (err error) {
		w, ctx := input.Writer, input.Context
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		buf, isBuffer := templruntime.GetBuffer(w)
		if !isBuffer {
			defer func() {
				if bufErr := templruntime.ReleaseBuffer(buf); err == nil {
					err = bufErr
				}
			}()
		}
		ctx = templ.InitializeContext(ctx)

		h := &html{w: buf}
		body(ctx, h)
		return h.err
	})
}

// html: запись разметки с накоплением первой ошибки.
type html struct {
	w   io.Writer
	err error
}

// raw пишет строку без экранирования.
func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

// text пишет экранированный текст.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// attr пишет атрибут с экранированным значением.
func (h *html) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// flag пишет булев атрибут, если on.
func (h *html) flag(name string, on bool) {
	if on {
		h.raw(" " + name)
	}
}

// render выводит вложенный компонент.
func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
}

// postButton выводит форму из одной кнопки.
func (h *html) postButton(action, class, label string, disabled bool, hidden ...string) {
	h.raw(`<form method="post" class="inline"`)
	h.attr("action", action)
	h.raw(">")
	for i := 0; i+1 < len(hidden); i += 2 {
		h.raw(`<input type="hidden"`)
		h.attr("name", hidden[i])
		h.attr("value", hidden[i+1])
		h.raw(">")
	}
	h.raw(`<button type="submit"`)
	h.attr("class", class)
	h.flag("disabled", disabled)
	h.raw(">")
	h.text(label)
	h.raw("</button></form>")
}

// t: перевод ключа на язык запроса.
func t(ctx context.Context, key string) string {
	return i18n.T(ctx, key)
}

// tf: перевод ключа с аргументами.
func tf(ctx context.Context, key string, args ...any) string {
	return i18n.Tf(ctx, key, args...)
}

// classFor преобразует ключ статуса в CSS-класс:
// "EVENTS.EVENTS.STATUS.SCHEDULED" → "status-scheduled".
func classFor(value string) string {
	if i := strings.LastIndex(value, "."); i >= 0 {
		value = value[i+1:]
	}
	value = strings.ToLower(strings.ReplaceAll(value, "_", "-"))
	return "status-" + strings.ReplaceAll(value, " ", "-")
}

// FormatValue приводит значение строки к тексту ячейки.
// Числа JSON без дробной части выводятся как целые, списки: через запятую.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := FormatValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	case map[string]any:
		if name, ok := v["name"]; ok {
			return FormatValue(name)
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}
