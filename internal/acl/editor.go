package acl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/castadmin/internal/occlient"
	"github.com/bigkaa/castadmin/internal/store"
)

var (
	// ErrReadOnly: редактор открыт только для чтения.
	ErrReadOnly = errors.New("политика доступа доступна только для чтения")
	// ErrInvalidTransition: операция недопустима в текущем состоянии редактора.
	ErrInvalidTransition = errors.New("недопустимый переход состояния редактора")
	// ErrInvalidRules: набор строк не прошёл проверку перед сохранением.
	ErrInvalidRules = errors.New("политика доступа не прошла проверку")
	// ErrNoSuchRow: индекс строки вне диапазона.
	ErrNoSuchRow = errors.New("строка политики не найдена")
)

// Ключи уведомлений редактора.
const (
	NotifyInvalidRules      = "INVALID_ACL_RULES"
	NotifyMissingRules      = "MISSING_ACL_RULES"
	NotifySaved             = "SAVED_ACL_RULES"
	NotifyNotSaved          = "ACL_NOT_SAVED"
	NotifyActiveTransaction = "ACTIVE_TRANSACTION"

	// NotificationContext: область отображения уведомлений вкладки.
	NotificationContext = "tabs-policies"
)

// EditorState: состояние редактора.
type EditorState int

const (
	StateLoading EditorState = iota
	StateReady
	StateEditing
	StateSaving
)

func (s EditorState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	default:
		return "unknown"
	}
}

// Backend: операции backend'а, нужные редактору.
type Backend interface {
	Access(ctx context.Context, kind occlient.AccessKind, id string) ([]ACE, error)
	SaveAccess(ctx context.Context, kind occlient.AccessKind, id string, aces []ACE) error
	ACLTemplates(ctx context.Context) ([]occlient.ACLTemplate, error)
	ACLTemplate(ctx context.Context, id string) ([]ACE, error)
	ACLActions(ctx context.Context) ([]string, error)
	Roles(ctx context.Context) ([]occlient.Role, error)
	HasActiveTransaction(ctx context.Context, eventID string) (bool, error)
}

// Notifier показывает транзиентные уведомления (реализуется store.Store).
type Notifier interface {
	Notify(typ store.NotificationType, key, area string, d time.Duration) string
}

// Options: параметры редактора.
type Options struct {
	// NotificationTTL: время жизни уведомлений проверки и сохранения.
	NotificationTTL time.Duration
	// ReadOnly: у пользователя нет права редактировать ACL.
	ReadOnly bool
}

// View: снимок редактора для отображения.
type View struct {
	Kind             occlient.AccessKind
	ID               string
	State            EditorState
	ReadOnly         bool
	Dirty            bool
	Policies         []Policy
	Templates        []occlient.ACLTemplate
	Actions          []string
	Roles            []occlient.Role
	SelectedTemplate string
}

// Editor: редактор политики доступа одного события или серии.
// Переходы: Loading → Ready → Editing → Saving → Ready.
type Editor struct {
	kind     occlient.AccessKind
	id       string
	backend  Backend
	notifier Notifier
	opts     Options
	logger   *slog.Logger

	mu               sync.Mutex
	state            EditorState
	readOnly         bool
	policies         []Policy
	initial          []Policy
	templates        []occlient.ACLTemplate
	actions          []string
	roles            []occlient.Role
	selectedTemplate string
}

// NewEditor создаёт редактор в состоянии Loading.
func NewEditor(kind occlient.AccessKind, id string, backend Backend, notifier Notifier, opts Options, logger *slog.Logger) *Editor {
	return &Editor{
		kind:     kind,
		id:       id,
		backend:  backend,
		notifier: notifier,
		opts:     opts,
		logger: logger.With(
			slog.String("component", "acl_editor"),
			slog.String("kind", string(kind)),
			slog.String("id", id),
		),
		state:    StateLoading,
		readOnly: opts.ReadOnly,
		policies: []Policy{},
		initial:  []Policy{},
	}
}

// Load загружает справочники, текущую политику и (для событий) признак
// активной транзакции. Ошибки справочников логируются, редактор переходит
// в Ready в любом случае. Повторный Load допустим только из Loading или Ready.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateLoading && e.state != StateReady {
		st := e.state
		e.mu.Unlock()
		return fmt.Errorf("загрузка в состоянии %s: %w", st, ErrInvalidTransition)
	}
	e.state = StateLoading
	e.mu.Unlock()

	templates, err := e.backend.ACLTemplates(ctx)
	if err != nil {
		e.logger.Error("Ошибка загрузки шаблонов ACL", slog.String("error", err.Error()))
	}
	actions, err := e.backend.ACLActions(ctx)
	if err != nil {
		e.logger.Error("Ошибка загрузки действий ACL", slog.String("error", err.Error()))
	}
	roles, err := e.backend.Roles(ctx)
	if err != nil {
		e.logger.Error("Ошибка загрузки ролей", slog.String("error", err.Error()))
	}
	policies, err := e.fetchPolicies(ctx)
	if err != nil {
		e.logger.Error("Ошибка загрузки политики доступа", slog.String("error", err.Error()))
		policies = []Policy{}
	}

	activeTransaction := false
	if e.kind == occlient.AccessEvent {
		active, err := e.backend.HasActiveTransaction(ctx, e.id)
		if err != nil {
			e.logger.Warn("Не удалось проверить активную транзакцию", slog.String("error", err.Error()))
		}
		activeTransaction = active || err != nil
	}

	e.mu.Lock()
	e.templates = templates
	e.actions = actions
	e.roles = roles
	e.policies = clonePolicies(policies)
	e.initial = clonePolicies(policies)
	e.selectedTemplate = ""
	if activeTransaction {
		e.readOnly = true
	}
	e.state = StateReady
	e.mu.Unlock()

	if activeTransaction {
		e.notifier.Notify(store.NotificationWarning, NotifyActiveTransaction, NotificationContext, 0)
	}
	return nil
}

func (e *Editor) fetchPolicies(ctx context.Context) ([]Policy, error) {
	aces, err := e.backend.Access(ctx, e.kind, e.id)
	if err != nil {
		return nil, err
	}
	return FromACEs(aces), nil
}

// View возвращает снимок состояния редактора.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return View{
		Kind:             e.kind,
		ID:               e.id,
		State:            e.state,
		ReadOnly:         e.readOnly,
		Dirty:            !Equal(e.policies, e.initial),
		Policies:         clonePolicies(e.policies),
		Templates:        e.templates,
		Actions:          e.actions,
		Roles:            e.roles,
		SelectedTemplate: e.selectedTemplate,
	}
}

// State возвращает текущее состояние.
func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dirty сообщает, отличается ли редактируемый набор от загруженного.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !Equal(e.policies, e.initial)
}

// mutate применяет изменение строк. Допустимо только в Ready и Editing
// и только вне режима чтения.
func (e *Editor) mutate(fn func(policies []Policy) ([]Policy, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return ErrReadOnly
	}
	if e.state != StateReady && e.state != StateEditing {
		return fmt.Errorf("изменение в состоянии %s: %w", e.state, ErrInvalidTransition)
	}
	next, err := fn(clonePolicies(e.policies))
	if err != nil {
		return err
	}
	e.policies = next
	if Equal(e.policies, e.initial) {
		e.state = StateReady
	} else {
		e.state = StateEditing
	}
	return nil
}

func (e *Editor) row(policies []Policy, i int) error {
	if i < 0 || i >= len(policies) {
		return fmt.Errorf("строка %d: %w", i, ErrNoSuchRow)
	}
	return nil
}

// ApplyTemplate заменяет весь набор строк содержимым шаблона.
func (e *Editor) ApplyTemplate(ctx context.Context, templateID string) error {
	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return ErrReadOnly
	}
	e.mu.Unlock()

	aces, err := e.backend.ACLTemplate(ctx, templateID)
	if err != nil {
		return fmt.Errorf("загрузка шаблона %s: %w", templateID, err)
	}
	policies := FromACEs(aces)
	err = e.mutate(func([]Policy) ([]Policy, error) { return policies, nil })
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.selectedTemplate = templateID
	e.mu.Unlock()
	return nil
}

// AddPolicy добавляет пустую строку.
func (e *Editor) AddPolicy() error {
	return e.mutate(func(p []Policy) ([]Policy, error) {
		return append(p, Policy{Actions: []string{}}), nil
	})
}

// RemovePolicy удаляет строку i.
func (e *Editor) RemovePolicy(i int) error {
	return e.mutate(func(p []Policy) ([]Policy, error) {
		if err := e.row(p, i); err != nil {
			return nil, err
		}
		return append(p[:i], p[i+1:]...), nil
	})
}

// SetRole задаёт роль строки i.
func (e *Editor) SetRole(i int, role string) error {
	return e.mutate(func(p []Policy) ([]Policy, error) {
		if err := e.row(p, i); err != nil {
			return nil, err
		}
		p[i].Role = role
		return p, nil
	})
}

// SetRead задаёт право read строки i.
func (e *Editor) SetRead(i int, v bool) error {
	return e.mutate(func(p []Policy) ([]Policy, error) {
		if err := e.row(p, i); err != nil {
			return nil, err
		}
		p[i].Read = v
		return p, nil
	})
}

// SetWrite задаёт право write строки i.
func (e *Editor) SetWrite(i int, v bool) error {
	return e.mutate(func(p []Policy) ([]Policy, error) {
		if err := e.row(p, i); err != nil {
			return nil, err
		}
		p[i].Write = v
		return p, nil
	})
}

// SetActions задаёт дополнительные действия строки i.
func (e *Editor) SetActions(i int, actions []string) error {
	return e.mutate(func(p []Policy) ([]Policy, error) {
		if err := e.row(p, i); err != nil {
			return nil, err
		}
		uniq := []string{}
		for _, a := range actions {
			if a != "" && a != ActionRead && a != ActionWrite && !contains(uniq, a) {
				uniq = append(uniq, a)
			}
		}
		p[i].Actions = uniq
		return p, nil
	})
}

// Reset возвращает набор строк к загруженному.
func (e *Editor) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady && e.state != StateEditing {
		return fmt.Errorf("сброс в состоянии %s: %w", e.state, ErrInvalidTransition)
	}
	e.policies = clonePolicies(e.initial)
	e.selectedTemplate = ""
	e.state = StateReady
	return nil
}

// Save проверяет набор строк и сохраняет его на backend'е.
// При ошибке проверки показывается предупреждение и backend не вызывается.
// После успешного сохранения политика перечитывается с backend'а.
// Из Saving редактор возвращается в Ready независимо от исхода.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return ErrReadOnly
	}
	if e.state != StateReady && e.state != StateEditing {
		st := e.state
		e.mu.Unlock()
		return fmt.Errorf("сохранение в состоянии %s: %w", st, ErrInvalidTransition)
	}
	policies := clonePolicies(e.policies)
	v := Validate(policies)
	if !v.OK() {
		e.mu.Unlock()
		// По уведомлению на каждую непройденную проверку.
		var keys []string
		if !v.AllRulesValid {
			keys = append(keys, NotifyInvalidRules)
		}
		if !v.HasFullRights {
			keys = append(keys, NotifyMissingRules)
		}
		for _, key := range keys {
			e.notifier.Notify(store.NotificationWarning, key, NotificationContext, e.opts.NotificationTTL)
		}
		return fmt.Errorf("%s: %w", strings.Join(keys, ", "), ErrInvalidRules)
	}
	e.state = StateSaving
	e.mu.Unlock()

	err := e.backend.SaveAccess(ctx, e.kind, e.id, ToACEs(policies))
	if err != nil {
		e.logger.Error("Ошибка сохранения политики доступа", slog.String("error", err.Error()))
		e.notifier.Notify(store.NotificationError, NotifyNotSaved, NotificationContext, e.opts.NotificationTTL)
		e.mu.Lock()
		e.state = StateReady
		e.mu.Unlock()
		return fmt.Errorf("сохранение политики доступа: %w", err)
	}

	e.notifier.Notify(store.NotificationInfo, NotifySaved, NotificationContext, e.opts.NotificationTTL)
	fresh, err := e.fetchPolicies(ctx)
	if err != nil {
		// Без перечитанной версии базой считается отправленный набор.
		e.logger.Warn("Не удалось перечитать политику доступа", slog.String("error", err.Error()))
		fresh = policies
	}

	e.mu.Lock()
	e.policies = clonePolicies(fresh)
	e.initial = clonePolicies(fresh)
	e.selectedTemplate = ""
	e.state = StateReady
	e.mu.Unlock()

	e.logger.Info("Политика доступа сохранена", slog.Int("rules", len(fresh)))
	return nil
}
