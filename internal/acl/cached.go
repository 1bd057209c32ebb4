package acl

import (
	"context"
	"time"

	"github.com/bigkaa/castadmin/internal/cache"
	"github.com/bigkaa/castadmin/internal/occlient"
)

// CachedBackend кэширует справочники ACL: шаблоны, действия и роли.
// Политики конкретных событий и серий не кэшируются.
type CachedBackend struct {
	Backend

	templates *cache.Cache[string, []occlient.ACLTemplate]
	template  *cache.Cache[string, []ACE]
	actions   *cache.Cache[string, []string]
	roles     *cache.Cache[string, []occlient.Role]
}

// lookupKey: ключ единственной записи справочников.
const lookupKey = "all"

// NewCachedBackend оборачивает backend кэшем размера size с временем жизни ttl.
func NewCachedBackend(b Backend, size int, ttl time.Duration) *CachedBackend {
	return &CachedBackend{
		Backend:   b,
		templates: cache.New[string, []occlient.ACLTemplate]("acl_templates", 1, ttl),
		template:  cache.New[string, []ACE]("acl_template", size, ttl),
		actions:   cache.New[string, []string]("acl_actions", 1, ttl),
		roles:     cache.New[string, []occlient.Role]("acl_roles", 1, ttl),
	}
}

// ACLTemplates возвращает шаблоны ACL.
func (c *CachedBackend) ACLTemplates(ctx context.Context) ([]occlient.ACLTemplate, error) {
	return c.templates.GetOrLoad(ctx, lookupKey, c.Backend.ACLTemplates)
}

// ACLTemplate возвращает ACE шаблона.
func (c *CachedBackend) ACLTemplate(ctx context.Context, id string) ([]ACE, error) {
	return c.template.GetOrLoad(ctx, id, func(ctx context.Context) ([]ACE, error) {
		return c.Backend.ACLTemplate(ctx, id)
	})
}

// ACLActions возвращает пользовательские действия.
func (c *CachedBackend) ACLActions(ctx context.Context) ([]string, error) {
	return c.actions.GetOrLoad(ctx, lookupKey, c.Backend.ACLActions)
}

// Roles возвращает роли.
func (c *CachedBackend) Roles(ctx context.Context) ([]occlient.Role, error) {
	return c.roles.GetOrLoad(ctx, lookupKey, c.Backend.Roles)
}
