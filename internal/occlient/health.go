package occlient

import (
	"context"
	"errors"
	"net/http"
)

// Статусы компонентов на странице здоровья системы.
const (
	StatusOK        = "OK"
	StatusError     = "Error"
	StatusMalformed = "Malformed Data"
)

// Имена компонентов.
const (
	ComponentServices = "Backend Services"
	ComponentBroker   = "Message Broker"
)

// HealthItem: состояние одного компонента.
type HealthItem struct {
	Name   string
	Status string
	Error  bool
	// Counters: счётчики сервисов по состоянию (только для ComponentServices).
	Counters map[string]int
}

// ServicesHealth запрашивает /services/health.json. Ответ без объекта health
// даёт статус "Malformed Data"; предупреждения или ошибки сервисов: "Error".
// Ошибки сети не возвращаются, а отражаются в статусе.
func (c *Client) ServicesHealth(ctx context.Context) HealthItem {
	item := HealthItem{Name: ComponentServices}
	res, err := c.GetJSON(ctx, "services_health", "/services/health.json", nil)
	if err != nil {
		item.Error = true
		if errors.Is(err, ErrMalformed) {
			item.Status = StatusMalformed
		} else {
			item.Status = StatusError
		}
		return item
	}

	health := res.Get("health")
	if !health.IsObject() {
		item.Status = StatusMalformed
		item.Error = true
		return item
	}

	item.Counters = map[string]int{}
	for _, key := range []string{"healthy", "warning", "error"} {
		v := health.Get(key)
		if !v.Exists() {
			item.Status = StatusMalformed
			item.Error = true
			return item
		}
		item.Counters[key] = int(v.Int())
	}

	if item.Counters["warning"] > 0 || item.Counters["error"] > 0 {
		item.Status = StatusError
		item.Error = true
		return item
	}
	item.Status = StatusOK
	return item
}

// BrokerStatus запрашивает /broker/status. Ответ 204 или 200: брокер доступен.
func (c *Client) BrokerStatus(ctx context.Context) HealthItem {
	item := HealthItem{Name: ComponentBroker, Status: StatusOK}
	_, code, err := c.do(ctx, "broker_status", http.MethodGet, "/broker/status", nil, nil, "")
	if err != nil || (code != http.StatusNoContent && code != http.StatusOK) {
		item.Status = StatusError
		item.Error = true
	}
	return item
}
