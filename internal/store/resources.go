package store

import (
	"sync/atomic"

	"github.com/bigkaa/castadmin/internal/tablecfg"
)

var requestTokens atomic.Uint64

// NewRequestToken возвращает монотонно возрастающий токен запроса.
// Токен связывает результат загрузки с запросом, который его инициировал.
func NewRequestToken() uint64 {
	return requestTokens.Add(1)
}

func reduceResources(m map[tablecfg.Resource]ResourceSlice, a Action) map[tablecfg.Resource]ResourceSlice {
	switch a := a.(type) {
	case LoadResourceInProgress:
		s := m[a.Resource]
		s.Loading = true
		if a.Token > s.Generation {
			s.Generation = a.Token
		}
		return withSlice(m, a.Resource, s)
	case LoadResourceSuccess:
		s := m[a.Resource]
		if a.Token < s.Generation {
			// Запрос устарел: более новый уже отправлен.
			return m
		}
		s.Loading = false
		s.Generation = a.Token
		s.Total = a.Envelope.Total
		s.Count = a.Envelope.Count
		s.Limit = a.Envelope.Limit
		s.Offset = a.Envelope.Offset
		s.Results = a.Envelope.Results
		return withSlice(m, a.Resource, s)
	case LoadResourceFailure:
		s := m[a.Resource]
		if a.Token < s.Generation {
			return m
		}
		s.Loading = false
		return withSlice(m, a.Resource, s)
	}
	return m
}

func withSlice(m map[tablecfg.Resource]ResourceSlice, r tablecfg.Resource, s ResourceSlice) map[tablecfg.Resource]ResourceSlice {
	out := make(map[tablecfg.Resource]ResourceSlice, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[r] = s
	return out
}
