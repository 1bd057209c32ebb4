package store

func reduceNotifications(list []Notification, a Action) []Notification {
	switch a := a.(type) {
	case AddNotification:
		out := make([]Notification, 0, len(list)+1)
		out = append(out, list...)
		return append(out, a.Notification)
	case RemoveNotification:
		out := make([]Notification, 0, len(list))
		for _, n := range list {
			if n.ID != a.ID {
				out = append(out, n)
			}
		}
		return out
	}
	return list
}

// NotificationsFor возвращает уведомления области context.
func (s State) NotificationsFor(context string) []Notification {
	var out []Notification
	for _, n := range s.Notifications {
		if n.Context == context {
			out = append(out, n)
		}
	}
	return out
}
