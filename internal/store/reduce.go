package store

// Reduce: чистая функция перехода: возвращает новое состояние,
// не изменяя s. Неизвестное действие возвращает s без изменений.
func Reduce(s State, a Action) State {
	switch a.(type) {
	case LoadFilters, SetFilterValue, RemoveFilter, ResetFilters, LoadProfile,
		SetTextFilter, SetDateRange, SelectFilter:
		s.Filters = reduceFilters(s.Filters, a)
	case LoadProfiles, CreateProfile, EditProfile, RemoveProfile, CancelProfileEdit,
		StartProfileEdit:
		s.Profiles = reduceProfiles(s.Profiles, a)
	case LoadResourceInProgress, LoadResourceSuccess, LoadResourceFailure:
		s.Resources = reduceResources(s.Resources, a)
	case LoadTableContent, SelectRow, SelectAll, DeselectAll, SetSort, ReverseSort,
		SetPageLimit, GoToPage:
		s.Table = reduceTable(s.Table, a)
	case ToggleColumn:
		s.Table = reduceTable(s.Table, a)
		// Флаги колонок сохраняются в срезе ресурса, чтобы пережить
		// следующую проекцию.
		if s.Table.Resource != "" {
			slice := s.Resources[s.Table.Resource]
			slice.Columns = s.Table.Columns
			s.Resources = withSlice(s.Resources, s.Table.Resource, slice)
		}
	case AddNotification, RemoveNotification:
		s.Notifications = reduceNotifications(s.Notifications, a)
	}
	return s
}
