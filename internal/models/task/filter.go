package task

// Filter - условия выборки задач, nil означает что условие не задано.
// Условия объединяются через AND.
type Filter struct {
	OwnerID   *string
	Status    *Status
	Favorite  *bool
	Important *bool

	// LegacyOnly - только записи со старым статусом Important (для миграции)
	LegacyOnly bool
	// Limit - максимум записей, 0 без ограничения
	Limit int
}

// Matches проверяет сырую запись на соответствие фильтру.
// Статус сравнивается после нормализации, important=true ловит и флаг,
// и ещё не мигрированный статус Important.
func (f Filter) Matches(r *Record) bool {
	if f.OwnerID != nil && r.OwnerID != *f.OwnerID {
		return false
	}

	status, _, important := Normalize(r.Status, r.Important)

	if f.Status != nil && status != *f.Status {
		return false
	}
	if f.Favorite != nil && r.Favorite != *f.Favorite {
		return false
	}
	if f.Important != nil && important != *f.Important {
		return false
	}
	if f.LegacyOnly && !r.IsLegacy() {
		return false
	}
	return true
}
