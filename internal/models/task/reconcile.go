package task

// Normalize сводит сырой статус и флаг important к канонической модели.
// Устаревший Important превращается в Incomplete + important=true,
// отсутствующий или неизвестный статус считается Incomplete.
func Normalize(raw LegacyStatus, rawImportant bool) (status Status, completed bool, important bool) {
	switch raw {
	case LegacyImportant:
		return StatusIncomplete, false, true
	case LegacyComplete:
		return StatusComplete, true, rawImportant
	default:
		return StatusIncomplete, false, rawImportant
	}
}

// FromRecord возвращает каноническую задачу, исходная запись не меняется
func FromRecord(r *Record) *Task {
	status, completed, important := Normalize(r.Status, r.Important)
	return &Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		Status:      status,
		Completed:   completed,
		Important:   important,
		Favorite:    r.Favorite,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromRecords(records []*Record) []*Task {
	res := make([]*Task, len(records))
	for i, r := range records {
		res[i] = FromRecord(r)
	}
	return res
}

// MigratePatch дополняет патч нормализованным статусом, если запись
// ещё хранит устаревший Important. Явно заданные поля патча не трогаются,
// важность сохраняется, если патч её не задаёт.
func MigratePatch(r *Record, p Patch) Patch {
	if !r.IsLegacy() {
		return p
	}

	status, completed, important := Normalize(r.Status, r.Important)
	if p.Status == nil {
		legacy := LegacyStatus(status)
		p.Status = &legacy
		p.Completed = &completed
	}
	if p.Important == nil {
		p.Important = &important
	}
	return p
}
