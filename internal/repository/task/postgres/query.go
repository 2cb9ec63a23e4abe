package postgres

import (
	"fmt"
	"strings"
	"taskflow/internal/models/task"
)

const selectColumns = `id,
				title,
				description,
				COALESCE(owner_id, ''),
				status,
				completed,
				important,
				favorite,
				created_at,
				updated_at`

// buildWhere переводит фильтр в условие WHERE с позиционными аргументами.
// Семантика совпадает с task.Filter.Matches: статус сравнивается после
// нормализации, поэтому устаревший Important считается Incomplete и important=true.
func buildWhere(filter task.Filter) (string, []any) {
	conds := []string{}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != nil {
		conds = append(conds, "owner_id = "+arg(*filter.OwnerID))
	}

	if filter.Status != nil {
		if *filter.Status == task.StatusComplete {
			conds = append(conds, "status = "+arg(string(task.LegacyComplete)))
		} else {
			conds = append(conds, "status <> "+arg(string(task.LegacyComplete)))
		}
	}

	if filter.Favorite != nil {
		conds = append(conds, "favorite = "+arg(*filter.Favorite))
	}

	if filter.Important != nil {
		legacy := arg(string(task.LegacyImportant))
		if *filter.Important {
			conds = append(conds, "(important OR status = "+legacy+")")
		} else {
			conds = append(conds, "(NOT important AND status <> "+legacy+")")
		}
	}

	if filter.LegacyOnly {
		conds = append(conds, "status = "+arg(string(task.LegacyImportant)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// buildSet собирает SET для частичного обновления.
// Аргументы нумеруются с $2, $1 занят под id.
func buildSet(patch task.Patch) (string, []any) {
	sets := []string{}
	args := []any{}

	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.OwnerID != nil {
		args = append(args, *patch.OwnerID)
		sets = append(sets, fmt.Sprintf("owner_id = NULLIF($%d, '')", len(args)+1))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Completed != nil {
		set("completed", *patch.Completed)
	}
	if patch.Important != nil {
		set("important", *patch.Important)
	}
	if patch.Favorite != nil {
		set("favorite", *patch.Favorite)
	}

	// updated_at не откатывается назад даже при сдвиге часов
	sets = append(sets, "updated_at = GREATEST(updated_at, NOW())")
	return strings.Join(sets, ",\n\t\t\t\t"), args
}
