package service

import "taskflow/internal/models/task"

// CreateParams - поля запроса на создание.
// Status принимает и устаревший Important.
type CreateParams struct {
	Title       string
	Description string
	OwnerID     string
	Favorite    bool
	Status      task.LegacyStatus
	Important   bool
}

// UpdateParams - частичное обновление, nil означает "поле не передано".
// Desc - старое имя поля описания.
type UpdateParams struct {
	Title       *string
	Description *string
	Desc        *string
	OwnerID     *string
	Favorite    *bool
	Status      *string
	Important   *bool
}

// ListParams - фильтр списка в терминах запроса
type ListParams struct {
	OwnerID   *string
	Status    *string
	Favorite  *bool
	Important *bool
}

type Stats struct {
	Total      int `json:"total"`
	Complete   int `json:"complete"`
	Incomplete int `json:"incomplete"`
	Important  int `json:"important"`
	Favorite   int `json:"favorite"`
}
