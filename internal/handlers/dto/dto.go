package dto

import (
	"bytes"
	"encoding/json"
	"taskflow/internal/models/task"
	"taskflow/internal/service"
)

// LooseBool принимает любое JSON значение и приводит его к bool:
// false, 0, "" и null - ложь, всё остальное - истина.
type LooseBool bool

func (b *LooseBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch val := v.(type) {
	case nil:
		*b = false
	case bool:
		*b = LooseBool(val)
	case float64:
		*b = val != 0
	case string:
		*b = val != ""
	default:
		*b = true
	}
	return nil
}

type CreateTaskRequest struct {
	Title       string    `json:"title"`
	Desc        string    `json:"desc"`
	Description string    `json:"description"`
	UserID      string    `json:"userId"`
	Favorite    LooseBool `json:"favorite"`
	Status      string    `json:"status"`
	Important   LooseBool `json:"important"`
}

func (r CreateTaskRequest) ToParams() service.CreateParams {
	description := r.Description
	if description == "" {
		description = r.Desc
	}
	return service.CreateParams{
		Title:       r.Title,
		Description: description,
		OwnerID:     r.UserID,
		Favorite:    bool(r.Favorite),
		Status:      task.LegacyStatus(r.Status),
		Important:   bool(r.Important),
	}
}

// Optional помнит, было ли поле в теле запроса. Явный null тоже
// считается переданным значением: Set=true, Null=true, Value нулевое.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Ptr возвращает nil для отсутствующего поля, иначе значение (для null нулевое)
func (o Optional[T]) Ptr() *T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

type UpdateTaskRequest struct {
	Title       Optional[string]    `json:"title"`
	Desc        Optional[string]    `json:"desc"`
	Description Optional[string]    `json:"description"`
	UserID      Optional[string]    `json:"userId"`
	Favorite    Optional[LooseBool] `json:"favorite"`
	Status      Optional[string]    `json:"status"`
	Important   Optional[LooseBool] `json:"important"`
}

// ToParams: null в status превращается в пустую строку и не проходит
// проверку статуса, null в important и favorite означает false.
func (r UpdateTaskRequest) ToParams() service.UpdateParams {
	return service.UpdateParams{
		Title:       r.Title.Ptr(),
		Description: r.Description.Ptr(),
		Desc:        r.Desc.Ptr(),
		OwnerID:     r.UserID.Ptr(),
		Favorite:    looseBoolPtr(r.Favorite),
		Status:      r.Status.Ptr(),
		Important:   looseBoolPtr(r.Important),
	}
}

func looseBoolPtr(o Optional[LooseBool]) *bool {
	if !o.Set {
		return nil
	}
	v := bool(o.Value)
	return &v
}

// ToggleRequest - тело PATCH запросов favorite/important.
// Явным значением считается только JSON boolean.
type ToggleRequest map[string]json.RawMessage

func (r ToggleRequest) Explicit(field string) *bool {
	raw, ok := r[field]
	if !ok {
		return nil
	}
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

type StatusRequest struct {
	Status string `json:"status"`
}

type BulkRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action"`
}
