package model

import "time"

// CatalogEntry — элемент справочника (типы новостей, симптомы, части тела и т.д.).
// Code заполняется только у кодированных справочников.
type CatalogEntry struct {
	ID        string    `json:"id"`
	Code      string    `json:"codigo,omitempty"`
	Name      string    `json:"nombre"`
	Active    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
}

// Employee — запись справочника сотрудников (таблица funcionarios).
// Используется для автозаполнения по cedula.
type Employee struct {
	ID         string    `json:"id"`
	NationalID string    `json:"cedula"`
	Name       string    `json:"nombre"`
	Title      string    `json:"cargo"`
	Unit       string    `json:"dependencia"`
	Active     bool      `json:"activo"`
	CreatedAt  time.Time `json:"created_at"`
}
