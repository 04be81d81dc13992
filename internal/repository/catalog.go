package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/catalog"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
)

// CatalogRepository — CRUD для одного простого или кодированного справочника.
// Все списки упорядочены по nombre.
type CatalogRepository interface {
	ListAll(ctx context.Context) ([]model.CatalogEntry, error)
	// ListActive возвращает только активные элементы (для выпадающих списков).
	ListActive(ctx context.Context) ([]model.CatalogEntry, error)
	Create(ctx context.Context, e *model.CatalogEntry) error
	Update(ctx context.Context, id string, e *model.CatalogEntry) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

type catalogRepo struct {
	db     DBTX
	schema catalog.Schema
}

// NewCatalogRepository создаёт репозиторий справочника по его схеме.
// Справочник сотрудников обслуживает EmployeeRepository.
func NewCatalogRepository(db DBTX, schema catalog.Schema) (CatalogRepository, error) {
	if schema.Variant == catalog.VariantDirectory {
		return nil, fmt.Errorf("справочник %s обслуживается EmployeeRepository", schema.Kind)
	}
	return &catalogRepo{db: db, schema: schema}, nil
}

func (r *catalogRepo) coded() bool {
	return r.schema.Variant == catalog.VariantCoded
}

func (r *catalogRepo) columns() string {
	if r.coded() {
		return "id, codigo, nombre, activo, created_at"
	}
	return "id, '', nombre, activo, created_at"
}

func (r *catalogRepo) list(ctx context.Context, activeOnly bool) ([]model.CatalogEntry, error) {
	query := `SELECT ` + r.columns() + ` FROM ` + r.schema.Table
	if activeOnly {
		query += ` WHERE activo = TRUE`
	}
	query += ` ORDER BY nombre`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения справочника %s: %w", r.schema.Kind, err)
	}
	defer rows.Close()

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CatalogEntry, error) {
		var e model.CatalogEntry
		err := row.Scan(&e.ID, &e.Code, &e.Name, &e.Active, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования справочника %s: %w", r.schema.Kind, err)
	}
	return result, nil
}

func (r *catalogRepo) ListAll(ctx context.Context) ([]model.CatalogEntry, error) {
	return r.list(ctx, false)
}

func (r *catalogRepo) ListActive(ctx context.Context) ([]model.CatalogEntry, error) {
	return r.list(ctx, true)
}

func (r *catalogRepo) Create(ctx context.Context, e *model.CatalogEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	var row pgx.Row
	if r.coded() {
		row = r.db.QueryRow(ctx,
			`INSERT INTO `+r.schema.Table+` (id, codigo, nombre, activo) VALUES ($1, $2, $3, $4) RETURNING created_at`,
			e.ID, e.Code, e.Name, e.Active)
	} else {
		row = r.db.QueryRow(ctx,
			`INSERT INTO `+r.schema.Table+` (id, nombre, activo) VALUES ($1, $2, $3) RETURNING created_at`,
			e.ID, e.Name, e.Active)
	}
	if err := row.Scan(&e.CreatedAt); err != nil {
		return wrapWriteError("создания элемента справочника", err)
	}
	return nil
}

// Update сохраняет форму редактирования целиком, включая activo.
func (r *catalogRepo) Update(ctx context.Context, id string, e *model.CatalogEntry) error {
	var (
		query string
		args  []any
	)
	if r.coded() {
		query = `UPDATE ` + r.schema.Table + ` SET codigo = $2, nombre = $3, activo = $4 WHERE id = $1`
		args = []any{id, e.Code, e.Name, e.Active}
	} else {
		query = `UPDATE ` + r.schema.Table + ` SET nombre = $2, activo = $3 WHERE id = $1`
		args = []any{id, e.Name, e.Active}
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return wrapWriteError("обновления элемента справочника", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, r.schema.Table, id)
}

func (r *catalogRepo) SetActive(ctx context.Context, id string, active bool) error {
	return setActive(ctx, r.db, r.schema.Table, id, active)
}

// setActive переключает флаг activo. table — только из схемы справочника.
func setActive(ctx context.Context, db DBTX, table, id string, active bool) error {
	tag, err := db.Exec(ctx, `UPDATE `+table+` SET activo = $2 WHERE id = $1`, id, active)
	if err != nil {
		return wrapWriteError("изменения статуса", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
