// Пакет service — связывает контроллеры экранов с хранилищем,
// справочниками, метриками и сессиями операторов.
package service

import (
	"context"
	"fmt"

	"github.com/Maicol2810/sistemanovedades2.0/internal/crud"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/catalog"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
	"github.com/Maicol2810/sistemanovedades2.0/internal/repository"
)

// recordStore — общая форма репозиториев учётных записей.
type recordStore[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, id string, rec *T) error
	Delete(ctx context.Context, id string) error
}

// activeStore — общая форма репозиториев справочников.
type activeStore[T any] interface {
	ListAll(ctx context.Context) ([]T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, id string, rec *T) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// RecordGateway адаптирует репозиторий записей к crud.Gateway.
type RecordGateway[T any] struct {
	store recordStore[T]
}

// NewRecordGateway создаёт шлюз поверх репозитория записей.
func NewRecordGateway[T any](store recordStore[T]) *RecordGateway[T] {
	return &RecordGateway[T]{store: store}
}

func (g *RecordGateway[T]) List(ctx context.Context) ([]T, error) {
	return g.store.List(ctx)
}

func (g *RecordGateway[T]) Insert(ctx context.Context, rec T) error {
	return g.store.Create(ctx, &rec)
}

func (g *RecordGateway[T]) Update(ctx context.Context, id string, rec T) error {
	return g.store.Update(ctx, id, &rec)
}

func (g *RecordGateway[T]) Delete(ctx context.Context, id string) error {
	return g.store.Delete(ctx, id)
}

// CatalogGateway адаптирует репозиторий справочника к crud.Gateway
// и crud.Toggler. Список содержит и отключённые элементы.
type CatalogGateway[T any] struct {
	store activeStore[T]
}

// NewCatalogGateway создаёт шлюз поверх репозитория справочника.
func NewCatalogGateway[T any](store activeStore[T]) *CatalogGateway[T] {
	return &CatalogGateway[T]{store: store}
}

func (g *CatalogGateway[T]) List(ctx context.Context) ([]T, error) {
	return g.store.ListAll(ctx)
}

func (g *CatalogGateway[T]) Insert(ctx context.Context, rec T) error {
	return g.store.Create(ctx, &rec)
}

func (g *CatalogGateway[T]) Update(ctx context.Context, id string, rec T) error {
	return g.store.Update(ctx, id, &rec)
}

func (g *CatalogGateway[T]) Delete(ctx context.Context, id string) error {
	return g.store.Delete(ctx, id)
}

func (g *CatalogGateway[T]) SetActive(ctx context.Context, id string, active bool) error {
	return g.store.SetActive(ctx, id, active)
}

var (
	_ crud.Gateway[model.Absence]      = (*RecordGateway[model.Absence])(nil)
	_ crud.Gateway[model.CatalogEntry] = (*CatalogGateway[model.CatalogEntry])(nil)
	_ crud.Toggler                     = (*CatalogGateway[model.Employee])(nil)
)

// References — источник активных элементов всех справочников.
type References struct {
	catalogs  map[catalog.Kind]repository.CatalogRepository
	employees repository.EmployeeRepository
}

// NewReferences создаёт репозитории для каждого справочника из схем.
func NewReferences(db repository.DBTX) (*References, error) {
	r := &References{
		catalogs:  make(map[catalog.Kind]repository.CatalogRepository),
		employees: repository.NewEmployeeRepository(db),
	}
	for _, s := range catalog.All() {
		if s.Variant == catalog.VariantDirectory {
			continue
		}
		repo, err := repository.NewCatalogRepository(db, s)
		if err != nil {
			return nil, err
		}
		r.catalogs[s.Kind] = repo
	}
	return r, nil
}

// Catalog возвращает репозиторий справочника.
func (r *References) Catalog(kind catalog.Kind) (repository.CatalogRepository, error) {
	repo, ok := r.catalogs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownKind, kind)
	}
	return repo, nil
}

// Employees возвращает репозиторий справочника сотрудников.
func (r *References) Employees() repository.EmployeeRepository {
	return r.employees
}

func (r *References) ActiveEntries(ctx context.Context, kind catalog.Kind) ([]model.CatalogEntry, error) {
	repo, err := r.Catalog(kind)
	if err != nil {
		return nil, err
	}
	return repo.ListActive(ctx)
}

func (r *References) ActiveEmployees(ctx context.Context) ([]model.Employee, error) {
	return r.employees.ListActive(ctx)
}
