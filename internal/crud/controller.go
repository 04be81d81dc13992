// Пакет crud — обобщённый контроллер экрана учёта записей.
//
// Каждый экран (новости, несчастные случаи, медпункт, справочники)
// — экземпляр Controller[T] с явным конечным автоматом:
//
//	idle → loading → idle
//	idle → modal_open(create|edit) → submitting → idle → loading → idle
//	idle → confirming_delete → submitting → idle → loading → idle
//
// Любая мутация проверяется PermissionGate до обращения к хранилищу,
// после успешной мутации коллекция перезагружается целиком.
// Потокобезопасен: состояние защищено мьютексом, ввод-вывод выполняется
// вне блокировки в состояниях loading и submitting.
package crud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/catalog"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/lookup"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/rbac"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/recordfilter"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/validate"
)

// Gateway — хранилище записей экрана.
type Gateway[T any] interface {
	List(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, rec T) error
	Update(ctx context.Context, id string, rec T) error
	Delete(ctx context.Context, id string) error
}

// Toggler — хранилище, поддерживающее включение/отключение записи.
type Toggler interface {
	SetActive(ctx context.Context, id string, active bool) error
}

// ReferenceSource — источник активных элементов справочников.
type ReferenceSource interface {
	ActiveEntries(ctx context.Context, kind catalog.Kind) ([]model.CatalogEntry, error)
	ActiveEmployees(ctx context.Context) ([]model.Employee, error)
}

// Authorizer — PermissionGate.
type Authorizer interface {
	Allow(role string, resource rbac.Resource, action rbac.Action) bool
}

// Observer получает результаты мутаций и загрузок (метрики).
type Observer interface {
	Mutation(resource rbac.Resource, action rbac.Action, outcome string)
	Load(resource rbac.Resource, elapsed time.Duration, err error)
}

// Итоги мутаций для Observer.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Actor — оператор, выполняющий действие.
type Actor struct {
	Subject string
	Role    string
}

// CategoricalField — поле черновика, ссылающееся на справочник.
type CategoricalField struct {
	Field string
	Kind  catalog.Kind
	Value string
}

// Screen описывает тип записей экрана.
type Screen[T any] struct {
	Resource rbac.Resource
	// Catalogs — справочники, загружаемые вместе с записями.
	Catalogs []catalog.Kind
	// Directory — загружать справочник сотрудников для автозаполнения.
	Directory bool

	// New возвращает черновик по умолчанию.
	New func() T
	ID  func(T) string

	// NaturalKey и ApplyMatch включают автозаполнение по cedula.
	NaturalKey func(T) string
	ApplyMatch func(d *T, m lookup.Match)
	// Derive пересчитывает вычисляемые поля после каждого изменения черновика.
	Derive func(d *T)
	// Validate проверяет обязательные поля и форматы.
	Validate func(d T) error
	// Categorical перечисляет поля, значения которых должны быть
	// активными элементами справочников.
	Categorical func(d T) []CategoricalField
	// Stamp заполняет поля аудита при создании.
	Stamp func(d *T, subject string)
	// Active — признак активности; nil, если экран не поддерживает переключение.
	Active func(T) bool

	Filter recordfilter.Spec[T]
}

// References — снимок справочников, загруженных вместе с записями.
type References struct {
	Catalogs  map[catalog.Kind][]model.CatalogEntry
	Directory *lookup.Directory
}

// Has проверяет наличие активного элемента с указанным именем.
func (r References) Has(kind catalog.Kind, name string) bool {
	for _, e := range r.Catalogs[kind] {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Deps — зависимости контроллера.
type Deps[T any] struct {
	Gateway    Gateway[T]
	References ReferenceSource
	Gate       Authorizer
	Observer   Observer
	Logger     *slog.Logger
}

// Controller — состояние одного экрана одного оператора.
type Controller[T any] struct {
	screen   Screen[T]
	gateway  Gateway[T]
	refs     ReferenceSource
	gate     Authorizer
	observer Observer
	logger   *slog.Logger

	// first объединяет одновременные первые загрузки сессии.
	first singleflight.Group

	mu         sync.RWMutex
	state      State
	mode       Mode
	loaded     bool
	loadedAt   time.Time
	records    []T
	references References
	draft      T
	original   T
	editingID  string
	deleteID   string
}

// NewController создаёт контроллер в состоянии idle без данных.
func NewController[T any](screen Screen[T], deps Deps[T]) *Controller[T] {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller[T]{
		screen:   screen,
		gateway:  deps.Gateway,
		refs:     deps.References,
		gate:     deps.Gate,
		observer: deps.Observer,
		logger:   logger.With(slog.String("component", "crud"), slog.String("resource", string(screen.Resource))),
		state:    StateIdle,
	}
}

// View — снимок состояния экрана для отображения.
type View[T any] struct {
	State           State     `json:"state"`
	Mode            Mode      `json:"mode,omitempty"`
	Loaded          bool      `json:"loaded"`
	LoadedAt        time.Time `json:"loaded_at"`
	Total           int       `json:"total"`
	Items           []T       `json:"items"`
	Draft           *T        `json:"draft,omitempty"`
	PendingDeleteID string    `json:"pending_delete_id,omitempty"`
}

// View возвращает видимые записи по запросу и текущее состояние.
func (c *Controller[T]) View(q recordfilter.Query) View[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := View[T]{
		State:           c.state,
		Mode:            c.mode,
		Loaded:          c.loaded,
		LoadedAt:        c.loadedAt,
		Total:           len(c.records),
		Items:           recordfilter.Apply(c.records, q, c.screen.Filter),
		PendingDeleteID: c.deleteID,
	}
	if c.state == StateModalOpen || (c.state == StateSubmitting && c.mode != ModeNone) {
		d := c.draft
		v.Draft = &d
	}
	return v
}

// Visible возвращает записи, удовлетворяющие запросу, в порядке коллекции.
func (c *Controller[T]) Visible(q recordfilter.Query) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return recordfilter.Apply(c.records, q, c.screen.Filter)
}

// State возвращает текущее состояние и режим модального окна.
func (c *Controller[T]) State() (State, Mode) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.mode
}

// References возвращает снимок справочников последней загрузки.
func (c *Controller[T]) References() References {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.references
}

// Draft возвращает копию черновика, если модальное окно открыто.
func (c *Controller[T]) Draft() (T, Mode, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateModalOpen {
		var zero T
		return zero, ModeNone, &TransitionError{From: c.state, Event: "read_draft"}
	}
	return c.draft, c.mode, nil
}

// EnsureLoaded выполняет первую загрузку, если данные ещё не загружены.
// Одновременные вызовы ждут одну общую загрузку и получают её результат.
func (c *Controller[T]) EnsureLoaded(ctx context.Context) error {
	if c.isLoaded() {
		return nil
	}
	_, err, _ := c.first.Do("load", func() (any, error) {
		if c.isLoaded() {
			return nil, nil
		}
		return nil, c.Load(ctx)
	})
	return err
}

func (c *Controller[T]) isLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Load загружает записи и справочники параллельно.
// Ошибка любого запроса отменяет остальные, снимок не меняется.
func (c *Controller[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	if err := c.fire(evLoad); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	return c.finishLoad(ctx)
}

// finishLoad выполняет загрузку из состояния loading и возвращает в idle.
func (c *Controller[T]) finishLoad(ctx context.Context) error {
	start := time.Now()
	records, refs, err := c.fetch(ctx)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.fire(evLoaded)

	if c.observer != nil {
		c.observer.Load(c.screen.Resource, elapsed, err)
	}
	if err != nil {
		c.logger.Warn("Загрузка данных не удалась", slog.String("error", err.Error()))
		return &LoadError{Err: err}
	}

	c.records = records
	c.references = refs
	c.loaded = true
	c.loadedAt = time.Now().UTC()
	c.logger.Debug("Данные загружены",
		slog.Int("records", len(records)),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

// fetch запускает все запросы одновременно и ждёт их завершения.
func (c *Controller[T]) fetch(ctx context.Context) ([]T, References, error) {
	g, gctx := errgroup.WithContext(ctx)

	var records []T
	g.Go(func() error {
		var err error
		records, err = c.gateway.List(gctx)
		if err != nil {
			return fmt.Errorf("%s: %w", c.screen.Resource, err)
		}
		return nil
	})

	entries := make([][]model.CatalogEntry, len(c.screen.Catalogs))
	for i, kind := range c.screen.Catalogs {
		g.Go(func() error {
			list, err := c.refs.ActiveEntries(gctx, kind)
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			entries[i] = list
			return nil
		})
	}

	var employees []model.Employee
	if c.screen.Directory {
		g.Go(func() error {
			var err error
			employees, err = c.refs.ActiveEmployees(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", catalog.Employees, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, References{}, err
	}

	refs := References{Catalogs: make(map[catalog.Kind][]model.CatalogEntry, len(entries))}
	for i, kind := range c.screen.Catalogs {
		refs.Catalogs[kind] = entries[i]
	}
	if c.screen.Directory {
		refs.Directory = lookup.NewDirectory(employees)
	}
	return records, refs, nil
}

// OpenCreate открывает модальное окно с черновиком по умолчанию.
func (c *Controller[T]) OpenCreate(actor Actor) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.check(actor, rbac.ActionCreate); err != nil {
		return zero, err
	}
	if err := c.fire(evOpenCreate); err != nil {
		return zero, err
	}

	c.mode = ModeCreate
	c.editingID = ""
	c.original = zero
	c.draft = c.newDraft()
	c.derive(&c.draft)
	return c.draft, nil
}

// OpenEdit открывает модальное окно с копией существующей записи.
func (c *Controller[T]) OpenEdit(actor Actor, id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.check(actor, rbac.ActionUpdate); err != nil {
		return zero, err
	}
	if c.state != StateIdle {
		return zero, &TransitionError{From: c.state, Event: string(evOpenEdit)}
	}
	rec, ok := c.find(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	_ = c.fire(evOpenEdit)

	c.mode = ModeEdit
	c.editingID = id
	c.original = rec
	c.draft = rec
	return c.draft, nil
}

// UpdateDraft применяет изменение к черновику. Если изменилась cedula,
// выполняется автозаполнение из справочника сотрудников; при отсутствии
// совпадения остальные поля остаются как введены.
func (c *Controller[T]) UpdateDraft(mutate func(d *T)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := next(c.state, evEditDraft); err != nil {
		var zero T
		return zero, err
	}

	d := c.draft
	mutate(&d)

	if c.screen.NaturalKey != nil && c.screen.ApplyMatch != nil {
		key := c.screen.NaturalKey(d)
		if key != c.screen.NaturalKey(c.draft) {
			if m, ok := c.references.Directory.Resolve(key); ok {
				c.screen.ApplyMatch(&d, m)
			}
		}
	}
	c.derive(&d)

	c.draft = d
	return c.draft, nil
}

// Cancel закрывает модальное окно или отменяет подтверждение удаления.
// Черновик уничтожается, хранилище не вызывается.
func (c *Controller[T]) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fire(evCancel); err != nil {
		return err
	}
	c.resetModal()
	return nil
}

// Submit сохраняет черновик. При ошибке хранилища модальное окно остаётся
// открытым с неизменённым черновиком.
func (c *Controller[T]) Submit(ctx context.Context, actor Actor) error {
	c.mu.Lock()

	if c.state != StateModalOpen {
		c.mu.Unlock()
		return &TransitionError{From: c.state, Event: string(evSubmit)}
	}

	mode, id := c.mode, c.editingID
	action := rbac.ActionCreate
	if mode == ModeEdit {
		action = rbac.ActionUpdate
	}

	if err := c.check(actor, action); err != nil {
		c.mu.Unlock()
		return err
	}

	c.derive(&c.draft)
	if err := c.validateDraft(c.draft, mode); err != nil {
		c.mu.Unlock()
		c.observe(action, OutcomeInvalid)
		return &ValidationError{Err: err}
	}

	rec := c.draft
	if mode == ModeCreate && c.screen.Stamp != nil {
		c.screen.Stamp(&rec, actor.Subject)
	}
	_ = c.fire(evSubmit)
	c.mu.Unlock()

	var err error
	if mode == ModeCreate {
		err = c.gateway.Insert(ctx, rec)
	} else {
		err = c.gateway.Update(ctx, id, rec)
	}

	c.mu.Lock()
	if err != nil {
		_ = c.fire(evSubmitFailed)
		c.mu.Unlock()
		c.observe(action, OutcomeFailed)
		c.logger.Warn("Сохранение записи не удалось",
			slog.String("action", string(action)),
			slog.String("subject", actor.Subject),
			slog.String("error", err.Error()),
		)
		return &PersistenceError{Action: action, Err: err}
	}

	_ = c.fire(evDone)
	c.resetModal()
	_ = c.fire(evLoad)
	c.mu.Unlock()

	c.observe(action, OutcomeSuccess)
	c.logger.Info("Запись сохранена",
		slog.String("action", string(action)),
		slog.String("subject", actor.Subject),
		slog.String("id", id),
	)
	return c.finishLoad(ctx)
}

// RequestDelete запрашивает подтверждение удаления записи.
func (c *Controller[T]) RequestDelete(actor Actor, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(actor, rbac.ActionDelete); err != nil {
		return err
	}
	if c.state != StateIdle {
		return &TransitionError{From: c.state, Event: string(evRequestDelete)}
	}
	if _, ok := c.find(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	_ = c.fire(evRequestDelete)
	c.deleteID = id
	return nil
}

// ConfirmDelete удаляет запись, ожидающую подтверждения.
func (c *Controller[T]) ConfirmDelete(ctx context.Context, actor Actor) error {
	c.mu.Lock()

	if c.state != StateConfirmingDelete {
		c.mu.Unlock()
		return &TransitionError{From: c.state, Event: string(evConfirmDelete)}
	}
	if err := c.check(actor, rbac.ActionDelete); err != nil {
		c.mu.Unlock()
		return err
	}
	id := c.deleteID
	_ = c.fire(evConfirmDelete)
	c.mu.Unlock()

	err := c.gateway.Delete(ctx, id)

	c.mu.Lock()
	c.deleteID = ""
	if err != nil {
		_ = c.fire(evFailed)
		c.mu.Unlock()
		c.observe(rbac.ActionDelete, OutcomeFailed)
		c.logger.Warn("Удаление записи не удалось",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return &PersistenceError{Action: rbac.ActionDelete, Err: err}
	}
	_ = c.fire(evDone)
	_ = c.fire(evLoad)
	c.mu.Unlock()

	c.observe(rbac.ActionDelete, OutcomeSuccess)
	c.logger.Info("Запись удалена", slog.String("id", id), slog.String("subject", actor.Subject))
	return c.finishLoad(ctx)
}

// ToggleActive переключает признак активности записи и возвращает новое
// значение. Доступно только экранам с признаком активности.
func (c *Controller[T]) ToggleActive(ctx context.Context, actor Actor, id string) (bool, error) {
	toggler, ok := c.gateway.(Toggler)
	if !ok || c.screen.Active == nil {
		return false, ErrUnsupported
	}

	c.mu.Lock()
	if err := c.check(actor, rbac.ActionUpdate); err != nil {
		c.mu.Unlock()
		return false, err
	}
	if c.state != StateIdle {
		c.mu.Unlock()
		return false, &TransitionError{From: c.state, Event: string(evToggle)}
	}
	rec, found := c.find(id)
	if !found {
		c.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	active := !c.screen.Active(rec)
	_ = c.fire(evToggle)
	c.mu.Unlock()

	err := toggler.SetActive(ctx, id, active)

	c.mu.Lock()
	if err != nil {
		_ = c.fire(evFailed)
		c.mu.Unlock()
		c.observe(rbac.ActionUpdate, OutcomeFailed)
		return false, &PersistenceError{Action: rbac.ActionUpdate, Err: err}
	}
	_ = c.fire(evDone)
	_ = c.fire(evLoad)
	c.mu.Unlock()

	c.observe(rbac.ActionUpdate, OutcomeSuccess)
	c.logger.Info("Активность записи изменена",
		slog.String("id", id),
		slog.Bool("active", active),
		slog.String("subject", actor.Subject),
	)
	return active, c.finishLoad(ctx)
}

// --- Внутренние функции (вызываются под c.mu) ---

// fire выполняет переход по событию.
func (c *Controller[T]) fire(ev event) error {
	to, err := next(c.state, ev)
	if err != nil {
		return err
	}
	c.state = to
	return nil
}

// check консультирует PermissionGate. Отказ не меняет состояние.
func (c *Controller[T]) check(actor Actor, action rbac.Action) error {
	if c.gate != nil && c.gate.Allow(actor.Role, c.screen.Resource, action) {
		return nil
	}
	c.observe(action, OutcomeDenied)
	c.logger.Warn("Действие запрещено",
		slog.String("action", string(action)),
		slog.String("role", actor.Role),
		slog.String("subject", actor.Subject),
	)
	return &PermissionError{Role: actor.Role, Resource: c.screen.Resource, Action: action}
}

func (c *Controller[T]) observe(action rbac.Action, outcome string) {
	if c.observer != nil {
		c.observer.Mutation(c.screen.Resource, action, outcome)
	}
}

func (c *Controller[T]) find(id string) (T, bool) {
	for _, r := range c.records {
		if c.screen.ID(r) == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T]) newDraft() T {
	if c.screen.New != nil {
		return c.screen.New()
	}
	var zero T
	return zero
}

func (c *Controller[T]) derive(d *T) {
	if c.screen.Derive != nil {
		c.screen.Derive(d)
	}
}

func (c *Controller[T]) resetModal() {
	var zero T
	c.mode = ModeNone
	c.draft = zero
	c.original = zero
	c.editingID = ""
	c.deleteID = ""
}

// validateDraft проверяет поля и ссылки на справочники. При
// редактировании ранее сохранённое значение допускается, даже если
// элемент справочника с тех пор отключён.
func (c *Controller[T]) validateDraft(d T, mode Mode) error {
	fe := &validate.FieldsError{}
	if c.screen.Validate != nil {
		if err := c.screen.Validate(d); err != nil {
			if !errors.As(err, &fe) {
				return err
			}
		}
	}

	if c.screen.Categorical != nil {
		var kept map[string]string
		if mode == ModeEdit {
			kept = make(map[string]string)
			for _, f := range c.screen.Categorical(c.original) {
				kept[f.Field] = f.Value
			}
		}
		for _, f := range c.screen.Categorical(d) {
			if f.Value == "" || fe.Fields[f.Field] != "" {
				continue
			}
			if kept != nil && kept[f.Field] == f.Value {
				continue
			}
			if !c.references.Has(f.Kind, f.Value) {
				fe.Add(f.Field, "valor no disponible en el catálogo")
			}
		}
	}

	if len(fe.Fields) > 0 {
		return fe
	}
	return nil
}
