package service

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Maicol2810/sistemanovedades2.0/internal/crud"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/catalog"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/model"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/recordfilter"
	"github.com/Maicol2810/sistemanovedades2.0/internal/export"
	"github.com/Maicol2810/sistemanovedades2.0/internal/repository"
)

// Board — экран: определение и контроллеры сессий операторов.
type Board[T any] struct {
	Def      Definition[T]
	sessions *Sessions[T]
}

// Controller возвращает контроллер экрана для сессии оператора.
func (b *Board[T]) Controller(session string) *crud.Controller[T] {
	return b.sessions.Get(session)
}

// Sessions возвращает количество активных сессий экрана.
func (b *Board[T]) Sessions() int {
	return b.sessions.Len()
}

// Export записывает видимые по запросу записи в XLSX.
func (b *Board[T]) Export(w io.Writer, c *crud.Controller[T], q recordfilter.Query) error {
	return export.Write(w, b.Def.Sheet, b.Def.Columns, c.Visible(q))
}

// ExportName возвращает имя файла выгрузки для запроса.
func (b *Board[T]) ExportName(q recordfilter.Query) string {
	if b.Def.FileName != "" {
		return b.Def.FileName
	}
	return export.FileName(b.Def.Export, q.From, q.To)
}

// Stores — шлюзы хранилища всех экранов.
type Stores struct {
	Absences   crud.Gateway[model.Absence]
	Accidents  crud.Gateway[model.Accident]
	Infirmary  crud.Gateway[model.InfirmaryVisit]
	Catalogs   map[catalog.Kind]crud.Gateway[model.CatalogEntry]
	Employees  crud.Gateway[model.Employee]
	References crud.ReferenceSource
}

// PostgresStores создаёт шлюзы поверх репозиториев PostgreSQL.
func PostgresStores(db repository.DBTX) (Stores, error) {
	refs, err := NewReferences(db)
	if err != nil {
		return Stores{}, err
	}
	s := Stores{
		Absences:   NewRecordGateway[model.Absence](repository.NewAbsenceRepository(db)),
		Accidents:  NewRecordGateway[model.Accident](repository.NewAccidentRepository(db)),
		Infirmary:  NewRecordGateway[model.InfirmaryVisit](repository.NewInfirmaryRepository(db)),
		Catalogs:   make(map[catalog.Kind]crud.Gateway[model.CatalogEntry]),
		Employees:  NewCatalogGateway[model.Employee](refs.Employees()),
		References: refs,
	}
	for _, schema := range catalog.All() {
		if schema.Variant == catalog.VariantDirectory {
			continue
		}
		repo, err := refs.Catalog(schema.Kind)
		if err != nil {
			return Stores{}, err
		}
		s.Catalogs[schema.Kind] = NewCatalogGateway[model.CatalogEntry](repo)
	}
	return s, nil
}

// WorkspaceConfig — параметры рабочего пространства.
type WorkspaceConfig struct {
	Stores     Stores
	Gate       crud.Authorizer
	Observer   crud.Observer
	Options    ScreenOptions
	SessionMax int
	SessionTTL time.Duration
}

// Workspace — все экраны приложения.
type Workspace struct {
	Absences  *Board[model.Absence]
	Accidents *Board[model.Accident]
	Infirmary *Board[model.InfirmaryVisit]
	Employees *Board[model.Employee]
	catalogs  map[catalog.Kind]*Board[model.CatalogEntry]

	drops  []func(session string)
	logger *slog.Logger
}

// NewWorkspace создаёт экраны и хранилища их сессий.
func NewWorkspace(cfg WorkspaceConfig, logger *slog.Logger) (*Workspace, error) {
	ws := &Workspace{
		catalogs: make(map[catalog.Kind]*Board[model.CatalogEntry]),
		logger:   logger.With(slog.String("component", "workspace")),
	}

	var err error
	if ws.Absences, err = newBoard(ws, cfg, AbsenceScreen(cfg.Options), cfg.Stores.Absences, logger); err != nil {
		return nil, err
	}
	if ws.Accidents, err = newBoard(ws, cfg, AccidentScreen(cfg.Options), cfg.Stores.Accidents, logger); err != nil {
		return nil, err
	}
	if ws.Infirmary, err = newBoard(ws, cfg, InfirmaryScreen(cfg.Options), cfg.Stores.Infirmary, logger); err != nil {
		return nil, err
	}
	if ws.Employees, err = newBoard(ws, cfg, EmployeeScreen(), cfg.Stores.Employees, logger); err != nil {
		return nil, err
	}

	for _, schema := range catalog.All() {
		if schema.Variant == catalog.VariantDirectory {
			continue
		}
		board, err := newBoard(ws, cfg, CatalogScreen(schema), cfg.Stores.Catalogs[schema.Kind], logger)
		if err != nil {
			return nil, err
		}
		ws.catalogs[schema.Kind] = board
	}
	return ws, nil
}

func newBoard[T any](ws *Workspace, cfg WorkspaceConfig, def Definition[T], gw crud.Gateway[T], logger *slog.Logger) (*Board[T], error) {
	if gw == nil {
		return nil, fmt.Errorf("нет хранилища для экрана %s", def.Export)
	}
	deps := crud.Deps[T]{
		Gateway:    gw,
		References: cfg.Stores.References,
		Gate:       cfg.Gate,
		Observer:   cfg.Observer,
		Logger:     logger,
	}
	sessions := NewSessions[T](def.Export, cfg.SessionMax, cfg.SessionTTL, func() *crud.Controller[T] {
		return crud.NewController[T](def.Screen, deps)
	})
	ws.drops = append(ws.drops, sessions.Drop)
	return &Board[T]{Def: def, sessions: sessions}, nil
}

// Catalog возвращает экран простого или кодированного справочника.
// Справочник сотрудников обслуживается отдельным экраном Employees.
func (ws *Workspace) Catalog(kind string) (*Board[model.CatalogEntry], error) {
	schema, err := catalog.Lookup(kind)
	if err != nil {
		return nil, err
	}
	board, ok := ws.catalogs[schema.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownKind, kind)
	}
	return board, nil
}

// Drop удаляет контроллеры сессии на всех экранах.
func (ws *Workspace) Drop(session string) {
	for _, drop := range ws.drops {
		drop(session)
	}
	ws.logger.Debug("Сессия закрыта", slog.String("session", session))
}
