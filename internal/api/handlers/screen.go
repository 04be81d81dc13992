// screen.go — маршруты экрана учёта записей.
//
//	GET    /                 список (q, from, to)
//	POST   /reload           перезагрузка записей и справочников
//	GET    /export           выгрузка видимых записей в XLSX
//	GET    /references       активные элементы справочников формы
//	POST   /draft            открыть форму создания
//	POST   /{id}/draft       открыть форму редактирования
//	GET    /draft            текущий черновик
//	PATCH  /draft            изменить поля черновика
//	DELETE /draft            закрыть форму
//	POST   /draft/submit     сохранить черновик
//	POST   /{id}/delete      запросить подтверждение удаления
//	POST   /delete/confirm   удалить
//	POST   /delete/cancel    отменить удаление
//	POST   /{id}/toggle      включить/отключить элемент справочника
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Maicol2810/sistemanovedades2.0/internal/api/errors"
	"github.com/Maicol2810/sistemanovedades2.0/internal/crud"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/catalog"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/recordfilter"
	"github.com/Maicol2810/sistemanovedades2.0/internal/export"
	"github.com/Maicol2810/sistemanovedades2.0/internal/service"
)

// screenHandler — обработчики одного экрана.
type screenHandler[T any] struct {
	board  *service.Board[T]
	logger *slog.Logger
}

// screenRoutes возвращает функцию регистрации маршрутов экрана.
func screenRoutes[T any](board *service.Board[T], logger *slog.Logger) func(r chi.Router) {
	h := &screenHandler[T]{
		board:  board,
		logger: logger.With(slog.String("screen", board.Def.Export)),
	}
	return func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/reload", h.reload)
		r.Get("/export", h.export)
		r.Get("/references", h.references)

		r.Post("/draft", h.openCreate)
		r.Get("/draft", h.draft)
		r.Patch("/draft", h.updateDraft)
		r.Delete("/draft", h.cancel)
		r.Post("/draft/submit", h.submit)

		r.Post("/delete/confirm", h.confirmDelete)
		r.Post("/delete/cancel", h.cancel)

		r.Post("/{id}/draft", h.openEdit)
		r.Post("/{id}/delete", h.requestDelete)
		r.Post("/{id}/toggle", h.toggle)
	}
}

// controller возвращает контроллер сессии оператора и выполняет первую
// загрузку. При ошибке ответ уже записан.
func (h *screenHandler[T]) controller(w http.ResponseWriter, r *http.Request) (*crud.Controller[T], crud.Actor, bool) {
	actor, session, ok := actorFromRequest(r)
	if !ok {
		apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
		return nil, actor, false
	}
	c := h.board.Controller(session)
	if err := c.EnsureLoaded(r.Context()); err != nil {
		writeCrudError(w, err, service.NoticeLoadFailed, service.NoticeForbidden)
		return nil, actor, false
	}
	return c, actor, true
}

func queryFromRequest(r *http.Request) recordfilter.Query {
	v := r.URL.Query()
	return recordfilter.Query{Text: v.Get("q"), From: v.Get("from"), To: v.Get("to")}
}

// list — GET /. Видимые записи и состояние экрана.
func (h *screenHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.View(queryFromRequest(r)))
}

// reload — POST /reload. Повторная загрузка с сохранением фильтра.
func (h *screenHandler[T]) reload(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.Load(r.Context()); err != nil {
		writeCrudError(w, err, service.NoticeLoadFailed, service.NoticeForbidden)
		return
	}
	writeJSON(w, http.StatusOK, c.View(queryFromRequest(r)))
}

// export — GET /export. Книга формируется в памяти: при ошибке
// клиент получает JSON, а не обрезанный файл.
func (h *screenHandler[T]) export(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.controller(w, r)
	if !ok {
		return
	}
	q := queryFromRequest(r)

	var buf bytes.Buffer
	if err := h.board.Export(&buf, c, q); err != nil {
		h.logger.Error("Ошибка выгрузки", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Error al exportar el archivo")
		return
	}

	name := h.board.ExportName(q)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	h.logger.Info(service.NoticeExported,
		slog.String("file", name),
		slog.String("subject", actor.Subject),
	)
}

// referencesResponse — значения для полей формы.
type referencesResponse struct {
	Catalogs  map[catalog.Kind][]string `json:"catalogs"`
	Options   map[string][]string       `json:"options,omitempty"`
	Directory int                       `json:"directory_size"`
}

// references — GET /references. Только активные элементы, по имени.
func (h *screenHandler[T]) references(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	refs := c.References()
	resp := referencesResponse{
		Catalogs:  make(map[catalog.Kind][]string, len(refs.Catalogs)),
		Options:   h.board.Def.Options,
		Directory: refs.Directory.Len(),
	}
	for kind, entries := range refs.Catalogs {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		sort.Strings(names)
		resp.Catalogs[kind] = names
	}
	writeJSON(w, http.StatusOK, resp)
}

// draftResponse — черновик и режим формы.
type draftResponse[T any] struct {
	Mode  crud.Mode `json:"mode"`
	Draft T         `json:"draft"`
}

// openCreate — POST /draft.
func (h *screenHandler[T]) openCreate(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.controller(w, r)
	if !ok {
		return
	}
	d, err := c.OpenCreate(actor)
	if err != nil {
		writeCrudError(w, err, h.board.Def.Notices.SaveFailed, service.NoticeForbidden)
		return
	}
	writeJSON(w, http.StatusCreated, draftResponse[T]{Mode: crud.ModeCreate, Draft: d})
}

// openEdit — POST /{id}/draft.
func (h *screenHandler[T]) openEdit(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.controller(w, r)
	if !ok {
		return
	}
	d, err := c.OpenEdit(actor, chi.URLParam(r, "id"))
	if err != nil {
		writeCrudError(w, err, h.board.Def.Notices.SaveFailed, service.NoticeForbiddenEdit)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse[T]{Mode: crud.ModeEdit, Draft: d})
}

// draft — GET /draft.
func (h *screenHandler[T]) draft(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	d, mode, err := c.Draft()
	if err != nil {
		writeCrudError(w, err, h.board.Def.Notices.SaveFailed, service.NoticeForbidden)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse[T]{Mode: mode, Draft: d})
}

// updateDraft — PATCH /draft. Тело — JSON-объект с изменяемыми полями;
// отсутствующие поля не меняются.
func (h *screenHandler[T]) updateDraft(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		apierrors.ValidationError(w, "Не удалось прочитать тело запроса")
		return
	}
	if err := checkPatch[T](raw); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	d, err := c.UpdateDraft(func(d *T) {
		// Тело уже проверено checkPatch.
		_ = json.Unmarshal(raw, d)
	})
	if err != nil {
		writeCrudError(w, err, h.board.Def.Notices.SaveFailed, service.NoticeForbidden)
		return
	}
	_, mode := c.State()
	writeJSON(w, http.StatusOK, draftResponse[T]{Mode: mode, Draft: d})
}

// checkPatch проверяет, что тело — JSON-объект с известными полями
// допустимых типов.
func checkPatch[T any](raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("ожидается JSON-объект: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var probe T
	if err := dec.Decode(&probe); err != nil {
		return fmt.Errorf("невалидные поля черновика: %w", err)
	}
	return nil
}

// cancel — DELETE /draft и POST /delete/cancel.
func (h *screenHandler[T]) cancel(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.Cancel(); err != nil {
		writeCrudError(w, err, h.board.Def.Notices.SaveFailed, service.NoticeForbidden)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submit — POST /draft/submit.
func (h *screenHandler[T]) submit(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.controller(w, r)
	if !ok {
		return
	}
	notices := h.board.Def.Notices
	message, forbidden := notices.Created, service.NoticeForbidden
	if _, mode := c.State(); mode == crud.ModeEdit {
		message, forbidden = notices.Updated, service.NoticeForbiddenEdit
	}

	err := c.Submit(r.Context(), actor)
	if err != nil && !isReloadError(err) {
		writeCrudError(w, err, notices.SaveFailed, forbidden)
		return
	}
	writeNotice(w, message, err)
}

// requestDelete — POST /{id}/delete.
func (h *screenHandler[T]) requestDelete(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.controller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := c.RequestDelete(actor, id); err != nil {
		writeCrudError(w, err, h.board.Def.Notices.DeleteFailed, service.NoticeForbiddenDelete)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pending_delete_id": id})
}

// confirmDelete — POST /delete/confirm.
func (h *screenHandler[T]) confirmDelete(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.controller(w, r)
	if !ok {
		return
	}
	err := c.ConfirmDelete(r.Context(), actor)
	if err != nil && !isReloadError(err) {
		writeCrudError(w, err, h.board.Def.Notices.DeleteFailed, service.NoticeForbiddenDelete)
		return
	}
	writeNotice(w, h.board.Def.Notices.Deleted, err)
}

// toggle — POST /{id}/toggle.
func (h *screenHandler[T]) toggle(w http.ResponseWriter, r *http.Request) {
	c, actor, ok := h.controller(w, r)
	if !ok {
		return
	}
	notices := h.board.Def.Notices
	active, err := c.ToggleActive(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil && !isReloadError(err) {
		writeCrudError(w, err, notices.ToggleFailed, service.NoticeForbiddenEdit)
		return
	}

	message := notices.Deactivated
	if active {
		message = notices.Activated
	}
	resp := noticeResponse{
		Notice: notice{Level: "success", Message: message},
		Active: &active,
	}
	if err != nil {
		resp.Warning = service.NoticeLoadFailed
	}
	writeJSON(w, http.StatusOK, resp)
}

// isReloadError — мутация выполнена, не удалась только перезагрузка.
func isReloadError(err error) bool {
	var loadErr *crud.LoadError
	return errors.As(err, &loadErr)
}
