package crud

// State — состояние экрана.
type State string

const (
	StateIdle             State = "idle"
	StateLoading          State = "loading"
	StateModalOpen        State = "modal_open"
	StateSubmitting       State = "submitting"
	StateConfirmingDelete State = "confirming_delete"
)

// Mode — режим модального окна.
type Mode string

const (
	ModeNone   Mode = ""
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// event — входное событие автомата.
type event string

const (
	evLoad          event = "load"
	evLoaded        event = "loaded"
	evOpenCreate    event = "open_create"
	evOpenEdit      event = "open_edit"
	evEditDraft     event = "edit_draft"
	evCancel        event = "cancel"
	evSubmit        event = "submit"
	evRequestDelete event = "request_delete"
	evConfirmDelete event = "confirm_delete"
	evToggle        event = "toggle"
	evDone          event = "done"
	evSubmitFailed  event = "submit_failed"
	evFailed        event = "failed"
)

// transitions — матрица допустимых переходов.
// Ключ — текущее состояние, значение — событие и целевое состояние.
var transitions = map[State]map[event]State{
	StateIdle: {
		evLoad:          StateLoading,
		evOpenCreate:    StateModalOpen,
		evOpenEdit:      StateModalOpen,
		evRequestDelete: StateConfirmingDelete,
		evToggle:        StateSubmitting,
	},
	StateLoading: {
		evLoaded: StateIdle,
	},
	StateModalOpen: {
		evEditDraft: StateModalOpen,
		evCancel:    StateIdle,
		evSubmit:    StateSubmitting,
	},
	StateSubmitting: {
		evDone:         StateIdle,
		evSubmitFailed: StateModalOpen,
		evFailed:       StateIdle,
	},
	StateConfirmingDelete: {
		evCancel:        StateIdle,
		evConfirmDelete: StateSubmitting,
	},
}

// next возвращает целевое состояние или TransitionError.
func next(from State, ev event) (State, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, &TransitionError{From: from, Event: string(ev)}
	}
	return to, nil
}
