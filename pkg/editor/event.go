package editor

// Event is a change notification sent to observers after the mutation it
// reports has completed.
type Event int

const (
	EventValueChanged Event = iota
	EventEditingDidBegin
	EventEditingDidEnd
)

func (e Event) String() string {
	switch e {
	case EventValueChanged:
		return "valueChanged"
	case EventEditingDidBegin:
		return "editingDidBegin"
	case EventEditingDidEnd:
		return "editingDidEnd"
	default:
		return "unknown"
	}
}

type Observer func(Event)

// Subscribe registers o for every event of the editor.
func (r *Editor) Subscribe(o Observer) {
	if o == nil {
		return
	}
	r.observers = append(r.observers, o)
}

func (r *Editor) notify(e Event) {
	r.log.V(2).Info("notify", "event", e.String())
	for _, o := range r.observers {
		o(e)
	}
}
