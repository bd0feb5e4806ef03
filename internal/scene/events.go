package scene

// EventType names a scene notification.
type EventType string

const (
	EventAdded            EventType = "node:added"
	EventRemoved          EventType = "node:removed"
	EventModified         EventType = "node:modified"
	EventMoving           EventType = "node:moving"
	EventScaling          EventType = "node:scaling"
	EventRotating         EventType = "node:rotating"
	EventSelectionCreated EventType = "selection:created"
	EventSelectionUpdated EventType = "selection:updated"
	EventSelectionCleared EventType = "selection:cleared"
	EventCleared          EventType = "scene:cleared"
	EventLoaded           EventType = "scene:loaded"
)

// Event is delivered synchronously to listeners after the scene changed.
type Event struct {
	Type      EventType
	Node      *Node
	Selection Selection
}

// Mutation reports whether the event changes persisted content.
func (e Event) Mutation() bool {
	switch e.Type {
	case EventAdded, EventRemoved, EventModified:
		return true
	}
	return false
}

// Listener observes scene events.
type Listener func(Event)

// On registers l and returns a function that removes it.
func (s *Scene) On(l Listener) (off func()) {
	if s.listeners == nil {
		s.listeners = map[int]Listener{}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() { delete(s.listeners, id) }
}

func (s *Scene) emit(e Event) {
	// Listener order is registration order.
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			l(e)
		}
	}
}
