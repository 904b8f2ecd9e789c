package events

import (
	"github.com/kelindar/event"
)

// Bus fans engine events out to subscribers via a kelindar/event
// dispatcher.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New returns an empty bus ready for subscriptions.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish delivers ev to every subscriber of its concrete type. The
// underlying library is generic, so interface values dispatch through a
// type switch over the known event kinds.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case RecordingStartedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingStoppedEvent:
		event.Publish(b.dispatcher, e)
	case RecordingFailedEvent:
		event.Publish(b.dispatcher, e)
	case ConversionFinishedEvent:
		event.Publish(b.dispatcher, e)
	case DeviceLostEvent:
		event.Publish(b.dispatcher, e)
	case DeviceRecoveredEvent:
		event.Publish(b.dispatcher, e)
	case SettingsUpdatedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler whose parameter type selects the events
// it receives, e.g. func(RecordingStartedEvent). The returned function
// cancels the subscription.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(RecordingStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RecordingFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConversionFinishedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceLostEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceRecoveredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SettingsUpdatedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Unrecognized handler type, nothing to unsubscribe
		return func() {}
	}
}
