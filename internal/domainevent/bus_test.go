package domainevent

import "testing"

func TestPublish_DispatchesToTypedAndAllHandlers(t *testing.T) {
	bus := NewInProcessBus()

	var typedCount, allCount int
	bus.Subscribe(EventServiceConnected, func(e Event) { typedCount++ })
	bus.SubscribeAll(func(e Event) { allCount++ })

	bus.Publish(New(EventServiceConnected, 1, ServiceConnectedPayload{Address: "a:1"}))
	bus.Publish(New(EventSyncFailed, 1, SyncFailedPayload{Reason: "boom"}))

	if typedCount != 1 {
		t.Fatalf("expected typed handler called once, got %d", typedCount)
	}
	if allCount != 2 {
		t.Fatalf("expected all-handler called twice, got %d", allCount)
	}
}

func TestClose_StopsDispatch(t *testing.T) {
	bus := NewInProcessBus()
	var count int
	bus.SubscribeAll(func(e Event) { count++ })

	bus.Close()
	bus.Publish(New(EventSyncCompleted, 1, nil))

	if count != 0 {
		t.Fatalf("expected closed bus to drop events, got %d dispatches", count)
	}
}
