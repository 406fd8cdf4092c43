package ws

// Stats receives websocket lifecycle and delivery notifications. The
// Prometheus collector implements it; tests use NopStats.
type Stats interface {
	SessionOpened()
	SessionClosed()
	PushDelivered()
	ConnPruned()
}

// NopStats ignores every notification.
type NopStats struct{}

func (NopStats) SessionOpened() {}
func (NopStats) SessionClosed() {}
func (NopStats) PushDelivered() {}
func (NopStats) ConnPruned()    {}
