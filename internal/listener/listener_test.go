package listener

import (
	"sync"
	"testing"
)

type stubService struct{}

func (stubService) ActiveNotifications() ([]RawNotification, error) { return nil, nil }

func TestHolder_AttachDetach(t *testing.T) {
	h := &Holder{}

	if h.Service() != nil {
		t.Error("fresh holder has a service")
	}

	svc := stubService{}
	h.Attach(svc)
	if h.Service() == nil {
		t.Error("Service() = nil after Attach")
	}

	h.Detach()
	if h.Service() != nil {
		t.Error("Service() != nil after Detach")
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	h := &Holder{}
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Attach(stubService{})
			h.Detach()
		}()
		go func() {
			defer wg.Done()
			_ = h.Service()
		}()
	}
	wg.Wait()
}
