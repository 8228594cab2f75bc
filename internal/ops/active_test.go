package ops

import (
	"testing"

	"github.com/whyash5114/notistore/internal/errors"
	"github.com/whyash5114/notistore/internal/listener"
	"github.com/whyash5114/notistore/internal/parser"
)

type fakeService struct {
	active []listener.RawNotification
}

func (f *fakeService) ActiveNotifications() ([]listener.RawNotification, error) {
	return f.active, nil
}

func TestActive_NotConnected(t *testing.T) {
	holder := &listener.Holder{}

	_, err := Active(holder, parser.Options{})
	if !errors.Is(err, errors.ErrServiceNotConnected) {
		t.Errorf("error = %v, want SERVICE_NOT_CONNECTED", err)
	}
}

func TestActive_SnapshotsWithoutPersisting(t *testing.T) {
	holder := &listener.Holder{}
	holder.Attach(&fakeService{active: []listener.RawNotification{
		{
			PackageName: "com.a",
			PostTime:    100,
			Payload:     &listener.RawPayload{Extras: map[string]any{listener.ExtraTitle: "t"}},
		},
		{PackageName: "com.broken", PostTime: 200}, // no payload, skipped
	}})

	out, err := Active(holder, parser.Options{})
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("Count = %d, want 1", out.Count)
	}
	if out.Notifications[0].PackageName != "com.a" {
		t.Errorf("package = %q, want com.a", out.Notifications[0].PackageName)
	}
	if out.Notifications[0].ID == "" {
		t.Error("snapshot record has no id")
	}
}

func TestActive_DetachRestoresError(t *testing.T) {
	holder := &listener.Holder{}
	holder.Attach(&fakeService{})
	holder.Detach()

	if _, err := Active(holder, parser.Options{}); !errors.Is(err, errors.ErrServiceNotConnected) {
		t.Errorf("error after detach = %v, want SERVICE_NOT_CONNECTED", err)
	}
}
