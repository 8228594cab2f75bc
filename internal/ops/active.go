package ops

import (
	"github.com/whyash5114/notistore/internal/errors"
	"github.com/whyash5114/notistore/internal/listener"
	"github.com/whyash5114/notistore/internal/notification"
	"github.com/whyash5114/notistore/internal/parser"
)

// ActiveOutput contains the notifications currently in the status bar.
type ActiveOutput struct {
	Notifications []*notification.Record `json:"notifications"`
	Count         int                    `json:"count"`
}

// Active snapshots the currently active notifications straight from the
// listener connection. The records are normalized on the fly and never
// persisted; ids are fresh on every call.
func Active(holder *listener.Holder, opts parser.Options) (*ActiveOutput, error) {
	svc := holder.Service()
	if svc == nil {
		return nil, errors.NewServiceNotConnected()
	}

	raws, err := svc.ActiveNotifications()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	records := make([]*notification.Record, 0, len(raws))
	for _, raw := range raws {
		if record, ok := parser.Parse(raw, opts); ok {
			records = append(records, record)
		}
	}

	return &ActiveOutput{
		Notifications: records,
		Count:         len(records),
	}, nil
}
