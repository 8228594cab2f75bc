// Package listener defines the boundary to the platform notification
// delivery mechanism: the raw event shapes it hands us, the service
// handle for reading active notifications, and the holder that tracks
// whether the listener is currently attached.
package listener

import "sync"

// RawAction is one action button as delivered by the platform.
type RawAction struct {
	Title            string
	Icon             any // opaque icon handle, nil when absent
	RemoteInputCount int
}

// RawPayload is the loosely-typed notification body. Extras carries the
// style bundle under platform extra keys (see the Extra* constants).
type RawPayload struct {
	Extras    map[string]any
	Category  string
	Flags     int
	Priority  int
	Number    int
	GroupKey  string
	ChannelID string
	Actions   []RawAction
	SmallIcon any
	LargeIcon any
}

// RawNotification is one platform notification event. Payload is nil
// when the platform delivered an event with no underlying notification
// object; normalization skips those.
type RawNotification struct {
	PackageName string
	PostTime    int64
	Payload     *RawPayload
}

// Platform extra keys, mirroring the platform notification bundle.
const (
	ExtraTitle                 = "android.title"
	ExtraText                  = "android.text"
	ExtraSubText               = "android.subText"
	ExtraInfoText              = "android.infoText"
	ExtraSummaryText           = "android.summaryText"
	ExtraTemplate              = "android.template"
	ExtraBigText               = "android.bigText"
	ExtraPicture               = "android.picture"
	ExtraPictureContentDesc    = "android.pictureContentDescription"
	ExtraTextLines             = "android.textLines"
	ExtraConversationTitle     = "android.conversationTitle"
	ExtraIsGroupConversation   = "android.isGroupConversation"
	ExtraMessages              = "android.messages"
	ExtraCallPerson            = "android.callPerson"
	ExtraProgress              = "android.progress"
	ExtraProgressMax           = "android.progressMax"
	ExtraProgressIndeterminate = "android.progressIndeterminate"
)

// Platform flag bits.
const (
	FlagOngoingEvent = 1 << 1
	FlagAutoCancel   = 1 << 4
	FlagGroupSummary = 1 << 9
	FlagLocalOnly    = 1 << 8
)

// Service is the attached notification listener. It can report the
// notifications currently present in the shade.
type Service interface {
	ActiveNotifications() ([]RawNotification, error)
}

// Holder tracks the currently attached listener service. The platform
// attaches on listener connect and detaches on disconnect; bridge calls
// read it from arbitrary goroutines.
type Holder struct {
	mu  sync.RWMutex
	svc Service
}

// Attach records the connected service.
func (h *Holder) Attach(svc Service) {
	h.mu.Lock()
	h.svc = svc
	h.mu.Unlock()
}

// Detach clears the service on disconnect.
func (h *Holder) Detach() {
	h.mu.Lock()
	h.svc = nil
	h.mu.Unlock()
}

// Service returns the attached service, or nil when disconnected.
func (h *Holder) Service() Service {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.svc
}
