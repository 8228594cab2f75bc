// Package notification defines the canonical record produced by
// normalizing a platform notification event.
package notification

// CategoryUnknown is the sentinel stored when the platform reports no
// category for a notification.
const CategoryUnknown = "unknown"

// CategoryTransport is the platform category for media transport
// controls. The ingestion pipeline can be configured to drop these.
const CategoryTransport = "transport"

// Action is one actionable button attached to a notification.
type Action struct {
	Title             string  `json:"title"`
	Icon              *string `json:"icon"` // base64 PNG, nil when absent or encode failed
	AllowsRemoteInput bool    `json:"allowsRemoteInput"`
}

// Message is one entry of a MessagingStyle conversation.
type Message struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Sender    string `json:"sender"`
}

// Progress describes a progress bar. It is only attached to a record
// when the platform reported progress extras with max > 0.
type Progress struct {
	Current       int  `json:"current"`
	Max           int  `json:"max"`
	Indeterminate bool `json:"indeterminate"`
}

// Record is the canonical, flattened form of one observed notification.
//
// Actions, InboxLines, and Messages are always non-nil so JSON consumers
// see empty arrays rather than null. Style-specific fields stay at their
// zero value for styles that do not populate them.
type Record struct {
	ID          string `json:"id"`
	PackageName string `json:"packageName"`
	AppName     string `json:"appName"`

	Title       *string `json:"title"`
	Text        *string `json:"text"`
	SubText     *string `json:"subText"`
	InfoText    *string `json:"infoText"`
	SummaryText *string `json:"summaryText"`

	PostTime int64 `json:"postTime"` // epoch millis, pagination sort key

	SmallIcon *string `json:"smallIcon"`
	LargeIcon *string `json:"largeIcon"`
	AppIcon   *string `json:"appIcon"`

	Category string `json:"category"`
	Style    Style  `json:"style"`

	GroupKey       string `json:"groupKey"`
	IsGroupSummary bool   `json:"isGroupSummary"`
	ChannelID      string `json:"channelId"`

	Actions []Action `json:"actions"`

	IsOngoing   bool `json:"isOngoing"`
	AutoCancel  bool `json:"autoCancel"`
	IsLocalOnly bool `json:"isLocalOnly"`
	Priority    int  `json:"priority"`
	Number      int  `json:"number"`

	// Style-specific payloads
	BigText                   *string   `json:"bigText"`
	BigPicture                *string   `json:"bigPicture"`
	PictureContentDescription *string   `json:"pictureContentDescription"`
	InboxLines                []string  `json:"inboxLines"`
	ConversationTitle         *string   `json:"conversationTitle"`
	IsGroupConversation       bool      `json:"isGroupConversation"`
	Messages                  []Message `json:"messages"`
	Progress                  *Progress `json:"progress,omitempty"`
	CallerName                *string   `json:"callerName"`
}

// EnsureDefaults normalizes a record to the model invariants: the
// ordered collections are never nil and category falls back to the
// unknown sentinel. Safe to call on records from any source, including
// imported JSON.
func (r *Record) EnsureDefaults() {
	if r.Actions == nil {
		r.Actions = []Action{}
	}
	if r.InboxLines == nil {
		r.InboxLines = []string{}
	}
	if r.Messages == nil {
		r.Messages = []Message{}
	}
	if r.Category == "" {
		r.Category = CategoryUnknown
	}
	if r.Style == "" {
		r.Style = StyleDefault
	}
}
