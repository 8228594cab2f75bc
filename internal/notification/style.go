package notification

import "strings"

// Style is the semantic template of a notification. It determines which
// style-specific fields of a Record are meaningfully populated.
type Style string

const (
	StyleDefault                  Style = "default"
	StyleBigText                  Style = "BigTextStyle"
	StyleBigPicture               Style = "BigPictureStyle"
	StyleInbox                    Style = "InboxStyle"
	StyleMessaging                Style = "MessagingStyle"
	StyleMedia                    Style = "MediaStyle"
	StyleCall                     Style = "CallStyle"
	StyleDecoratedMediaCustomView Style = "DecoratedMediaCustomViewStyle"
	StyleDecoratedCustomView      Style = "DecoratedCustomViewStyle"
)

// styleRules maps template-identifier substrings to style tags. Checked
// in order; template identifiers are exclusive per vendor convention
// (e.g. "android.app.Notification$BigTextStyle"), so at most one rule
// matches.
var styleRules = []struct {
	substr string
	style  Style
}{
	{"BigTextStyle", StyleBigText},
	{"BigPictureStyle", StyleBigPicture},
	{"InboxStyle", StyleInbox},
	{"MessagingStyle", StyleMessaging},
	{"MediaStyle", StyleMedia},
	{"CallStyle", StyleCall},
	{"DecoratedMediaCustomViewStyle", StyleDecoratedMediaCustomView},
	{"DecoratedCustomViewStyle", StyleDecoratedCustomView},
}

// ResolveStyle maps a platform template identifier to a Style.
// Unrecognized or empty templates resolve to StyleDefault, which keeps
// the mapping forward-compatible with templates this build predates.
func ResolveStyle(template string) Style {
	if template == "" {
		return StyleDefault
	}
	for _, rule := range styleRules {
		if strings.Contains(template, rule.substr) {
			return rule.style
		}
	}
	return StyleDefault
}

// KnownStyles lists every style tag a record may carry.
func KnownStyles() []Style {
	return []Style{
		StyleDefault,
		StyleBigText,
		StyleBigPicture,
		StyleInbox,
		StyleMessaging,
		StyleMedia,
		StyleCall,
		StyleDecoratedMediaCustomView,
		StyleDecoratedCustomView,
	}
}
