// Package parser normalizes raw platform notification events into
// canonical records.
package parser

import (
	"github.com/google/uuid"

	"github.com/whyash5114/notistore/internal/iconcodec"
	"github.com/whyash5114/notistore/internal/listener"
	"github.com/whyash5114/notistore/internal/notification"
)

// AppResolver resolves application identity for a package. Both lookups
// may fail; normalization degrades rather than aborting.
type AppResolver interface {
	// AppName returns the human-readable label for a package, or
	// ok=false when the package is unknown.
	AppName(packageName string) (name string, ok bool)

	// AppIcon returns an opaque launcher icon handle, or nil.
	AppIcon(packageName string) any
}

// Options carries the collaborators normalization delegates to. Either
// may be nil, in which case the fields they feed stay empty.
type Options struct {
	Codec iconcodec.Codec
	Apps  AppResolver
}

// Parse maps one raw event into a Record. The second return is false
// when the event carries no payload at all, the single unconditional
// rejection; every other irregularity degrades to a partial record.
func Parse(raw listener.RawNotification, opts Options) (*notification.Record, bool) {
	p := raw.Payload
	if p == nil {
		return nil, false
	}

	r := &notification.Record{
		ID:             uuid.NewString(),
		PackageName:    raw.PackageName,
		AppName:        resolveAppName(opts.Apps, raw.PackageName),
		PostTime:       raw.PostTime,
		Category:       p.Category,
		Style:          notification.ResolveStyle(extraString(p.Extras, listener.ExtraTemplate)),
		GroupKey:       p.GroupKey,
		ChannelID:      p.ChannelID,
		IsGroupSummary: p.Flags&listener.FlagGroupSummary != 0,
		IsOngoing:      p.Flags&listener.FlagOngoingEvent != 0,
		AutoCancel:     p.Flags&listener.FlagAutoCancel != 0,
		IsLocalOnly:    p.Flags&listener.FlagLocalOnly != 0,
		Priority:       p.Priority,
		Number:         p.Number,
	}

	r.Title = extraOptString(p.Extras, listener.ExtraTitle)
	r.Text = extraOptString(p.Extras, listener.ExtraText)
	r.SubText = extraOptString(p.Extras, listener.ExtraSubText)
	r.InfoText = extraOptString(p.Extras, listener.ExtraInfoText)
	r.SummaryText = extraOptString(p.Extras, listener.ExtraSummaryText)

	r.SmallIcon = iconcodec.EncodeOrNil(opts.Codec, p.SmallIcon)
	r.LargeIcon = iconcodec.EncodeOrNil(opts.Codec, p.LargeIcon)
	if opts.Apps != nil {
		r.AppIcon = iconcodec.EncodeOrNil(opts.Codec, opts.Apps.AppIcon(raw.PackageName))
	}

	r.Actions = parseActions(p.Actions, opts.Codec)

	addStyleSpecificData(r, p.Extras, opts.Codec)
	addProgress(r, p.Extras)

	r.EnsureDefaults()
	return r, true
}

// HasProgress reports whether the raw event carries progress extras.
// Progress is orthogonal to style; the ingestion filter for progress
// notifications keys off this, not off the resolved style.
func HasProgress(raw listener.RawNotification) bool {
	if raw.Payload == nil {
		return false
	}
	_, ok := raw.Payload.Extras[listener.ExtraProgress]
	return ok
}

func resolveAppName(apps AppResolver, packageName string) string {
	if apps != nil {
		if name, ok := apps.AppName(packageName); ok {
			return name
		}
	}
	// Unresolvable labels fall back to the package name, never empty.
	return packageName
}

func parseActions(raw []listener.RawAction, codec iconcodec.Codec) []notification.Action {
	actions := make([]notification.Action, 0, len(raw))
	for _, a := range raw {
		actions = append(actions, notification.Action{
			Title:             a.Title,
			Icon:              iconcodec.EncodeOrNil(codec, a.Icon),
			AllowsRemoteInput: a.RemoteInputCount > 0,
		})
	}
	return actions
}

// addStyleSpecificData populates the fields owned by the resolved
// style. Fields owned by other styles stay at their zero defaults.
func addStyleSpecificData(r *notification.Record, extras map[string]any, codec iconcodec.Codec) {
	switch r.Style {
	case notification.StyleBigText:
		r.BigText = extraOptString(extras, listener.ExtraBigText)

	case notification.StyleBigPicture:
		if handle, ok := extras[listener.ExtraPicture]; ok {
			r.BigPicture = iconcodec.EncodeOrNil(codec, handle)
		}
		r.PictureContentDescription = extraOptString(extras, listener.ExtraPictureContentDesc)

	case notification.StyleInbox:
		r.InboxLines = extraStringSlice(extras, listener.ExtraTextLines)

	case notification.StyleMessaging:
		r.ConversationTitle = extraOptString(extras, listener.ExtraConversationTitle)
		r.IsGroupConversation = extraBool(extras, listener.ExtraIsGroupConversation)
		r.Messages = parseMessages(extras)

	case notification.StyleCall:
		r.CallerName = extraOptString(extras, listener.ExtraCallPerson)
	}
}

// addProgress attaches progress independently of style whenever the
// progress marker key is present.
func addProgress(r *notification.Record, extras map[string]any) {
	if _, ok := extras[listener.ExtraProgress]; !ok {
		return
	}
	max := extraInt(extras, listener.ExtraProgressMax)
	if max <= 0 {
		return
	}
	r.Progress = &notification.Progress{
		Current:       extraInt(extras, listener.ExtraProgress),
		Max:           max,
		Indeterminate: extraBool(extras, listener.ExtraProgressIndeterminate),
	}
}

func parseMessages(extras map[string]any) []notification.Message {
	raw, ok := extras[listener.ExtraMessages].([]map[string]any)
	if !ok {
		// Bridged bundles may also arrive as []any of maps.
		anyList, ok := extras[listener.ExtraMessages].([]any)
		if !ok {
			return nil
		}
		raw = make([]map[string]any, 0, len(anyList))
		for _, item := range anyList {
			if m, ok := item.(map[string]any); ok {
				raw = append(raw, m)
			}
		}
	}

	messages := make([]notification.Message, 0, len(raw))
	for _, m := range raw {
		msg := notification.Message{}
		if text, ok := m["text"].(string); ok {
			msg.Text = text
		}
		if sender, ok := m["sender"].(string); ok {
			msg.Sender = sender
		}
		msg.Timestamp = anyInt64(m["time"])
		messages = append(messages, msg)
	}
	return messages
}

// Extras accessors. The bundle is loosely typed; wrong-typed values
// read as absent.

func extraString(extras map[string]any, key string) string {
	if s, ok := extras[key].(string); ok {
		return s
	}
	return ""
}

func extraOptString(extras map[string]any, key string) *string {
	if s, ok := extras[key].(string); ok {
		return &s
	}
	return nil
}

func extraBool(extras map[string]any, key string) bool {
	if b, ok := extras[key].(bool); ok {
		return b
	}
	return false
}

func extraInt(extras map[string]any, key string) int {
	switch v := extras[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func extraStringSlice(extras map[string]any, key string) []string {
	switch v := extras[key].(type) {
	case []string:
		return v
	case []any:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				lines = append(lines, s)
			}
		}
		return lines
	}
	return nil
}

func anyInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
