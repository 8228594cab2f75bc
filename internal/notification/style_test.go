package notification

import "testing"

func TestResolveStyle(t *testing.T) {
	tests := []struct {
		template string
		want     Style
	}{
		{"android.app.Notification$BigTextStyle", StyleBigText},
		{"android.app.Notification$BigPictureStyle", StyleBigPicture},
		{"android.app.Notification$InboxStyle", StyleInbox},
		{"android.app.Notification$MessagingStyle", StyleMessaging},
		{"android.app.Notification$MediaStyle", StyleMedia},
		{"android.app.Notification$CallStyle", StyleCall},
		{"android.app.Notification$DecoratedMediaCustomViewStyle", StyleDecoratedMediaCustomView},
		{"android.app.Notification$DecoratedCustomViewStyle", StyleDecoratedCustomView},
		{"", StyleDefault},
		{"com.example.SomethingElse", StyleDefault},
	}

	for _, tt := range tests {
		if got := ResolveStyle(tt.template); got != tt.want {
			t.Errorf("ResolveStyle(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestResolveStyle_MatchesAnywhereInTemplate(t *testing.T) {
	got := ResolveStyle("androidx.core.app.NotificationCompat$BigTextStyle")
	if got != StyleBigText {
		t.Errorf("got %q, want %q", got, StyleBigText)
	}
}
