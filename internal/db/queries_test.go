package db

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/whyash5114/notistore/internal/notification"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testRecord(id string, postTime int64) *notification.Record {
	text := "text-" + id
	title := "title-" + id
	r := &notification.Record{
		ID:          id,
		PackageName: "com.example.app",
		AppName:     "Example",
		Title:       &title,
		Text:        &text,
		PostTime:    postTime,
	}
	r.EnsureDefaults()
	return r
}

func TestInsertOrReplace_Upsert(t *testing.T) {
	database := testDB(t)

	r := testRecord("a", 100)
	if err := InsertOrReplace(database, r); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Replacing the same id overwrites instead of duplicating.
	newText := "replaced"
	r.Text = &newText
	if err := InsertOrReplace(database, r); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	count, err := TotalCount(database)
	if err != nil {
		t.Fatalf("TotalCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	records, err := GetByCursor(database, nil, 10)
	if err != nil {
		t.Fatalf("GetByCursor failed: %v", err)
	}
	if len(records) != 1 || records[0].Text == nil || *records[0].Text != "replaced" {
		t.Errorf("stored record not fully replaced: %+v", records[0])
	}
}

func TestGetByCursor_Pagination(t *testing.T) {
	database := testDB(t)

	for i, postTime := range []int64{100, 200, 300} {
		r := testRecord(fmt.Sprintf("r%d", i), postTime)
		if err := InsertOrReplace(database, r); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	// First page: newest first.
	page1, err := GetByCursor(database, nil, 2)
	if err != nil {
		t.Fatalf("GetByCursor failed: %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("len(page1) = %d, want 2", len(page1))
	}
	if page1[0].PostTime != 300 || page1[1].PostTime != 200 {
		t.Errorf("page1 times = [%d, %d], want [300, 200]", page1[0].PostTime, page1[1].PostTime)
	}

	// Second page: strictly older than the last returned post time.
	cursor := page1[1].PostTime
	page2, err := GetByCursor(database, &cursor, 2)
	if err != nil {
		t.Fatalf("GetByCursor with cursor failed: %v", err)
	}
	if len(page2) != 1 || page2[0].PostTime != 100 {
		t.Errorf("page2 = %d records, want exactly the 100 record", len(page2))
	}
}

func TestGetPage_TiesAtPageBoundary(t *testing.T) {
	database := testDB(t)

	// Every record shares one post_time; only the id breaks ties.
	for i := 0; i < 25; i++ {
		r := testRecord(fmt.Sprintf("r%02d", i), 100)
		if err := InsertOrReplace(database, r); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	seen := make(map[string]bool)
	var cursor *PageCursor
	for {
		page, err := GetPage(database, cursor, 10)
		if err != nil {
			t.Fatalf("GetPage failed: %v", err)
		}
		for _, r := range page {
			if seen[r.ID] {
				t.Fatalf("record %s returned twice", r.ID)
			}
			seen[r.ID] = true
		}
		if len(page) < 10 {
			break
		}
		last := page[len(page)-1]
		cursor = &PageCursor{PostTime: last.PostTime, ID: last.ID}
	}

	if len(seen) != 25 {
		t.Errorf("walk returned %d records, want all 25", len(seen))
	}
}

func TestGetByCursor_DefaultLimit(t *testing.T) {
	database := testDB(t)

	for i := 0; i < DefaultQueryLimit+5; i++ {
		r := testRecord(fmt.Sprintf("r%d", i), int64(i))
		if err := InsertOrReplace(database, r); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	records, err := GetByCursor(database, nil, 0)
	if err != nil {
		t.Fatalf("GetByCursor failed: %v", err)
	}
	if len(records) != DefaultQueryLimit {
		t.Errorf("len = %d, want default limit %d", len(records), DefaultQueryLimit)
	}
}

func TestQueryFiltered(t *testing.T) {
	database := testDB(t)

	ongoing := testRecord("ongoing", 100)
	ongoing.IsOngoing = true
	ongoing.AppName = "Player"
	musicText := "Now Playing"
	ongoing.Text = &musicText

	plain := testRecord("plain", 200)
	plain.Category = "msg"
	plain.Style = notification.StyleMessaging

	for _, r := range []*notification.Record{ongoing, plain} {
		if err := InsertOrReplace(database, r); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	strPtr := func(s string) *string { return &s }
	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name    string
		filters Filters
		wantIDs []string
	}{
		{"by ongoing", Filters{IsOngoing: boolPtr(true)}, []string{"ongoing"}},
		{"by category", Filters{Category: strPtr("msg")}, []string{"plain"}},
		{"by style", Filters{Style: strPtr("MessagingStyle")}, []string{"plain"}},
		{"by app names", Filters{AppNames: []string{"Player", "Other"}}, []string{"ongoing"}},
		{"text case-sensitive miss", Filters{TextContains: strPtr("now playing")}, nil},
		{"text case-sensitive hit", Filters{TextContains: strPtr("Now Play")}, []string{"ongoing"}},
		{"text case-insensitive", Filters{TextContainsI: strPtr("now playing")}, []string{"ongoing"}},
		{"after", Filters{After: int64Ptr(150)}, []string{"plain"}},
		{"before", Filters{Before: int64Ptr(150)}, []string{"ongoing"}},
		{"combined", Filters{IsOngoing: boolPtr(true), Before: int64Ptr(150)}, []string{"ongoing"}},
		{"combined miss", Filters{IsOngoing: boolPtr(true), After: int64Ptr(150)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := QueryFiltered(database, tt.filters, nil, 10)
			if err != nil {
				t.Fatalf("QueryFiltered failed: %v", err)
			}
			var ids []string
			for _, r := range records {
				ids = append(ids, r.ID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
				}
			}
		})
	}
}

func TestQueryFiltered_LikeWildcardsEscaped(t *testing.T) {
	database := testDB(t)

	r := testRecord("x", 100)
	literal := "100% done"
	r.Text = &literal
	if err := InsertOrReplace(database, r); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	other := testRecord("y", 200)
	otherText := "100 percent done"
	other.Text = &otherText
	if err := InsertOrReplace(database, other); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	pattern := "100% d"
	records, err := QueryFiltered(database, Filters{TextContainsI: &pattern}, nil, 10)
	if err != nil {
		t.Fatalf("QueryFiltered failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "x" {
		t.Errorf("%% was treated as a wildcard: got %d records", len(records))
	}
}

func TestDeleteOldest(t *testing.T) {
	database := testDB(t)

	for i := 0; i < 5; i++ {
		r := testRecord(fmt.Sprintf("r%d", i), int64(i*100))
		if err := InsertOrReplace(database, r); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	deleted, err := DeleteOldest(database, 2)
	if err != nil {
		t.Fatalf("DeleteOldest failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	records, err := GetByCursor(database, nil, 10)
	if err != nil {
		t.Fatalf("GetByCursor failed: %v", err)
	}
	for _, r := range records {
		if r.PostTime < 200 {
			t.Errorf("record with post_time %d survived, oldest should be gone", r.PostTime)
		}
	}
}

func TestEnforceStorageLimit(t *testing.T) {
	database := testDB(t)

	big := strings.Repeat("x", 1000)
	for i := 0; i < 30; i++ {
		r := testRecord(fmt.Sprintf("r%d", i), int64(i))
		r.Text = &big
		if err := InsertOrReplace(database, r); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	before, err := AggregateSizeBytes(database)
	if err != nil {
		t.Fatalf("AggregateSizeBytes failed: %v", err)
	}
	limit := before / 3

	evicted, err := EnforceStorageLimit(database, limit)
	if err != nil {
		t.Fatalf("EnforceStorageLimit failed: %v", err)
	}
	if evicted == 0 {
		t.Fatal("evicted = 0, want > 0")
	}

	after, err := AggregateSizeBytes(database)
	if err != nil {
		t.Fatalf("AggregateSizeBytes failed: %v", err)
	}
	if after > limit {
		t.Errorf("size %d still exceeds limit %d", after, limit)
	}

	// Oldest went first: the newest record must survive.
	records, err := GetByCursor(database, nil, 1)
	if err != nil {
		t.Fatalf("GetByCursor failed: %v", err)
	}
	if len(records) != 1 || records[0].PostTime != 29 {
		t.Errorf("newest record did not survive eviction")
	}
}

func TestEnforceStorageLimit_Unlimited(t *testing.T) {
	database := testDB(t)

	if err := InsertOrReplace(database, testRecord("a", 1)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	evicted, err := EnforceStorageLimit(database, -1)
	if err != nil {
		t.Fatalf("EnforceStorageLimit failed: %v", err)
	}
	if evicted != 0 {
		t.Errorf("evicted = %d with no limit, want 0", evicted)
	}
}

func TestMeta(t *testing.T) {
	database := testDB(t)

	val, err := GetMeta(database, "missing")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if val != "" {
		t.Errorf("GetMeta(missing) = %q, want empty", val)
	}

	if err := SetMeta(database, "k", "v1"); err != nil {
		t.Fatalf("SetMeta failed: %v", err)
	}
	if err := SetMeta(database, "k", "v2"); err != nil {
		t.Fatalf("SetMeta overwrite failed: %v", err)
	}

	val, err = GetMeta(database, "k")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if val != "v2" {
		t.Errorf("GetMeta = %q, want v2", val)
	}
}

func TestRoundTrip_AllFields(t *testing.T) {
	database := testDB(t)

	icon := "aWNvbg=="
	bigText := "the whole story"
	convTitle := "group chat"
	caller := "Alice"
	r := testRecord("full", 500)
	r.Category = "msg"
	r.Style = notification.StyleMessaging
	r.GroupKey = "g1"
	r.IsGroupSummary = true
	r.ChannelID = "ch1"
	r.SmallIcon = &icon
	r.Actions = []notification.Action{{Title: "Reply", AllowsRemoteInput: true}}
	r.IsOngoing = true
	r.AutoCancel = true
	r.IsLocalOnly = true
	r.Priority = 2
	r.Number = 7
	r.BigText = &bigText
	r.InboxLines = []string{"one", "two"}
	r.ConversationTitle = &convTitle
	r.IsGroupConversation = true
	r.Messages = []notification.Message{{Text: "hi", Timestamp: 42, Sender: "Bob"}}
	r.Progress = &notification.Progress{Current: 5, Max: 10}
	r.CallerName = &caller

	if err := InsertOrReplace(database, r); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	records, err := GetByCursor(database, nil, 1)
	if err != nil {
		t.Fatalf("GetByCursor failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len = %d, want 1", len(records))
	}
	got := records[0]

	if got.ID != "full" || got.Category != "msg" || got.Style != notification.StyleMessaging {
		t.Errorf("identity fields wrong: %+v", got)
	}
	if !got.IsGroupSummary || !got.IsOngoing || !got.AutoCancel || !got.IsLocalOnly {
		t.Errorf("flag fields wrong: %+v", got)
	}
	if got.Priority != 2 || got.Number != 7 {
		t.Errorf("numeric fields wrong: %+v", got)
	}
	if len(got.Actions) != 1 || got.Actions[0].Title != "Reply" || !got.Actions[0].AllowsRemoteInput {
		t.Errorf("actions wrong: %+v", got.Actions)
	}
	if len(got.Messages) != 1 || got.Messages[0].Sender != "Bob" || got.Messages[0].Timestamp != 42 {
		t.Errorf("messages wrong: %+v", got.Messages)
	}
	if len(got.InboxLines) != 2 {
		t.Errorf("inbox lines wrong: %+v", got.InboxLines)
	}
	if got.Progress == nil || got.Progress.Current != 5 || got.Progress.Max != 10 {
		t.Errorf("progress wrong: %+v", got.Progress)
	}
	if got.BigText == nil || *got.BigText != bigText {
		t.Errorf("big text wrong")
	}
	if got.CallerName == nil || *got.CallerName != caller {
		t.Errorf("caller name wrong")
	}
}

func int64Ptr(v int64) *int64 { return &v }
