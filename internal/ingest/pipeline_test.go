package ingest

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/whyash5114/notistore/internal/config"
	"github.com/whyash5114/notistore/internal/db"
	"github.com/whyash5114/notistore/internal/listener"
	"github.com/whyash5114/notistore/internal/notification"
	"github.com/whyash5114/notistore/internal/parser"
)

type fakeService struct {
	active []listener.RawNotification
}

func (f *fakeService) ActiveNotifications() ([]listener.RawNotification, error) {
	return f.active, nil
}

func testPipeline(t *testing.T) (*Pipeline, *sql.DB, *config.Manager, *listener.Holder) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	settings := config.NewManager(tmpDir)
	holder := &listener.Holder{}
	p := New(database, settings, holder, parser.Options{}, zerolog.Nop())
	return p, database, settings, holder
}

func rawEvent(pkg string, postTime int64, flags int, category string) listener.RawNotification {
	return listener.RawNotification{
		PackageName: pkg,
		PostTime:    postTime,
		Payload: &listener.RawPayload{
			Extras:   map[string]any{listener.ExtraTitle: "t"},
			Flags:    flags,
			Category: category,
		},
	}
}

func TestIngest_StoresRecord(t *testing.T) {
	p, database, _, _ := testPipeline(t)

	accepted, err := p.Ingest(context.Background(), rawEvent("com.a", 100, 0, ""))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !accepted {
		t.Fatal("accepted = false, want true")
	}

	count, err := db.TotalCount(database)
	if err != nil {
		t.Fatalf("TotalCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestIngest_NilPayloadSkipped(t *testing.T) {
	p, database, _, _ := testPipeline(t)

	accepted, err := p.Ingest(context.Background(), listener.RawNotification{PackageName: "com.a"})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if accepted {
		t.Error("accepted = true for payload-less event")
	}

	count, _ := db.TotalCount(database)
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestIngest_FilterOngoing(t *testing.T) {
	p, _, settings, _ := testPipeline(t)

	// Default: ongoing filtered.
	accepted, err := p.Ingest(context.Background(),
		rawEvent("com.a", 100, listener.FlagOngoingEvent, ""))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if accepted {
		t.Error("ongoing notification accepted with filter on")
	}

	// Filter off: accepted.
	if err := settings.Update(func(c *config.Config) { c.FilterOngoing = false }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	accepted, err = p.Ingest(context.Background(),
		rawEvent("com.a", 101, listener.FlagOngoingEvent, ""))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !accepted {
		t.Error("ongoing notification rejected with filter off")
	}
}

func TestIngest_FilterTransport(t *testing.T) {
	p, _, settings, _ := testPipeline(t)

	accepted, err := p.Ingest(context.Background(),
		rawEvent("com.music", 100, 0, notification.CategoryTransport))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if accepted {
		t.Error("transport notification accepted with filter on")
	}

	if err := settings.Update(func(c *config.Config) { c.FilterTransport = false }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	accepted, err = p.Ingest(context.Background(),
		rawEvent("com.music", 101, 0, notification.CategoryTransport))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !accepted {
		t.Error("transport notification rejected with filter off")
	}
}

func TestIngest_ProgressFilter(t *testing.T) {
	p, _, settings, _ := testPipeline(t)

	progressEvent := rawEvent("com.dl", 100, 0, "")
	progressEvent.Payload.Extras[listener.ExtraProgress] = 10
	progressEvent.Payload.Extras[listener.ExtraProgressMax] = 100

	// Default: progress logged.
	accepted, err := p.Ingest(context.Background(), progressEvent)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !accepted {
		t.Error("progress notification rejected with logging on")
	}

	if err := settings.Update(func(c *config.Config) { c.LogProgress = false }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	progressEvent.PostTime = 101
	accepted, err = p.Ingest(context.Background(), progressEvent)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if accepted {
		t.Error("progress notification accepted with logging off")
	}
}

func TestIngest_EnforcesStorageLimit(t *testing.T) {
	p, database, settings, _ := testPipeline(t)

	// A budget below one record's footprint keeps the store clamped.
	if err := settings.Update(func(c *config.Config) { c.StorageLimitMB = 0.0001 }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	for i := int64(0); i < 25; i++ {
		if _, err := p.Ingest(context.Background(), rawEvent("com.a", i, 0, "")); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	size, err := db.AggregateSizeBytes(database)
	if err != nil {
		t.Fatalf("AggregateSizeBytes failed: %v", err)
	}
	if limit := settings.Get().StorageLimitBytes(); size > limit {
		t.Errorf("size %d exceeds budget %d after ingestion", size, limit)
	}
}

func TestSubscribe_ReceivesAcceptedRecords(t *testing.T) {
	p, _, _, _ := testPipeline(t)

	records, cancel := p.Subscribe()
	defer cancel()

	if _, err := p.Ingest(context.Background(), rawEvent("com.a", 100, 0, "")); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	select {
	case r := <-records:
		if r.PackageName != "com.a" {
			t.Errorf("published record package = %q, want com.a", r.PackageName)
		}
	case <-time.After(time.Second):
		t.Fatal("no record published")
	}

	// Filtered events are not published.
	if _, err := p.Ingest(context.Background(),
		rawEvent("com.a", 101, listener.FlagOngoingEvent, "")); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	select {
	case r := <-records:
		t.Errorf("filtered event was published: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribe_CancelIdempotent(t *testing.T) {
	p, _, _, _ := testPipeline(t)

	_, cancel := p.Subscribe()
	cancel()
	cancel() // must not panic

	// Publishing after cancel must not panic either.
	if _, err := p.Ingest(context.Background(), rawEvent("com.a", 100, 0, "")); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
}

func TestOnPosted_ProcessesAsync(t *testing.T) {
	p, database, _, _ := testPipeline(t)

	ctx := context.Background()
	p.Start(ctx)
	defer p.Stop()

	records, cancel := p.Subscribe()
	defer cancel()

	p.OnPosted(rawEvent("com.async", 100, 0, ""))

	select {
	case r := <-records:
		if r.PackageName != "com.async" {
			t.Errorf("record package = %q, want com.async", r.PackageName)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("queued event never processed")
	}

	count, err := db.TotalCount(database)
	if err != nil {
		t.Fatalf("TotalCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestOnPosted_ConcurrentWithStop(t *testing.T) {
	p, _, _, _ := testPipeline(t)
	p.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				p.OnPosted(rawEvent("com.race", int64(n*1000+j), 0, ""))
			}
		}(i)
	}
	p.Stop()
	wg.Wait()

	// After shutdown, delivery is a silent drop, never a panic.
	p.OnPosted(rawEvent("com.race", 1, 0, ""))
}

func TestBackfill(t *testing.T) {
	p, database, _, holder := testPipeline(t)

	// No service attached: stays pending, no marker written.
	n, err := p.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if n != 0 {
		t.Errorf("ingested = %d without a service, want 0", n)
	}

	holder.Attach(&fakeService{active: []listener.RawNotification{
		rawEvent("com.a", 100, 0, ""),
		rawEvent("com.b", 200, listener.FlagOngoingEvent, ""), // filtered
	}})

	records, cancel := p.Subscribe()
	defer cancel()

	n, err = p.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ingested = %d, want 1 (ongoing filtered)", n)
	}

	// Backfill persists but never publishes.
	select {
	case r := <-records:
		t.Errorf("backfill published a record: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}

	// Second run is a no-op.
	n, err = p.Backfill(context.Background())
	if err != nil {
		t.Fatalf("second Backfill failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second backfill ingested %d, want 0", n)
	}

	count, err := db.TotalCount(database)
	if err != nil {
		t.Fatalf("TotalCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
