package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/vendorhub-backend/pkg/redis"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (j *testJob) Name() string { return j.name }

func (j *testJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestJobsRejectDuplicateNames(t *testing.T) {
	if _, err := NewJobs(&testJob{name: "a"}, nil, &testJob{name: "a"}); err == nil {
		t.Fatal("expected duplicate name error")
	}
	jobs, err := NewJobs(&testJob{name: "a"}, &testJob{name: "b"})
	if err != nil {
		t.Fatalf("NewJobs: %v", err)
	}
	list := jobs.List()
	list[0] = nil
	if jobs.List()[0] == nil {
		t.Fatal("List leaked the internal slice")
	}
}

func TestRunCycleRunsEveryJobEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "ok"}
	failing := &testJob{name: "failing", err: errors.New("boom")}
	jobs, err := NewJobs(failing, ok)
	if err != nil {
		t.Fatalf("NewJobs: %v", err)
	}
	lock := &fakeLock{}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Jobs: jobs, Lock: lock})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected both jobs to run once, got ok=%d failing=%d", ok.runs, failing.runs)
	}
	if lock.releases != 1 || lock.held {
		t.Fatalf("expected lock released after the cycle")
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "ok"}
	jobs, _ := NewJobs(job)
	svc, err := NewService(ServiceParams{Logger: testLogger(), Jobs: jobs, Lock: &fakeLock{held: true}})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs while another instance holds the lock")
	}
}

func TestRedisLockIsExclusive(t *testing.T) {
	srv := miniredis.RunT(t)
	store := pkgredis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	ctx := context.Background()

	first, err := NewRedisLock(store, "vh:cron:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(store, "vh:cron:lock:test", time.Minute)

	if got, err := first.Acquire(ctx); err != nil || !got {
		t.Fatalf("expected first acquire to win, got %v (%v)", got, err)
	}
	if got, err := second.Acquire(ctx); err != nil || got {
		t.Fatalf("expected second acquire to lose, got %v (%v)", got, err)
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if !srv.Exists("vh:cron:lock:test") {
		t.Fatal("non-owner release must not delete the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got, _ := second.Acquire(ctx); !got {
		t.Fatal("expected lock to be free after owner release")
	}
}

func TestRedisLockExpiredOwnerCannotReleaseNewLease(t *testing.T) {
	srv := miniredis.RunT(t)
	store := pkgredis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: srv.Addr()}))
	ctx := context.Background()

	stale, _ := NewRedisLock(store, "vh:lock:cron-worker:test", time.Minute)
	fresh, _ := NewRedisLock(store, "vh:lock:cron-worker:test", time.Minute)
	if got, _ := stale.Acquire(ctx); !got {
		t.Fatal("expected first acquire to win")
	}
	srv.FastForward(2 * time.Minute)
	if got, _ := fresh.Acquire(ctx); !got {
		t.Fatal("expected acquire after expiry to win")
	}
	if err := stale.Release(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if !srv.Exists("vh:lock:cron-worker:test") {
		t.Fatal("stale owner deleted the new lease")
	}
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) DeletePublishedBefore(_ *gorm.DB, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestOutboxRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}
	job, err := NewOutboxRetentionJob(testLogger(), passthroughTx{}, pruner, 0)
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-defaultOutboxRetention); !pruner.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, pruner.cutoff)
	}

	pruner.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected prune error to surface")
	}
}

type fakeRefundCounter struct {
	cutoff time.Time
	count  int64
}

func (f *fakeRefundCounter) CountPendingBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.count, nil
}

func TestRefundBacklogUsesSLA(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	counter := &fakeRefundCounter{count: 2}
	job, err := NewRefundBacklogJob(testLogger(), counter, 48*time.Hour)
	if err != nil {
		t.Fatalf("NewRefundBacklogJob: %v", err)
	}
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-48 * time.Hour); !counter.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, counter.cutoff)
	}
}

type fakeDeadLetters struct {
	since  time.Time
	counts map[string]int64
	err    error
}

func (f *fakeDeadLetters) CountFailedSince(_ context.Context, since time.Time) (map[string]int64, error) {
	f.since = since
	return f.counts, f.err
}

func TestDeadLetterJobLooksBackOneWindow(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	dlq := &fakeDeadLetters{counts: map[string]int64{"refund_decided": 1}}
	job, err := NewDeadLetterJob(testLogger(), dlq, 0)
	if err != nil {
		t.Fatalf("NewDeadLetterJob: %v", err)
	}
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-defaultInterval); !dlq.since.Equal(want) {
		t.Fatalf("expected since %s, got %s", want, dlq.since)
	}

	dlq.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected repository error to surface")
	}
}
