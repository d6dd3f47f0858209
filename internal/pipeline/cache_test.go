package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KaramelBytes/salesboard/internal/table"
)

func TestCacheSingleBuildInFlight(t *testing.T) {
	var calls int32
	c := NewCache(Options{})
	c.prepare = func(raw, proc string, _ Options) (*Result, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return &Result{RunID: "run", Table: table.Empty()}, nil
	}

	var wg sync.WaitGroup
	results := make([]*Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Prepare("raw.csv", "out.csv")
			if err != nil {
				t.Errorf("prepare: %v", err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("pipeline ran %d times, want 1", n)
	}
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("caller %d observed a different result", i)
		}
	}
	if _, err := c.Prepare("./raw.csv", "out.csv"); err != nil || atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("equivalent relative path should hit the memo")
	}
}

func TestCacheErrorsNotMemoized(t *testing.T) {
	var calls int32
	c := NewCache(Options{})
	c.load = func(string, Options) (*Result, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, &SourceError{Path: "p", Err: ErrSourceNotFound}
		}
		return &Result{Table: table.Empty()}, nil
	}
	if _, err := c.Load("p.csv"); !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("first load: %v", err)
	}
	if _, err := c.Load("p.csv"); err != nil {
		t.Fatalf("second load should retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: %d", calls)
	}
}

func TestCacheInvalidate(t *testing.T) {
	var calls int32
	c := NewCache(Options{})
	c.prepare = func(string, string, Options) (*Result, error) {
		atomic.AddInt32(&calls, 1)
		return &Result{Table: table.Empty()}, nil
	}
	_, _ = c.Prepare("a.csv", "")
	_, _ = c.Prepare("a.csv", "")
	c.Invalidate()
	_, _ = c.Prepare("a.csv", "")
	if calls != 2 {
		t.Fatalf("calls: got %d want 2", calls)
	}
}

func TestCacheInvalidateDuringBuild(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	c := NewCache(Options{})
	c.prepare = func(string, string, Options) (*Result, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			close(started)
			<-release
			return &Result{RunID: "stale", Table: table.Empty()}, nil
		}
		return &Result{RunID: "fresh", Table: table.Empty()}, nil
	}

	first := make(chan *Result, 1)
	go func() {
		res, err := c.Prepare("a.csv", "")
		if err != nil {
			t.Errorf("first build: %v", err)
		}
		first <- res
	}()
	<-started
	c.Invalidate()

	res, err := c.Prepare("a.csv", "")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if res.RunID != "fresh" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("rebuild joined the stale build: run=%s calls=%d", res.RunID, atomic.LoadInt32(&calls))
	}

	close(release)
	if old := <-first; old == nil || old.RunID != "stale" {
		t.Fatalf("in-flight caller: %+v", old)
	}
	res, _ = c.Prepare("a.csv", "")
	if res.RunID != "fresh" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("memoized after invalidate: run=%s calls=%d", res.RunID, atomic.LoadInt32(&calls))
	}
}
