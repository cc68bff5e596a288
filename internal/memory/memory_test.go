package memory

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"
)

func record(id string, ts time.Time, intensity float64) ExperienceRecord {
	return ExperienceRecord{
		SessionID:    id,
		Timestamp:    ts,
		Intensity:    intensity,
		OutcomeScore: 0.5,
	}
}

func TestEvictionIsStrictFIFO(t *testing.T) {
	s := NewStore(3, DefaultDecayLambda)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		s.Record(record(fmt.Sprintf("s%d", i), base.Add(time.Duration(i)*time.Minute), 0.5))
	}

	if s.Len() != 3 {
		t.Fatalf("len = %d after overflow, want capacity 3", s.Len())
	}
	snap := s.Snapshot()
	want := []string{"s1", "s2", "s3"}
	for i, id := range want {
		if snap[i].SessionID != id {
			t.Fatalf("slot %d = %s, want %s (oldest must be evicted first)", i, snap[i].SessionID, id)
		}
	}
}

func TestSnapshotOldestFirstAfterWrap(t *testing.T) {
	s := NewStore(4, DefaultDecayLambda)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		s.Record(record(fmt.Sprintf("s%d", i), base.Add(time.Duration(i)*time.Minute), 0.5))
	}

	snap := s.Snapshot()
	for i := 1; i < len(snap); i++ {
		if !snap[i].Timestamp.After(snap[i-1].Timestamp) {
			t.Fatalf("snapshot not oldest-first at index %d", i)
		}
	}
}

func TestAggregateDecaysWithAge(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore(16, 0.07)
	s.Record(record("a", now.Add(-1*time.Hour), 0.8))
	s.Record(record("b", now.Add(-24*time.Hour), 0.9))
	s.Record(record("c", now.Add(-72*time.Hour), 1.0))

	got := s.AggregateScore(now)

	want := math.Log(1.8)*math.Exp(-0.07*1) +
		math.Log(1.9)*math.Exp(-0.07*24) +
		math.Log(2.0)*math.Exp(-0.07*72)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("aggregate = %.12f, want %.12f", got, want)
	}

	undecayed := math.Log(1.8) + math.Log(1.9) + math.Log(2.0)
	if got >= undecayed {
		t.Fatalf("decayed aggregate %.6f not below undecayed sum %.6f", got, undecayed)
	}
}

func TestAggregateFutureRecordsDoNotAmplify(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore(16, 0.07)
	s.Record(record("future", now.Add(48*time.Hour), 1.0))

	got := s.AggregateScore(now)
	if got > math.Log(2.0)+1e-12 {
		t.Fatalf("future-dated record weighted above 1: %.6f", got)
	}
}

func TestAggregateEmptyStoreIsZero(t *testing.T) {
	s := NewStore(0, 0)
	if got := s.AggregateScore(time.Now()); got != 0 {
		t.Fatalf("empty aggregate = %v, want 0", got)
	}
}

func TestConcurrentRecordAndAggregate(t *testing.T) {
	s := NewStore(64, 0.07)
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Record(record(fmt.Sprintf("w%d-%d", w, i), now, 0.5))
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			v := s.AggregateScore(now)
			if math.IsNaN(v) || v < 0 {
				t.Errorf("aggregate invalid under contention: %v", v)
				return
			}
		}
	}()
	wg.Wait()

	if s.Len() != 64 {
		t.Fatalf("len = %d after concurrent writes, want capacity 64", s.Len())
	}
}
