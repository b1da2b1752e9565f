package store

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func newRecord(id string, created time.Time) *Record {
	return &Record{
		ID:        id,
		CreatedAt: created,
		Name:      "ibm01",
		Pins:      4,
		Nets:      2,
		Epsilon:   0.03,
		Trials:    8,
		Seed:      42,
		CutWeight: 1,
		Labels:    []bool{true, false, true, false},
	}
}

// testStore runs the behaviour every backend must share.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.Save(ctx, &Record{}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("Save(no id) error = %v, want ErrInvalidRecord", err)
	}

	for i, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, newRecord(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	got, err := s.Get(ctx, "b")
	if err != nil {
		t.Fatalf("Get(b): %v", err)
	}
	want := newRecord("b", base.Add(time.Minute))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get(b) = %+v, want %+v", got, want)
	}

	list, err := s.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, r := range list {
		ids = append(ids, r.ID)
		if r.Labels != nil {
			t.Errorf("List returned labels for %s", r.ID)
		}
	}
	if !reflect.DeepEqual(ids, []string{"c", "b", "a"}) {
		t.Errorf("List order = %v, want [c b a]", ids)
	}

	list, err = s.List(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("List(limit 2) returned %d records", len(list))
	}

	updated := newRecord("a", base)
	updated.CutWeight = 0
	if err := s.Save(ctx, updated); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, "a"); got.CutWeight != 0 {
		t.Errorf("Save did not replace record: cut %v", got.CutWeight)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	rec := newRecord("a", time.Now())
	if err := s.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Labels[0] = false

	got, _ := s.Get(ctx, "a")
	if !got.Labels[0] {
		t.Error("store shares the caller's label slice")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
}

func TestFileStoreIDCannotEscape(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), newRecord("../escape", time.Now())); err != nil {
		t.Fatal(err)
	}
	if got := s.recordPath("../escape"); got != dir+"/escape.json" {
		t.Errorf("recordPath = %s", got)
	}
}

func TestMongoRecordSeed(t *testing.T) {
	rec := newRecord("a", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	rec.Seed = math.MaxUint64 - 7

	data, err := bson.Marshal(toMongo(rec))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["_id"] != "a" {
		t.Errorf("_id = %v, want a", doc["_id"])
	}
	if _, ok := doc["seed"].(int64); !ok {
		t.Errorf("seed stored as %T, want int64", doc["seed"])
	}

	var m mongoRecord
	if err := bson.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	got := m.record()
	if got.Seed != rec.Seed {
		t.Errorf("Seed = %d, want %d", got.Seed, rec.Seed)
	}
	if !reflect.DeepEqual(got.Labels, rec.Labels) || got.CreatedAt != rec.CreatedAt {
		t.Errorf("record = %+v, want %+v", got, rec)
	}
}
