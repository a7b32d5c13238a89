package session

import (
	"errors"
	"testing"
	"time"

	"QuantForge/internal/domain/models"
)

func TestCreateGetPut(t *testing.T) {
	s := NewStore(0)
	id := s.Create()
	if id == "" {
		t.Fatalf("empty session id")
	}
	st, err := s.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.ID != id {
		t.Fatalf("id mismatch: %q", st.ID)
	}

	tbl := &models.Table{}
	s.Put(st.WithDataset("AAPL", tbl))
	st, err = s.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Symbol != "AAPL" || st.Dataset != tbl {
		t.Fatalf("dataset not stored: %+v", st)
	}
}

func TestGetUnknown(t *testing.T) {
	s := NewStore(0)
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpiry(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	id := s.Create()
	if _, err := s.Get(id); err != nil {
		t.Fatalf("fresh session should exist: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := NewStore(0)
	id := s.Create()
	s.Delete(id)
	s.Delete(id)
	if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete")
	}
}

func TestWithDatasetResetsPipeline(t *testing.T) {
	st := State{ID: "s"}
	st = st.WithSplit(nil, nil)
	st = st.WithDataset("MSFT", &models.Table{})
	if st.Prep != nil || st.Split != nil {
		t.Fatalf("pipeline state should reset on a new dataset")
	}
}

func TestWithModelCopiesSlice(t *testing.T) {
	base := State{ID: "s", ModelIDs: []string{"a"}}
	one := base.WithModel("b")
	two := base.WithModel("c")
	if len(base.ModelIDs) != 1 {
		t.Fatalf("base snapshot mutated: %v", base.ModelIDs)
	}
	if one.ModelIDs[1] != "b" || two.ModelIDs[1] != "c" {
		t.Fatalf("snapshots share backing array: %v %v", one.ModelIDs, two.ModelIDs)
	}
}
