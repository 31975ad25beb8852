package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recorder struct {
	events []string
}

func (r *recorder) svc(name string, deps []string, startErr error) Func {
	return Func{
		ID:   name,
		Deps: deps,
		OnStart: func(context.Context) error {
			r.events = append(r.events, "start:"+name)
			return startErr
		},
		OnStop: func() error {
			r.events = append(r.events, "stop:"+name)
			return nil
		},
	}
}

func (r *recorder) joined() string { return strings.Join(r.events, " ") }

func TestHubStartsInDependencyOrder(t *testing.T) {
	rec := &recorder{}
	h := NewHub(nil)
	for _, s := range []Func{
		rec.svc("pump", []string{"engine"}, nil),
		rec.svc("engine", []string{"audio"}, nil),
		rec.svc("audio", nil, nil),
		rec.svc("ingest", []string{"engine"}, nil),
	} {
		if err := h.Register(s); err != nil {
			t.Fatalf("Register(%s): %v", s.ID, err)
		}
	}

	if err := h.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	h.StopAll()
	h.StopAll()

	want := "start:audio start:engine start:pump start:ingest stop:ingest stop:pump stop:engine stop:audio"
	if got := rec.joined(); got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestHubRollsBackOnStartFailure(t *testing.T) {
	rec := &recorder{}
	h := NewHub(nil)
	boom := errors.New("boom")
	h.Register(rec.svc("a", nil, nil))
	h.Register(rec.svc("b", []string{"a"}, boom))
	h.Register(rec.svc("c", []string{"b"}, nil))

	err := h.StartAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("StartAll error = %v, want wrapped boom", err)
	}
	if got, want := rec.joined(), "start:a start:b stop:a"; got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
}

func TestHubRejectsBadGraphs(t *testing.T) {
	tests := []struct {
		name     string
		services []Func
	}{
		{"missing dependency", []Func{{ID: "a", Deps: []string{"ghost"}}}},
		{"cycle", []Func{{ID: "a", Deps: []string{"b"}}, {ID: "b", Deps: []string{"a"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHub(nil)
			for _, s := range tt.services {
				h.Register(s)
			}
			if err := h.StartAll(context.Background()); err == nil {
				t.Error("StartAll succeeded, want error")
			}
		})
	}
}

func TestHubRejectsDuplicateNames(t *testing.T) {
	h := NewHub(nil)
	if err := h.Register(Func{ID: "engine"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := h.Register(Func{ID: "engine"}); err == nil {
		t.Error("duplicate Register succeeded")
	}
	if _, ok := h.Get("engine"); !ok {
		t.Error("Get(engine) missing")
	}
}

func TestRegisterAllReportsDuplicate(t *testing.T) {
	h := NewHub(nil)
	err := h.RegisterAll(Func{ID: "engine"}, Func{ID: "terminal"}, Func{ID: "engine"}, Func{ID: "audio"})
	if err == nil || !strings.Contains(err.Error(), "engine") {
		t.Fatalf("RegisterAll error = %v, want duplicate engine", err)
	}
	if _, ok := h.Get("terminal"); !ok {
		t.Error("services before the duplicate were not registered")
	}
	if _, ok := h.Get("audio"); ok {
		t.Error("services after the duplicate were registered")
	}
}
