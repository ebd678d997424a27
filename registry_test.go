package inspectflow

import (
	"errors"
	"testing"
)

func TestRegistry_CreateFromRegisteredSpec(t *testing.T) {
	r := NewRegistry()
	r.Register(valueSourceSpec(1))

	tool, err := r.Create(CategoryImageSource, "ValueSource", "cam1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tool.Name() != "cam1" || tool.Kind() != "ValueSource" {
		t.Errorf("created %s/%s, want cam1/ValueSource", tool.Name(), tool.Kind())
	}

	// An empty name derives one from the kind.
	anon, err := r.Create(CategoryImageSource, "ValueSource", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if anon.Name() == "" {
		t.Error("empty name not derived")
	}
}

func TestRegistry_CreateUnknownKind(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create(CategoryFilter, "Nope", ""); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Create unknown = %v, want ErrToolNotFound", err)
	}
}

// Re-registering a key replaces the spec; keys are case-sensitive and
// category-qualified.
func TestRegistry_ReplaceAndKeying(t *testing.T) {
	r := NewRegistry()
	first := valueSourceSpec(1)
	first.Description = "old"
	r.Register(first)

	second := valueSourceSpec(1)
	second.Description = "new"
	r.Register(second)

	spec, ok := r.Spec(CategoryImageSource, "ValueSource")
	if !ok || spec.Description != "new" {
		t.Errorf("Spec = %+v, want replaced entry", spec)
	}
	if _, ok := r.Spec(CategoryImageSource, "valuesource"); ok {
		t.Error("lookup is case-insensitive, want case-sensitive")
	}
	if _, ok := r.Spec(CategoryFilter, "ValueSource"); ok {
		t.Error("lookup ignored category")
	}
}

func TestRegistry_Listing(t *testing.T) {
	r := NewRegistry()
	b := addSpec(1)
	b.Kind = "Blur"
	s := addSpec(1)
	s.Kind = "Sharpen"
	r.Register(s)
	r.Register(b)
	r.Register(valueSourceSpec(1))

	filters := r.ListByCategory(CategoryFilter)
	if len(filters) != 2 || filters[0].Kind != "Blur" || filters[1].Kind != "Sharpen" {
		t.Errorf("ListByCategory(Filter) = %v, want [Blur Sharpen]", filters)
	}

	cats := r.Categories()
	if len(cats) != 2 || cats[0] != CategoryFilter || cats[1] != CategoryImageSource {
		t.Errorf("Categories = %v, want [Filter ImageSource]", cats)
	}
}
