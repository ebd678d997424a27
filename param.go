package inspectflow

// ParamKind is the semantic type of a tool parameter.
type ParamKind string

const (
	ParamInt    ParamKind = "int"
	ParamFloat  ParamKind = "float"
	ParamBool   ParamKind = "bool"
	ParamString ParamKind = "string"
	ParamEnum   ParamKind = "enum"
	ParamRect   ParamKind = "rect"
	ParamFile   ParamKind = "file"
)

// ParamSpec declares one parameter of a tool kind: its semantic type,
// default, bounds or options, and presentation metadata. Specs are
// immutable; they are declared once per tool kind and shared by every
// instance.
type ParamSpec struct {
	Name        string
	Kind        ParamKind
	Default     any
	Min         float64
	Max         float64
	HasBounds   bool
	Options     []string
	Description string
	Unit        string
}

// ParamStore holds a tool instance's validated configuration. Set
// never rejects a value: out-of-range input is corrected by a keyed
// rule table (see correct.go) and the corrected value is what gets
// stored.
//
// Enum values are intentionally NOT validated against their declared
// Options; any string is stored as-is. Callers who need strict enums
// must check Options themselves.
type ParamStore struct {
	specs  map[string]ParamSpec
	order  []string
	values map[string]any
}

// NewParamStore creates an empty store.
func NewParamStore() *ParamStore {
	return &ParamStore{
		specs:  make(map[string]ParamSpec),
		values: make(map[string]any),
	}
}

// Define registers a spec and seeds the stored value with the
// corrected default. Redefining a name replaces the spec and resets
// the value.
func (s *ParamStore) Define(spec ParamSpec) {
	if _, exists := s.specs[spec.Name]; !exists {
		s.order = append(s.order, spec.Name)
	}
	s.specs[spec.Name] = spec
	s.values[spec.Name] = correctValue(spec.Name, spec.Default)
}

// Spec returns the declared spec for a name.
func (s *ParamStore) Spec(name string) (ParamSpec, bool) {
	spec, ok := s.specs[name]
	return spec, ok
}

// Specs returns all declared specs in definition order.
func (s *ParamStore) Specs() []ParamSpec {
	out := make([]ParamSpec, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.specs[name])
	}
	return out
}

// Set stores a value after applying the correction rule table and
// returns the value actually stored. Unknown keys pass through the
// table unchanged and are stored anyway; Set never fails.
func (s *ParamStore) Set(key string, value any) any {
	fixed := correctValue(key, value)
	s.values[key] = fixed
	return fixed
}

// Get returns the stored value, or def when the key is absent.
func (s *ParamStore) Get(key string, def any) any {
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// GetInt returns the value as an int, or def on absence/mismatch.
func (s *ParamStore) GetInt(key string, def int) int {
	if f, ok := toFloat(s.values[key]); ok {
		return int(f)
	}
	return def
}

// GetFloat returns the value as a float64, or def on absence/mismatch.
func (s *ParamStore) GetFloat(key string, def float64) float64 {
	if f, ok := toFloat(s.values[key]); ok {
		return f
	}
	return def
}

// GetBool returns the value as a bool, or def on absence/mismatch.
func (s *ParamStore) GetBool(key string, def bool) bool {
	if b, ok := s.values[key].(bool); ok {
		return b
	}
	return def
}

// GetString returns the value as a string, or def on absence/mismatch.
func (s *ParamStore) GetString(key string, def string) string {
	if str, ok := s.values[key].(string); ok {
		return str
	}
	return def
}

// Snapshot returns a copy of all stored values. The copy is what a
// tool body receives; mutating it never affects the store.
func (s *ParamStore) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Restore replaces the stored values with a previously taken snapshot,
// re-applying the correction table entry for each key.
func (s *ParamStore) Restore(snapshot map[string]any) {
	s.values = make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		s.values[k] = correctValue(k, v)
	}
}

// ResetToDefaults drops every stored value and reseeds from the
// declared specs.
func (s *ParamStore) ResetToDefaults() {
	s.values = make(map[string]any, len(s.specs))
	for name, spec := range s.specs {
		s.values[name] = correctValue(name, spec.Default)
	}
}
