package dataset

// Column is an interned handle to a schema column. Handles are dense indexes
// in insertion order and stay valid for the life of the schema.
type Column int

// Schema is the ordered, append-only set of column names shared by a DataSet
// and every FeatureVector it hands out.
type Schema struct {
	names  []string
	index  map[string]Column
	frozen bool
}

func newSchema() *Schema {
	return &Schema{index: make(map[string]Column)}
}

func (s *Schema) add(name string) (Column, error) {
	if s.frozen {
		return 0, &SchemaError{Op: "add feature", Name: name, Err: ErrFrozen}
	}
	if _, ok := s.index[name]; ok {
		return 0, &SchemaError{Op: "add feature", Name: name, Err: ErrDuplicate}
	}
	c := Column(len(s.names))
	s.names = append(s.names, name)
	s.index[name] = c
	return c, nil
}

// Column resolves name to its handle.
func (s *Schema) Column(name string) (Column, bool) {
	c, ok := s.index[name]
	return c, ok
}

// Name returns the column name for c.
func (s *Schema) Name(c Column) string { return s.names[c] }

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len is the number of columns.
func (s *Schema) Len() int { return len(s.names) }

// Frozen reports whether a vector has been materialized from the schema.
func (s *Schema) Frozen() bool { return s.frozen }
