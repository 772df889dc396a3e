package dockerfile

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
)

// argPattern matches "ARG name=value" and "ARG name value" declarations.
// Group 1 is the name, group 2 the value. Declarations without a default
// value do not match and are ignored; they contribute nothing resolvable.
var argPattern = regexp.MustCompile(`(?m)^[ \t]*ARG[ \t]+([A-Za-z_][A-Za-z0-9_]*)(?:=|[ \t]+)([^\s]+)[ \t]*$`)

// Parameter is one ARG declaration. Offset is the position of the
// declaration, ValueOffset/ValueLen describe the default value substring.
// Offsets always describe the current buffer; every length-changing edit
// before a value must be followed by ShiftOffsetsFrom.
type Parameter struct {
	Name        string
	Value       string
	Offset      int
	ValueOffset int
	ValueLen    int

	original string // value as declared, to detect mutation
}

// Dirty reports whether the parameter's value was changed in memory and
// still needs to be flushed to the buffer.
func (p *Parameter) Dirty() bool {
	return p.Value != p.original
}

// ErrArgNotFound indicates no declaration of the requested name exists at
// or before the given position.
type ErrArgNotFound struct {
	Name string
}

func (e *ErrArgNotFound) Error() string {
	return fmt.Sprintf("no ARG declaration named %q in scope", e.Name)
}

// ArgTable is the positional record of ARG declarations in a Dockerfile.
// Multiple declarations of one name coexist; lookups resolve to the
// declaration with the greatest offset at or before the lookup position,
// which reproduces the file's source-order shadowing.
type ArgTable struct {
	params []*Parameter          // ordered by Offset ascending
	byHash map[string]*Parameter // correlation keys handed out by HashOf
}

// ScanArgs builds the table with one pass over the buffer.
func ScanArgs(buf []byte) *ArgTable {
	t := &ArgTable{byHash: make(map[string]*Parameter)}
	for _, m := range argPattern.FindAllSubmatchIndex(buf, -1) {
		value := string(buf[m[4]:m[5]])
		t.params = append(t.params, &Parameter{
			Name:        string(buf[m[2]:m[3]]),
			Value:       value,
			Offset:      m[0],
			ValueOffset: m[4],
			ValueLen:    m[5] - m[4],
			original:    value,
		})
	}
	return t
}

// Has reports whether any declaration of name exists.
func (t *ArgTable) Has(name string) bool {
	for _, p := range t.params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// lookup returns the declaration of name with the greatest offset at or
// before upTo.
func (t *ArgTable) lookup(name string, upTo int) (*Parameter, error) {
	var found *Parameter
	for _, p := range t.params {
		if p.Offset > upTo {
			break
		}
		if p.Name == name {
			found = p
		}
	}
	if found == nil {
		return nil, &ErrArgNotFound{Name: name}
	}
	return found, nil
}

// Get returns the value of name visible at position upTo.
func (t *ArgTable) Get(name string, upTo int) (string, error) {
	p, err := t.lookup(name, upTo)
	if err != nil {
		return "", err
	}
	return p.Value, nil
}

// Set overwrites, in memory, the value of the declaration of name visible
// at position upTo. The buffer itself is rewritten later by FlushEdits.
func (t *ArgTable) Set(name, value string, upTo int) error {
	p, err := t.lookup(name, upTo)
	if err != nil {
		return err
	}
	p.Value = value
	return nil
}

// HashOf returns the correlation key for the declaration of name visible at
// position offset. The key fingerprints (name, valueOffset) at construction
// time and keeps resolving to the same declaration even after later offset
// shifts, because it indexes the declaration itself rather than a position.
func (t *ArgTable) HashOf(name string, offset int) (string, error) {
	p, err := t.lookup(name, offset)
	if err != nil {
		return "", err
	}
	h := fnv.New32a()
	fmt.Fprintf(h, "%s\x00%d", p.Name, p.ValueOffset)
	key := fmt.Sprintf("p%08x", h.Sum32())
	t.byHash[key] = p
	return key, nil
}

// GetByHash returns the value of the declaration behind a correlation key.
func (t *ArgTable) GetByHash(key string) (string, error) {
	p, ok := t.byHash[key]
	if !ok {
		return "", &ErrArgNotFound{Name: key}
	}
	return p.Value, nil
}

// SetByHash overwrites, in memory, the value of the declaration behind a
// correlation key.
func (t *ArgTable) SetByHash(key, value string) error {
	p, ok := t.byHash[key]
	if !ok {
		return &ErrArgNotFound{Name: key}
	}
	p.Value = value
	return nil
}

// ShiftOffsetsFrom adds delta to the value offset of every declaration at
// or after fromOffset. Call after every length-changing buffer edit, in
// ascending-offset order of the edits.
func (t *ArgTable) ShiftOffsetsFrom(fromOffset, delta int) {
	for _, p := range t.params {
		if p.ValueOffset >= fromOffset {
			p.ValueOffset += delta
		}
		if p.Offset >= fromOffset {
			p.Offset += delta
		}
	}
}

// DirtyParams returns the mutated declarations sorted ascending by value
// offset, ready to be turned into buffer edits.
func (t *ArgTable) DirtyParams() []*Parameter {
	var dirty []*Parameter
	for _, p := range t.params {
		if p.Dirty() {
			dirty = append(dirty, p)
		}
	}
	sort.Slice(dirty, func(i, j int) bool { return dirty[i].ValueOffset < dirty[j].ValueOffset })
	return dirty
}
