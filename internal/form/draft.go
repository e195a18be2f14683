// Package form holds unsubmitted user input. A Draft is shaped like the
// request payload it will become, never like the canonical record.
package form

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"medibook-console/internal/exceptions"
)

var (
	ErrNotObject = errors.New("form: path crosses a non-object value")
	ErrNotList   = errors.New("form: value is not a list")
	ErrIndex     = errors.New("form: list index out of range")
)

var validate = validator.New()

// Draft is safe for concurrent use.
type Draft struct {
	mu       sync.Mutex
	template map[string]any
	values   map[string]any
	required []string
	editing  string
}

// New returns a draft starting from template. required lists the dotted
// paths that must be filled at submit time.
func New(template map[string]any, required ...string) *Draft {
	return &Draft{
		template: clone(template),
		values:   clone(template),
		required: required,
	}
}

func (d *Draft) Set(path string, v any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	parent, key, err := walk(d.values, path, true)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	parent[key] = normalize(v)
	return nil
}

func (d *Draft) Get(path string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	parent, key, err := walk(d.values, path, false)
	if err != nil || parent == nil {
		return nil, false
	}
	v, ok := parent[key]
	return v, ok
}

// String returns the value at path when it is a string, else "".
func (d *Draft) String(path string) string {
	v, _ := d.Get(path)
	s, _ := v.(string)
	return s
}

func (d *Draft) SetItem(path string, i int, v any) error {
	return d.updateList(path, func(l []any) ([]any, error) {
		if i < 0 || i >= len(l) {
			return nil, ErrIndex
		}
		l[i] = normalize(v)
		return l, nil
	})
}

func (d *Draft) AddItem(path string, v any) error {
	return d.updateList(path, func(l []any) ([]any, error) {
		return append(l, normalize(v)), nil
	})
}

func (d *Draft) RemoveItem(path string, i int) error {
	return d.updateList(path, func(l []any) ([]any, error) {
		if i < 0 || i >= len(l) {
			return nil, ErrIndex
		}
		return append(l[:i:i], l[i+1:]...), nil
	})
}

func (d *Draft) updateList(path string, fn func([]any) ([]any, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	parent, key, err := walk(d.values, path, true)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	var l []any
	switch cur := parent[key].(type) {
	case nil:
	case []any:
		l = cur
	default:
		return fmt.Errorf("%s: %w", path, ErrNotList)
	}
	l, err = fn(l)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	parent[key] = l
	return nil
}

// Reset restores the template and clears the editing marker.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values = clone(d.template)
	d.editing = ""
}

// Seed replaces the draft with the template overlaid by values and marks it
// as editing the record id. An empty id seeds a fresh draft.
func (d *Draft) Seed(values map[string]any, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values = clone(d.template)
	merge(d.values, values)
	d.editing = id
}

// Editing returns the id of the record being edited, "" for a new one.
func (d *Draft) Editing() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editing
}

// Values returns a deep copy of the current draft.
func (d *Draft) Values() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return clone(d.values)
}

// Validate checks the required paths. It returns *exceptions.ValidationError
// listing every missing field, or nil.
func (d *Draft) Validate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	verr := &exceptions.ValidationError{}
	for _, path := range d.required {
		parent, key, err := walk(d.values, path, false)
		var v any
		if err == nil && parent != nil {
			v = parent[key]
		}
		checkField(verr, path, v)
	}
	return verr.OrNil()
}

func checkField(verr *exceptions.ValidationError, path string, v any) {
	if v == nil {
		verr.Add(path, "required")
		return
	}
	tag := "required"
	if isEmailPath(path) {
		tag = "required,email"
	}
	if s, ok := v.(string); ok {
		verr.AddValidator(path, validate.Var(strings.TrimSpace(s), tag))
		return
	}
	verr.AddValidator(path, validate.Var(v, "required"))
}

func isEmailPath(path string) bool {
	i := strings.LastIndexByte(path, '.')
	return strings.EqualFold(path[i+1:], "email")
}

// walk resolves the parent object of the last path segment. With create set
// it makes missing intermediate objects; without it a missing intermediate
// yields a nil parent.
func walk(root map[string]any, path string, create bool) (map[string]any, string, error) {
	parts := strings.Split(path, ".")
	cur := root
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p]
		if !ok || next == nil {
			if !create {
				return nil, "", nil
			}
			m := map[string]any{}
			cur[p] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return nil, "", ErrNotObject
		}
		cur = m
	}
	return cur, parts[len(parts)-1], nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case map[string]any:
		return clone(t)
	case []any:
		return cloneList(t)
	}
	return v
}

func clone(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func cloneList(l []any) []any {
	out := make([]any, len(l))
	for i, v := range l {
		out[i] = normalize(v)
	}
	return out
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				merge(dm, sm)
				continue
			}
		}
		dst[k] = normalize(v)
	}
}
