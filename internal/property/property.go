// Package property implements the agent's typed key/value property store
// (spec §4.2): declared once at construction, fixed thereafter, with
// per-key access mode, last-update timestamp, and optional on-get/on-set
// hooks.
//
// Author: momentics <momentics@gmail.com>
package property

import (
	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/internal/agenterrors"
	"github.com/momentics/rtc-agent/internal/clock"
)

// Type tags the declared shape of a property value.
type Type int

const (
	TypeInt64 Type = iota
	TypeFloat64
	TypeString
	TypeSymbol
	TypeBool
	TypeBytes
)

func (t Type) String() string {
	switch t {
	case TypeInt64:
		return "Int64"
	case TypeFloat64:
		return "Float64"
	case TypeString:
		return "String"
	case TypeSymbol:
		return "Symbol"
	case TypeBool:
		return "Bool"
	case TypeBytes:
		return "Bytes"
	default:
		return "Unknown"
	}
}

// OnSetFunc validates/transforms a proposed value before it is stored. It
// may return an error (typically agenterrors.PropertyValidation) to reject
// the write, or a transformed value to store instead of the raw input.
type OnSetFunc func(key string, current, proposed any) (any, error)

// OnGetFunc computes the value returned by Get, overriding the stored value
// (e.g. GCBytes reporting live runtime stats) without mutating storage.
type OnGetFunc func(key string, stored any) any

// Descriptor declares one property's immutable shape.
type Descriptor struct {
	Name   string
	Type   Type
	Access api.AccessMode
	OnGet  OnGetFunc
	OnSet  OnSetFunc
}

type entry struct {
	desc         Descriptor
	value        any
	lastUpdateNs int64
	isSet        bool
}

// Store is the agent's fixed-schema property table. Declare all properties
// at construction time; Get/Set thereafter never add or remove keys, so the
// core's single work thread never contends on map structure.
type Store struct {
	clock   *clock.Source
	order   []string
	entries map[string]*entry
}

// New returns an empty store reading tick time from clk.
func New(clk *clock.Source) *Store {
	return &Store{
		clock:   clk,
		entries: make(map[string]*entry),
	}
}

// Declare registers a property with its initial value. Must be called only
// during agent construction, before the work loop starts.
func (s *Store) Declare(desc Descriptor, initial any) {
	if _, exists := s.entries[desc.Name]; exists {
		return
	}
	s.order = append(s.order, desc.Name)
	s.entries[desc.Name] = &entry{
		desc:         desc,
		value:        initial,
		lastUpdateNs: s.clock.Now(),
		isSet:        initial != nil,
	}
}

// Get returns the current value, running on_get if configured.
func (s *Store) Get(key string) (any, error) {
	e, ok := s.entries[key]
	if !ok {
		return nil, agenterrors.PropertyNotFound(key)
	}
	if e.desc.Access&api.Readable == 0 {
		return nil, agenterrors.PropertyAccessDenied(key, "Readable")
	}
	if e.desc.OnGet != nil {
		return e.desc.OnGet(key, e.value), nil
	}
	return e.value, nil
}

// Set runs on_set (if configured) then stores the resulting value, bumping
// last_update_ns to the canonical tick time.
func (s *Store) Set(key string, value any) error {
	e, ok := s.entries[key]
	if !ok {
		return agenterrors.PropertyNotFound(key)
	}
	if e.desc.Access&api.Mutable == 0 {
		return agenterrors.PropertyAccessDenied(key, "Mutable")
	}
	stored := value
	if e.desc.OnSet != nil {
		transformed, err := e.desc.OnSet(key, e.value, value)
		if err != nil {
			return err
		}
		stored = transformed
	}
	e.value = stored
	e.isSet = true
	e.lastUpdateNs = s.clock.Now()
	return nil
}

// IsSet reports whether key has ever received a value.
func (s *Store) IsSet(key string) bool {
	e, ok := s.entries[key]
	return ok && e.isSet
}

// LastUpdate returns the tick time of the most recent Set (or of Declare,
// for a non-nil initial value), or -1 if the key never received a value.
func (s *Store) LastUpdate(key string) (int64, error) {
	e, ok := s.entries[key]
	if !ok {
		return -1, agenterrors.PropertyNotFound(key)
	}
	if !e.isSet {
		return -1, nil
	}
	return e.lastUpdateNs, nil
}

// TypeOf returns the declared type tag for key.
func (s *Store) TypeOf(key string) (Type, error) {
	e, ok := s.entries[key]
	if !ok {
		return 0, agenterrors.PropertyNotFound(key)
	}
	return e.desc.Type, nil
}

// Names returns all declared property names in declaration order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports the number of declared properties.
func (s *Store) Len() int {
	return len(s.order)
}
