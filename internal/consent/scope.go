package consent

import (
	"fmt"
	"sort"
	"strings"
)

// Scope is a named permission granted by a consent token.
type Scope string

const (
	ScopeReadEmail       Scope = "vault.read.email"
	ScopeWriteEmail      Scope = "vault.write.email"
	ScopeReadFile        Scope = "vault.read.file"
	ScopeWriteFile       Scope = "vault.write.file"
	ScopeReadCalendar    Scope = "vault.read.calendar"
	ScopeWriteCalendar   Scope = "vault.write.calendar"
	ScopeReadContacts    Scope = "vault.read.contacts"
	ScopeWriteContacts   Scope = "vault.write.contacts"
	ScopeReadMemory      Scope = "vault.read.memory"
	ScopeWriteMemory     Scope = "vault.write.memory"
	ScopeReadReminder    Scope = "vault.read.reminder"
	ScopeWriteReminder   Scope = "vault.write.reminder"
	ScopeReadFinance     Scope = "vault.read.finance"
	ScopeCustomTemporary Scope = "custom.temporary"
)

var knownScopes = map[Scope]struct{}{
	ScopeReadEmail:       {},
	ScopeWriteEmail:      {},
	ScopeReadFile:        {},
	ScopeWriteFile:       {},
	ScopeReadCalendar:    {},
	ScopeWriteCalendar:   {},
	ScopeReadContacts:    {},
	ScopeWriteContacts:   {},
	ScopeReadMemory:      {},
	ScopeWriteMemory:     {},
	ScopeReadReminder:    {},
	ScopeWriteReminder:   {},
	ScopeReadFinance:     {},
	ScopeCustomTemporary: {},
}

// Valid reports whether s is a member of the closed scope enumeration.
func (s Scope) Valid() bool {
	_, ok := knownScopes[s]
	return ok
}

func (s Scope) String() string {
	return string(s)
}

// ParseScope converts a wire value into a Scope.
func ParseScope(value string) (Scope, error) {
	s := Scope(strings.TrimSpace(value))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, value)
	}
	return s, nil
}

// ScopeSet is the internal representation of the scopes a token grants.
// The wire format packs multiple scopes into one comma-joined string;
// parsing normalizes that into a set so validation is a membership test.
type ScopeSet map[Scope]struct{}

// NewScopeSet builds a set from the given scopes. Every member must be a
// known scope.
func NewScopeSet(scopes ...Scope) (ScopeSet, error) {
	if len(scopes) == 0 {
		return nil, fmt.Errorf("%w: empty scope list", ErrUnknownScope)
	}
	set := make(ScopeSet, len(scopes))
	for _, s := range scopes {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScope, s)
		}
		set[s] = struct{}{}
	}
	return set, nil
}

// ParseScopeSet splits a comma-joined scope string and membership-tests
// each element against the enumeration.
func ParseScopeSet(value string) (ScopeSet, error) {
	parts := strings.Split(value, ",")
	scopes := make([]Scope, 0, len(parts))
	for _, p := range parts {
		s, err := ParseScope(p)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, s)
	}
	return NewScopeSet(scopes...)
}

// Contains reports whether the set grants the required scope. Matching is
// exact membership: a write scope never implies the corresponding read
// scope.
func (ss ScopeSet) Contains(required Scope) bool {
	_, ok := ss[required]
	return ok
}

// Slice returns the members in sorted order.
func (ss ScopeSet) Slice() []Scope {
	scopes := make([]Scope, 0, len(ss))
	for s := range ss {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i] < scopes[j] })
	return scopes
}

// Wire serializes the set into the comma-joined wire form, sorted for a
// deterministic claim encoding.
func (ss ScopeSet) Wire() string {
	scopes := ss.Slice()
	parts := make([]string, len(scopes))
	for i, s := range scopes {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
