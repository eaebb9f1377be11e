package services

import (
	"fmt"
	"sort"
	"strings"
)

// Scopes form a closed set; roles and tokens may only reference members
// of this list.
var allScopes = []string{
	"node.create", "node.view", "node.update", "node.delete", "node.move",
	"document.upload", "document.download",
	"tag.create", "tag.view", "tag.select", "tag.update", "tag.delete",
	"user.create", "user.view", "user.select", "user.update", "user.delete", "user.me",
	"group.create", "group.view", "group.select", "group.update", "group.delete",
	"role.create", "role.view", "role.select", "role.update", "role.delete",
	"custom_field.create", "custom_field.view", "custom_field.update", "custom_field.delete",
	"document_type.create", "document_type.view", "document_type.update", "document_type.delete",
	"shared_node.create", "shared_node.view", "shared_node.update", "shared_node.delete",
	"task.ocr",
	"ocrlang.view",
	"page.view", "page.update", "page.move", "page.extract", "page.delete",
	"audit_log.view",
	"system_preference.view", "system_preference.update",
}

var scopeSet = func() map[string]bool {
	m := make(map[string]bool, len(allScopes))
	for _, s := range allScopes {
		m[s] = true
	}
	return m
}()

// AllScopes returns the full enumeration, sorted for determinism.
func AllScopes() []string {
	out := make([]string, len(allScopes))
	copy(out, allScopes)
	sort.Strings(out)
	return out
}

func IsKnownScope(scope string) bool {
	return scopeSet[scope]
}

// ValidateScopes rejects any codename outside the closed set.
func ValidateScopes(scopes []string) error {
	var unknown []string
	for _, s := range scopes {
		if !scopeSet[s] {
			unknown = append(unknown, s)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown permission scopes: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// ScopeSet is an effective-scope set for one authenticated principal.
type ScopeSet map[string]bool

func NewScopeSet(scopes []string) ScopeSet {
	set := make(ScopeSet, len(scopes))
	for _, s := range scopes {
		set[s] = true
	}
	return set
}

func FullScopeSet() ScopeSet {
	return NewScopeSet(allScopes)
}

func (s ScopeSet) Has(scope string) bool {
	return s[scope]
}

// Intersect keeps only scopes present in both sets; used for
// token-restricted authentication.
func (s ScopeSet) Intersect(other ScopeSet) ScopeSet {
	out := make(ScopeSet)
	for scope := range s {
		if other[scope] {
			out[scope] = true
		}
	}
	return out
}

// Sorted returns the members sorted, the shape handed to API callers.
func (s ScopeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}
