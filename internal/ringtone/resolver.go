// Package ringtone resolves per-instance ringtone references and looks up
// their play length for ringtone-end timeouts.
package ringtone

import "github.com/dwsmith1983/alarmd/pkg/types"

// Resolver maps an instance's ringtone reference to a concrete one at read
// time. A nil reference follows whatever Default returns at call time and
// is never written back onto the record.
type Resolver struct {
	Default func() string
}

// StaticDefault returns a Resolver whose default never changes.
func StaticDefault(ref string) Resolver {
	return Resolver{Default: func() string { return ref }}
}

// Resolve returns the literal reference, or the current default for nil.
func (r Resolver) Resolve(inst *types.Instance) string {
	return r.ResolveRef(inst.Ringtone)
}

// ResolveRef is Resolve for a bare reference.
func (r Resolver) ResolveRef(ref *string) string {
	if ref != nil {
		return *ref
	}
	if r.Default == nil {
		return ""
	}
	return r.Default()
}
