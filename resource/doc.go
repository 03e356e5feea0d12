// Package resource tracks auxiliary resources requested by the upgrade
// engine while a manifest envelope is being processed.
//
// Resources are addressed by URIs of the form scheme://name. The identifier
// keeps the full name so different resources of the same scheme never share
// a slot:
//
//	reg := resource.NewRegistry()
//	alpha, _ := resource.ParseIdentifier("file://alpha")
//	beta, _ := resource.ParseIdentifier("file://beta")
//	_, _ = reg.RegisterOrUpdate(alpha, []byte{1})
//	_, err := reg.Lookup(beta) // ErrNotFound
package resource
