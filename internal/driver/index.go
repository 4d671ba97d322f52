package driver

import (
	"loom/internal/binder"
	"loom/internal/handles"
)

// BuildHandleIndex produces the next generation of the reference-handle
// index after a successful bind: reused handles keep their IDs, every other
// keyed symbol gets a fresh ID above everything the prior generation issued.
// When the same key was bound more than once (duplicate declarations), the
// latest symbol wins, matching namespace lookup.
func BuildHandleIndex(sess *binder.Session, prior *handles.Index) *handles.Index {
	var maxID handles.HandleID
	if prior != nil {
		for _, key := range prior.Keys() {
			if id, ok := prior.Lookup(key); ok && id > maxID {
				maxID = id
			}
		}
	}

	next := handles.NewIndex()
	for i := range sess.Table.Symbols.Data() {
		sym := &sess.Table.Symbols.Data()[i]
		if sym.Key != "" {
			id := sym.Handle
			if !id.IsValid() {
				maxID++
				id = maxID
			}
			next.Put(sym.Key, id)
		}
		if sym.TearOffKey != "" {
			id := sym.TearOffHandle
			if !id.IsValid() {
				maxID++
				id = maxID
			}
			next.Put(sym.TearOffKey, id)
		}
	}
	return next
}
