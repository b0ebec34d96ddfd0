// Package annotations answers NVPTX backend queries about nvvm.annotations
// metadata: kernel entry points, launch bounds, texture, surface and sampler
// globals, image parameters, and parameter alignment.
//
// Annotation records live in a module-level named metadata list. Each record
// is a tuple [subject, name, value, name, value, ...]. A subject may own many
// records and a record may repeat a name; values accumulate per name in
// encounter order.
//
// A Cache parses each entity's records once, on its first query, and keeps
// the result until the module is invalidated. Invalidation is the caller's
// job: call Cache.Invalidate before a module is destroyed or rewritten.
//
// Malformed records and inconsistent marker values are upstream bugs. With
// assertions enabled (the default) they panic with an *InvariantError; with
// assertions disabled the offending operands are skipped.
package annotations
