// Package egraph holds the read-only input of every extraction strategy: a set
// of equivalence classes (e-classes), each owning interchangeable operator nodes
// (e-nodes) whose children are references to other classes, plus an ordered
// list of root classes.
//
// What:
//
//   - Builder collects classes and nodes in insertion order and validates them.
//   - Build freezes the collection into an immutable *EGraph with dense integer
//     class indices, dense per-class node indices, resolved child indices and a
//     parent index (class → nodes that reference it).
//   - ReadJSON / LoadFile decode the egraph-serialize JSON format; WriteJSON
//     encodes it back. Object key order is preserved so that dense indices
//     follow the file.
//
// Why:
//
//	Extraction algorithms update per-class state by integer id many times; a
//	dense, index-addressed layout keeps those loops allocation-free and makes
//	every iteration order deterministic.
//
// Concurrency:
//
//	An *EGraph is never mutated after Build and may be shared by any number of
//	goroutines and extractors.
//
// Errors:
//
//   - ErrEmptyClass      a class without member nodes
//   - ErrUnknownClass    a child or root references a class that was never added
//   - ErrDuplicateNode   two nodes share a NodeID
//   - ErrInvalidCost     a node cost is NaN, negative or infinite
//   - ErrNoRoots         Build was asked for a graph without roots
//   - ErrMalformedJSON   the serialized form cannot be decoded
package egraph
