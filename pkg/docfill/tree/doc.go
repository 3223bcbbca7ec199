// Package tree provides the mutable document tree the fill engine works on.
//
// A Tree is an arena: nodes are addressed by NodeID and hold a parent index
// and an ordered list of child indexes. Structural edits (insert, remove,
// clone) rewrite indexes only, so a NodeID handed out once never dangles.
//
// # Splitting
//
// SplitBefore and SplitAfter hoist a node up to a chosen ancestor by
// cutting every container on the way into a "before" and an "after" part.
// The cut halves are shallow clones of the original container, so run and
// paragraph formatting survives on both sides.
//
// # Areas
//
// An Area is the sibling range between two boundary nodes after both have
// been hoisted to a common ancestor. Areas can be enumerated, cloned,
// deleted and repeated; the loop and conditional commands are built on
// them.
//
// # Text capability
//
// The tree itself knows nothing about a document format. Format adapters
// implement TextCapability to tell the engine which nodes carry text and
// how to create a minimal text container.
package tree
