// Package datamodel holds the values placeholders are filled with.
//
// A model is a tree of Nodes (ordered maps, lists, scalar leaves and lazy
// references). Paths such as "customer.orders[0].total" address nodes
// inside it:
//
//	a.b      property b of property a
//	a[2]     third item of list a
//	^a       property a of the model root, whatever came before
//	a.b<c    property c of a ("<" drops the preceding step)
//
// Resolution never fails on missing data; it reports "not found" and lets
// the caller decide what a gap means.
//
// Variables are named stacks of nodes pushed and popped while a document
// is filled (loop items, computed values). A variable path starts with the
// variable name and continues into its current value.
package datamodel
