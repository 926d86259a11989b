package kbinxml

import "github.com/leo-cydar/kbinxml/internal/nodetype"

// ValueKind distinguishes the handful of shapes a Node's payload can take.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueScalar
	ValueArray
	ValueBinary
	ValueString
)

// Value is the typed payload carried by a Node, mirroring the tagged
// union described for the data model: a scalar tuple, a homogeneous
// array of tuples, a binary blob, or a string.
type Value struct {
	Kind ValueKind
	// Scalar holds the whitespace-joined tuple text for ValueScalar (one
	// token per vector lane).
	Scalar string
	// Array holds one decoded tuple per array element for ValueArray.
	Array []string
	Binary []byte
	String string
}

// Node is one typed element in a NodeCollection: the binary-tree-native
// analogue of Element, keeping the TypeSpec instead of stringly-typed
// `__type`/`__count` attributes.
type Node struct {
	Name     string
	Type     *nodetype.Spec
	Attrs    []Attr
	Value    Value
	Children []*Node
}

// NodeCollection is the root of a decoded typed tree, as returned by
// DecodeToNodeCollection.
type NodeCollection struct {
	Root *Node
}
