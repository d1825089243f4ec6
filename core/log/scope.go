package log

import (
	"context"
)

// scopeNode is one link in the ambient scope chain. The chain travels
// inside a context.Context, so concurrent call chains each see their own
// tip and abandoning a derived context restores the parent scope.
type scopeNode struct {
	fields Fields
	parent *scopeNode
}

type scopeKeyType struct{}

var scopeKey scopeKeyType

// BeginScope derives a context whose log entries carry the given
// properties in addition to those of any enclosing scope. A property set
// by an inner scope wins over an outer one with the same name.
func BeginScope(ctx context.Context, fields Fields) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	node := &scopeNode{
		fields: fields.Clone(),
		parent: currentScope(ctx),
	}
	return context.WithValue(ctx, scopeKey, node)
}

func currentScope(ctx context.Context) *scopeNode {
	if ctx == nil {
		return nil
	}
	node, _ := ctx.Value(scopeKey).(*scopeNode)
	return node
}

// ScopeFields merges the active scope chain of ctx into a single property
// map, innermost values winning. It returns nil when no scope is active.
func ScopeFields(ctx context.Context) Fields {
	tip := currentScope(ctx)
	if tip == nil {
		return nil
	}

	// Walk tip to root collecting the chain, then apply root first so the
	// innermost assignment lands last.
	var chain []*scopeNode
	for node := tip; node != nil; node = node.parent {
		chain = append(chain, node)
	}
	merged := make(Fields)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].fields {
			merged[k] = v
		}
	}
	return merged
}
