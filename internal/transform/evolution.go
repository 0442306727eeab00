package transform

import (
	"go.uber.org/zap"

	"github.com/dexsync/dexsync/internal/model"
	"github.com/dexsync/dexsync/internal/pokeapi"
)

// maxChainDepth bounds the tree walk; real chains are at most a handful of
// levels deep, so hitting the cap means the document is pathological.
const maxChainDepth = 32

// FlattenChain walks an evolution-chain document depth-first, pre-order, and
// emits one edge per transition: the edge into a node is emitted before any
// edge in that node's subtree, and siblings follow document order. A nil
// document or a childless root both yield an empty list.
func FlattenChain(doc *pokeapi.EvolutionChainDoc) []model.EvolutionEdge {
	if doc == nil {
		return nil
	}

	type frame struct {
		parent *pokeapi.ChainNode // nil for the root
		node   *pokeapi.ChainNode
		depth  int
	}

	var edges []model.EvolutionEdge
	stack := []frame{{node: &doc.Chain}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.parent != nil {
			edges = append(edges, edgeFor(f.parent, f.node))
		}

		if f.depth >= maxChainDepth {
			zap.L().Warn("evolution chain exceeds depth cap, truncating walk",
				zap.String("species", f.node.Species.Name),
				zap.Int("depth", f.depth),
			)
			continue
		}

		// Push children in reverse so they pop in document order.
		children := f.node.EvolvesTo
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{parent: f.node, node: &children[i], depth: f.depth + 1})
		}
	}

	return edges
}

// edgeFor builds the edge from parent to child using only the first detail
// entry; a transition with no details still produces an edge with null
// trigger metadata.
func edgeFor(parent, child *pokeapi.ChainNode) model.EvolutionEdge {
	edge := model.EvolutionEdge{
		FromSpecies: parent.Species.Name,
		ToSpecies:   child.Species.Name,
	}
	if len(child.EvolutionDetails) == 0 {
		return edge
	}
	detail := child.EvolutionDetails[0]
	if detail.Trigger != nil {
		edge.Trigger = &detail.Trigger.Name
	}
	if detail.Item != nil {
		edge.TriggerItem = &detail.Item.Name
	}
	edge.MinLevel = detail.MinLevel
	return edge
}
