package colour

import (
	"cmp"
	"slices"
)

// octreeDepth is the number of levels below the root; one bit per channel per level.
const octreeDepth = 8

// noChild marks an empty child slot. The root lives at index 0 and is never a child.
const noChild int32 = 0

// OctreeQuantizer builds a depth-8 octree over RGB space and folds the
// least populated deepest branches into leaves until at most size leaves remain.
//
// A single fold can remove up to seven leaves at once, so the palette may end
// up smaller than requested even when more distinct colours exist. The
// achieved size is reported on the returned Palette.
type OctreeQuantizer struct{}

// NewOctreeQuantizer creates a new OctreeQuantizer.
func NewOctreeQuantizer() *OctreeQuantizer {
	return &OctreeQuantizer{}
}

// Method returns MethodOctree.
func (q *OctreeQuantizer) Method() Method {
	return MethodOctree
}

// Quantize reduces the samples to at most size colours.
func (q *OctreeQuantizer) Quantize(samples []Sample, size int) (*Palette, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return NewPalette(nil, size), nil
	}

	tree := newOctree()
	for _, s := range samples {
		tree.insert(s)
	}
	tree.reduce(size)

	return NewPalette(tree.colours(), size), nil
}

// octreeNode is an arena entry. Every node on an insertion path accumulates
// the count and count-weighted channel sums of the samples below it.
type octreeNode struct {
	children [8]int32
	r, g, b  uint64
	count    uint64
	level    uint8
	leaf     bool
}

// octree is an index-addressed arena of nodes rooted at index 0.
type octree struct {
	nodes []octreeNode
	// levels holds the arena indices of the internal nodes at each depth, in creation order.
	levels [octreeDepth][]int32
	leaves int
}

func newOctree() *octree {
	t := &octree{
		nodes: []octreeNode{{level: 0}},
	}
	t.levels[0] = []int32{0}
	return t
}

// childIndex selects the octant at the given level from the next most significant bit of each channel.
func childIndex(rgb RGB, level uint8) int {
	shift := octreeDepth - 1 - level
	return int((rgb.R>>shift)&1)<<2 | int((rgb.G>>shift)&1)<<1 | int((rgb.B>>shift)&1)
}

// insert walks from the root to depth 8, creating nodes lazily.
func (t *octree) insert(s Sample) {
	idx := int32(0)
	t.accumulate(idx, s)

	for level := uint8(0); level < octreeDepth; level++ {
		slot := childIndex(s.RGB, level)
		child := t.nodes[idx].children[slot]
		if child == noChild {
			child = int32(len(t.nodes))
			node := octreeNode{level: level + 1}
			if level+1 == octreeDepth {
				node.leaf = true
				t.leaves++
			} else {
				t.levels[level+1] = append(t.levels[level+1], child)
			}
			t.nodes = append(t.nodes, node)
			t.nodes[idx].children[slot] = child
		}
		idx = child
		t.accumulate(idx, s)
	}
}

func (t *octree) accumulate(idx int32, s Sample) {
	n := &t.nodes[idx]
	n.r += uint64(s.RGB.R) * s.Count
	n.g += uint64(s.RGB.G) * s.Count
	n.b += uint64(s.RGB.B) * s.Count
	n.count += s.Count
}

// reduce folds internal nodes into leaves, deepest level first and least
// populated first within a level, until the leaf count is at most size.
//
// Levels are exhausted bottom-up, so every internal node at the level being
// processed has only leaf children when it is folded.
func (t *octree) reduce(size int) {
	for level := octreeDepth - 1; level >= 0 && t.leaves > size; level-- {
		candidates := slices.Clone(t.levels[level])
		slices.SortStableFunc(candidates, func(a, b int32) int {
			return cmp.Or(
				cmp.Compare(t.nodes[a].count, t.nodes[b].count),
				cmp.Compare(a, b),
			)
		})
		for _, idx := range candidates {
			if t.leaves <= size {
				return
			}
			t.fold(idx)
		}
	}
}

// fold discards the children of a node whose children are all leaves and turns it into a leaf.
// The node already carries the sums of its subtree.
func (t *octree) fold(idx int32) {
	n := &t.nodes[idx]
	removed := 0
	for i, child := range n.children {
		if child != noChild {
			removed++
			n.children[i] = noChild
		}
	}
	n.leaf = true
	t.leaves -= removed - 1
}

// colours emits the mean colour of every live leaf in depth-first child order.
func (t *octree) colours() []RGB {
	colours := make([]RGB, 0, t.leaves)
	var walk func(idx int32)
	walk = func(idx int32) {
		n := t.nodes[idx]
		if n.leaf {
			colours = append(colours, RGB{
				R: roundDiv(n.r, n.count),
				G: roundDiv(n.g, n.count),
				B: roundDiv(n.b, n.count),
			})
			return
		}
		for _, child := range n.children {
			if child != noChild {
				walk(child)
			}
		}
	}
	walk(0)
	return colours
}
