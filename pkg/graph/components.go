package graph

import (
	"sort"

	"storygraph/pkg/common"
)

type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind(nodes []string) *unionFind {
	uf := &unionFind{
		parent: make(map[string]string, len(nodes)),
		rank:   make(map[string]int, len(nodes)),
	}
	for _, n := range nodes {
		uf.parent[n] = n
	}
	return uf
}

func (uf *unionFind) find(n string) string {
	root := n
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[n] != root {
		uf.parent[n], n = root, uf.parent[n]
	}
	return root
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// ConnectedComponents partitions nodes by the edges accepted by include.
// Edges whose endpoints are not in the node set are ignored. The result is
// deterministic regardless of input order: members are sorted within each
// component and components are ordered by their smallest member.
func ConnectedComponents(nodes []string, edges []common.NewsRelation, include func(common.NewsRelation) bool) [][]string {
	uf := newUnionFind(nodes)

	for _, e := range edges {
		if _, ok := uf.parent[e.NewsA]; !ok {
			continue
		}
		if _, ok := uf.parent[e.NewsB]; !ok {
			continue
		}
		if include != nil && !include(e) {
			continue
		}
		uf.union(e.NewsA, e.NewsB)
	}

	byRoot := make(map[string][]string)
	for _, n := range nodes {
		root := uf.find(n)
		byRoot[root] = append(byRoot[root], n)
	}

	out := make([][]string, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
