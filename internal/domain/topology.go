package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Topology maps keys to the nodes that store them.
type Topology interface {
	ReplicaSet(key []byte, size int) ([]string, error)
	PrimaryFor(key []byte) string
	IsMe(node string) bool
	All() []string
}

// StaticTopology places a key on consecutive members of a fixed, sorted
// node list, starting at the hash of the key. Membership never changes
// while the node runs.
type StaticTopology struct {
	nodes []string
	me    string
}

func NewStaticTopology(nodes []string, me string) (*StaticTopology, error) {
	sorted := make([]string, 0, len(nodes))
	for _, n := range nodes {
		n = normalizeNode(n)
		if n != "" {
			sorted = append(sorted, n)
		}
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if len(sorted) == 0 {
		return nil, fmt.Errorf("topology: empty node list")
	}
	me = normalizeNode(me)
	if _, found := slices.BinarySearch(sorted, me); !found {
		return nil, fmt.Errorf("topology: self %q is not a cluster member", me)
	}
	return &StaticTopology{
		nodes: sorted,
		me:    me,
	}, nil
}

func normalizeNode(n string) string {
	return strings.TrimRight(strings.TrimSpace(n), "/")
}

func (t *StaticTopology) ReplicaSet(key []byte, size int) ([]string, error) {
	n := len(t.nodes)
	if size <= 0 || size > n {
		return nil, fmt.Errorf("%w: replica set of %d from %d nodes", ErrBadRequest, size, n)
	}
	start := int(xxhash.Sum64(key) % uint64(n))
	replicas := make([]string, 0, size)
	for i := range size {
		replicas = append(replicas, t.nodes[(start+i)%n])
	}
	return replicas, nil
}

func (t *StaticTopology) PrimaryFor(key []byte) string {
	replicas, _ := t.ReplicaSet(key, 1)
	return replicas[0]
}

func (t *StaticTopology) IsMe(node string) bool {
	return normalizeNode(node) == t.me
}

func (t *StaticTopology) Me() string {
	return t.me
}

func (t *StaticTopology) All() []string {
	return slices.Clone(t.nodes)
}

func (t *StaticTopology) Size() int {
	return len(t.nodes)
}
