// Package idgen issues the numeric entity ids used across the store.
package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Ids are laid out as 41 bits of milliseconds since epoch, 4 node bits and
// 8 sequence bits, so every id fits in 53 bits and survives a round trip
// through a JSON number in JavaScript clients.
const (
	nodeBits = 4
	stepBits = 8
	epochMs  = 1704067200000 // 2024-01-01T00:00:00Z

	// MaxNode is the highest accepted node number.
	MaxNode = 1<<nodeBits - 1
)

var configure sync.Once

// Snowflake generates time-ordered ids, up to 256 per millisecond per node.
// Ids from different processes never collide as long as each runs with its
// own node number.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node (0..MaxNode).
func NewSnowflake(node int64) (*Snowflake, error) {
	configure.Do(func() {
		snowflake.NodeBits = nodeBits
		snowflake.StepBits = stepBits
		snowflake.Epoch = epochMs
	})

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

func (s *Snowflake) NextID() int64 {
	return s.node.Generate().Int64()
}
