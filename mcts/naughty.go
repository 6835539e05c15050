package mcts

// NodeID is essentially *Node. It indexes the node arena held by MCTS.
type NodeID int

func (n NodeID) isValid() bool { return n >= 0 }

const (
	// Nil is the parent of the absolute root.
	Nil NodeID = -1
)
