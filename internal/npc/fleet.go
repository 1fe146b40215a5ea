package npc

// Fleet is the set of agents run by one process.
type Fleet []*Agent

// Statuses returns the status of every agent in fleet order.
func (f Fleet) Statuses() []Status {
	out := make([]Status, 0, len(f))
	for _, a := range f {
		out = append(out, a.Status())
	}
	return out
}

// ResetConversations clears the conversations of every agent and returns the
// total removed.
func (f Fleet) ResetConversations() int {
	total := 0
	for _, a := range f {
		total += a.ResetConversations()
	}
	return total
}

// EvictIdle evicts idle conversations on every agent and returns the total
// removed.
func (f Fleet) EvictIdle() int {
	total := 0
	for _, a := range f {
		total += len(a.EvictIdle())
	}
	return total
}
