package reconcile

import "party-radar-backend/internal/models"

// ChatView is the visible message list for one conversation. The event
// stream is a latency hint only; Replace with the authoritative history wins
// whenever the two disagree.
type ChatView struct {
	order []string
	items map[string]*models.Message
}

// NewChatView creates an empty chat view
func NewChatView() *ChatView {
	return &ChatView{items: make(map[string]*models.Message)}
}

// Replace swaps the visible list for the authoritative history. Messages are
// never reordered after this: history arrives already sorted by
// (created_at, id).
func (v *ChatView) Replace(history []*models.Message) {
	v.order = v.order[:0]
	v.items = make(map[string]*models.Message, len(history))
	for _, m := range history {
		if m == nil || m.ID == "" {
			continue
		}
		if _, ok := v.items[m.ID]; ok {
			continue
		}
		v.items[m.ID] = m
		v.order = append(v.order, m.ID)
	}
}

// ApplyInsert appends a streamed message if it is not already visible.
// Out-of-order arrivals are appended as-is; the next Replace restores the
// authoritative order.
func (v *ChatView) ApplyInsert(m *models.Message) bool {
	if m == nil || m.ID == "" {
		return false
	}
	if _, ok := v.items[m.ID]; ok {
		return false
	}
	v.items[m.ID] = m
	v.order = append(v.order, m.ID)
	return true
}

// Messages returns the visible message list
func (v *ChatView) Messages() []*models.Message {
	out := make([]*models.Message, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.items[id])
	}
	return out
}

// Len returns the number of visible messages
func (v *ChatView) Len() int {
	return len(v.order)
}

// NeedsResync reports whether the view has diverged from the authoritative
// message count and should be replaced by a fresh history read.
func (v *ChatView) NeedsResync(authoritativeCount int) bool {
	return len(v.order) != authoritativeCount
}
