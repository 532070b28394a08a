package fmbridge

// DefaultCharBudget is the default context budget for the tiny local model,
// in characters.
const DefaultCharBudget = 1100

// Message is the minimal shape truncation operates over; chatprovider copies
// its own messages into this type field by field, and fmbridge deliberately
// doesn't import chatprovider to avoid a cyclic dependency (chatprovider
// drives fmbridge).
type Message struct {
	Role    string
	Content string
}

// TruncateContext trims messages to budget characters (DefaultCharBudget if
// budget <= 0), always keeping the system message — truncated in place if it
// alone exceeds the budget — and then as many trailing user/assistant pairs
// as fit. The most recent pair (or lone trailing message) is always kept,
// even when it alone exceeds what remains of the budget. Truncation is a
// pure function of its inputs, so identical input always yields identical
// output.
func TruncateContext(messages []Message, budget int) []Message {
	if budget <= 0 {
		budget = DefaultCharBudget
	}

	var system *Message
	rest := make([]Message, 0, len(messages))
	for i, m := range messages {
		if m.Role == "system" && system == nil {
			sysCopy := messages[i]
			system = &sysCopy
			continue
		}
		rest = append(rest, m)
	}

	out := make([]Message, 0, len(messages))
	remaining := budget

	if system != nil {
		sys := *system
		if len(sys.Content) > remaining {
			sys.Content = truncateRunes(sys.Content, remaining)
		}
		out = append(out, sys)
		remaining -= len(sys.Content)
		if remaining < 0 {
			remaining = 0
		}
	}

	// Walk trailing pairs from the end, keeping whole pairs only, so the
	// kept context is always a coherent suffix of the conversation.
	kept := make([]Message, 0, len(rest))
	used := 0
	for end := len(rest); end > 0; {
		start := end - 1
		// A "pair" is (user, assistant) or a lone trailing message; walk
		// back two at a time when the two immediately preceding form a
		// user/assistant pair, else one at a time.
		if start > 0 && isPair(rest[start-1], rest[start]) {
			start--
		}
		size := 0
		for i := start; i < end; i++ {
			size += len(rest[i].Content)
		}
		if used+size > remaining && len(kept) > 0 {
			break
		}
		block := append([]Message{}, rest[start:end]...)
		kept = append(block, kept...)
		used += size
		end = start
		if used >= remaining {
			break
		}
	}

	out = append(out, kept...)
	return out
}

func isPair(a, b Message) bool {
	return a.Role == "user" && b.Role == "assistant"
}
