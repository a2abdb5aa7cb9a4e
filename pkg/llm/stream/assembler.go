package stream

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
)

// assembler merges fragmentary tool-call data arriving across frames into
// finalized llm.ToolCalls. In-progress calls live in a small arena of
// builders keyed by the vendor's slot index; a completed builder is
// finalized and removed so it can never be re-emitted as in-progress.
// Distinct calls may complete in any order relative to each other, but a
// given call's fragments are processed strictly in arrival order.
type assembler struct {
	building map[int]*toolCallBuilder
	done     []llm.ToolCall
}

// toolCallBuilder accumulates one call's fragments until completion.
type toolCallBuilder struct {
	id     string
	name   string
	args   strings.Builder
	parsed map[string]any
}

func newAssembler() *assembler {
	return &assembler{building: make(map[int]*toolCallBuilder)}
}

// apply routes one fragment. It returns true when the fragment completed a
// call, meaning the finalized set changed and is worth surfacing.
func (a *assembler) apply(frag *ToolCallFragment) bool {
	if frag == nil {
		return false
	}

	b, ok := a.building[frag.Index]
	if !ok {
		b = &toolCallBuilder{}
		a.building[frag.Index] = b
	}

	// Identity fields arrive on the first fragment and are implied after.
	if frag.ID != "" {
		b.id = frag.ID
	}
	if frag.Name != "" {
		b.name = frag.Name
	}
	if frag.Arguments != nil {
		b.parsed = frag.Arguments
	}
	if frag.ArgumentsDelta != "" {
		b.args.WriteString(frag.ArgumentsDelta)
	}

	if !frag.Complete {
		return false
	}

	a.finalize(frag.Index, b)
	return true
}

// finalizeAll force-finalizes every in-progress call in slot-index order,
// used when a finish signal arrives before explicit completion markers. Map
// iteration order would make the surfaced call order vary across runs for
// the same input. It returns true when any call was finalized.
func (a *assembler) finalizeAll() bool {
	if len(a.building) == 0 {
		return false
	}
	idxs := make([]int, 0, len(a.building))
	for idx := range a.building {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	for _, idx := range idxs {
		a.finalize(idx, a.building[idx])
	}
	return true
}

// finalize parses the builder's accumulated arguments and moves the call to
// the done set. A call surfaces only with a name; a builder that never
// received one is dropped rather than emitted half-built.
func (a *assembler) finalize(idx int, b *toolCallBuilder) {
	delete(a.building, idx)
	if b.name == "" {
		return
	}

	args := b.parsed
	if args == nil {
		args = parseArguments(b.args.String())
	}
	a.done = append(a.done, llm.ToolCall{ID: b.id, Name: b.name, Arguments: args})
}

// finalized returns a copy of the full set of calls finalized so far this
// turn, in completion order.
func (a *assembler) finalized() []llm.ToolCall {
	if len(a.done) == 0 {
		return nil
	}
	return append([]llm.ToolCall(nil), a.done...)
}

// parseArguments parses concatenated argument text as JSON. A parse failure
// degrades to an empty map: losing one malformed tool call's arguments is
// preferable to failing the whole generation.
func parseArguments(text string) map[string]any {
	args := map[string]any{}
	if text == "" {
		return args
	}
	if err := json.Unmarshal([]byte(text), &args); err != nil {
		return map[string]any{}
	}
	return args
}
