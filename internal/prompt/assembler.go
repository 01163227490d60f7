package prompt

import (
	"fmt"
	"strings"

	"github.com/rah-labs/rah-core/internal/provider"
	"github.com/rah-labs/rah-core/internal/types"
)

// Persona preambles per helper key. The stable prefix is flagged cacheable so
// Anthropic can reuse processed tokens across turns; per-turn context blocks
// are not.
var personas = map[string]string{
	"ra-h": "You are RA-H, a research assistant working inside the user's personal " +
		"knowledge graph. You capture notes, links, transcripts and PDFs as nodes, " +
		"organize them with dimensions, and connect them with edges. Think carefully, " +
		"use the graph tools to read before you write, and keep the graph tidy: " +
		"reuse existing dimensions, connect related nodes, and never duplicate content.",
	"ra-h-easy": "You are RA-H, a friendly assistant for the user's personal knowledge " +
		"graph. Answer conversationally, keep tool use light, and prefer quick captures " +
		"over deep reorganization.",
}

// Assemble builds the ordered system prompt block list for one chat turn.
// Order is part of the contract: persona first, then open tabs, then the
// current view hint. Callers concatenate blocks to form the effective prompt.
func Assemble(helperKey string, tabs []types.OpenTab, activeTabID, currentView string) []provider.SystemBlock {
	blocks := []provider.SystemBlock{{
		Text:  personaText(helperKey),
		Cache: true,
	}}

	for _, tab := range tabs {
		var b strings.Builder
		if tab.ID == activeTabID {
			fmt.Fprintf(&b, "## Active document: %s\n\n", tab.Title)
		} else {
			fmt.Fprintf(&b, "## Open document: %s\n\n", tab.Title)
		}
		b.WriteString(tab.Content)
		blocks = append(blocks, provider.SystemBlock{Text: b.String()})
	}

	if currentView != "" {
		blocks = append(blocks, provider.SystemBlock{
			Text: "The user is currently looking at the " + currentView + " view.",
		})
	}

	return blocks
}

func personaText(helperKey string) string {
	if p, ok := personas[helperKey]; ok {
		return p
	}
	return personas["ra-h-easy"]
}
