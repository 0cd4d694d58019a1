package jira

import (
	"encoding/json"
	"strings"
)

// adfNode is one node of an Atlassian Document Format tree.
type adfNode struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []adfNode      `json:"content,omitempty"`
}

// DescriptionToPlainText extracts text from a description or comment body.
// Jira v3 returns ADF documents, v2 returns plain strings.
func DescriptionToPlainText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Type != "doc" {
		return string(raw)
	}

	var blocks []string
	for _, block := range doc.Content {
		if text := renderBlock(block, ""); text != "" {
			blocks = append(blocks, text)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func renderBlock(n adfNode, indent string) string {
	switch n.Type {
	case "bulletList", "orderedList":
		var items []string
		for _, item := range n.Content {
			var parts []string
			for _, child := range item.Content {
				if text := renderBlock(child, indent+"  "); text != "" {
					parts = append(parts, text)
				}
			}
			items = append(items, indent+"- "+strings.TrimLeft(strings.Join(parts, "\n"), " "))
		}
		return strings.Join(items, "\n")
	case "codeBlock":
		return "```\n" + renderInline(n.Content) + "\n```"
	case "heading":
		level := 1
		if l, ok := n.Attrs["level"].(float64); ok && l > 0 {
			level = int(l)
		}
		return strings.Repeat("#", level) + " " + renderInline(n.Content)
	case "rule":
		return "---"
	case "paragraph":
		return renderInline(n.Content)
	default:
		if n.Text != "" {
			return n.Text
		}
		var parts []string
		for _, child := range n.Content {
			if text := renderBlock(child, indent); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")
	}
}

func renderInline(nodes []adfNode) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Type {
		case "text":
			b.WriteString(n.Text)
		case "hardBreak":
			b.WriteString("\n")
		case "mention", "emoji":
			if t, ok := n.Attrs["text"].(string); ok {
				b.WriteString(t)
			}
		case "inlineCard":
			if u, ok := n.Attrs["url"].(string); ok {
				b.WriteString(u)
			}
		default:
			b.WriteString(renderInline(n.Content))
		}
	}
	return b.String()
}

// plainTextToADF wraps text in a one-paragraph-per-line ADF document.
func plainTextToADF(text string) map[string]any {
	var content []map[string]any
	for _, line := range strings.Split(text, "\n") {
		para := map[string]any{"type": "paragraph", "content": []map[string]any{}}
		if line != "" {
			para["content"] = []map[string]any{{"type": "text", "text": line}}
		}
		content = append(content, para)
	}
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": content,
	}
}
