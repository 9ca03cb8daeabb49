// Package parser extracts frontmatter, wikilinks, and tags from Markdown notes.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	mdLinkRe   = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+\.md)\)`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Link is a link target and how many times the note mentions it.
type Link struct {
	Target string
	Count  int
}

// Result holds the output of parsing a note.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []Link
	Tags        []string
	Title       string
}

// Parse extracts frontmatter, body, links, and tags from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       extractLinks(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// HasTag reports whether the note carries tag or a tag nested below it.
// Leading '#' characters are ignored.
func (r *Result) HasTag(tag string) bool {
	tag = strings.TrimPrefix(tag, "#")
	for _, t := range r.Tags {
		if t == tag || strings.HasPrefix(t, tag+"/") {
			return true
		}
	}
	return false
}

// splitFrontmatter separates a leading YAML block from the body. Without a
// closing delimiter, or with invalid YAML, the whole content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(data, "\n")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n")
	return fm, body
}

// extractLinks counts wikilink and Markdown link targets in order of first
// appearance. Aliases and heading anchors are dropped from targets.
func extractLinks(body string) []Link {
	var targets []string
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		targets = append(targets, m[1])
	}
	for _, m := range mdLinkRe.FindAllStringSubmatch(body, -1) {
		targets = append(targets, m[1])
	}

	index := make(map[string]int)
	var out []Link
	for _, raw := range targets {
		target := raw
		if i := strings.IndexAny(target, "|#^"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if i, ok := index[target]; ok {
			out[i].Count++
			continue
		}
		index[target] = len(out)
		out = append(out, Link{Target: target, Count: 1})
	}
	return out
}

// extractTags collects tags from the frontmatter "tags" field and #tags in the body.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimPrefix(strings.TrimSpace(s), "#")
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			add(s)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(stripCode(body), -1) {
		add(m[1])
	}
	return out
}

// stripCode blanks fenced code blocks so that '#' inside code is not read as a tag.
func stripCode(body string) string {
	lines := strings.Split(body, "\n")
	inFence := false
	for i, l := range lines {
		if strings.HasPrefix(l, "```") {
			inFence = !inFence
			lines[i] = ""
			continue
		}
		if inFence {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// deriveTitle returns the frontmatter "title", otherwise the first H1 heading,
// otherwise an empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
