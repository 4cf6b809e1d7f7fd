// Package note holds small helpers for working with documents of the
// note-taking host application: fenced query-block extraction, frontmatter
// parsing, and the predicates that decide how a block is treated when a
// document is re-serialized.
package note

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TaskQueryLang is the fence language tag the host's task-query engine claims.
const TaskQueryLang = "tasks"

// IgnoreDirective marks a query block that must be passed through untouched
// when a document is re-serialized.
const IgnoreDirective = "notekit:ignore"

// excalidrawFrontmatterKey is set by the drawing plugin on files it owns.
const excalidrawFrontmatterKey = "excalidraw-plugin"

// QueryBlock is a fenced code block extracted from a document. Line and
// EndLine are 1-based and refer to the opening and closing fence lines.
type QueryBlock struct {
	Lang    string
	Body    string
	Line    int
	EndLine int
}

// IsTaskQuery reports whether the block belongs to the task-query engine.
func IsTaskQuery(b QueryBlock) bool {
	return strings.EqualFold(strings.TrimSpace(b.Lang), TaskQueryLang)
}

// SkipReserialization reports whether the block carries the ignore directive
// on any line, optionally wrapped in the host's %% comment markers.
func SkipReserialization(b QueryBlock) bool {
	for _, line := range strings.Split(b.Body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "%%")
		line = strings.TrimSuffix(line, "%%")
		if strings.TrimSpace(line) == IgnoreDirective {
			return true
		}
	}
	return false
}

// IsExcalidrawFile reports whether a document belongs to the drawing plugin,
// either by its filename convention or by the plugin's frontmatter key.
func IsExcalidrawFile(path string, frontmatter map[string]any) bool {
	if strings.HasSuffix(path, ".excalidraw.md") || strings.HasSuffix(path, ".excalidraw") {
		return true
	}
	_, ok := frontmatter[excalidrawFrontmatterKey]
	return ok
}

// ParseQueryBlocks extracts every fenced code block from doc. A fence is a
// line starting with at least three backticks; the first word after the
// backticks becomes the block's language tag. An unterminated fence runs to
// the end of the document.
func ParseQueryBlocks(doc string) []QueryBlock {
	var blocks []QueryBlock

	lines := strings.Split(doc, "\n")
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "```") {
			continue
		}

		fence := trimmed[:fenceLen(trimmed)]
		lang, _, _ := strings.Cut(strings.TrimSpace(trimmed[len(fence):]), " ")

		var body []string
		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			inner := strings.TrimSpace(lines[j])
			if strings.HasPrefix(inner, fence) && strings.Trim(inner, "`") == "" {
				end = j
				break
			}
			body = append(body, lines[j])
		}

		blocks = append(blocks, QueryBlock{
			Lang:    lang,
			Body:    strings.Join(body, "\n"),
			Line:    i + 1,
			EndLine: min(end+1, len(lines)),
		})
		i = end
	}

	return blocks
}

func fenceLen(line string) int {
	n := 0
	for n < len(line) && line[n] == '`' {
		n++
	}
	return n
}

// Frontmatter parses the YAML frontmatter at the top of doc, delimited by
// "---" lines. It returns nil when the document has no frontmatter and an
// error when the frontmatter is present but not valid YAML.
func Frontmatter(doc string) (map[string]any, error) {
	rest, ok := strings.CutPrefix(doc, "---\n")
	if !ok && doc != "---" {
		return nil, nil
	}

	raw, _, ok := strings.Cut(rest, "\n---")
	if !ok {
		return nil, nil
	}

	fm := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	return fm, nil
}

// regexSpecials is the host (ECMAScript) regex metacharacter set. It differs
// from Go's: regexp.QuoteMeta targets RE2 and leaves "/" alone, but the
// escaped text here is embedded in patterns the host's engine evaluates.
const regexSpecials = `.*+?^${}()|[]\/`

// EscapeRegex escapes s so it matches literally inside a host regular
// expression.
func EscapeRegex(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(regexSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Unique returns items with duplicates removed, keeping the first occurrence
// of each value in its original position.
func Unique[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
