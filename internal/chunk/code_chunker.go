package chunk

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Aman-CERP/coderag/internal/outcome"
)

// Chunker splits files into chunks. It holds no per-file state and is safe
// for concurrent use; each call parses with its own tree-sitter parser.
type Chunker struct {
	registry *LanguageRegistry
}

// NewChunker creates a chunker over the default language registry.
func NewChunker() *Chunker {
	return NewChunkerWithRegistry(DefaultRegistry())
}

// NewChunkerWithRegistry creates a chunker over a custom registry.
func NewChunkerWithRegistry(registry *LanguageRegistry) *Chunker {
	return &Chunker{registry: registry}
}

// SupportedExtensions returns extensions chunked structurally.
func (c *Chunker) SupportedExtensions() []string {
	return c.registry.SupportedExtensions()
}

// Chunk splits content into chunks ordered by start line; for equal start
// lines the enclosing chunk comes first. Files without a grammar are split
// into blocks with an OK outcome. A parse failure also yields blocks, with a
// Degraded outcome.
func (c *Chunker) Chunk(ctx context.Context, path, content string) ([]Chunk, outcome.Outcome) {
	if strings.TrimSpace(content) == "" {
		return nil, outcome.OK()
	}
	lines := splitLines(content)

	cfg, ok := c.registry.GetByExtension(filepath.Ext(path))
	if !ok {
		return blockChunks(path, lines), outcome.OK()
	}

	parser := NewParserWithRegistry(c.registry)
	defer parser.Close()

	tree, err := parser.Parse(ctx, []byte(content), cfg.Name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, outcome.Failed("chunking cancelled", ctx.Err())
		}
		slog.Warn("parse_failed_using_blocks",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return blockChunks(path, lines), outcome.DegradedErr("parse failed", err)
	}
	if tree.Root.HasError {
		slog.Warn("syntax_error_using_blocks", slog.String("path", path))
		return blockChunks(path, lines), outcome.Degraded(fmt.Sprintf("syntax errors in %s", path))
	}

	return c.structuralChunks(path, lines, tree, cfg), outcome.OK()
}

// fileChunks accumulates chunks and the lines they claim.
type fileChunks struct {
	path    string
	lines   []string
	source  []byte
	cfg     *LanguageConfig
	claimed []bool // 1-indexed
	chunks  []Chunk
}

func (c *Chunker) structuralChunks(path string, lines []string, tree *Tree, cfg *LanguageConfig) []Chunk {
	fc := &fileChunks{
		path:    path,
		lines:   lines,
		source:  tree.Source,
		cfg:     cfg,
		claimed: make([]bool, len(lines)+2),
	}

	for _, top := range tree.Root.Children {
		def, start := fc.unwrap(top, top.StartLine())
		if def == nil {
			continue
		}
		end := fc.clampEnd(max(top.EndLine(), def.EndLine()))

		switch {
		case cfg.isFunction(def.Type):
			fc.addCallable(def, start, end, TypeFunction)
		case cfg.isMethod(def.Type):
			fc.addCallable(def, start, end, TypeMethod)
		case cfg.isClass(def.Type):
			fc.addClass(def, start, end)
		}
	}

	fc.addModuleChunks()

	sort.SliceStable(fc.chunks, func(i, j int) bool {
		a, b := fc.chunks[i], fc.chunks[j]
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return a.EndLine > b.EndLine
	})
	return fc.chunks
}

// unwrap descends through wrapper nodes to the definition they carry. The
// wrapper's start line wins so decorators and export keywords stay attached.
func (fc *fileChunks) unwrap(n *Node, start int) (*Node, int) {
	for fc.cfg.isWrapper(n.Type) {
		inner := n.ChildByField("definition")
		if inner == nil {
			inner = n.ChildByField("declaration")
		}
		if inner == nil {
			inner = fc.firstDefinitionChild(n)
		}
		if inner == nil {
			return nil, start
		}
		n = inner
	}
	return n, start
}

func (fc *fileChunks) firstDefinitionChild(n *Node) *Node {
	for _, child := range n.Children {
		t := child.Type
		if fc.cfg.isFunction(t) || fc.cfg.isMethod(t) || fc.cfg.isClass(t) || fc.cfg.isWrapper(t) {
			return child
		}
	}
	return nil
}

// addCallable emits a function or method chunk when it spans at least
// MinLines lines. Shorter definitions stay unclaimed.
func (fc *fileChunks) addCallable(def *Node, start, end int, typ Type) bool {
	if end-start+1 < MinLines {
		return false
	}
	fc.emit(start, end, typ, fc.nameOf(def))
	fc.claim(start, end)
	return true
}

// addClass claims the whole class, emits it when it spans at most MaxLines
// lines, and emits a method chunk per qualifying member.
func (fc *fileChunks) addClass(def *Node, start, end int) {
	fc.claim(start, end)
	if end-start+1 <= MaxLines {
		fc.emit(start, end, TypeClass, fc.nameOf(def))
	}

	body := def.ChildByField("body")
	if body == nil {
		for _, t := range fc.cfg.ClassBodyTypes {
			if body = def.FindChildByType(t); body != nil {
				break
			}
		}
	}
	if body == nil {
		return
	}

	pending := 0 // start line of decorators awaiting their member
	for _, member := range body.Children {
		if fc.cfg.isDecorator(member.Type) {
			if pending == 0 {
				pending = member.StartLine()
			}
			continue
		}
		memberStart := member.StartLine()
		if pending != 0 {
			memberStart = pending
			pending = 0
		}
		m, mStart := fc.unwrap(member, memberStart)
		if m == nil || !fc.cfg.isMethod(m.Type) {
			continue
		}
		mEnd := fc.clampEnd(max(member.EndLine(), m.EndLine()))
		if mEnd-mStart+1 < MinLines {
			continue
		}
		fc.emit(mStart, mEnd, TypeMethod, fc.nameOf(m))
	}
}

// addModuleChunks groups unclaimed lines into contiguous module chunks,
// dropping runs that are entirely blank.
func (fc *fileChunks) addModuleChunks() {
	runStart := 0
	flush := func(end int) {
		if runStart == 0 {
			return
		}
		if hasContent(fc.lines[runStart-1 : end]) {
			fc.emit(runStart, end, TypeModule, "")
		}
		runStart = 0
	}

	for line := 1; line <= len(fc.lines); line++ {
		if fc.claimed[line] {
			flush(line - 1)
			continue
		}
		if runStart == 0 {
			runStart = line
		}
	}
	flush(len(fc.lines))
}

func (fc *fileChunks) emit(start, end int, typ Type, name string) {
	fc.chunks = append(fc.chunks, Chunk{
		FilePath:  fc.path,
		Content:   strings.Join(fc.lines[start-1:end], "\n"),
		StartLine: start,
		EndLine:   end,
		Type:      typ,
		Name:      name,
	})
}

func (fc *fileChunks) claim(start, end int) {
	for line := start; line <= end; line++ {
		fc.claimed[line] = true
	}
}

func (fc *fileChunks) clampEnd(end int) int {
	if end > len(fc.lines) {
		return len(fc.lines)
	}
	return end
}

// nameOf returns a definition's identifier, or "" for anonymous ones.
func (fc *fileChunks) nameOf(def *Node) string {
	if name := def.ChildByField(fc.cfg.NameField); name != nil {
		return name.Content(fc.source)
	}
	// Go: type_declaration -> type_spec -> name
	for _, child := range def.Children {
		if child.Type == "type_spec" || child.Type == "type_alias" {
			if name := child.ChildByField(fc.cfg.NameField); name != nil {
				return name.Content(fc.source)
			}
		}
	}
	return ""
}

// splitLines splits on "\n", trimming a trailing "\r" from each line. A
// final newline does not start an extra line.
func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func hasContent(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}
