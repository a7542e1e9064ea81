// Package chunk splits source files into retrievable chunks.
//
// Files with a tree-sitter grammar are split along function, class and
// method boundaries. Everything else, and any file whose parse tree
// contains errors, is cut into overlapping fixed-size blocks.
package chunk

import "strconv"

// Chunking thresholds, in lines.
const (
	MinLines  = 5   // functions and methods shorter than this are not chunked on their own
	MaxLines  = 100 // classes longer than this get method chunks only
	BlockSize = 50
	Overlap   = 10
)

// Type is the structural kind of a chunk.
type Type string

const (
	TypeFunction Type = "function"
	TypeClass    Type = "class"
	TypeMethod   Type = "method"
	TypeModule   Type = "module"
	TypeBlock    Type = "block"
)

// Chunk is a contiguous slice of a source file. Lines are 1-indexed and
// inclusive. A chunk is identified by (FilePath, StartLine).
type Chunk struct {
	FilePath  string `json:"file_path"`
	Content   string `json:"content"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Type      Type   `json:"chunk_type"`
	Name      string `json:"name,omitempty"` // empty when the chunk has no symbol
}

// Key returns the "path:start_line" identity used by vector stores.
func (c Chunk) Key() string {
	return c.FilePath + ":" + strconv.Itoa(c.StartLine)
}

// Lines returns the number of lines the chunk spans.
func (c Chunk) Lines() int {
	return c.EndLine - c.StartLine + 1
}

// Tree is a parsed syntax tree.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node is a syntax tree node detached from the tree-sitter runtime.
type Node struct {
	Type       string
	Field      string // field name in the parent, e.g. "name" or "body"
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point is a position in the source.
type Point struct {
	Row    uint32 // 0-indexed
	Column uint32
}
