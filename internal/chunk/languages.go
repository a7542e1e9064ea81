package chunk

import (
	"slices"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageConfig lists the node types that carry chunk boundaries in one
// grammar.
type LanguageConfig struct {
	Name       string
	Extensions []string

	// FunctionTypes are top-level function definitions.
	FunctionTypes []string

	// MethodTypes are method definitions inside a class body. Top-level
	// nodes of these types that are not also FunctionTypes (Go methods) are
	// chunked as methods.
	MethodTypes []string

	// ClassTypes are class or type definitions.
	ClassTypes []string

	// ClassBodyTypes hold a class's members when the body has no "body" field.
	ClassBodyTypes []string

	// WrapperTypes wrap a definition and extend its start line upward,
	// e.g. Python decorated_definition or JS export_statement.
	WrapperTypes []string

	// DecoratorTypes are sibling nodes that attach to the next member of a
	// class body.
	DecoratorTypes []string

	// NameField is the field holding a definition's identifier.
	NameField string
}

func (c *LanguageConfig) isFunction(nodeType string) bool {
	return slices.Contains(c.FunctionTypes, nodeType)
}
func (c *LanguageConfig) isMethod(nodeType string) bool {
	return slices.Contains(c.MethodTypes, nodeType)
}
func (c *LanguageConfig) isClass(nodeType string) bool {
	return slices.Contains(c.ClassTypes, nodeType)
}
func (c *LanguageConfig) isWrapper(nodeType string) bool {
	return slices.Contains(c.WrapperTypes, nodeType)
}
func (c *LanguageConfig) isDecorator(nodeType string) bool {
	return slices.Contains(c.DecoratorTypes, nodeType)
}

// LanguageRegistry maps file extensions to grammars.
type LanguageRegistry struct {
	mu          sync.RWMutex
	configs     map[string]*LanguageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

// NewLanguageRegistry creates a registry with Python, Go, JavaScript and
// TypeScript registered.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:     make(map[string]*LanguageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}
	r.registerPython()
	r.registerGo()
	r.registerJavaScript()
	r.registerTypeScript()
	return r
}

// GetByExtension returns the config for an extension such as ".py".
func (r *LanguageRegistry) GetByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	cfg, ok := r.configs[name]
	return cfg, ok
}

// GetByName returns the config for a language name.
func (r *LanguageRegistry) GetByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

// GetTreeSitterLanguage returns the grammar for a language name.
func (r *LanguageRegistry) GetTreeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.tsLanguages[name]
	return lang, ok
}

// SupportedExtensions returns every extension with a grammar, sorted.
func (r *LanguageRegistry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Register adds or replaces a language.
func (r *LanguageRegistry) Register(cfg *LanguageConfig, tsLang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[cfg.Name] = cfg
	r.tsLanguages[cfg.Name] = tsLang
	for _, ext := range cfg.Extensions {
		r.extToLang[ext] = cfg.Name
	}
}

func (r *LanguageRegistry) registerPython() {
	r.Register(&LanguageConfig{
		Name:           "python",
		Extensions:     []string{".py"},
		FunctionTypes:  []string{"function_definition"},
		MethodTypes:    []string{"function_definition"},
		ClassTypes:     []string{"class_definition"},
		ClassBodyTypes: []string{"block"},
		WrapperTypes:   []string{"decorated_definition"},
		NameField:      "name",
	}, python.GetLanguage())
}

func (r *LanguageRegistry) registerGo() {
	// Go methods are top-level; type declarations have no members to split.
	r.Register(&LanguageConfig{
		Name:          "go",
		Extensions:    []string{".go"},
		FunctionTypes: []string{"function_declaration"},
		MethodTypes:   []string{"method_declaration"},
		ClassTypes:    []string{"type_declaration"},
		NameField:     "name",
	}, golang.GetLanguage())
}

func (r *LanguageRegistry) registerJavaScript() {
	r.Register(&LanguageConfig{
		Name:           "javascript",
		Extensions:     []string{".js", ".mjs", ".jsx"},
		FunctionTypes:  []string{"function_declaration", "generator_function_declaration"},
		MethodTypes:    []string{"method_definition"},
		ClassTypes:     []string{"class_declaration"},
		ClassBodyTypes: []string{"class_body"},
		WrapperTypes:   []string{"export_statement"},
		DecoratorTypes: []string{"decorator"},
		NameField:      "name",
	}, javascript.GetLanguage())
}

func (r *LanguageRegistry) registerTypeScript() {
	ts := &LanguageConfig{
		Name:           "typescript",
		Extensions:     []string{".ts"},
		FunctionTypes:  []string{"function_declaration", "generator_function_declaration"},
		MethodTypes:    []string{"method_definition"},
		ClassTypes:     []string{"class_declaration", "abstract_class_declaration"},
		ClassBodyTypes: []string{"class_body"},
		WrapperTypes:   []string{"export_statement"},
		DecoratorTypes: []string{"decorator"},
		NameField:      "name",
	}
	r.Register(ts, typescript.GetLanguage())

	tsxCfg := *ts
	tsxCfg.Name = "tsx"
	tsxCfg.Extensions = []string{".tsx"}
	r.Register(&tsxCfg, tsx.GetLanguage())
}

var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the shared registry.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}
