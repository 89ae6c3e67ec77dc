package tools

import (
	"fmt"
	"strings"
	"sync"

	"conductor/pkg/config"
	"conductor/pkg/sandbox"
)

// Tool name constants - use these instead of magic strings to prevent typos
// and enable compile-time checking.
const (
	// ToolWebSearch searches the web for current information.
	ToolWebSearch = "web_search"
	// ToolDocSearch queries the document retrieval service.
	ToolDocSearch = "doc_search"
	// ToolCodeExecute runs Python code in the sandbox.
	ToolCodeExecute = "code_execute"
)

// Per-agent tool availability.
//
//nolint:gochecknoglobals // These are constants that need to be globally accessible
var (
	// ResearcherTools - information gathering for the researcher agent.
	ResearcherTools = []string{ToolWebSearch, ToolDocSearch}

	// CoderTools - sandboxed execution for the coder agent.
	CoderTools = []string{ToolCodeExecute}
)

// AgentContext contains agent-specific configuration for tool creation.
//
//nolint:govet // fieldalignment: Logical grouping preferred over memory optimization
type AgentContext struct {
	Sandbox   *sandbox.Sandbox
	Retrieval config.RetrievalConfig
}

// ToolFactory creates a tool instance configured for a specific agent context.
type ToolFactory func(ctx AgentContext) (Tool, error)

// ToolMeta contains metadata about a tool for documentation and discovery.
type ToolMeta struct {
	Name        string
	Description string
	InputSchema InputSchema
}

// toolDescriptor contains the factory and metadata for a tool.
//
//nolint:govet // fieldalignment: Logical grouping preferred over memory optimization
type toolDescriptor struct {
	meta    ToolMeta
	factory ToolFactory
}

// immutableRegistry is the global, read-only tool registry.
//
//nolint:govet // fieldalignment: Logical grouping preferred over memory optimization
type immutableRegistry struct {
	mu     sync.RWMutex
	sealed bool
	tools  map[string]toolDescriptor
}

// Global registry instance - initialized in init().
//
//nolint:gochecknoglobals // Factory pattern requires global registry
var globalRegistry = &immutableRegistry{
	tools: make(map[string]toolDescriptor),
}

// Register adds a tool factory to the global registry.
// Panics if called after the registry is sealed.
func Register(name string, factory ToolFactory, meta *ToolMeta) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if globalRegistry.sealed {
		panic(fmt.Sprintf("tool registry sealed - cannot register tool '%s'", name))
	}

	globalRegistry.tools[name] = toolDescriptor{
		meta:    *meta,
		factory: factory,
	}
}

// Seal prevents further tool registrations.
// Called automatically when first ToolProvider is created.
func Seal() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.sealed = true
}

// ListTools returns metadata for all registered tools.
func ListTools() []ToolMeta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]ToolMeta, 0, len(globalRegistry.tools))
	//nolint:gocritic // rangeValCopy: Direct access is clearer than pointer dereferencing
	for _, desc := range globalRegistry.tools {
		result = append(result, desc.meta)
	}
	return result
}

// ToolProvider creates and manages tool instances for a specific agent context.
//
//nolint:govet // fieldalignment: Logical grouping preferred over memory optimization
type ToolProvider struct {
	ctx      AgentContext
	tools    map[string]Tool
	allowSet map[string]struct{}
	mu       sync.Mutex
}

// NewProvider creates a new ToolProvider for the given agent context and allowed tools.
// Automatically seals the global registry on first use.
func NewProvider(ctx AgentContext, allowedTools []string) *ToolProvider {
	Seal() // Ensure registry is immutable

	allowSet := make(map[string]struct{}, len(allowedTools))
	for _, name := range allowedTools {
		allowSet[name] = struct{}{}
	}

	return &ToolProvider{
		ctx:      ctx,
		tools:    make(map[string]Tool),
		allowSet: allowSet,
	}
}

// Get retrieves a tool instance, creating it lazily if needed.
func (p *ToolProvider) Get(name string) (Tool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.allowSet[name]; !ok {
		return nil, fmt.Errorf("tool '%s' not allowed in this context", name)
	}

	if tool, ok := p.tools[name]; ok {
		return tool, nil
	}

	globalRegistry.mu.RLock()
	desc, exists := globalRegistry.tools[name]
	globalRegistry.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("tool '%s' not registered", name)
	}

	tool, err := desc.factory(p.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool '%s': %w", name, err)
	}

	p.tools[name] = tool
	return tool, nil
}

// Must is like Get but panics on error. Use for tools that must exist.
func (p *ToolProvider) Must(name string) Tool {
	tool, err := p.Get(name)
	if err != nil {
		panic(err)
	}
	return tool
}

// List returns metadata for all allowed tools.
func (p *ToolProvider) List() []ToolMeta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]ToolMeta, 0, len(p.allowSet))
	for name := range p.allowSet {
		if desc, ok := globalRegistry.tools[name]; ok {
			result = append(result, desc.meta)
		}
	}
	return result
}

// Definitions returns LLM tool definitions for all allowed tools.
func (p *ToolProvider) Definitions() []ToolDefinition {
	metas := p.List()
	defs := make([]ToolDefinition, 0, len(metas))
	//nolint:gocritic // rangeValCopy: Direct access is clearer than pointer dereferencing
	for _, meta := range metas {
		defs = append(defs, ToolDefinition{
			Name:        meta.Name,
			Description: meta.Description,
			InputSchema: meta.InputSchema,
		})
	}
	return defs
}

// GenerateToolDocumentation generates tool documentation for this provider's allowed tools.
func (p *ToolProvider) GenerateToolDocumentation() string {
	return GenerateToolDocumentationForTools(p.List())
}

// GenerateToolDocumentationForTools creates markdown documentation for the provided tool metadata.
func GenerateToolDocumentationForTools(tools []ToolMeta) string {
	if len(tools) == 0 {
		return "No tools available"
	}

	var doc strings.Builder
	doc.WriteString("## Available Tools\n\n")

	//nolint:gocritic // rangeValCopy: Direct access is clearer than pointer dereferencing
	for _, meta := range tools {
		doc.WriteString(fmt.Sprintf("- **%s** - %s\n", meta.Name, meta.Description))
	}

	return doc.String()
}

// TOOL FACTORY FUNCTIONS

func createWebSearchTool(_ AgentContext) (Tool, error) {
	return NewWebSearchTool(), nil
}

func createDocSearchTool(ctx AgentContext) (Tool, error) {
	return NewDocSearchTool(ctx.Retrieval), nil
}

func createCodeExecuteTool(ctx AgentContext) (Tool, error) {
	if ctx.Sandbox == nil {
		return nil, fmt.Errorf("code_execute tool requires a sandbox")
	}
	return NewCodeExecuteTool(ctx.Sandbox), nil
}

// init registers all tools in the global registry using the factory pattern.
//
//nolint:gochecknoinits // Factory pattern requires init() for tool registration
func init() {
	Register(ToolWebSearch, createWebSearchTool, &ToolMeta{
		Name:        ToolWebSearch,
		Description: "Search the web for current information",
		InputSchema: NewWebSearchTool().Definition().InputSchema,
	})

	Register(ToolDocSearch, createDocSearchTool, &ToolMeta{
		Name:        ToolDocSearch,
		Description: "Semantic search over the local document collection",
		InputSchema: NewDocSearchTool(config.RetrievalConfig{}).Definition().InputSchema,
	})

	Register(ToolCodeExecute, createCodeExecuteTool, &ToolMeta{
		Name:        ToolCodeExecute,
		Description: "Run a Python snippet in the sandbox and return its output",
		InputSchema: NewCodeExecuteTool(nil).Definition().InputSchema,
	})
}
