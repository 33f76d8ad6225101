// Реестр для хранения и поиска инструментов.
package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry — потокобезопасное хранилище инструментов.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry создает новый пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// validateToolDefinition проверяет базовую корректность определения
// перед регистрацией: имя не пустое, имена параметров уникальны.
func validateToolDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	seen := make(map[string]bool, len(def.Parameters))
	for _, p := range def.Parameters {
		if p.Name == "" {
			return fmt.Errorf("tool '%s': parameter with empty name", def.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("tool '%s': duplicate parameter '%s'", def.Name, p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}

// Register добавляет инструмент в реестр с валидацией схемы.
func (r *Registry) Register(tool Tool) error {
	def := tool.Definition()

	if err := validateToolDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[def.Name] = tool
	return nil
}

// Get ищет инструмент по имени.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool '%s' not found", name)
	}
	return tool, nil
}

// Has сообщает, зарегистрирован ли инструмент с таким именем.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Definitions возвращает определения всех инструментов, отсортированные
// по имени для стабильного порядка вывода.
func (r *Registry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// CompactCatalog renders name + one-line description per tool, for
// prompt budgets that cannot afford full signatures.
func (r *Registry) CompactCatalog() string {
	var b strings.Builder
	for _, def := range r.Definitions() {
		fmt.Fprintf(&b, "- %s: %s\n", def.Name, def.Description)
	}
	return b.String()
}

// DetailedCatalog renders full signatures: name, description, and
// every parameter with its type tag and required/default status.
func (r *Registry) DetailedCatalog() string {
	var b strings.Builder
	for _, def := range r.Definitions() {
		fmt.Fprintf(&b, "%s: %s\n", def.Name, def.Description)
		for _, p := range def.Parameters {
			req := "optional"
			if p.Required {
				req = "required"
			}
			if p.Default != nil {
				fmt.Fprintf(&b, "  - %s (%s, %s, default=%v)\n", p.Name, p.Type, req, p.Default)
			} else {
				fmt.Fprintf(&b, "  - %s (%s, %s)\n", p.Name, p.Type, req)
			}
		}
	}
	return b.String()
}
