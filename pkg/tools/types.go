// Интерфейс Tool и структуры определений.

package tools

import (
	"context"

	"github.com/ilkoid/logwright/internal/logmodel"
)

// ParamType — тег типа параметра инструмента, как его видит LLM.
type ParamType string

const (
	ParamString     ParamType = "string"
	ParamInt        ParamType = "int"
	ParamFloat      ParamType = "float"
	ParamStringList ParamType = "list<string>"
	ParamBool       ParamType = "bool"
	ParamTable      ParamType = "table"
	ParamAny        ParamType = "any"
)

// ParamSpec описывает один параметр инструмента.
type ParamSpec struct {
	Name        string
	Type        ParamType
	Required    bool
	Default     any
	Description string
}

// ToolDefinition описывает инструмент для LLM и для реестра.
//
// RequiresLogs / RequiresValues — это тот самый сигнал, на который
// реагирует оркестратор при авто-инъекции: если параметр "logs" (или
// "values") не передан вызывающим, текущее значение State
// подставляется перед выполнением.
type ToolDefinition struct {
	Name           string
	Description    string
	Parameters     []ParamSpec
	RequiresLogs   bool
	RequiresValues bool
}

// Tool — контракт, который должен реализовать любой инструмент.
type Tool interface {
	// Definition возвращает описание инструмента для LLM и для реестра.
	Definition() ToolDefinition

	// Execute выполняет логику инструмента. params — аргументы решения
	// планировщика (при необходимости авто-дополненные оркестратором);
	// оркестратор их не валидирует, инструмент проверяет их сам.
	// Execute никогда не паникует и не возвращает error для ожидаемых
	// сбоев — те выражаются как ToolResult{OK: false, Message: ...}.
	// error здесь зарезервирован для отмены контекста и подобных
	// обстоятельств, не связанных с семантикой инструмента.
	Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error)
}
