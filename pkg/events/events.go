// Package events предоставляет интерфейсы для реализации Port & Adapter паттерна.
//
// Это Port (интерфейс) для подписки на события от оркестратора запросов.
// Позволяет подключать любой UI (CLI, web, диагностический логгер) без
// изменения библиотечной логики.
//
// # Port & Adapter Pattern
//
//	Port — это интерфейс (Emitter, Subscriber), определённый в библиотеке.
//	Adapter — это реализация интерфейса для конкретного потребителя.
//
// # Thread Safety
//
// Все реализации интерфейсов должны быть thread-safe.
package events

import (
	"context"
	"time"
)

// EventType представляет тип события от оркестратора.
type EventType string

const (
	// EventThinking отправляется в начале итерации, перед обращением к planner LLM.
	EventThinking EventType = "thinking"

	// EventToolCall отправляется когда оркестратор собирается вызвать инструмент.
	EventToolCall EventType = "tool_call"

	// EventToolResult отправляется после выполнения инструмента.
	EventToolResult EventType = "tool_result"

	// EventMessage отправляется с текстом итогового ответа.
	EventMessage EventType = "message"

	// EventError отправляется при ошибке.
	EventError EventType = "error"

	// EventDone отправляется когда запрос завершён.
	EventDone EventType = "done"
)

// EventData — sealed interface для данных события.
//
// Только типы из пакета events могут реализовать этот интерфейс,
// что обеспечивает compile-time type safety.
type EventData interface {
	eventData()
}

// ThinkingData содержит данные для EventThinking.
type ThinkingData struct {
	Query string
}

func (ThinkingData) eventData() {}

// ToolCallData содержит данные о вызове инструмента.
type ToolCallData struct {
	ToolName string
	Args     string
}

func (ToolCallData) eventData() {}

// ToolResultData содержит результат выполнения инструмента.
type ToolResultData struct {
	ToolName string
	Result   string
	Duration time.Duration
}

func (ToolResultData) eventData() {}

// MessageData содержит данные для EventMessage и EventDone.
type MessageData struct {
	Content string
}

func (MessageData) eventData() {}

// ErrorData содержит данные для EventError.
type ErrorData struct {
	Err error
}

func (ErrorData) eventData() {}

// Event представляет событие от оркестратора.
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// Emitter — это Port для отправки событий.
//
// Emitter инвертирует зависимость: оркестратор зависит от этого
// интерфейса, а не от конкретного потребителя.
type Emitter interface {
	// Emit отправляет событие. Если context отменён, реализация должна
	// прервать операцию вместо блокировки.
	Emit(ctx context.Context, event Event)
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	//
	// Канал закрывает источник событий (для ChanEmitter — вызов
	// ChanEmitter.Close()), а не Close() подписчика.
	Events() <-chan Event

	// Close освобождает ресурсы подписчика. Для подписчика ChanEmitter
	// это no-op: общий канал не закрывается.
	Close()
}
