package chain

import (
	"fmt"
	"time"
)

// ReActCycleConfig — конфигурация ReAct цикла.
//
// Зеркалит секцию orchestrator конфигурационного YAML
// (pkg/config.OrchestratorConfig), плюс параметры таймаутов, которые
// конфиг не предоставляет явно и для которых используются разумные
// дефолты.
type ReActCycleConfig struct {
	// MaxIterations — максимальное число итераций цикла, прежде чем
	// оркестратор переходит к best-effort финализации.
	MaxIterations int

	// SummaryThresholdRows — порог числа строк, выше которого табличный
	// результат дополнительно прогоняется через Smart Summarizer.
	SummaryThresholdRows int

	// CycleGuardWindow — глубина окна истории (в итерациях), в котором
	// cycle guard ищет повторяющиеся вызовы.
	CycleGuardWindow int

	// CycleGuardRepeats — число повторов одного и того же
	// (инструмент, параметры) внутри окна, после которого цикл
	// принудительно завершается.
	CycleGuardRepeats int

	// MaxConsecutiveFailures — число подряд идущих невалидных решений
	// планировщика, после которого запрос прерывается с ошибкой.
	MaxConsecutiveFailures int

	// Timeout — общий таймаут выполнения одного запроса.
	Timeout time.Duration

	// DefaultToolTimeout — защитный таймаут выполнения одного вызова
	// инструмента. Если инструмент не завершится за это время, вызов
	// отменяется.
	DefaultToolTimeout time.Duration
}

// NewReActCycleConfig создаёт конфигурацию цикла с дефолтными значениями.
func NewReActCycleConfig() ReActCycleConfig {
	return ReActCycleConfig{
		MaxIterations:          10,
		SummaryThresholdRows:   50,
		CycleGuardWindow:       5,
		CycleGuardRepeats:      3,
		MaxConsecutiveFailures: 3,
		Timeout:                5 * time.Minute,
		DefaultToolTimeout:     30 * time.Second,
	}
}

// Validate проверяет конфигурацию на валидность.
func (c *ReActCycleConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.CycleGuardRepeats <= 0 {
		c.CycleGuardRepeats = 3
	}
	if c.CycleGuardWindow <= 0 {
		c.CycleGuardWindow = c.CycleGuardRepeats * 2
	}
	return nil
}
