// logwright-query — тестовый harness для движка вопросов-ответов по CSV
// логам. Не является целевым интерактивным CLI (тот остаётся вне
// рамок, см. spec.md §1) — только прогоняет один запрос через
// оркестратор и печатает финальный ответ.
//
// Использование:
//
//	go run ./cmd/logwright-query -config config.yaml -log access.csv "сколько ошибок сегодня?"
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ilkoid/logwright/internal/entitycatalog"
	"github.com/ilkoid/logwright/internal/logstore"
	"github.com/ilkoid/logwright/internal/logtools"
	"github.com/ilkoid/logwright/internal/planner"
	"github.com/ilkoid/logwright/internal/summarizer"
	"github.com/ilkoid/logwright/pkg/chain"
	"github.com/ilkoid/logwright/pkg/config"
	"github.com/ilkoid/logwright/pkg/events"
	"github.com/ilkoid/logwright/pkg/llm/openai"
	"github.com/ilkoid/logwright/pkg/obslog"
	"github.com/ilkoid/logwright/pkg/tools"
	"github.com/ilkoid/logwright/pkg/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the engine's YAML config")
	logPath := flag.String("log", "", "path to the CSV log file to query")
	flag.Parse()

	query := strings.Join(flag.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: logwright-query -config config.yaml -log access.csv \"<query>\"")
		os.Exit(1)
	}
	if *logPath == "" {
		fmt.Fprintln(os.Stderr, "missing -log <path to CSV file>")
		os.Exit(1)
	}

	if err := run(*configPath, *logPath, query); err != nil {
		obslog.Error("logwright-query: fatal", "err", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logPath, query string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := obslog.Init(cfg.Logging.Level, cfg.Logging.Encoding); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()

	store, err := logstore.Open(logPath, cfg.LogStore.PayloadColumn, cfg.LogStore.CacheSize)
	if err != nil {
		return fmt.Errorf("opening log store: %w", err)
	}

	catalog, err := loadCatalog(cfg.Entities.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading entity catalog: %w", err)
	}

	plannerAdapter := newAdapter(cfg.Models.Planner)
	analyzerAdapter := newAdapter(cfg.Models.Analyzer)

	smartSummarizer := summarizer.New(catalog, cfg.LogStore.PayloadColumn, 0, 0)

	registry := tools.NewRegistry()
	for _, tool := range buildToolSet(store, catalog, analyzerAdapter, smartSummarizer, cfg.LogStore.PayloadColumn) {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("registering tool: %w", err)
		}
	}

	emitter := events.NewChanEmitter(32)
	go drainEvents(emitter)

	cycleCfg := chain.NewReActCycleConfig()
	cycleCfg.MaxIterations = cfg.Orchestrator.MaxIterations
	cycleCfg.SummaryThresholdRows = cfg.Orchestrator.SummaryThresholdRows
	cycleCfg.CycleGuardWindow = cfg.Orchestrator.CycleGuardWindow
	cycleCfg.CycleGuardRepeats = cfg.Orchestrator.CycleGuardRepeats
	cycleCfg.Timeout = cfg.ChainTimeout()

	cycle, err := chain.NewReActCycle(cycleCfg, registry, store, catalog, plannerAdapter, smartSummarizer, emitter)
	if err != nil {
		return fmt.Errorf("constructing orchestrator: %w", err)
	}

	out, err := cycle.Execute(ctx, chain.ChainInput{UserQuery: query})
	emitter.Close()
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	fmt.Printf("\n%s\n", out.Result)
	obslog.Info("logwright-query: done", "iterations", out.Iterations, "signal", out.Signal.String(), "duration", out.Duration.String())
	return nil
}

func newAdapter(roleCfg config.ModelRoleConfig) *planner.Adapter {
	client := openai.New(openai.Config{
		APIKey:      roleCfg.APIKey,
		BaseURL:     roleCfg.BaseURL,
		Model:       roleCfg.Model,
		Temperature: roleCfg.Temperature,
		MaxTokens:   roleCfg.MaxTokens,
	})
	return planner.New(client, planner.Config{
		Model:       roleCfg.Model,
		Temperature: roleCfg.Temperature,
		MaxTokens:   roleCfg.MaxTokens,
	})
}

func loadCatalog(path string) (*entitycatalog.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading entity catalog file: %w", err)
	}
	var cfg entitycatalog.Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing entity catalog yaml: %w", err)
	}
	return entitycatalog.New(cfg), nil
}

func buildToolSet(store *logstore.Store, catalog *entitycatalog.Catalog, analyzerAdapter *planner.Adapter, smartSummarizer *summarizer.Summarizer, payloadColumn string) []tools.Tool {
	return []tools.Tool{
		logtools.NewGrepLogsTool(store),
		logtools.NewGrepAndParseTool(store),
		logtools.NewParseJSONFieldTool(payloadColumn),
		logtools.NewExtractUniqueTool(payloadColumn),
		logtools.NewCountValuesTool(payloadColumn),
		logtools.NewFindRelationshipChainTool(store, catalog),
		logtools.NewCountViaRelationshipTool(store, catalog),
		logtools.NewCountUniquePerGroupTool(),
		logtools.NewAggregateByFieldTool(),
		logtools.NewSortByTimeTool(payloadColumn),
		logtools.NewExtractTimeRangeTool(payloadColumn),
		logtools.NewSummarizeLogsTool(smartSummarizer),
		logtools.NewAnalyzeLogsTool(analyzerAdapter, payloadColumn, 0),
		logtools.NewReturnLogsTool(),
		logtools.NewFinalizeAnswerTool(),
	}
}

// drainEvents prints diagnostic events to stderr as the query runs, so
// a caller watching the process can follow the orchestrator's
// progress without waiting for the final answer.
func drainEvents(emitter *events.ChanEmitter) {
	sub := emitter.Subscribe()
	for evt := range sub.Events() {
		switch data := evt.Data.(type) {
		case events.ThinkingData:
			fmt.Fprintf(os.Stderr, "[thinking] %s\n", data.Query)
		case events.ToolCallData:
			fmt.Fprintf(os.Stderr, "[tool_call] %s %s\n", data.ToolName, data.Args)
		case events.ToolResultData:
			fmt.Fprintf(os.Stderr, "[tool_result] %s: %s\n", data.ToolName, data.Result)
		case events.MessageData:
			fmt.Fprintf(os.Stderr, "[message] %s\n", data.Content)
		case events.ErrorData:
			fmt.Fprintf(os.Stderr, "[error] %v\n", data.Err)
		}
	}
}
