package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/novabite/assistant/agent/eval"
	"github.com/novabite/assistant/agent/knowledge"
	"github.com/novabite/assistant/agent/prompt"
	"github.com/novabite/assistant/agent/rag"
	configx "github.com/novabite/assistant/pkg/config"
	_ "github.com/novabite/assistant/pkg/logger/autoload"
	openrouterx "github.com/novabite/assistant/pkg/openrouter"
)

type EvalConfig struct {
	ReportPath string `envconfig:"REPORT_PATH" split_words:"true" default:"evaluation_results.txt"`
}

func main() {
	ctx := context.Background()

	evalCfg := configx.MustNew[EvalConfig]("EVAL")

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize chat model")
	}
	sdkClient := openrouterx.NewClient(*openRouterCfg)
	if sdkClient == nil {
		log.Fatal().Msg("initialize openrouter client")
	}

	embedder, err := rag.NewOpenAIEmbedder(sdkClient, openRouterCfg.EmbeddingModel)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize embedder")
	}
	index, err := rag.NewIndex(embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize document index")
	}
	ingestCfg := configx.MustNew[rag.IngestionConfig]("RAG")
	ingestion, err := rag.NewIngestion(index, *ingestCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize ingestion")
	}

	prompts := prompt.LoadPromptSet()

	responder, err := knowledge.NewResponder(ctx, chatModel, index, ingestion, knowledge.Prompts{
		Rewrite: prompts.Rewrite,
		Answer:  prompts.Answer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("initialize knowledge responder")
	}

	judge, err := eval.NewJudge(ctx, chatModel, prompts.Judge)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize judge")
	}

	harness, err := eval.NewHarness(responder, judge, eval.DefaultCases)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize harness")
	}

	results, summary, err := harness.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation run failed")
	}

	now := time.Now()
	if err := eval.WriteReport(evalCfg.ReportPath, results, now); err != nil {
		log.Fatal().Err(err).Msg("save evaluation report")
	}

	fmt.Println(eval.RenderReport(results, now))
	log.Info().
		Float64("avg_faithfulness", summary.AvgFaithfulness).
		Float64("avg_relevance", summary.AvgRelevance).
		Float64("overall", summary.Overall).
		Str("report", evalCfg.ReportPath).
		Msg("evaluation complete")
}
