package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/outrank/internal/preference"
	"github.com/tensorplex-labs/outrank/internal/problem"
	"github.com/tensorplex-labs/outrank/internal/ranking"
	"github.com/tensorplex-labs/outrank/internal/scoring"
	"github.com/tensorplex-labs/outrank/internal/utils/logger"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	trace := flag.Bool("trace", false, "enable trace logging")
	flag.Parse()

	logger.Init(logger.Flags{Debug: *debug, Trace: *trace})

	in, err := problem.Example().Input()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build example input")
	}

	testPrometheeII(in)
	testPreferenceFunctions(in)
	testProsaC(in)
	testDefaultThresholds(in)

	scores := mustScore(scoring.ProsaC(in))
	if err := scoring.WriteReport(os.Stdout, "PROSA-C", problem.Example().Labels(), scores, ranking.Rank(scores, true)); err != nil {
		log.Fatal().Err(err).Msg("failed to write report")
	}
}

func mustScore(scores []float64, err error) []float64 {
	if err != nil {
		log.Fatal().Err(err).Msg("scoring failed")
	}
	return scores
}

func logScores(method string, scores []float64) {
	ranks := ranking.Rank(scores, true)
	for i, score := range scores {
		log.Info().
			Str("method", method).
			Int("alternative", i+1).
			Float64("score", score).
			Int("rank", ranks[i]).
			Msgf("A%d scored %.4f (rank %d)", i+1, score, ranks[i])
	}
}

func testPrometheeII(in scoring.Input) {
	log.Info().Msg("--- Testing PROMETHEE II ---")
	logScores("promethee-ii", mustScore(scoring.PrometheeII(in)))
}

func testPreferenceFunctions(in scoring.Input) {
	log.Info().Msg("--- Testing preference functions ---")
	for _, fn := range preference.All() {
		variant := in
		variant.Functions = make([]preference.Function, len(in.Functions))
		for j := range variant.Functions {
			variant.Functions[j] = fn
		}

		scores := mustScore(scoring.PrometheeII(variant))
		log.Info().
			Str("function", fn.String()).
			Floats64("scores", scores).
			Ints("ranks", ranking.Rank(scores, true)).
			Msg("PROMETHEE II")
	}
}

func testProsaC(in scoring.Input) {
	log.Info().Msg("--- Testing PROSA-C ---")
	res, err := scoring.NewEngine(scoring.WithMethod(scoring.MethodProsaC)).Evaluate(in)
	if err != nil {
		log.Fatal().Err(err).Msg("PROSA-C failed")
	}
	log.Info().Floats64("net_flows", res.NetFlows).Floats64("penalties", res.Penalties).Msg("PROSA-C flows")
	logScores("prosa-c", res.Scores)
}

func testDefaultThresholds(in scoring.Input) {
	log.Info().Msg("--- Testing PROSA-C default thresholds ---")
	in.P, in.Q, in.S = nil, nil, nil
	in.Functions = []preference.Function{preference.Linear, preference.Linear, preference.Linear, preference.Linear}

	res, err := scoring.NewEngine().Evaluate(in)
	if err != nil {
		log.Fatal().Err(err).Msg("PROSA-C failed")
	}
	log.Info().Floats64("p", res.P).Floats64("q", res.Q).Floats64("s", res.S).Msg("default thresholds")
	logScores("prosa-c", res.Scores)
}
