package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/outrank/internal/client"
	"github.com/tensorplex-labs/outrank/internal/config"
	"github.com/tensorplex-labs/outrank/internal/problem"
	"github.com/tensorplex-labs/outrank/internal/ranking"
	"github.com/tensorplex-labs/outrank/internal/scoring"
	"github.com/tensorplex-labs/outrank/internal/server"
	"github.com/tensorplex-labs/outrank/internal/utils/logger"
)

func main() {
	var flags logger.Flags

	rootCmd := &cobra.Command{
		Use:           "outrank",
		Short:         "Rank alternatives with PROMETHEE II and PROSA-C",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(flags)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.Trace, "trace", false, "Enable trace logging")

	rootCmd.AddCommand(
		newScoreCmd(),
		newCompareCmd(),
		newExampleCmd(),
		newServeCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func loadEngine() (*config.AppConfig, *scoring.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load environment configuration: %w", err)
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, nil, err
	}
	return cfg, scoring.NewEngine(opts...), nil
}

func newScoreCmd() *cobra.Command {
	var method string
	var ascending, normalize, asJSON, remote bool
	var serverURL string

	cmd := &cobra.Command{
		Use:   "score <problem-file>",
		Short: "Score the alternatives of a decision problem",
		Long: `Score every alternative of a problem document and print them ordered by rank.

Documents may be YAML (.yaml, .yml), JSON (.json) or Excel (.xlsx). The method
is taken from --method, then the document, then OUTRANK_METHOD.

Example: outrank score suppliers.yaml --method promethee-ii`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, err := loadEngine()
			if err != nil {
				return err
			}
			doc, err := problem.Load(args[0])
			if err != nil {
				return err
			}

			var resp *server.ScoreResponse
			if remote {
				resp, err = scoreRemote(cmd.Context(), cfg, serverURL, doc, client.ScoreOptions{
					Method:           method,
					Ascending:        ascending,
					NormalizeWeights: normalize,
				})
			} else {
				resp, err = scoreLocal(engine, doc, method, ascending, normalize)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, resp)
			}
			title := fmt.Sprintf("%s (%s)", doc.Name, resp.Method)
			return scoring.WriteReport(cmd.OutOrStdout(), title, resp.Alternatives, resp.Scores, resp.Ranks)
		},
	}

	cmd.Flags().StringVar(&method, "method", "", "Scoring method: promethee-ii|prosa-c")
	cmd.Flags().BoolVar(&ascending, "ascending", false, "Rank the lowest score first")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Rescale criterion weights to sum to one")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&remote, "remote", false, "Score on a running outrank server")
	cmd.Flags().StringVar(&serverURL, "server", "", "Server URL for --remote (default OUTRANK_SERVER_URL)")

	return cmd
}

func scoreLocal(engine *scoring.Engine, doc *problem.Problem, method string, ascending, normalize bool) (*server.ScoreResponse, error) {
	m, err := doc.ResolveMethod(engine.Method)
	if err != nil {
		return nil, err
	}
	if method != "" {
		if m, err = scoring.ParseMethod(method); err != nil {
			return nil, err
		}
	}
	e := *engine
	e.Method = m

	var opts []problem.InputOption
	if normalize {
		opts = append(opts, problem.NormalizeWeights())
	}
	in, err := doc.Input(opts...)
	if err != nil {
		return nil, err
	}

	res, err := e.Evaluate(in)
	if err != nil {
		return nil, err
	}
	return &server.ScoreResponse{
		Name:         doc.Name,
		Method:       res.Method.String(),
		Alternatives: doc.Labels(),
		Scores:       res.Scores,
		NetFlows:     res.NetFlows,
		Penalties:    res.Penalties,
		Ranks:        ranking.Rank(res.Scores, !ascending),
		P:            res.P,
		Q:            res.Q,
		S:            res.S,
	}, nil
}

func scoreRemote(
	ctx context.Context,
	cfg *config.AppConfig,
	serverURL string,
	doc *problem.Problem,
	opts client.ScoreOptions,
) (*server.ScoreResponse, error) {
	clientCfg := client.ConfigFromEnv(cfg.ClientEnvConfig)
	if serverURL != "" {
		clientCfg.BaseURL = serverURL
	}
	c, err := client.New(clientCfg)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	log.Debug().Str("server", clientCfg.BaseURL).Msg("scoring remotely")
	return c.Score(ctx, doc, opts)
}

func newCompareCmd() *cobra.Command {
	var normalize bool

	cmd := &cobra.Command{
		Use:   "compare <problem-file>",
		Short: "Score a problem with both methods and compare the rankings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, err := loadEngine()
			if err != nil {
				return err
			}
			doc, err := problem.Load(args[0])
			if err != nil {
				return err
			}
			return writeComparison(cmd, engine, doc, normalize)
		},
	}

	cmd.Flags().BoolVar(&normalize, "normalize", false, "Rescale criterion weights to sum to one")
	return cmd
}

func writeComparison(cmd *cobra.Command, engine *scoring.Engine, doc *problem.Problem, normalize bool) error {
	out := cmd.OutOrStdout()

	var ranks [][]int
	for _, m := range []scoring.Method{scoring.MethodPrometheeII, scoring.MethodProsaC} {
		resp, err := scoreLocal(engine, doc, m.String(), false, normalize)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s (%s)", doc.Name, resp.Method)
		if err := scoring.WriteReport(out, title, resp.Alternatives, resp.Scores, resp.Ranks); err != nil {
			return err
		}
		ranks = append(ranks, resp.Ranks)
	}

	agreement, err := ranking.Compare(ranking.Floats(ranks[0]), ranking.Floats(ranks[1]))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "\nRank agreement (reference %s):\n  Spearman: %.4f\n  Weighted Spearman: %.4f\n  WS: %.4f\n  Pearson: %.4f\n",
		scoring.MethodPrometheeII, agreement.Spearman, agreement.WeightedSpearman, agreement.WS, agreement.Pearson)
	return err
}

func newExampleCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Run the built-in six-supplier example, or save it as a document",
		Long: `Without --out, score the built-in example with both methods.
With --out, write the example document instead; the extension picks the format.

Example: outrank example --out suppliers.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := problem.Example()
			if out != "" {
				if err := doc.Save(out); err != nil {
					return err
				}
				log.Info().Str("path", out).Msg("example problem written")
				return nil
			}

			_, engine, err := loadEngine()
			if err != nil {
				return err
			}
			return writeComparison(cmd, engine, doc, false)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the example to this file (.yaml, .json or .xlsx)")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring engine over HTTP",
		Long: `Start the scoring server. Configuration comes from the environment:
SERVER_HOST, SERVER_PORT, SERVER_BODY_LIMIT and the OUTRANK_* engine settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, err := loadEngine()
			if err != nil {
				return err
			}

			s := server.NewServer(&server.ServerConfig{
				Host:      cfg.Host,
				Port:      cfg.Port,
				BodyLimit: cfg.BodyLimit,
			}, engine)
			return s.Start(cmd.Context())
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
