package server

import (
	"bytes"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/outrank/internal/problem"
	"github.com/tensorplex-labs/outrank/internal/ranking"
	"github.com/tensorplex-labs/outrank/internal/scoring"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(createResponse(HealthResponse{
		Status: "ok",
		Method: s.engine.Method.String(),
	}, nil))
}

// parseProblem decodes the request body as YAML when the content type says
// so and as JSON otherwise.
func parseProblem(c *fiber.Ctx) (*problem.Problem, []problem.InputOption, error) {
	format := problem.FormatJSON
	if strings.Contains(strings.ToLower(c.Get(fiber.HeaderContentType)), "yaml") {
		format = problem.FormatYAML
	}

	doc, err := problem.Decode(bytes.NewReader(c.Request().Body()), format)
	if err != nil {
		return nil, nil, err
	}

	var opts []problem.InputOption
	if c.QueryBool("normalize") {
		opts = append(opts, problem.NormalizeWeights())
	}
	return doc, opts, nil
}

// engineFor applies the method precedence: query parameter, then the
// document, then the server default.
func (s *Server) engineFor(c *fiber.Ctx, doc *problem.Problem) (*scoring.Engine, error) {
	method, err := doc.ResolveMethod(s.engine.Method)
	if err != nil {
		return nil, err
	}
	if q := c.Query("method"); q != "" {
		if method, err = scoring.ParseMethod(q); err != nil {
			return nil, err
		}
	}

	engine := *s.engine
	engine.Method = method
	return &engine, nil
}

func (s *Server) handleScore(c *fiber.Ctx) error {
	doc, opts, err := parseProblem(c)
	if err != nil {
		return err
	}
	engine, err := s.engineFor(c, doc)
	if err != nil {
		return err
	}
	in, err := doc.Input(opts...)
	if err != nil {
		return err
	}

	res, err := engine.Evaluate(in)
	if err != nil {
		return err
	}
	s.metrics.alternatives.Observe(float64(len(res.Scores)))

	resp := ScoreResponse{
		RequestID:    requestID(c),
		Name:         doc.Name,
		Method:       res.Method.String(),
		Alternatives: doc.Labels(),
		Scores:       res.Scores,
		NetFlows:     res.NetFlows,
		Penalties:    res.Penalties,
		Ranks:        ranking.Rank(res.Scores, !c.QueryBool("ascending")),
		P:            res.P,
		Q:            res.Q,
		S:            res.S,
	}

	log.Debug().
		Str("request_id", resp.RequestID).
		Str("method", resp.Method).
		Ints("ranks", resp.Ranks).
		Msg("Scored problem")

	return c.JSON(createResponse(resp, nil))
}

func (s *Server) handleCompare(c *fiber.Ctx) error {
	doc, opts, err := parseProblem(c)
	if err != nil {
		return err
	}
	in, err := doc.Input(opts...)
	if err != nil {
		return err
	}

	resp := CompareResponse{
		RequestID:    requestID(c),
		Name:         doc.Name,
		Alternatives: doc.Labels(),
	}

	results := []struct {
		method scoring.Method
		dst    *MethodScores
	}{
		{scoring.MethodPrometheeII, &resp.PrometheeII},
		{scoring.MethodProsaC, &resp.ProsaC},
	}
	for _, r := range results {
		engine := *s.engine
		engine.Method = r.method
		scores, err := engine.Score(in)
		if err != nil {
			return err
		}
		r.dst.Scores = scores
		r.dst.Ranks = ranking.Rank(scores, true)
	}
	s.metrics.alternatives.Observe(float64(len(resp.Alternatives)))

	resp.Agreement, err = ranking.Compare(
		ranking.Floats(resp.PrometheeII.Ranks),
		ranking.Floats(resp.ProsaC.Ranks),
	)
	if err != nil {
		return err
	}

	return c.JSON(createResponse(resp, nil))
}
