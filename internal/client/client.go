// Package client calls a remote outrank scoring server.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/outrank/internal/config"
	"github.com/tensorplex-labs/outrank/internal/problem"
	"github.com/tensorplex-labs/outrank/internal/server"
)

// ErrRemote wraps errors reported by the server in the response envelope.
var ErrRemote = errors.New("client: server returned an error")

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	RetryMax        int
	RetryWait       time.Duration
	ZstdCompression bool
}

// ConfigFromEnv builds a Config from the client environment.
func ConfigFromEnv(env config.ClientEnvConfig) *Config {
	return &Config{
		BaseURL:         env.ServerURL,
		Timeout:         env.ClientTimeout,
		RetryMax:        env.RetryMax,
		RetryWait:       env.RetryWait,
		ZstdCompression: true,
	}
}

type Client struct {
	config  *Config
	resty   *resty.Client
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New creates a client whose transport retries connection errors and 5xx
// responses with exponential backoff.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	if cfg.RetryWait > 0 {
		retryClient.RetryWaitMin = cfg.RetryWait
		retryClient.RetryWaitMax = 10 * cfg.RetryWait
	}
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	rc := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}

	c := &Client{config: cfg, resty: rc}

	if cfg.ZstdCompression {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			encoder.Close()
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		c.encoder, c.decoder = encoder, decoder
	}

	log.Debug().
		Str("base_url", cfg.BaseURL).
		Int("retry_max", cfg.RetryMax).
		Str("timeout", cfg.Timeout.String()).
		Bool("zstd", cfg.ZstdCompression).
		Msg("outrank client initialized")

	return c, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// ScoreOptions tune a remote score call. Zero values defer to the server.
type ScoreOptions struct {
	Method           string
	Ascending        bool
	NormalizeWeights bool
}

func (o ScoreOptions) query() map[string]string {
	q := map[string]string{}
	if o.Method != "" {
		q["method"] = o.Method
	}
	if o.Ascending {
		q["ascending"] = "true"
	}
	if o.NormalizeWeights {
		q["normalize"] = "true"
	}
	return q
}

func (c *Client) Score(ctx context.Context, p *problem.Problem, opts ScoreOptions) (*server.ScoreResponse, error) {
	return post[server.ScoreResponse](ctx, c, "/score", p, opts.query())
}

func (c *Client) Compare(ctx context.Context, p *problem.Problem, normalize bool) (*server.CompareResponse, error) {
	return post[server.CompareResponse](ctx, c, "/compare", p, ScoreOptions{NormalizeWeights: normalize}.query())
}

func (c *Client) Health(ctx context.Context) (*server.HealthResponse, error) {
	resp, err := c.resty.R().SetContext(ctx).Get("/health")
	if err != nil {
		return nil, fmt.Errorf("get /health: %w", err)
	}
	return unwrap[server.HealthResponse](c, "/health", resp)
}

func post[T any](ctx context.Context, c *Client, path string, body any, query map[string]string) (*T, error) {
	data, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := c.resty.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetHeader("Content-Type", "application/json")

	if c.encoder != nil {
		req.SetHeader("Content-Encoding", "zstd").
			SetHeader("Accept-Encoding", "zstd").
			SetBody(c.encoder.EncodeAll(data, nil))
	} else {
		req.SetBody(data)
	}

	log.Trace().
		Str("path", path).
		Int("body_size", len(data)).
		Msg("posting problem")

	resp, err := req.Post(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("post request failed")
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	return unwrap[T](c, path, resp)
}

// unwrap decompresses the body if needed and extracts the envelope. Error
// envelopes are returned for any status code.
func unwrap[T any](c *Client, path string, resp *resty.Response) (*T, error) {
	body := resp.Body()
	if strings.EqualFold(resp.Header().Get("Content-Encoding"), "zstd") {
		if c.decoder == nil {
			return nil, fmt.Errorf("%s: zstd response without decoder", path)
		}
		decompressed, err := c.decoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress response: %w", err)
		}
		body = decompressed
	}

	var result server.StdResponse[T]
	if err := sonic.Unmarshal(body, &result); err != nil {
		if resp.IsError() {
			return nil, fmt.Errorf("request returned status %d: %s", resp.StatusCode(), string(body))
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.Error != nil {
		log.Error().Int("status", resp.StatusCode()).Str("path", path).Str("error", *result.Error).Msg("response contains error")
		return nil, fmt.Errorf("%w (status %d): %s", ErrRemote, resp.StatusCode(), *result.Error)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("request returned status %d", resp.StatusCode())
	}
	return &result.Body, nil
}
