package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/sneakerzone/internal/config"
	inHttp "github.com/Alturino/sneakerzone/internal/http"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/metrics"
	"github.com/Alturino/sneakerzone/internal/otel"
)

// envelope is the shape every backend endpoint answers with. Success is a pointer so a body
// without the field is told apart from success=false.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

func NewClient(cfg config.Backend, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		metrics: m,
	}
}

func (cl *Client) observe(method string, outcome string, start time.Time) {
	if cl.metrics == nil {
		return
	}
	cl.metrics.BackendRequests.
		WithLabelValues(method, outcome).
		Observe(time.Since(start).Seconds())
}

// do sends body as JSON and decodes the envelope's data into out when both are present.
func (cl *Client) do(c context.Context, method, path string, body, out interface{}) (err error) {
	url := cl.baseURL + path
	c, span := otel.Tracer.Start(
		c,
		"backend Client do",
		trace.WithAttributes(
			attribute.String(log.KeyRequestMethod, method),
			attribute.String(log.KeyBackendURL, url),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "backend Client do").
		Str(log.KeyRequestMethod, method).
		Str(log.KeyBackendURL, url).
		Logger()

	start := time.Now()
	outcome := "success"
	defer func() {
		if err != nil {
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			outcome = "failed"
			if errors.Is(err, ErrUnreachable) {
				outcome = "unreachable"
			}
		}
		cl.observe(method, outcome, start)
	}()

	logger = logger.With().Str(log.KeyProcess, "building request").Logger()
	logger.Trace().Msg("building request")
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed encoding request body with error=%w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(c, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed building request with error=%w", err)
	}
	req.Header.Set(inHttp.KeyHeaderContentType, inHttp.ValueHeaderApplicationJSON)
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.Header.Set(inHttp.KeyHeaderRequestID, requestID)
	}
	logger.Trace().Msg("built request")

	logger = logger.With().Str(log.KeyProcess, "sending request").Logger()
	logger.Debug().Msg("sending request")
	resp, err := cl.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed sending %s %s with error=%w", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()
	logger = logger.With().Int(log.KeyStatusCode, resp.StatusCode).Logger()
	span.SetAttributes(attribute.Int(log.KeyStatusCode, resp.StatusCode))
	logger.Debug().Msg("sent request")

	logger = logger.With().Str(log.KeyProcess, "decoding response").Logger()
	logger.Trace().Msg("decoding response")
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed reading response with error=%w", ErrUnreachable, err)
	}
	env := envelope{}
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RejectedError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, decodeErr)
	}
	if env.Success == nil {
		return fmt.Errorf("%w: missing success field", ErrMalformedResponse)
	}
	if !*env.Success {
		return &RejectedError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: failed decoding data with error=%w", ErrMalformedResponse, err)
		}
	}
	logger.Trace().Msg("decoded response")

	return nil
}
