package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pair-scheduler/pkg/clients/appsscript"
)

var (
	ErrUpstreamFetch   = errors.New("failed to get data from upstream")
	ErrUpstreamSubmit  = errors.New("failed to send data to upstream")
	ErrUpstreamTimeout = errors.New("upstream timed out")
)

// RelayService defines the pass-through operations behind the relay API
type RelayService interface {
	GetRoster(ctx context.Context) (*appsscript.Response, error)
	SubmitForm(ctx context.Context, payload map[string]any) (*appsscript.Response, error)
}

type relayServiceImpl struct {
	scriptClient appsscript.Client
	logger       *zap.Logger
}

// NewRelayService creates a new relay service
func NewRelayService(scriptClient appsscript.Client, logger *zap.Logger) RelayService {
	return &relayServiceImpl{
		scriptClient: scriptClient,
		logger:       logger,
	}
}

// GetRoster fetches the roster once and hands the raw reply back
func (s *relayServiceImpl) GetRoster(ctx context.Context) (*appsscript.Response, error) {
	resp, err := s.scriptClient.FetchRoster(ctx)
	if err != nil {
		s.logFailure("GET roster failed", err)
		return nil, wrapUpstream(ErrUpstreamFetch, err)
	}

	s.logger.Info("roster fetched", zap.ByteString("response", resp.Body))
	return resp, nil
}

// SubmitForm forwards the payload in a single attempt
func (s *relayServiceImpl) SubmitForm(ctx context.Context, payload map[string]any) (*appsscript.Response, error) {
	resp, err := s.scriptClient.Submit(ctx, payload)
	if err != nil {
		s.logFailure("POST submission failed", err, zap.Int("fields", len(payload)))
		return nil, wrapUpstream(ErrUpstreamSubmit, err)
	}

	s.logger.Info("submission forwarded", zap.ByteString("response", resp.Body))
	return resp, nil
}

func (s *relayServiceImpl) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, appsscript.ErrTimeout) {
		s.logger.Error(msg+": upstream timed out", fields...)
		return
	}
	var statusErr *appsscript.StatusError
	if errors.As(err, &statusErr) {
		fields = append(fields, zap.Int("upstream_status", statusErr.StatusCode))
	}
	s.logger.Error(msg, fields...)
}

func wrapUpstream(kind error, err error) error {
	if errors.Is(err, appsscript.ErrTimeout) {
		return fmt.Errorf("%w: %w: %v", kind, ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", kind, err)
}
