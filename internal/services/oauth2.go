package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// OAuth2Service exchanges authorization codes for bearer tokens
type OAuth2Service struct {
	config     *oauth2.Config
	storage    *TokenStorage
	httpClient *http.Client

	mu       sync.Mutex
	lastCode string
	cancel   context.CancelFunc
	seq      uint64
}

// NewOAuth2Service creates a new OAuth2 service
func NewOAuth2Service(config AuthConfiguration, storage *TokenStorage, httpClient *http.Client) *OAuth2Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuth2Service{
		config:     config.OAuth2Config(),
		storage:    storage,
		httpClient: httpClient,
	}
}

// FetchOAuthToken exchanges code for an access token and persists it.
// A second call with the same code while the first is outstanding returns ErrDuplicateCode;
// a call with a different code cancels the outstanding exchange.
func (s *OAuth2Service) FetchOAuthToken(ctx context.Context, code string) (string, error) {
	const op = "FetchOAuthToken"

	if _, err := url.ParseRequestURI(s.config.Endpoint.TokenURL); err != nil {
		return "", newNetworkError(op, KindInvalidRequest, err)
	}

	s.mu.Lock()
	if s.cancel != nil {
		if s.lastCode == code {
			s.mu.Unlock()
			log.Debug().Msg("Ignoring duplicate authorization code")
			return "", ErrDuplicateCode
		}
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.seq++
	seq := s.seq
	s.lastCode = code
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
			s.lastCode = ""
		}
		s.mu.Unlock()
		cancel()
	}()

	reqCtx = context.WithValue(reqCtx, oauth2.HTTPClient, s.httpClient)
	tok, err := s.config.Exchange(reqCtx, code)
	if err != nil {
		nerr := classifyExchangeError(op, err)
		s.mu.Lock()
		superseded := s.seq != seq
		s.mu.Unlock()
		if superseded {
			log.Debug().Msg("Authorization code superseded")
			return "", fmt.Errorf("%w: %w", ErrCodeSuperseded, nerr)
		}
		return "", nerr
	}

	if err := s.storage.SetToken(ctx, tok.AccessToken); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	log.Info().Msg("OAuth token obtained")
	return tok.AccessToken, nil
}

func classifyExchangeError(op string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return &NetworkError{Op: op, Kind: KindHTTPStatus, Status: rerr.Response.StatusCode, Err: err}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) || isCanceled(err) {
		return newNetworkError(op, KindTransport, err)
	}
	return newNetworkError(op, KindDecode, err)
}
