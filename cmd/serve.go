package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"image-feed/internal/handlers"
	"image-feed/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local companion server with the REST API and WebSocket event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return appFrom(cmd).serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is required to serve")
	}

	if a.session.Start(ctx) == services.StateTokenObtained {
		if err := a.session.LoadProfile(ctx); err != nil {
			log.Warn().Err(err).Msg("Profile not loaded at startup")
		}
	}

	tokens := services.NewViewerTokenService(a.cfg.JWT.Secret, a.cfg.JWT.TTL)
	wsHub := services.NewWSHub(a.bus)
	redirect := handlers.NewRedirectHandler(a.helper)

	router := handlers.NewRouter(handlers.Handlers{
		Viewer:    handlers.NewViewerHandler(tokens),
		Photo:     handlers.NewPhotoHandler(a.storage, a.imagesList),
		Profile:   handlers.NewProfileHandler(a.session, a.profile, a.profileImage),
		WebSocket: handlers.NewWebSocketHandler(wsHub, tokens, a.storage, a.imagesList),
		Redirect:  redirect,
	}, tokens)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go wsHub.Run(hubCtx)
	go a.authorizeFromRedirects(hubCtx, redirect)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	viewerToken, viewerID, err := tokens.Issue()
	if err != nil {
		return err
	}
	log.Info().Str("viewer_id", viewerID).Str("token", viewerToken).Msg("Viewer token issued")

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", a.cfg.Server.Host).
			Int("port", a.cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// closes every WebSocket connection
	stopHub()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

// authorizeFromRedirects completes logins started in a browser against the companion server
func (a *app) authorizeFromRedirects(ctx context.Context, redirect *handlers.RedirectHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case code := <-redirect.Codes():
			if err := a.session.Authorize(ctx, code); err != nil {
				if !services.IsSilent(err) {
					log.Error().Err(err).Msg("Authorization from redirect failed")
				}
				continue
			}
			if err := a.session.LoadProfile(ctx); err != nil {
				log.Error().Err(err).Msg("Profile not loaded after authorization")
			}
		}
	}
}
