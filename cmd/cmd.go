package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"image-feed/internal/config"
	"image-feed/internal/repository"
	"image-feed/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds the services shared by every subcommand
type app struct {
	cfg *config.Config
	db  *pgxpool.Pool

	bus          *services.EventBus
	storage      *services.TokenStorage
	helper       *services.AuthHelper
	oauth        *services.OAuth2Service
	profile      *services.ProfileService
	profileImage *services.ProfileImageService
	imagesList   *services.ImagesListService
	images       *services.ImageCache
	logout       *services.ProfileLogoutService
	session      *services.Session
}

type appKey struct{}

// Run executes the command line
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "image-feed",
		Short:         "Browse, like and share an Unsplash photo feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			setupLogger(cfg.Log.Level)

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a := appFrom(cmd); a != nil {
				a.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")

	root.AddCommand(
		newLoginCommand(),
		newProfileCommand(),
		newFeedCommand(),
		newLikeCommand(true),
		newLikeCommand(false),
		newViewCommand(),
		newShareCommand(),
		newLogoutCommand(),
		newServeCommand(),
	)
	return root
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	repo, err := a.tokenRepository(ctx)
	if err != nil {
		return nil, err
	}

	api, err := services.NewAPIClient(cfg.API.BaseURL, nil, cfg.API.Timeout)
	if err != nil {
		a.Close()
		return nil, err
	}

	images, err := services.NewImageCache(cfg.Cache.MaxCost, cfg.Cache.Dir, api.HTTPClient())
	if err != nil {
		a.Close()
		return nil, err
	}

	authConfig := services.AuthConfiguration{
		AccessKey:    cfg.Auth.AccessKey,
		SecretKey:    cfg.Auth.SecretKey,
		RedirectURI:  cfg.Auth.RedirectURI,
		Scopes:       cfg.Auth.Scopes(),
		AuthorizeURL: cfg.Auth.AuthorizeURL,
		TokenURL:     cfg.Auth.TokenURL,
	}

	a.bus = services.NewEventBus()
	a.storage = services.NewTokenStorage(repo)
	a.helper = services.NewAuthHelper(authConfig)
	a.oauth = services.NewOAuth2Service(authConfig, a.storage, api.HTTPClient())
	a.profile = services.NewProfileService(api)
	a.profileImage = services.NewProfileImageService(api, a.storage, a.bus)
	a.imagesList = services.NewImagesListService(api, a.bus, cfg.API.PerPage)
	a.images = images
	a.logout = services.NewProfileLogoutService(a.storage, a.profile, a.profileImage, a.imagesList, images)
	a.session = services.NewSession(a.storage, a.oauth, a.profile, a.profileImage, a.imagesList, a.logout, a.bus)

	return a, nil
}

// tokenRepository opens the configured token store
func (a *app) tokenRepository(ctx context.Context) (services.TokenRepository, error) {
	if a.cfg.Storage.Driver != "postgres" {
		return repository.NewFileTokenRepository(a.cfg.Storage.Path), nil
	}

	db, err := pgxpool.New(ctx, a.cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Debug().Msg("Database connection established")
	a.db = db

	repo := repository.NewPostgresTokenRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// requireToken starts the session and fails when nobody is logged in
func (a *app) requireToken(ctx context.Context) (string, error) {
	a.session.Start(ctx)
	token, ok := a.storage.Token(ctx)
	if !ok {
		return "", fmt.Errorf("not logged in, run `image-feed login` first")
	}
	return token, nil
}

// Close releases the database pool and the image cache
func (a *app) Close() {
	if a.images != nil {
		a.images.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
