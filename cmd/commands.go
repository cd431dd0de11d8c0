package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"image-feed/internal/handlers"
	"image-feed/internal/presenter"
	"image-feed/internal/services"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newLoginCommand() *cobra.Command {
	var paste bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize with Unsplash and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if a.session.Start(ctx) != services.StateNoToken {
				fmt.Fprintln(out, "Already logged in. Run `image-feed logout` to switch accounts.")
				return nil
			}

			authURL, err := a.helper.AuthURL()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Open this URL in a browser and approve access:\n\n  %s\n\n", authURL)

			var code string
			if paste || strings.HasPrefix(a.cfg.Auth.RedirectURI, "urn:") {
				code, err = a.readCode(cmd.InOrStdin(), out)
			} else {
				code, err = a.captureCode(ctx)
			}
			if err != nil {
				return err
			}

			if err := a.session.Authorize(ctx, code); err != nil {
				return err
			}
			if err := a.session.LoadProfile(ctx); err != nil {
				return err
			}

			profile, _ := a.profile.Profile()
			fmt.Fprintf(out, "Logged in as %s (%s)\n", profile.Name, profile.LoginName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&paste, "paste", false, "paste the redirect URL or code instead of capturing it on the loopback interface")
	return cmd
}

// readCode accepts either the full redirect URL or the bare code
func (a *app) readCode(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Paste the redirect URL or authorization code: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	line = strings.TrimSpace(line)

	if u, err := url.Parse(line); err == nil {
		if policy, code := a.helper.DecidePolicy(u); policy == services.PolicyCancel {
			return code, nil
		}
	}
	if line == "" {
		return "", errors.New("authorization code is empty")
	}
	return line, nil
}

// captureCode serves the native callback on the loopback interface until a code arrives
func (a *app) captureCode(ctx context.Context) (string, error) {
	redirect := handlers.NewRedirectHandler(a.helper)

	listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(a.cfg.Server.RedirectPort)))
	if err != nil {
		return "", fmt.Errorf("failed to listen for the redirect: %w", err)
	}
	srv := &http.Server{
		Handler:           handlers.NewRedirectRouter(redirect),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Redirect listener failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Redirect listener forced to shutdown")
		}
	}()

	log.Info().Str("addr", listener.Addr().String()).Msg("Waiting for the authorization redirect")

	select {
	case code := <-redirect.Codes():
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func newProfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			if _, err := a.requireToken(ctx); err != nil {
				return err
			}
			if err := a.session.LoadProfile(ctx); err != nil {
				return err
			}

			view := &terminalProfileView{out: cmd.OutOrStdout()}
			p := presenter.NewProfileViewPresenter(view, a.profile, a.profileImage, a.bus)
			p.ViewDidLoad()
			p.UpdateAvatar()
			return nil
		},
	}
}

func newFeedCommand() *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List photos from the feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			if _, err := a.requireToken(ctx); err != nil {
				return err
			}

			view := &terminalFeedView{out: cmd.OutOrStdout()}
			p := presenter.NewImagesListPresenter(view, a.imagesList, a.storage, a.images, a.bus)
			p.ViewDidLoad(ctx)
			for i := 1; i < pages; i++ {
				p.WillDisplayRow(ctx, len(p.Photos())-1)
			}
			if view.failed {
				return errors.New("feed could not be loaded")
			}
			p.Refresh()

			for i := range p.Photos() {
				row, ok := p.ConfigureRow(i)
				if !ok {
					continue
				}
				view.printRow(i, row)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

func newLikeCommand(isLike bool) *cobra.Command {
	use, short := "like <photo-id>", "Like a photo"
	if !isLike {
		use, short = "unlike <photo-id>", "Remove a like from a photo"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			photoID := args[0]

			token, err := a.requireToken(ctx)
			if err != nil {
				return err
			}

			err = a.imagesList.ChangeLike(ctx, token, photoID, isLike)
			switch {
			case errors.Is(err, services.ErrPhotoNotFound):
				// a fresh process has no feed loaded, the server already accepted the change
			case err != nil:
				return err
			}

			state := "liked"
			if !isLike {
				state = "unliked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Photo %s %s\n", photoID, state)
			return nil
		},
	}
}

func newViewCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "view <photo-id>",
		Short: "Download a photo at full resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			token, err := a.requireToken(ctx)
			if err != nil {
				return err
			}
			photo, err := a.imagesList.FetchPhoto(ctx, token, args[0])
			if err != nil {
				return err
			}

			data, err := a.images.Fetch(ctx, photo.FullImageURL)
			if err != nil {
				return err
			}

			if output == "" {
				output = photo.ID + ".jpg"
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write image: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %dx%d photo to %s (%s)\n",
				photo.Size.Width, photo.Size.Height, output, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file (default <photo-id>.jpg)")
	return cmd
}

func newShareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "share <photo-id>",
		Short: "Upload a photo to S3 and print a temporary link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			token, err := a.requireToken(ctx)
			if err != nil {
				return err
			}
			photo, err := a.imagesList.FetchPhoto(ctx, token, args[0])
			if err != nil {
				return err
			}

			share, err := services.NewShareService(ctx, services.ShareConfig{
				Region:    a.cfg.AWS.Region,
				Bucket:    a.cfg.AWS.S3Bucket,
				AccessKey: a.cfg.AWS.AccessKey,
				SecretKey: a.cfg.AWS.SecretKey,
				Endpoint:  a.cfg.AWS.Endpoint,
				TTL:       a.cfg.AWS.ShareTTL,
			}, a.images)
			if err != nil {
				return err
			}

			link, err := share.Share(ctx, photo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n(valid for %s)\n", link, a.cfg.AWS.ShareTTL)
			return nil
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the token and clear cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			var err error
			if a.session.Start(ctx) == services.StateNoToken {
				// nothing to end, still drop leftovers from an earlier session
				err = a.logout.Logout(ctx)
			} else {
				err = a.session.Logout(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
