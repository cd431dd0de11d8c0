package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testSession struct {
	session    *Session
	storage    *TokenStorage
	repo       *memTokenRepository
	profile    *ProfileService
	avatar     *ProfileImageService
	imagesList *ImagesListService
	images     *ImageCache
	bus        *EventBus
}

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			require.NoError(t, r.ParseForm())
			if r.PostForm.Get("code") == "bad" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok"}`))
		case "/me":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"username":"jdoe","first_name":"Jane","last_name":"Doe"}`))
		case "/users/jdoe":
			_, _ = w.Write([]byte(`{"profile_image":{"small":"s","medium":"m","large":"https://a/l"}}`))
		case "/photos":
			_, _ = w.Write([]byte(photosJSON("a", "b")))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestSession(t *testing.T, srvURL, token string) *testSession {
	t.Helper()

	repo := &memTokenRepository{token: token}
	storage := NewTokenStorage(repo)
	bus := NewEventBus()
	api := newTestAPI(t, srvURL)

	cfg := testAuthConfiguration()
	cfg.TokenURL = srvURL + "/oauth/token"

	images, err := NewImageCache(1<<20, t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(images.Close)

	ts := &testSession{
		storage:    storage,
		repo:       repo,
		profile:    NewProfileService(api),
		avatar:     NewProfileImageService(api, storage, bus),
		imagesList: NewImagesListService(api, bus, 10),
		images:     images,
		bus:        bus,
	}
	logout := NewProfileLogoutService(storage, ts.profile, ts.avatar, ts.imagesList, images)
	ts.session = NewSession(storage, NewOAuth2Service(cfg, storage, nil), ts.profile, ts.avatar, ts.imagesList, logout, bus)
	return ts
}

func TestSession_FullFlow(t *testing.T) {
	srv := newFakeAPI(t)
	ts := newTestSession(t, srv.URL, "")

	states, unsubscribe := ts.bus.Subscribe(SessionStateDidChange)
	defer unsubscribe()

	require.Equal(t, StateNoToken, ts.session.Start(t.Context()))

	require.NoError(t, ts.session.Authorize(t.Context(), "good"))
	require.Equal(t, StateTokenObtained, ts.session.State())

	require.NoError(t, ts.session.LoadProfile(t.Context()))
	require.Equal(t, StateFeedReady, ts.session.State())

	var seen []State
	for range 4 {
		seen = append(seen, receive(t, states).State)
	}
	require.Equal(t, []State{StateAuthInProgress, StateTokenObtained, StateProfileLoading, StateFeedReady}, seen)

	p, ok := ts.profile.Profile()
	require.True(t, ok)
	require.Equal(t, "Jane Doe", p.Name)
	avatar, _ := ts.avatar.AvatarURL()
	require.Equal(t, "https://a/l", avatar)
	require.Len(t, ts.imagesList.Photos(), 2)
}

func TestSession_StartWithStoredToken(t *testing.T) {
	srv := newFakeAPI(t)
	ts := newTestSession(t, srv.URL, "tok")

	require.Equal(t, StateTokenObtained, ts.session.Start(t.Context()))

	err := ts.session.Authorize(t.Context(), "good")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_AuthorizeFailureReturnsToNoToken(t *testing.T) {
	srv := newFakeAPI(t)
	ts := newTestSession(t, srv.URL, "")

	err := ts.session.Authorize(t.Context(), "bad")
	require.Error(t, err)
	require.True(t, IsKind(err, KindHTTPStatus))
	require.Equal(t, StateNoToken, ts.session.State())
}

func TestSession_LoadProfileRequiresToken(t *testing.T) {
	srv := newFakeAPI(t)
	ts := newTestSession(t, srv.URL, "")

	err := ts.session.LoadProfile(t.Context())
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_LoadProfileFailure(t *testing.T) {
	srv := newFakeAPI(t)
	ts := newTestSession(t, srv.URL, "expired")
	ts.session.Start(t.Context())

	err := ts.session.LoadProfile(t.Context())
	require.True(t, IsKind(err, KindHTTPStatus))
	require.Equal(t, StateTokenObtained, ts.session.State())
}

func TestSession_Logout(t *testing.T) {
	srv := newFakeAPI(t)
	ts := newTestSession(t, srv.URL, "tok")
	ts.session.Start(t.Context())
	require.NoError(t, ts.session.LoadProfile(t.Context()))

	listEvents, unsubscribe := ts.bus.Subscribe(ImagesListDidChange)
	defer unsubscribe()

	require.NoError(t, ts.session.Logout(t.Context()))
	require.Equal(t, StateNoToken, ts.session.State())

	_, ok := ts.storage.Token(t.Context())
	require.False(t, ok)
	_, err := ts.repo.Get(t.Context())
	require.Error(t, err)

	_, ok = ts.profile.Profile()
	require.False(t, ok)
	_, ok = ts.avatar.AvatarURL()
	require.False(t, ok)
	require.Empty(t, ts.imagesList.Photos())
	_, ok = ts.imagesList.LastLoadedPage()
	require.False(t, ok)

	require.Equal(t, 0, receive(t, listEvents).Count)
}

func TestProfileLogoutService_ContinuesAfterTokenError(t *testing.T) {
	srv := newFakeAPI(t)
	ts := newTestSession(t, srv.URL, "tok")
	ts.session.Start(t.Context())
	require.NoError(t, ts.session.LoadProfile(t.Context()))

	ts.repo.deleteFunc = func() error { return errors.New("disk full") }

	err := ts.session.Logout(t.Context())
	require.Error(t, err)
	require.Equal(t, StateNoToken, ts.session.State())
	require.Empty(t, ts.imagesList.Photos())
	_, ok := ts.profile.Profile()
	require.False(t, ok)
}

func TestSession_NewerCodeKeepsAuthorization(t *testing.T) {
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") == "first" {
			received <- struct{}{}
			<-r.Context().Done()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer srv.Close()

	ts := newTestSession(t, srv.URL, "")

	done := make(chan error, 1)
	go func() {
		done <- ts.session.Authorize(context.Background(), "first")
	}()
	<-received

	require.NoError(t, ts.session.Authorize(t.Context(), "second"))
	require.Equal(t, StateTokenObtained, ts.session.State())

	firstErr := <-done
	require.ErrorIs(t, firstErr, ErrCodeSuperseded)
	require.True(t, IsSilent(firstErr))
	require.Equal(t, StateTokenObtained, ts.session.State())

	token, ok := ts.storage.Token(t.Context())
	require.True(t, ok)
	require.Equal(t, "tok", token)
}

func TestSession_LogoutDuringPageFetch(t *testing.T) {
	received := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(photosJSON("a", "b")))
	}))
	defer srv.Close()

	ts := newTestSession(t, srv.URL, "tok")
	ts.session.Start(t.Context())

	done := make(chan error, 1)
	go func() {
		done <- ts.imagesList.FetchPhotosNextPage(context.Background(), "tok")
	}()
	<-received

	require.NoError(t, ts.session.Logout(t.Context()))
	require.ErrorIs(t, <-done, ErrFeedReset)

	_, ok := ts.storage.Token(t.Context())
	require.False(t, ok)
	require.Empty(t, ts.imagesList.Photos())
	_, ok = ts.imagesList.LastLoadedPage()
	require.False(t, ok)
}
