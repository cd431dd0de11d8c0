package presenter

import (
	"context"
	"sync"
	"time"

	"image-feed/internal/models"
	"image-feed/internal/services"

	"github.com/rs/zerolog/log"
)

const longDateLayout = "January 2, 2006"

// ImagesListView renders the feed
type ImagesListView interface {
	UpdateTableView(oldCount, newCount int)
	ShowErrorAlert()
	ShowSingleImage(url string)
}

// Row is everything a view needs to draw one feed row
type Row struct {
	ID       string
	ImageURL string
	Date     string
	Size     models.Size
	IsLiked  bool
}

// ImagesListPresenter drives an ImagesListView from the images list service
type ImagesListPresenter struct {
	view       ImagesListView
	imagesList *services.ImagesListService
	storage    *services.TokenStorage
	images     *services.ImageCache
	bus        *services.EventBus
	location   *time.Location

	mu    sync.Mutex
	shown int
}

// NewImagesListPresenter creates a new images list presenter
func NewImagesListPresenter(
	view ImagesListView,
	imagesList *services.ImagesListService,
	storage *services.TokenStorage,
	images *services.ImageCache,
	bus *services.EventBus,
) *ImagesListPresenter {
	return &ImagesListPresenter{
		view:       view,
		imagesList: imagesList,
		storage:    storage,
		images:     images,
		bus:        bus,
		location:   time.Local,
	}
}

// Photos returns the photos currently in the feed
func (p *ImagesListPresenter) Photos() []models.Photo {
	return p.imagesList.Photos()
}

// ViewDidLoad requests the first page
func (p *ImagesListPresenter) ViewDidLoad(ctx context.Context) {
	p.fetchNextPage(ctx)
}

// ViewWillAppear drops decoded images, redraws, and refetches an empty feed
func (p *ImagesListPresenter) ViewWillAppear(ctx context.Context) {
	if p.images != nil {
		p.images.ClearMemoryCache()
	}
	p.Refresh()

	if len(p.imagesList.Photos()) == 0 {
		p.fetchNextPage(ctx)
	}
}

// WillDisplayRow fetches the next page when the last row becomes visible
func (p *ImagesListPresenter) WillDisplayRow(ctx context.Context, row int) {
	if row == len(p.imagesList.Photos())-1 {
		p.fetchNextPage(ctx)
	}
}

// DidSelectRow opens the full-size image of a row
func (p *ImagesListPresenter) DidSelectRow(row int) {
	photos := p.imagesList.Photos()
	if row < 0 || row >= len(photos) {
		return
	}
	p.view.ShowSingleImage(photos[row].FullImageURL)
}

// DidTapLike toggles the like of a row
func (p *ImagesListPresenter) DidTapLike(ctx context.Context, row int) {
	photos := p.imagesList.Photos()
	if row < 0 || row >= len(photos) {
		return
	}
	photo := photos[row]

	token, ok := p.storage.Token(ctx)
	if !ok {
		p.view.ShowErrorAlert()
		return
	}

	if err := p.imagesList.ChangeLike(ctx, token, photo.ID, !photo.IsLiked); err != nil {
		log.Error().Err(err).Str("photo_id", photo.ID).Msg("Like not changed")
		p.view.ShowErrorAlert()
		return
	}
	p.Refresh()
}

// ConfigureRow returns the row model for a row index
func (p *ImagesListPresenter) ConfigureRow(row int) (Row, bool) {
	photos := p.imagesList.Photos()
	if row < 0 || row >= len(photos) {
		return Row{}, false
	}
	photo := photos[row]
	return Row{
		ID:       photo.ID,
		ImageURL: photo.RegularImageURL,
		Date:     p.FormatDate(photo),
		Size:     photo.Size,
		IsLiked:  photo.IsLiked,
	}, true
}

// FormatDate renders the creation date in long style, or "" when unknown
func (p *ImagesListPresenter) FormatDate(photo models.Photo) string {
	if photo.CreatedAt == nil {
		return ""
	}
	return photo.CreatedAt.In(p.location).Format(longDateLayout)
}

// Listen forwards feed changes to the view until ctx is done
func (p *ImagesListPresenter) Listen(ctx context.Context) {
	events, unsubscribe := p.bus.Subscribe(services.ImagesListDidChange)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			p.Refresh()
		}
	}
}

// Refresh tells the view how many rows it had and how many it has now
func (p *ImagesListPresenter) Refresh() {
	newCount := len(p.imagesList.Photos())

	p.mu.Lock()
	oldCount := p.shown
	p.shown = newCount
	p.mu.Unlock()

	p.view.UpdateTableView(oldCount, newCount)
}

func (p *ImagesListPresenter) fetchNextPage(ctx context.Context) {
	token, ok := p.storage.Token(ctx)
	if !ok {
		return
	}
	if err := p.imagesList.FetchPhotosNextPage(ctx, token); err != nil {
		if services.IsSilent(err) {
			return
		}
		log.Error().Err(err).Msg("Next page not loaded")
		p.view.ShowErrorAlert()
	}
}
