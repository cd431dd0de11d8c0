package cmd

import (
	"fmt"
	"io"
	"net/url"

	"image-feed/internal/presenter"
)

// terminalFeedView prints feed updates
type terminalFeedView struct {
	out    io.Writer
	failed bool
}

func (v *terminalFeedView) UpdateTableView(oldCount, newCount int) {
	if newCount == oldCount {
		return
	}
	fmt.Fprintf(v.out, "%d photos loaded\n", newCount)
}

func (v *terminalFeedView) ShowErrorAlert() {
	v.failed = true
	fmt.Fprintln(v.out, "Something went wrong. Please try again later.")
}

func (v *terminalFeedView) ShowSingleImage(url string) {
	fmt.Fprintf(v.out, "Full image: %s\n", url)
}

func (v *terminalFeedView) printRow(i int, row presenter.Row) {
	like := " "
	if row.IsLiked {
		like = "♥"
	}
	date := row.Date
	if date == "" {
		date = "-"
	}
	fmt.Fprintf(v.out, "%3d %s %-12s %5dx%-5d %-20s %s\n",
		i+1, like, row.ID, row.Size.Width, row.Size.Height, date, row.ImageURL)
}

// terminalProfileView prints the profile card
type terminalProfileView struct {
	out io.Writer
}

func (v *terminalProfileView) UpdateProfileDetails(name, loginName, bio string) {
	fmt.Fprintf(v.out, "%s\n%s\n\n%s\n", name, loginName, bio)
}

func (v *terminalProfileView) UpdateAvatar(avatarURL *url.URL) {
	if avatarURL == nil {
		fmt.Fprintln(v.out, "Avatar: none")
		return
	}
	fmt.Fprintf(v.out, "Avatar: %s\n", avatarURL)
}
