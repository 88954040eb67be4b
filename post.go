package maskgif

import (
	"strconv"
	"strings"
	"time"
)

// Rating image board content rating
type Rating string

const (
	RatingSafe         Rating = "safe"
	RatingQuestionable Rating = "questionable"
	RatingExplicit     Rating = "explicit"
)

// ParseRating parses rating names and their single letter forms
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "s", "safe":
		return RatingSafe, nil
	case "q", "questionable":
		return RatingQuestionable, nil
	case "e", "explicit":
		return RatingExplicit, nil
	}
	return "", ErrInvalid.WithDetail("rating " + strconv.Quote(s))
}

// Query search query
type Query struct {
	Tags   string `json:"tags"`
	Rating Rating `json:"rating"`
}

// String returns the composite search string sent to the API
func (q Query) String() string {
	rating := q.Rating
	if rating == "" {
		rating = RatingSafe
	}
	return strings.TrimSpace("order:random rating:" + string(rating) + " " + strings.TrimSpace(q.Tags))
}

// AllowedExtensions post file extensions accepted for compositing
var AllowedExtensions = []string{"jpg", "jpeg", "png", "gif"}

// Post remote image board post
type Post struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`
}

// Validate checks file URL, extension and dimensions of the post
func (p *Post) Validate() error {
	if p == nil {
		return ErrNoResults
	}
	ext := strings.ToLower(p.Ext)
	if p.URL == "" {
		return ErrUnsupportedFormat.WithDetail("missing url (" + extOrNA(ext) + ")")
	}
	allowed := false
	for _, a := range AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrUnsupportedFormat.WithDetail(extOrNA(ext))
	}
	if p.Width <= 0 || p.Height <= 0 {
		return ErrUnsupportedFormat.WithDetail(
			"invalid dimensions " + strconv.Itoa(p.Width) + "x" + strconv.Itoa(p.Height))
	}
	return nil
}

// Animated reports whether the post file may carry multiple frames
func (p *Post) Animated() bool {
	return p != nil && strings.EqualFold(p.Ext, "gif")
}

func extOrNA(ext string) string {
	if ext == "" {
		return "N/A"
	}
	return ext
}

// Result encoded pipeline result exposed to output actions
type Result struct {
	Post      *Post     `json:"post"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Keyed     int       `json:"keyed"`
	Warnings  []string  `json:"warnings,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Blob    *Blob    `json:"-"`
	Surface *Surface `json:"-"`
}

// PostID returns post id string, "unknown" if not available
func (r *Result) PostID() string {
	if r == nil || r.Post == nil || r.Post.ID <= 0 {
		return "unknown"
	}
	return strconv.FormatInt(r.Post.ID, 10)
}

// Filename download file name of the result at time t
func (r *Result) Filename(t time.Time) string {
	return "e621-masked-" + r.PostID() + "-" + strconv.FormatInt(t.UnixMilli(), 10) + ".gif"
}
