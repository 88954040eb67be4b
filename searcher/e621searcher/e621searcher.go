package e621searcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"

	"github.com/maskgif/maskgif"
	"go.uber.org/zap"
)

// DefaultAPIURL e621 posts endpoint
const DefaultAPIURL = "https://e621.net/posts.json"

// DefaultUserAgent used when the user agent pool is empty
const DefaultUserAgent = "Mozilla/5.0 (compatible; E621MaskMaker/1.0)"

// DefaultUserAgents client identity pool
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:138.0) Gecko/20100101 Firefox/138.0",
}

type postsResponse struct {
	Posts []struct {
		ID   int64 `json:"id"`
		File struct {
			Width  int     `json:"width"`
			Height int     `json:"height"`
			Ext    string  `json:"ext"`
			URL    *string `json:"url"`
		} `json:"file"`
	} `json:"posts"`
}

// E621Searcher queries the e621 posts API for one random post
type E621Searcher struct {
	// The Transport used to request posts.
	// If nil, http.DefaultTransport is used.
	Transport http.RoundTripper

	APIURL     string
	UserAgents []string
	Logger     *zap.Logger

	rand func(n int) int
}

// New creates E621Searcher
func New(options ...Option) *E621Searcher {
	s := &E621Searcher{
		APIURL:     DefaultAPIURL,
		UserAgents: DefaultUserAgents,
		Logger:     zap.NewNop(),
		rand:       rand.Intn,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// UserAgent picks a client identity uniformly from the pool
func (s *E621Searcher) UserAgent() string {
	if len(s.UserAgents) == 0 {
		return DefaultUserAgent
	}
	return s.UserAgents[s.rand(len(s.UserAgents))]
}

// RequestURL builds the search request URL for query
func (s *E621Searcher) RequestURL(q maskgif.Query) (string, error) {
	u, err := url.Parse(s.APIURL)
	if err != nil {
		return "", err
	}
	values := u.Query()
	values.Set("tags", q.String())
	values.Set("limit", "1")
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Search implements maskgif.Searcher interface
func (s *E621Searcher) Search(ctx context.Context, q maskgif.Query) (*maskgif.Post, error) {
	reqURL, err := s.RequestURL(q)
	if err != nil {
		return nil, maskgif.ErrAPI.WithDetail(err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, maskgif.ErrAPI.WithDetail(err.Error())
	}
	req.Header.Set("User-Agent", s.UserAgent())
	req.Header.Set("Accept", "application/json")

	s.Logger.Debug("search", zap.String("tags", q.String()))
	client := &http.Client{Transport: s.Transport}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, maskgif.ErrAPI.WithDetail(err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, maskgif.ErrAPI.WithDetail(strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode))
	}
	var parsed postsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, maskgif.ErrAPI.WithDetail(fmt.Sprintf("decode: %s", err.Error()))
	}
	if len(parsed.Posts) == 0 {
		return nil, maskgif.ErrNoResults
	}
	p := parsed.Posts[0]
	post := &maskgif.Post{
		ID:     p.ID,
		Width:  p.File.Width,
		Height: p.File.Height,
		Ext:    p.File.Ext,
	}
	if p.File.URL != nil {
		post.URL = *p.File.URL
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}
	return post, nil
}
