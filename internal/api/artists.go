package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ArtistQuery narrows the artist directory listing.
type ArtistQuery struct {
	Search string
	Page   int
}

func (q ArtistQuery) values() url.Values {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values
}

// FollowResponse reports the new follow state after toggling.
type FollowResponse struct {
	Following      bool `json:"following"`
	FollowersCount int  `json:"followers_count"`
}

// ListArtists pages through the artist directory.
func (c *Client) ListArtists(ctx context.Context, query ArtistQuery) (*ArtistList, error) {
	var out ArtistList
	if err := c.get(ctx, "/artists/", query.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetArtist fetches one seller profile.
func (c *Client) GetArtist(ctx context.Context, id int64) (*Artist, error) {
	var out Artist
	if err := c.get(ctx, fmt.Sprintf("/artists/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FollowArtist toggles following a seller.
func (c *Client) FollowArtist(ctx context.Context, id int64) (*FollowResponse, error) {
	var out FollowResponse
	if err := c.post(ctx, fmt.Sprintf("/artists/%d/follow/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListArtistArtworks pages through one seller's pieces.
func (c *Client) ListArtistArtworks(ctx context.Context, id int64, query ArtworkQuery) (*ArtworkList, error) {
	var out ArtworkList
	if err := c.get(ctx, fmt.Sprintf("/artists/%d/artworks/", id), query.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
