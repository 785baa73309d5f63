package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ArtworkQuery narrows a gallery listing.
type ArtworkQuery struct {
	Search   string
	Category string
	Ordering string
	Page     int
}

func (q ArtworkQuery) values() url.Values {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Ordering != "" {
		values.Set("ordering", q.Ordering)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values
}

// CommentRequest posts one comment on an artwork.
type CommentRequest struct {
	Comment string `json:"comment"`
}

// LikeResponse reports the new like state after toggling.
type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// ArtworkCreate is the payload for listing a new piece.
type ArtworkCreate struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price" validate:"required"`
	Currency    string   `json:"currency,omitempty"`
	Category    string   `json:"category,omitempty"`
	Medium      string   `json:"medium,omitempty"`
	Dimensions  string   `json:"dimensions,omitempty"`
	YearCreated int      `json:"year_created,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ListArtworks pages through the gallery.
func (c *Client) ListArtworks(ctx context.Context, query ArtworkQuery) (*ArtworkList, error) {
	var out ArtworkList
	if err := c.get(ctx, "/artworks/", query.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetArtwork fetches one piece by id.
func (c *Client) GetArtwork(ctx context.Context, id int64) (*Artwork, error) {
	var out Artwork
	if err := c.get(ctx, fmt.Sprintf("/artworks/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateArtwork lists a new piece for the authenticated artist.
func (c *Client) CreateArtwork(ctx context.Context, req ArtworkCreate) (*Artwork, error) {
	var out Artwork
	if err := c.post(ctx, "/artworks/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateArtwork patches an existing piece.
func (c *Client) UpdateArtwork(ctx context.Context, id int64, req ArtworkCreate) (*Artwork, error) {
	var out Artwork
	if err := c.patch(ctx, fmt.Sprintf("/artworks/%d/", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteArtwork removes a listing.
func (c *Client) DeleteArtwork(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/artworks/%d/", id))
}

// LikeArtwork toggles the like flag.
func (c *Client) LikeArtwork(ctx context.Context, id int64) (*LikeResponse, error) {
	var out LikeResponse
	if err := c.post(ctx, fmt.Sprintf("/artworks/%d/like/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListComments fetches an artwork's comment thread.
func (c *Client) ListComments(ctx context.Context, id int64) ([]Comment, error) {
	var out []Comment
	if err := c.get(ctx, fmt.Sprintf("/artworks/%d/comments/", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddComment appends to an artwork's comment thread.
func (c *Client) AddComment(ctx context.Context, id int64, text string) (*Comment, error) {
	var out Comment
	if err := c.post(ctx, fmt.Sprintf("/artworks/%d/comments/", id), CommentRequest{Comment: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
