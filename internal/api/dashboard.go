package api

import "context"

// MyArtworks lists the authenticated artist's own pieces.
func (c *Client) MyArtworks(ctx context.Context) (*ArtworkList, error) {
	var out ArtworkList
	if err := c.get(ctx, "/dashboard/artworks/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Favorites lists the artworks the authenticated user has liked.
func (c *Client) Favorites(ctx context.Context) (*ArtworkList, error) {
	var out ArtworkList
	if err := c.get(ctx, "/dashboard/favorites/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Purchases lists the authenticated user's past orders.
func (c *Client) Purchases(ctx context.Context) (*OrderList, error) {
	var out OrderList
	if err := c.get(ctx, "/dashboard/purchases/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
