package api

import "time"

// User is the profile record the backend returns with every auth flow.
type User struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Role            string     `json:"role"`
	Bio             string     `json:"bio"`
	ProfileImageURL string     `json:"profile_image_url"`
	IsVerified      bool       `json:"is_verified"`
	FaceRegistered  bool       `json:"face_registered"`
	DateJoined      *time.Time `json:"date_joined,omitempty"`
}

// DisplayName prefers the real name and falls back to the username.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// ArtworkImage is one gallery image attached to an artwork.
type ArtworkImage struct {
	ID        int64  `json:"id"`
	URL       string `json:"image"`
	IsPrimary bool   `json:"is_primary"`
}

// Artwork is a single piece listed in the gallery.
type Artwork struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Description  string         `json:"description"`
	Price        string         `json:"price"`
	Currency     string         `json:"currency"`
	ArtistID     int64          `json:"artist_id"`
	ArtistName   string         `json:"artist_name"`
	Category     string         `json:"category"`
	Medium       string         `json:"medium"`
	Dimensions   string         `json:"dimensions"`
	YearCreated  int            `json:"year_created"`
	Status       string         `json:"status"`
	Available    bool           `json:"available"`
	Tags         []string       `json:"tags"`
	PrimaryImage string         `json:"primary_image"`
	Images       []ArtworkImage `json:"images"`
	LikesCount   int            `json:"likes_count"`
	ViewsCount   int            `json:"views_count"`
}

// ArtworkList is the paginated gallery response.
type ArtworkList struct {
	Count    int64     `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Artwork `json:"results"`
}

// Artist is a seller profile in the directory.
type Artist struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Bio             string `json:"bio"`
	ProfileImageURL string `json:"profile_image_url"`
	FollowersCount  int    `json:"followers_count"`
	ArtworksCount   int    `json:"artworks_count"`
}

// ArtistList is the paginated artist directory response.
type ArtistList struct {
	Count    int64    `json:"count"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Results  []Artist `json:"results"`
}

// Comment is one visitor comment on an artwork.
type Comment struct {
	ID        int64      `json:"id"`
	Author    string     `json:"author"`
	Text      string     `json:"comment"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// OrderItem is one purchased artwork inside an order.
type OrderItem struct {
	ID       int64   `json:"id"`
	Artwork  Artwork `json:"artwork"`
	Quantity int     `json:"quantity"`
	Price    string  `json:"price"`
}

// Order is a purchase record.
type Order struct {
	ID         int64       `json:"id"`
	Status     string      `json:"status"`
	TotalPrice string      `json:"total_price"`
	Items      []OrderItem `json:"items"`
	CreatedAt  *time.Time  `json:"created_at,omitempty"`
}

// OrderList is the paginated purchase history response.
type OrderList struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Order `json:"results"`
}
