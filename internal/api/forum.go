package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/artvinci/artvinci-go/pkg/validate"
)

// Category is one forum board (general, showcase, help, ...).
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	TopicsCount int    `json:"topics_count"`
}

// Reply is one answer inside a topic thread.
type Reply struct {
	ID           int64      `json:"id"`
	Content      string     `json:"content"`
	Author       *User      `json:"author"`
	HelpfulCount int        `json:"helpful_count"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// Topic is one forum discussion. The detail endpoint inlines the replies;
// list responses carry only the count.
type Topic struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     int64      `json:"category"`
	Author       *User      `json:"author"`
	Replies      []Reply    `json:"replies"`
	RepliesCount int        `json:"replies_count"`
	ViewsCount   int        `json:"views_count"`
	HelpfulCount int        `json:"helpful_count"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// TopicList is the paginated forum listing response.
type TopicList struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Topic `json:"results"`
}

// TopicQuery narrows the forum listing.
type TopicQuery struct {
	Category int64
	Page     int
}

func (q TopicQuery) values() url.Values {
	values := url.Values{}
	if q.Category > 0 {
		values.Set("category", strconv.FormatInt(q.Category, 10))
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values
}

// CategoryCreate is the payload for opening a new board.
type CategoryCreate struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// TopicCreate is the payload for starting or editing a discussion.
type TopicCreate struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Category int64  `json:"category" validate:"required"`
}

// ReplyCreate is the payload for answering a topic.
type ReplyCreate struct {
	Content string `json:"content" validate:"required"`
}

// HelpfulResponse carries the new vote count after marking something helpful.
type HelpfulResponse struct {
	HelpfulCount int `json:"helpful_count"`
}

// ListCategories fetches all forum boards.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.get(ctx, "/forum/categories/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory opens a new board.
func (c *Client) CreateCategory(ctx context.Context, req CategoryCreate) (*Category, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out Category
	if err := c.post(ctx, "/forum/categories/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTopics pages through the forum, optionally within one board.
func (c *Client) ListTopics(ctx context.Context, query TopicQuery) (*TopicList, error) {
	var out TopicList
	if err := c.get(ctx, "/forum/topics/", query.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTopic fetches one discussion with its replies inlined.
func (c *Client) GetTopic(ctx context.Context, id int64) (*Topic, error) {
	var out Topic
	if err := c.get(ctx, fmt.Sprintf("/forum/topics/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTopic starts a discussion.
func (c *Client) CreateTopic(ctx context.Context, req TopicCreate) (*Topic, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out Topic
	if err := c.post(ctx, "/forum/topics/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTopic edits the author's own discussion.
func (c *Client) UpdateTopic(ctx context.Context, id int64, req TopicCreate) (*Topic, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out Topic
	if err := c.patch(ctx, fmt.Sprintf("/forum/topics/%d/", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTopic removes a discussion.
func (c *Client) DeleteTopic(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/forum/topics/%d/", id))
}

// CreateReply answers a topic.
func (c *Client) CreateReply(ctx context.Context, topicID int64, req ReplyCreate) (*Reply, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out Reply
	if err := c.post(ctx, fmt.Sprintf("/forum/topics/%d/replies/", topicID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkTopicHelpful bumps the topic's helpful counter.
func (c *Client) MarkTopicHelpful(ctx context.Context, id int64) (*HelpfulResponse, error) {
	var out HelpfulResponse
	if err := c.post(ctx, fmt.Sprintf("/forum/topics/%d/helpful/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkReplyHelpful bumps a reply's helpful counter.
func (c *Client) MarkReplyHelpful(ctx context.Context, id int64) (*HelpfulResponse, error) {
	var out HelpfulResponse
	if err := c.post(ctx, fmt.Sprintf("/forum/replies/%d/helpful/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
