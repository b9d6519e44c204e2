package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	nats "github.com/nats-io/nats.go"

	"vehicle-intel/pkg/services"
)

const SubjectPrefix = "articles.invalidate."

// Subject is the NATS subject announcing a change to one article.
func Subject(slug string) string {
	return SubjectPrefix + slug
}

type Invalidation struct {
	Slug        string     `json:"slug"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Publisher is the part of *nats.Conn the broadcaster needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// Broadcaster announces published articles so downstream renderers and
// CDNs can drop their copies.
type Broadcaster struct {
	conn Publisher
}

func NewBroadcaster(conn Publisher) *Broadcaster {
	return &Broadcaster{conn: conn}
}

// Connect dials NATS with the options the rest of the stack uses.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url,
		nats.Name("vehicle-intel"),
		nats.Timeout(time.Second*5),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

func (b *Broadcaster) Invalidate(_ context.Context, p services.Published) error {
	data, err := json.Marshal(Invalidation{
		Slug:        p.Article.Slug,
		URL:         p.URL,
		PublishedAt: p.Article.PublishedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := b.conn.Publish(Subject(p.Article.Slug), data); err != nil {
		return fmt.Errorf("publish %s: %w", Subject(p.Article.Slug), err)
	}
	return nil
}
