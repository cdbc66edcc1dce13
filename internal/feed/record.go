package feed

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"
)

// SecretBytes is the entropy of generated feed secrets.
const SecretBytes = 32

// Record is a feed the application subscribes to through the hub.
type Record struct {
	ID             string
	URL            string
	Secret         string
	Title          string
	CreatedAt      time.Time
	LastNotifiedAt *time.Time
}

// FeedID returns the identifier used in the callback path.
func (r *Record) FeedID() string { return r.ID }

// FeedURL returns the topic URL.
func (r *Record) FeedURL() string { return r.URL }

// FeedSecret returns the shared HMAC secret.
func (r *Record) FeedSecret() string { return r.Secret }

func (r *Record) String() string {
	if r == nil {
		return "feed#<nil>"
	}
	if r.URL == "" {
		return "feed#" + r.ID
	}
	return fmt.Sprintf("feed#%s (%s)", r.ID, r.URL)
}

// Notification is one verified payload delivered for a feed.
type Notification struct {
	ID         string
	FeedID     string
	Params     url.Values
	Body       []byte
	ReceivedAt time.Time
}

// GenerateSecret returns a random hex secret of SecretBytes bytes.
func GenerateSecret() (string, error) {
	buf := make([]byte, SecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate feed secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
