// Package pubsub wraps the Pub/Sub v2 client for the outbox publisher.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("at least one pubsub topic is required")
)

// Client publishes to a fixed set of topics that were verified at startup.
type Client struct {
	client    *pubsub.Client
	projectID string
	topics    []string

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewClient dials Pub/Sub and fails unless every topic exists. Explicit
// credentials in gcp win over application default credentials.
func NewClient(ctx context.Context, gcp config.GCPConfig, topics []string, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	names := make([]string, 0, len(topics))
	for _, topic := range topics {
		if name := topicResourceName(projectID, topic); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, errTopicRequired
	}

	psClient, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("dial pubsub: %w", err)
	}
	c := &Client{
		client:     psClient,
		projectID:  projectID,
		topics:     names,
		publishers: make(map[string]*pubsub.Publisher),
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topics", strings.Join(names, ",")), "pubsub.ready")
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

// Publisher returns the shared handle for a topic id or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := topicResourceName(c.projectID, name)
	if full == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.publishers[full]; ok {
		return pub
	}
	pub := c.client.Publisher(full)
	c.publishers[full] = pub
	return pub
}

// Ping checks that every configured topic still exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	for _, topic := range c.topics {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
		switch {
		case status.Code(err) == codes.NotFound:
			return fmt.Errorf("pubsub topic %s does not exist", topic)
		case err != nil:
			return fmt.Errorf("pubsub topic %s: %w", topic, err)
		}
	}
	return nil
}

// Close flushes every publisher before closing the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for _, pub := range c.publishers {
		pub.Stop()
	}
	c.publishers = map[string]*pubsub.Publisher{}
	c.mu.Unlock()
	return c.client.Close()
}

func topicResourceName(projectID, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, "projects/") && strings.Contains(name, "/topics/"):
		return name
	case strings.TrimSpace(projectID) == "":
		return ""
	}
	return "projects/" + strings.TrimSpace(projectID) + "/topics/" + name
}
