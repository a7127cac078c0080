package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project string
		name    string
		want    string
	}{
		{project: "vh-prod", name: "vh-order-events", want: "projects/vh-prod/topics/vh-order-events"},
		{project: "vh-prod", name: " projects/other/topics/x ", want: "projects/other/topics/x"},
		{project: "", name: "vh-order-events", want: ""},
		{project: "vh-prod", name: "  ", want: ""},
	}
	for _, tc := range cases {
		if got := topicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("topicResourceName(%q,%q) = %q want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestNewClientRequiresProjectAndTopic(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, []string{"t"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
	if _, err := NewClient(context.Background(), config.GCPConfig{ProjectID: "p"}, []string{" ", ""}, nil); err != errTopicRequired {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestClientOptionsPreferInlineCredentials(t *testing.T) {
	if got := clientOptions(config.GCPConfig{}); len(got) != 0 {
		t.Fatalf("expected default credentials, got %d options", len(got))
	}
	both := config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/key.json"}
	if got := clientOptions(both); len(got) != 1 {
		t.Fatalf("expected exactly one credentials option, got %d", len(got))
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("x") != nil {
		t.Fatal("nil client should not return a publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("ping on nil client should fail")
	}
}
