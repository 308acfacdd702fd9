package pubsub

import (
	"context"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	t.Parallel()

	c := &Client{projectID: "lekhapadi-prod"}
	cases := map[string]string{
		"document-events":                       "projects/lekhapadi-prod/topics/document-events",
		"  document-events  ":                   "projects/lekhapadi-prod/topics/document-events",
		"projects/other/topics/document-events": "projects/other/topics/document-events",
		"":                                      "",
	}
	for in, want := range cases {
		if got := c.topicResourceName(in); got != want {
			t.Fatalf("topicResourceName(%q) = %q, want %q", in, got, want)
		}
	}

	var nilClient *Client
	if nilClient.topicResourceName("x") != "" {
		t.Fatalf("nil client should produce empty name")
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{DocumentsTopic: "t"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func TestNilClientHandles(t *testing.T) {
	t.Parallel()

	var c *Client
	if c.Publisher("topic") != nil {
		t.Fatalf("nil client should not return a publisher")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client should be a no-op: %v", err)
	}
}

func TestPublisherWithoutProjectIsNil(t *testing.T) {
	t.Parallel()

	c := &Client{publishers: map[string]*pubsub.Publisher{}}
	if c.Publisher("document-events") != nil {
		t.Fatalf("expected nil publisher when the topic cannot be resolved")
	}
	if len(c.publishers) != 0 {
		t.Fatalf("unresolved topics must not be cached")
	}
}
