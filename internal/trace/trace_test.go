package trace

import (
	"context"
	"testing"
)

func TestWithCopiesInsteadOfMutating(t *testing.T) {
	t.Parallel()

	parent := New("Ev123", "T1", "message")
	child := parent.With("file_id", "F1")
	grandchild := child.With("mime_type", "image/png")

	if parent.Field("file_id") != "" {
		t.Fatalf("parent gained a child field")
	}
	if child.Field("mime_type") != "" {
		t.Fatalf("child gained a grandchild field")
	}
	if grandchild.Field("file_id") != "F1" || grandchild.Field("mime_type") != "image/png" {
		t.Fatalf("grandchild missing inherited fields")
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	tc := New("Ev1", "T1", "command").With("mode", "chat")
	ctx := WithContext(context.Background(), tc)

	got := FromContext(ctx)
	if got.EventID != "Ev1" || got.TeamID != "T1" || got.Kind != "command" {
		t.Fatalf("identifiers lost in round trip: %+v", got)
	}
	if got.Field("mode") != "chat" {
		t.Fatalf("enrichment field lost in round trip")
	}
}

func TestFromContextZeroValue(t *testing.T) {
	t.Parallel()

	got := FromContext(context.Background())
	if got.EventID != "" || len(got.Attrs()) != 3 {
		t.Fatalf("expected zero-value context, got %+v", got)
	}
}

func TestAttrsIncludeSortedFields(t *testing.T) {
	t.Parallel()

	tc := New("Ev1", "T1", "message").With("zz", "1").With("aa", "2")
	attrs := tc.Attrs()
	// event_id, team_id, event_kind plus two enrichment fields
	if len(attrs) != 5 {
		t.Fatalf("expected 5 attrs, got %d", len(attrs))
	}
}
