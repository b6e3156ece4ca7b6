package counselor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/tawjihai/tawjih/internal/i18n"
	"github.com/tawjihai/tawjih/internal/model"
	"github.com/tawjihai/tawjih/internal/store"
)

type recordingResponder struct {
	history []model.AiMessage
	reply   string
	err     error
}

func (r *recordingResponder) Respond(_ context.Context, history []model.AiMessage, _ string) (string, error) {
	r.history = history
	return r.reply, r.err
}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s := store.New()
	return NewService(s, NewKeywordResponder(), NewRandomResponder(rand.New(rand.NewPCG(9, 9)))), s
}

func TestKeywordMatch(t *testing.T) {
	k := NewKeywordResponder()
	tests := []struct {
		message string
		want    Reply
	}{
		{"Which UNIVERSITY should I pick?", ReplyUniversity},
		{"high school options", ReplyUniversity},
		{"I'm so confused", ReplyUncertain},
		{"Tell me about Software jobs", ReplySoftware},
		{"is programming hard", ReplySoftware},
		{"what are my skills", ReplySkills},
		{"analytics careers", ReplySkills},
		{"hello", ReplyDefault},
		{"", ReplyDefault},
		// Earlier rules win.
		{"software at university", ReplyUniversity},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := k.Match(tt.message); got.ID != tt.want.ID {
				t.Errorf("Match(%q) = %s, want %s", tt.message, got.ID, tt.want.ID)
			}
		})
	}
}

func TestRandomResponderDrawsFromCannedSet(t *testing.T) {
	rr := NewRandomResponder(rand.New(rand.NewPCG(1, 1)))
	valid := map[string]bool{}
	for _, r := range CannedReplies {
		valid[r.Text] = true
	}
	seen := map[string]bool{}
	for range 100 {
		got, err := rr.Respond(context.Background(), nil, "software")
		if err != nil {
			t.Fatal(err)
		}
		if !valid[got] {
			t.Fatalf("unexpected reply %q", got)
		}
		seen[got] = true
	}
	if len(seen) < 2 {
		t.Error("expected more than one distinct reply")
	}
}

func TestAnonymousChatIsNotPersisted(t *testing.T) {
	svc, s := newTestService(t)

	for range 5 {
		if _, err := svc.Respond(context.Background(), 0, "software"); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(s.ListConversations(0)); n != 0 {
		t.Errorf("expected no conversations for anonymous user, got %d", n)
	}
	if _, err := s.GetConversation(1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected no conversation records, got %v", err)
	}
}

func TestAuthenticatedSoftwareReply(t *testing.T) {
	svc, s := newTestService(t)

	got, err := svc.Respond(context.Background(), 7, "I like Software")
	if err != nil {
		t.Fatal(err)
	}
	if got != ReplySoftware.Text {
		t.Errorf("expected software reply, got %q", got)
	}

	convs := s.ListConversations(7)
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	msgs := convs[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "I like Software" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content != ReplySoftware.Text {
		t.Errorf("unexpected assistant message: %+v", msgs[1])
	}
}

func TestConversationIsReused(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, m := range []string{"hi", "school?", "skills?"} {
		if _, err := svc.Respond(ctx, 3, m); err != nil {
			t.Fatal(err)
		}
	}
	convs := svc.Conversations(ctx, 3)
	if len(convs) != 1 || len(convs[0].Messages) != 6 {
		t.Errorf("expected one conversation with 6 messages, got %d conversations", len(convs))
	}
	if other := svc.Conversations(ctx, 4); other == nil || len(other) != 0 {
		t.Errorf("expected empty list for other user, got %v", other)
	}
}

func TestHistoryWindow(t *testing.T) {
	s := store.New()
	rec := &recordingResponder{reply: "ok"}
	svc := NewService(s, rec, rec)
	ctx := context.Background()

	if _, err := svc.Respond(ctx, 1, "first"); err != nil {
		t.Fatal(err)
	}
	if len(rec.history) != 0 {
		t.Errorf("expected empty history on first message, got %d", len(rec.history))
	}

	for i := range 10 {
		if _, err := svc.Respond(ctx, 1, fmt.Sprintf("m%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if len(rec.history) != DefaultHistorySize {
		t.Fatalf("expected %d history messages, got %d", DefaultHistorySize, len(rec.history))
	}
	if last := rec.history[len(rec.history)-1]; last.Role != model.RoleAssistant {
		t.Errorf("expected last history entry to be the previous reply, got %+v", last)
	}
}

func TestResponderFailureFallsBack(t *testing.T) {
	s := store.New()
	rec := &recordingResponder{err: errors.New("upstream down")}
	svc := NewService(s, rec, rec)

	got, err := svc.Respond(context.Background(), 1, "hello")
	if err != nil {
		t.Fatalf("expected graceful fallback, got %v", err)
	}
	if got != ReplyFallback.Text {
		t.Errorf("expected fallback reply, got %q", got)
	}
	convs := s.ListConversations(1)
	if len(convs) != 1 || len(convs[0].Messages) != 1 {
		t.Errorf("expected only the user message stored, got %+v", convs)
	}
}

func TestEmptyMessageRejected(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Respond(context.Background(), 1, "   "); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestLocalizedReply(t *testing.T) {
	if err := i18n.Init("en"); err != nil {
		t.Fatal(err)
	}
	ctx := i18n.WithLocalizer(context.Background(), i18n.NewLocalizer("fr"))

	got, err := NewKeywordResponder().Respond(ctx, nil, "programming")
	if err != nil {
		t.Fatal(err)
	}
	if got == ReplySoftware.Text || got == "" {
		t.Errorf("expected French reply, got %q", got)
	}
}
