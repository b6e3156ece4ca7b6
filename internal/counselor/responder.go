package counselor

import (
	"context"
	"strings"

	"github.com/tawjihai/tawjih/internal/i18n"
	"github.com/tawjihai/tawjih/internal/model"
)

// Responder produces the counselor's reply to a message. history holds the
// most recent earlier messages of the conversation, oldest first.
type Responder interface {
	Respond(ctx context.Context, history []model.AiMessage, message string) (string, error)
}

// Reply is a canned answer. ID selects the localized text; Text is used
// when no translation is available.
type Reply struct {
	ID   string
	Text string
}

func (r Reply) localize(ctx context.Context) string {
	return i18n.TDefault(ctx, r.ID, r.Text)
}

// Canned replies, in English.
var (
	ReplyDefault    = Reply{ID: "CounselorDefault", Text: "That's a great question about careers! Based on your interests, you might want to consider fields like technology, healthcare, or education."}
	ReplyUniversity = Reply{ID: "CounselorUniversity", Text: "I understand your concern about choosing the right university. In Morocco, there are several excellent institutions to consider depending on your chosen field."}
	ReplyUncertain  = Reply{ID: "CounselorUncertain", Text: "It's normal to feel uncertain about your career path. Many successful professionals changed directions multiple times before finding their passion."}
	ReplySoftware   = Reply{ID: "CounselorSoftware", Text: "For the software engineering path in Morocco, I recommend focusing on mathematics, programming languages like Python or JavaScript, and building project experience."}
	ReplySkills     = Reply{ID: "CounselorSkills", Text: "Your quiz results suggest you have strong analytical skills, which are valuable in fields like data science, engineering, and finance."}
	ReplyFallback   = Reply{ID: "CounselorFallback", Text: "I apologize, but I'm having trouble connecting right now. Please try again in a moment."}
)

// CannedReplies is the full set of canned replies.
var CannedReplies = []Reply{ReplyDefault, ReplyUniversity, ReplyUncertain, ReplySoftware, ReplySkills}

// Rule maps any of its keywords to a reply.
type Rule struct {
	Keywords []string
	Reply    Reply
}

// DefaultRules are checked in order; the first rule with a matching keyword wins.
var DefaultRules = []Rule{
	{Keywords: []string{"university", "school"}, Reply: ReplyUniversity},
	{Keywords: []string{"uncertain", "confused"}, Reply: ReplyUncertain},
	{Keywords: []string{"software", "programming"}, Reply: ReplySoftware},
	{Keywords: []string{"skills", "analytics"}, Reply: ReplySkills},
}

// KeywordResponder picks a reply by case-insensitive substring match.
type KeywordResponder struct {
	Rules    []Rule
	Fallback Reply
}

// NewKeywordResponder returns a responder using DefaultRules.
func NewKeywordResponder() *KeywordResponder {
	return &KeywordResponder{Rules: DefaultRules, Fallback: ReplyDefault}
}

// Match returns the reply selected for message.
func (k *KeywordResponder) Match(message string) Reply {
	lower := strings.ToLower(message)
	for _, rule := range k.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Reply
			}
		}
	}
	return k.Fallback
}

// Respond implements Responder.
func (k *KeywordResponder) Respond(ctx context.Context, _ []model.AiMessage, message string) (string, error) {
	return k.Match(message).localize(ctx), nil
}

// RandomResponder ignores the message and picks a canned reply uniformly.
type RandomResponder struct {
	Replies []Reply
	Rand    model.Rand
}

// NewRandomResponder returns a responder drawing from CannedReplies.
func NewRandomResponder(r model.Rand) *RandomResponder {
	return &RandomResponder{Replies: CannedReplies, Rand: r}
}

// Respond implements Responder.
func (rr *RandomResponder) Respond(ctx context.Context, _ []model.AiMessage, _ string) (string, error) {
	return rr.Replies[rr.Rand.IntN(len(rr.Replies))].localize(ctx), nil
}
