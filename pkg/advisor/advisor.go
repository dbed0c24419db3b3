package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/autorecon/pkg/engine"
)

// Provider turns a prompt into prose.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Advisor asks a language model to explain exposure drift for an operator.
type Advisor struct {
	provider Provider
}

func New(p Provider) *Advisor {
	return &Advisor{provider: p}
}

// Explain returns a short narrative about diff for target.
func (a *Advisor) Explain(ctx context.Context, target string, diff engine.DiffResult) (string, error) {
	text, err := a.provider.Generate(ctx, BuildPrompt(target, diff))
	if err != nil {
		return "", fmt.Errorf("advisor: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// BuildPrompt renders the drift for target as a model prompt.
func BuildPrompt(target string, diff engine.DiffResult) string {
	var sb strings.Builder
	sb.WriteString("You are assisting an infrastructure security audit.\n")
	sb.WriteString(fmt.Sprintf("A periodic port scan of %s differs from its trusted baseline.\n\n", target))

	sb.WriteString("Newly open services (port/service):\n")
	writeIDs(&sb, diff.Added)
	sb.WriteString("\nServices no longer open:\n")
	writeIDs(&sb, diff.Removed)

	sb.WriteString("\nFor each newly open service, state in one or two sentences the likely risk ")
	sb.WriteString("and what an operator should verify. Do not speculate about software versions. ")
	sb.WriteString("Keep the answer under 200 words.\n")
	return sb.String()
}

func writeIDs(sb *strings.Builder, s engine.Snapshot) {
	if s.Len() == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	for _, id := range s.Strings() {
		sb.WriteString("  - " + id + "\n")
	}
}
