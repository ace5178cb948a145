// Package github fetches issue data through the gh CLI, which handles
// authentication and API plumbing.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Author is a comment or issue author.
type Author struct {
	Login string `json:"login"`
}

// Comment is one issue comment.
type Comment struct {
	Author    Author `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

// Label is an issue label.
type Label struct {
	Name string `json:"name"`
}

// Issue is the subset of issue fields the pipeline consumes.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    Author    `json:"author"`
	CreatedAt string    `json:"createdAt"`
	State     string    `json:"state"`
	Labels    []Label   `json:"labels"`
	Comments  []Comment `json:"comments"`
}

// Text is one analyzable unit of issue discussion: the issue body or a
// single comment.
type Text struct {
	Source    string `json:"source"` // "issue_body" or "comment"
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
}

// FetchIssue retrieves an issue with all comments via `gh issue view`. It
// returns both the decoded issue and the raw JSON for artifact persistence.
func FetchIssue(ctx context.Context, repo, issueNumber string) (*Issue, []byte, error) {
	cmd := exec.CommandContext(ctx, "gh", "issue", "view", issueNumber,
		"--repo", repo,
		"--json", "number,title,body,author,createdAt,comments,labels,state")
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, nil, fmt.Errorf("gh issue view %s#%s: %s: %w",
			repo, issueNumber, strings.TrimSpace(stderr.String()), err)
	}

	var issue Issue
	if err := json.Unmarshal(out.Bytes(), &issue); err != nil {
		return nil, nil, fmt.Errorf("unexpected gh output for %s#%s: %w", repo, issueNumber, err)
	}
	return &issue, out.Bytes(), nil
}

// Texts flattens the issue body and every non-empty comment into analyzable
// units, in posting order.
func (i *Issue) Texts() []Text {
	var texts []Text
	if strings.TrimSpace(i.Body) != "" {
		texts = append(texts, Text{
			Source:    "issue_body",
			Author:    i.Author.Login,
			CreatedAt: i.CreatedAt,
			Text:      i.Body,
		})
	}
	for _, c := range i.Comments {
		if strings.TrimSpace(c.Body) == "" {
			continue
		}
		texts = append(texts, Text{
			Source:    "comment",
			Author:    c.Author.Login,
			CreatedAt: c.CreatedAt,
			Text:      c.Body,
		})
	}
	return texts
}

// Commenters returns the distinct comment authors, in first-seen order.
// These are the reviewer candidates.
func (i *Issue) Commenters() []string {
	seen := make(map[string]struct{})
	var logins []string
	for _, c := range i.Comments {
		login := strings.TrimSpace(c.Author.Login)
		if login == "" {
			continue
		}
		if _, ok := seen[login]; ok {
			continue
		}
		seen[login] = struct{}{}
		logins = append(logins, login)
	}
	return logins
}
