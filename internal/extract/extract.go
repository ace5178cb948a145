// Package extract turns free-form issue discussion into structured bug
// attributes, one record per analyzable text.
package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bugout-ai/bugout/internal/github"
	"github.com/bugout-ai/bugout/internal/llm"
	"github.com/bugout-ai/bugout/internal/parser"
)

const systemPrompt = "You are an inference engine that processes text and outputs strict json " +
	"with the following labels to the dict object: software version, platform, bug behaviour, " +
	"crash, user frustration, technical description, input data, expected behaviour. " +
	"You are not conversational."

// Features are the structured attributes extracted from one text.
type Features struct {
	SoftwareVersion      string `json:"software_version,omitempty"`
	Platform             string `json:"platform,omitempty"`
	BugBehaviour         string `json:"bug_behaviour,omitempty"`
	Crash                bool   `json:"crash,omitempty"`
	UserFrustration      string `json:"user_frustration,omitempty"`
	TechnicalDescription string `json:"technical_description,omitempty"`
	InputData            string `json:"input_data,omitempty"`
	ExpectedBehaviour    string `json:"expected_behaviour,omitempty"`
}

// Report couples one text's provenance with its extracted features.
type Report struct {
	Source    string `json:"source"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at,omitempty"`
	Features
}

// Result is the feature-extraction artifact (bugs_with_features.json).
type Result struct {
	IssueNumber int      `json:"issue_number"`
	IssueTitle  string   `json:"issue_title"`
	Processed   int      `json:"processed"`
	Skipped     int      `json:"skipped"`
	Reports     []Report `json:"bugs_with_features"`
}

// Extractor runs the extraction model over issue texts.
type Extractor struct {
	Client llm.Client

	// Progress, when set, is called after each processed text.
	Progress func(current, total int)
}

// Run extracts features for every text. A failed extraction skips the text;
// it never fails the stage, since later stages aggregate whatever was
// extracted.
func (e *Extractor) Run(ctx context.Context, issue *github.Issue) (*Result, error) {
	texts := issue.Texts()
	result := &Result{
		IssueNumber: issue.Number,
		IssueTitle:  issue.Title,
	}

	for i, t := range texts {
		features, err := e.extractOne(ctx, t.Text)
		if err != nil {
			result.Skipped++
		} else {
			result.Reports = append(result.Reports, Report{
				Source:    t.Source,
				Author:    t.Author,
				CreatedAt: t.CreatedAt,
				Features:  *features,
			})
			result.Processed++
		}
		if e.Progress != nil {
			e.Progress(i+1, len(texts))
		}
	}

	if result.Processed == 0 && len(texts) > 0 {
		return nil, fmt.Errorf("feature extraction failed for all %d text(s)", len(texts))
	}
	return result, nil
}

func (e *Extractor) extractOne(ctx context.Context, text string) (*Features, error) {
	reply, err := e.Client.Complete(ctx, llm.Request{
		System:    systemPrompt,
		Prompt:    text,
		MaxTokens: 256,
	})
	if err != nil {
		return nil, err
	}

	payload, err := parser.ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	var features Features
	if err := json.Unmarshal([]byte(payload), &features); err != nil {
		return nil, fmt.Errorf("model reply is not valid feature JSON: %w", err)
	}
	return &features, nil
}
