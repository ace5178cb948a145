// Package report aggregates extracted bug features into a requirements
// document for the fix-proposal stage and for human review.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bugout-ai/bugout/internal/extract"
)

// FrequencyEntry is one value/count pair, counts descending.
type FrequencyEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Analysis holds the frequency distributions and derived summary used to
// render the document (prd.analysis.json).
type Analysis struct {
	IssueID       string                      `json:"issue_id"`
	TotalReports  int                         `json:"total_reports"`
	CrashRatePct  float64                     `json:"crash_rate_pct"`
	Frustration   string                      `json:"dominant_frustration_level"`
	TopPlatform   string                      `json:"top_affected_platform"`
	TopVersion    string                      `json:"top_affected_version"`
	PrimaryBug    string                      `json:"primary_bug_behaviour"`
	Distributions map[string][]FrequencyEntry `json:"frequency_distributions"`
	TextAggregate map[string][]string         `json:"text_aggregates"`
}

// Analyze computes distributions and the summary from extraction results.
func Analyze(result *extract.Result) *Analysis {
	reports := result.Reports

	dist := map[string][]FrequencyEntry{
		"software_version": frequency(reports, func(r extract.Report) string { return r.SoftwareVersion }),
		"platform":         frequency(reports, func(r extract.Report) string { return r.Platform }),
		"bug_behaviour":    frequency(reports, func(r extract.Report) string { return r.BugBehaviour }),
		"user_frustration": frequency(reports, func(r extract.Report) string { return r.UserFrustration }),
	}

	texts := map[string][]string{
		"technical_description": uniqueTexts(reports, func(r extract.Report) string { return r.TechnicalDescription }),
		"input_data":            uniqueTexts(reports, func(r extract.Report) string { return r.InputData }),
		"expected_behaviour":    uniqueTexts(reports, func(r extract.Report) string { return r.ExpectedBehaviour }),
	}

	crashes := 0
	for _, r := range reports {
		if r.Crash {
			crashes++
		}
	}
	crashRate := 0.0
	if len(reports) > 0 {
		crashRate = math.Round(float64(crashes)/float64(len(reports))*1000) / 10
	}

	return &Analysis{
		IssueID:       fmt.Sprintf("%d", result.IssueNumber),
		TotalReports:  len(reports),
		CrashRatePct:  crashRate,
		Frustration:   topValue(dist["user_frustration"]),
		TopPlatform:   topValue(dist["platform"]),
		TopVersion:    topValue(dist["software_version"]),
		PrimaryBug:    topValue(dist["bug_behaviour"]),
		Distributions: dist,
		TextAggregate: texts,
	}
}

// Render builds the requirements document markdown from an analysis.
func Render(a *Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Product Requirements Document (PRD)\n## Issue #%s\n\n", a.IssueID)
	b.WriteString("### Executive Summary\n")
	fmt.Fprintf(&b, "- **Total Reports Analyzed**: %d\n", a.TotalReports)
	fmt.Fprintf(&b, "- **Crash Rate**: %.1f%%\n", a.CrashRatePct)
	fmt.Fprintf(&b, "- **Dominant Frustration Level**: %s\n", a.Frustration)
	fmt.Fprintf(&b, "- **Top Affected Platform**: %s\n", a.TopPlatform)
	fmt.Fprintf(&b, "- **Top Affected Version**: %s\n", a.TopVersion)
	fmt.Fprintf(&b, "- **Primary Bug Behaviour**: %s\n\n---\n\n", a.PrimaryBug)

	b.WriteString("### Bug Characteristics (Frequency Analysis)\n\n")
	writeDistribution(&b, "Software Versions Affected", a.Distributions["software_version"])
	writeDistribution(&b, "Platforms Affected", a.Distributions["platform"])
	writeDistribution(&b, "Bug Behaviours", a.Distributions["bug_behaviour"])
	writeDistribution(&b, "User Frustration Levels", a.Distributions["user_frustration"])

	b.WriteString("---\n\n### Technical Details\n\n")
	writeTexts(&b, "Technical Descriptions from Users", a.TextAggregate["technical_description"])
	writeTexts(&b, "Input Data / Conditions", a.TextAggregate["input_data"])
	writeTexts(&b, "Expected Behaviour", a.TextAggregate["expected_behaviour"])

	b.WriteString("---\n\n### Requirements\n\n")
	b.WriteString("#### Functional Requirements\n")
	fmt.Fprintf(&b, "1. Fix the primary bug behaviour: %s\n", a.PrimaryBug)
	fmt.Fprintf(&b, "2. Ensure compatibility with top affected platform: %s\n", a.TopPlatform)
	fmt.Fprintf(&b, "3. Address issues in version: %s\n\n", a.TopVersion)
	b.WriteString("#### Non-Functional Requirements\n")
	fmt.Fprintf(&b, "1. Reduce crash rate from %.1f%% to 0%%\n", a.CrashRatePct)
	fmt.Fprintf(&b, "2. Improve user satisfaction (currently %s frustration)\n\n", a.Frustration)
	b.WriteString("#### Success Criteria\n")
	b.WriteString("- Bug no longer occurs on affected platforms\n")
	b.WriteString("- Crash rate reduced to 0%\n")
	b.WriteString("- User frustration level reduced to 'low' or 'none'\n\n---\n\n")

	b.WriteString("### Stakeholder Input Summary\n")
	b.WriteString("This PRD incorporates feedback from all commenters on the issue.\n")
	fmt.Fprintf(&b, "The analysis is based on %d data points extracted from issue comments.\n", a.TotalReports)

	return b.String()
}

func writeDistribution(b *strings.Builder, title string, entries []FrequencyEntry) {
	fmt.Fprintf(b, "#### %s\n", title)
	for _, e := range entries {
		fmt.Fprintf(b, "- %s: %d reports\n", e.Value, e.Count)
	}
	b.WriteString("\n")
}

func writeTexts(b *strings.Builder, title string, texts []string) {
	fmt.Fprintf(b, "#### %s\n", title)
	for i, t := range texts {
		if i >= 5 {
			break
		}
		fmt.Fprintf(b, "- %s\n", t)
	}
	b.WriteString("\n")
}

func frequency(reports []extract.Report, field func(extract.Report) string) []FrequencyEntry {
	counts := make(map[string]int)
	for _, r := range reports {
		v := strings.TrimSpace(field(r))
		if v != "" {
			counts[v]++
		}
	}
	entries := make([]FrequencyEntry, 0, len(counts))
	for v, c := range counts {
		entries = append(entries, FrequencyEntry{Value: v, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	return entries
}

func uniqueTexts(reports []extract.Report, field func(extract.Report) string) []string {
	var seen []string
	for _, r := range reports {
		v := strings.TrimSpace(field(r))
		if v == "" {
			continue
		}
		dup := false
		for _, s := range seen {
			if s == v {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, v)
		}
	}
	return seen
}

func topValue(entries []FrequencyEntry) string {
	if len(entries) == 0 {
		return "unknown"
	}
	return entries[0].Value
}
