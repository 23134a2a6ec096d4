package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// commentSeparator joins comment bodies in the full text.
const commentSeparator = "\n---\n"

// TransformIssue derives the training document for one raw issue.
// It never fails: absent or mistyped fields fall back to their defaults.
func TransformIssue(issue RawIssue) TransformedRecord {
	fields, _ := issue["fields"].(map[string]any)

	meta := Metadata{
		IssueID:   scalarAt(issue, "id"),
		IssueKey:  scalarAt(issue, "key"),
		Project:   scalarAt(fields, "project", "name"),
		Title:     scalarAt(fields, "summary"),
		Status:    scalarAt(fields, "status", "name"),
		Reporter:  nameOrNA(fields, "reporter", "displayName"),
		Assignee:  nameOrNA(fields, "assignee", "displayName"),
		Priority:  nameOrNA(fields, "priority", "name"),
		Labels:    stringsAt(fields, "labels"),
		CreatedAt: scalarAt(fields, "created"),
		UpdatedAt: scalarAt(fields, "updated"),
	}

	description := ""
	if d := scalarAt(fields, "description"); d != nil {
		description = *d
	}
	comments := commentBodies(fields)
	fullText := FullText(deref(meta.Title), description, comments)

	return TransformedRecord{
		Metadata: meta,
		Text: TextContent{
			Description: description,
			Comments:    comments,
			FullText:    fullText,
		},
		DerivedTasks: DerivedTasks{
			Summarization: SummarizationTask{
				Input:  fullText,
				Output: meta.Title,
			},
			Classification: ClassificationTask{
				Input:  description,
				Output: meta.Priority,
			},
			QnA: QnATask{
				Question: fmt.Sprintf("What is the status of issue %s?", deref(meta.IssueKey)),
				Answer:   meta.Status,
			},
		},
	}
}

// FullText builds the concatenated text block used for summarization.
func FullText(title, description string, comments []string) string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(title)
	b.WriteString("\n\nDescription:\n")
	b.WriteString(description)
	b.WriteString("\n\n")
	if len(comments) > 0 {
		b.WriteString("Comments:\n")
		b.WriteString(strings.Join(comments, commentSeparator))
	}
	return strings.TrimSpace(b.String())
}

func commentBodies(fields map[string]any) []string {
	comments := []string{}
	list, _ := lookup(fields, "comment", "comments").([]any)
	for _, c := range list {
		body := ""
		if obj, ok := c.(map[string]any); ok {
			if s := scalarAt(obj, "body"); s != nil {
				body = *s
			}
		}
		comments = append(comments, body)
	}
	return comments
}

func nameOrNA(fields map[string]any, object, key string) string {
	if s := scalarAt(fields, object, key); s != nil {
		return *s
	}
	return NotAvailable
}

func stringsAt(m map[string]any, path ...string) []string {
	out := []string{}
	list, _ := lookup(m, path...).([]any)
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// scalarAt resolves path to a string or number and returns its text form.
func scalarAt(m map[string]any, path ...string) *string {
	switch v := lookup(m, path...).(type) {
	case string:
		return &v
	case json.Number:
		s := v.String()
		return &s
	default:
		return nil
	}
}

// lookup walks nested objects; any missing or non-object step yields nil.
func lookup(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
