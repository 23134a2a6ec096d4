package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// NotAvailable is substituted for people and priority names missing from a record.
const NotAvailable = "N/A"

// RawIssue is one record as returned by the remote API.
// Numbers keep their literal form.
type RawIssue map[string]any

// ParseRawIssue decodes one raw log line. Anything other than a single JSON
// object is rejected with ErrMalformedRecord.
func ParseRawIssue(line []byte) (RawIssue, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedRecord)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedRecord)
	}
	return RawIssue(obj), nil
}

// TransformedRecord is the training document derived from one RawIssue.
type TransformedRecord struct {
	Metadata     Metadata     `json:"metadata"`
	Text         TextContent  `json:"text"`
	DerivedTasks DerivedTasks `json:"derived_tasks"`
}

// EncodeLine renders r as one JSON line terminated by a newline.
// HTML characters are left unescaped so code snippets stay readable.
func (r TransformedRecord) EncodeLine() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode transformed record: %w", err)
	}
	return buf.Bytes(), nil
}

// Metadata holds the scalar fields of an issue.
// Nil pointers encode as null when the source record lacks the field.
type Metadata struct {
	IssueID   *string  `json:"issue_id"`
	IssueKey  *string  `json:"issue_key"`
	Project   *string  `json:"project"`
	Title     *string  `json:"title"`
	Status    *string  `json:"status"`
	Reporter  string   `json:"reporter"`
	Assignee  string   `json:"assignee"`
	Priority  string   `json:"priority"`
	Labels    []string `json:"labels"`
	CreatedAt *string  `json:"created_at"`
	UpdatedAt *string  `json:"updated_at"`
}

// TextContent holds the free text of an issue.
type TextContent struct {
	Description string   `json:"description"`
	Comments    []string `json:"comments"`
	FullText    string   `json:"full_text"`
}

// DerivedTasks holds the task views generated from one issue.
type DerivedTasks struct {
	Summarization  SummarizationTask  `json:"summarization"`
	Classification ClassificationTask `json:"classification"`
	QnA            QnATask            `json:"qna"`
}

// SummarizationTask maps the full text to the issue title.
type SummarizationTask struct {
	Input  string  `json:"input"`
	Output *string `json:"output"`
}

// ClassificationTask maps the description to the priority label.
type ClassificationTask struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// QnATask asks for the status of the issue.
type QnATask struct {
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}
