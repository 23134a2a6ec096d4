package config

import (
	"bytes"
	"text/template"

	"github.com/runoshun/issue-harvest/internal/domain"
)

var configTemplate = template.Must(template.New("harvest.toml").Parse(`# issue-harvest configuration

[source]
# Search endpoint of the issue tracker
base_url = "{{.Source.BaseURL}}"
# {{"{{"}}.Collection{{"}}"}} is replaced with the collection id
jql = '{{.Source.JQL}}'
fields = "{{.Source.Fields}}"
timeout = "{{.Source.Timeout}}"
user_agent = "{{.Source.UserAgent}}"

[fetch]
# Overridden by JIRA_PROJECTS=A,B,C
collections = [{{range $i, $c := .Fetch.Collections}}{{if $i}}, {{end}}"{{$c}}"{{end}}]
page_size = {{.Fetch.PageSize}}
delay = "{{.Fetch.Delay}}"
# Wait used on 429 when the server sends no Retry-After
rate_limit_wait = "{{.Fetch.RateLimitWait}}"
# 0 = retry forever
max_rate_limit_retries = {{.Fetch.MaxRateLimitRetries}}
network_retries = {{.Fetch.NetworkRetries}}

[paths]
data_dir = "{{.Paths.DataDir}}"
output_dir = "{{.Paths.OutputDir}}"

[checkpoint]
# "json" or "sqlite"
store = "{{.Checkpoint.Store}}"

[transform]
workers = {{.Transform.Workers}}

[log]
# debug, info, warn, error
level = "{{.Log.Level}}"
`))

// renderTemplate renders the commented config file for cfg.
func renderTemplate(cfg *domain.Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
