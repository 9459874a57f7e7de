// Package mcpserver exposes the resume matcher as a Model Context Protocol
// tool over stdio.
package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"skillmatch/internal/domain/matching"
)

const ToolName = "resume_match"

type JobFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

type MatchInput struct {
	Resume         string `json:"resume" jsonschema:"plain resume text"`
	JobDescription string `json:"job_description,omitempty" jsonschema:"job description text; takes precedence over job_url"`
	JobURL         string `json:"job_url,omitempty" jsonschema:"http(s) URL of a job posting to fetch when job_description is empty"`
}

type Tool struct {
	matcher *matching.Matcher
	fetcher JobFetcher
}

func NewTool(m *matching.Matcher, f JobFetcher) *Tool {
	return &Tool{matcher: m, fetcher: f}
}

// New builds a server with the resume_match tool registered.
func New(t *Tool, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "skillmatch",
		Version: version,
	}, nil)
	t.Register(server)
	return server
}

func (t *Tool) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: "Score a resume against a job description. Returns the overall match score, TF-IDF text similarity, skill coverage, ATS keyword score, and the matched and missing skills.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input MatchInput) (*mcp.CallToolResult, matching.Analysis, error) {
		a, err := t.Analyze(ctx, input)
		if err != nil {
			return nil, matching.Analysis{}, err
		}
		return nil, a, nil
	})
}

func (t *Tool) Analyze(ctx context.Context, in MatchInput) (matching.Analysis, error) {
	if strings.TrimSpace(in.Resume) == "" {
		return matching.Analysis{}, errors.New("resume is required")
	}

	job := in.JobDescription
	if strings.TrimSpace(job) == "" {
		if strings.TrimSpace(in.JobURL) == "" {
			return matching.Analysis{}, errors.New("job_description or job_url is required")
		}
		if t.fetcher == nil {
			return matching.Analysis{}, errors.New("job_url fetching is not available")
		}
		text, err := t.fetcher.FetchText(ctx, in.JobURL)
		if err != nil {
			return matching.Analysis{}, err
		}
		job = text
	}

	return t.matcher.Match(in.Resume, job)
}

// Serve runs the server on stdin/stdout until the client disconnects or ctx
// is done.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
