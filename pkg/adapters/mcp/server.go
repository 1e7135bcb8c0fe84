// Package mcp exposes the generator and the run store as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/aime/internal/dto"
	"github.com/aretw0/aime/internal/presentation/graph"
	"github.com/aretw0/aime/internal/presentation/tui"
	"github.com/aretw0/aime/pkg/adapters/file"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Generator is the slice of the facade the server needs.
type Generator interface {
	GenerateWithLane(ctx context.Context, lane domain.TargetLane, sample domain.LocalSample, obs domain.AgentObservation) (*domain.Result, error)
}

// Server wraps the generator and exposes it as an MCP server.
type Server struct {
	gen       Generator
	store     ports.TreeStore
	mcpServer *server.MCPServer
}

// NewServer creates the server. store may be nil, in which case the run
// tools report that persistence is disabled.
func NewServer(gen Generator, store ports.TreeStore, version string) *Server {
	s := &Server{
		gen:       gen,
		store:     store,
		mcpServer: server.NewMCPServer("aime-mcp", version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("generate_scenarios",
		mcp.WithDescription("Generate probability-weighted scenario trees for one planning cycle."),
		mcp.WithString("scene", mcp.Description("Scene as a JSON object with sample, observation and target_lane")),
		mcp.WithString("path", mcp.Description("Path to a scene file (.json, .yaml); used when scene is omitted")),
	), s.HandleGenerate)

	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List stored generation runs, oldest first."),
	), s.HandleListRuns)

	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Fetch a stored run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run identifier")),
		mcp.WithString("format", mcp.Description("json (default), mermaid or markdown"), mcp.Enum("json", "mermaid", "markdown")),
	), s.HandleGetRun)
}

// HandleGenerate runs a generation for the given scene.
func (s *Server) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sc *file.Scene
	switch raw, path := req.GetString("scene", ""), req.GetString("path", ""); {
	case raw != "":
		parsed, err := file.ParseScene([]byte(raw), ".json")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sc = parsed
	case path != "":
		loaded, err := file.LoadScene(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sc = loaded
	default:
		return mcp.NewToolResultError("either scene or path is required"), nil
	}

	res, err := s.gen.GenerateWithLane(ctx, sc.TargetLane, sc.Sample, sc.Observation)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generate failed: %v", err)), nil
	}
	return jsonResult(dto.GenerateResponse{RunID: res.RunID, Trees: res.Trees, Stats: res.Stats})
}

// HandleListRuns lists the stored runs.
func (s *Server) HandleListRuns(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("no run store configured"), nil
	}
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	summaries := make([]domain.RunSummary, 0, len(ids))
	for _, id := range ids {
		run, err := s.store.Load(ctx, id)
		if errors.Is(err, domain.ErrRunNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load run %s: %w", id, err)
		}
		summaries = append(summaries, run.Summary())
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return jsonResult(summaries)
}

// HandleGetRun returns one stored run in the requested format.
func (s *Server) HandleGetRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("no run store configured"), nil
	}
	id, err := req.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	run, err := s.store.Load(ctx, id)
	if errors.Is(err, domain.ErrRunNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("run %s not found", id)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	switch format := req.GetString("format", "json"); format {
	case "json":
		return jsonResult(run)
	case "mermaid":
		overlay := &graph.Overlay{Highlight: graph.MostLikelyPath(run.Trees)}
		return mcp.NewToolResultText(graph.GenerateMermaid(run.Trees, overlay)), nil
	case "markdown":
		return mcp.NewToolResultText(tui.Report(run.ID, run.Trees, run.Stats)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
