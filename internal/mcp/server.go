// Package mcp exposes the lesson player as MCP tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/lessonplay/internal/navigation"
	"github.com/felixgeelhaar/lessonplay/internal/player"
	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
)

// Server wraps the MCP server with lesson player tools
type Server struct {
	mcpServer *server.Server
	player    *player.Service
	learnerID string
}

// Config contains configuration for the MCP server
type Config struct {
	Player *player.Service
	// LearnerID is used when a tool call does not name a learner
	LearnerID string
}

// NewServer creates a new MCP server
func NewServer(cfg Config) *Server {
	s := &Server{
		player:    cfg.Player,
		learnerID: cfg.LearnerID,
	}

	s.mcpServer = server.New(server.Info{
		Name:    "lessonplay",
		Version: "0.1.0",
	}, server.WithInstructions(`
lessonplay serves an interactive programming course split into lessons and chapters.

Available tools:
- lesson_list: List lessons with the chapter each learner resumes at
- lesson_chapter: Get a chapter's instruction, starter code and answer
- lesson_next: Finish the current chapter and move forward
- lesson_back: Go back one chapter
- lesson_progress: Show completed chapters per lesson

Chapters are numbered from 1. Finishing the last chapter of a lesson leads
to the lesson-complete page.
`))

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("lesson_list").
		Description("List lessons with resume chapter and progress label").
		Handler(s.handleList)

	s.mcpServer.Tool("lesson_chapter").
		Description("Get the localized instruction and code scaffold for a chapter").
		Handler(s.handleChapter)

	s.mcpServer.Tool("lesson_next").
		Description("Mark the chapter completed and move to the next chapter or the lesson-complete page").
		Handler(s.handleNext)

	s.mcpServer.Tool("lesson_back").
		Description("Move to the previous chapter").
		Handler(s.handleBack)

	s.mcpServer.Tool("lesson_progress").
		Description("Show completed chapter counts for a learner").
		Handler(s.handleProgress)
}

// Input/Output types for tools

type ListInput struct {
	LearnerID string `json:"learner_id,omitempty" jsonschema:"description=Learner to resolve progress for; omit for anonymous"`
	Locale    string `json:"locale,omitempty" jsonschema:"description=Instruction locale such as en or ko"`
}

type ChapterInput struct {
	Lesson  int    `json:"lesson" jsonschema:"description=Lesson number starting at 1"`
	Chapter int    `json:"chapter" jsonschema:"description=Chapter number starting at 1"`
	Locale  string `json:"locale,omitempty" jsonschema:"description=Instruction locale such as en or ko"`
}

type NavigateInput struct {
	LearnerID string `json:"learner_id,omitempty" jsonschema:"description=Learner whose completion is recorded"`
	Lesson    int    `json:"lesson" jsonschema:"description=Lesson number starting at 1"`
	Chapter   int    `json:"chapter" jsonschema:"description=Current chapter number starting at 1"`
}

type NavigateOutput struct {
	Moved  bool   `json:"moved"`
	Kind   string `json:"kind"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type ProgressInput struct {
	LearnerID string `json:"learner_id,omitempty" jsonschema:"description=Learner to report on"`
}

// Tool handlers

func (s *Server) handleList(ctx context.Context, input ListInput) (player.LessonList, error) {
	list, err := s.player.ListLessons(ctx, s.learner(input.LearnerID), input.Locale)
	if err != nil {
		return player.LessonList{}, fmt.Errorf("failed to list lessons: %w", err)
	}
	return list, nil
}

func (s *Server) handleChapter(ctx context.Context, input ChapterInput) (player.ChapterView, error) {
	cursor, err := navigation.ParseCursor(fmt.Sprint(input.Lesson), fmt.Sprint(input.Chapter))
	if err != nil {
		return player.ChapterView{}, err
	}
	view, err := s.player.Chapter(input.Locale, cursor)
	if err != nil {
		return player.ChapterView{}, fmt.Errorf("failed to load chapter: %w", err)
	}
	return view, nil
}

func (s *Server) handleNext(ctx context.Context, input NavigateInput) (NavigateOutput, error) {
	cursor, err := navigation.ParseCursor(fmt.Sprint(input.Lesson), fmt.Sprint(input.Chapter))
	if err != nil {
		return NavigateOutput{}, err
	}
	return navigateOutput(s.player.Next(ctx, s.learner(input.LearnerID), cursor)), nil
}

func (s *Server) handleBack(ctx context.Context, input NavigateInput) (NavigateOutput, error) {
	cursor, err := navigation.ParseCursor(fmt.Sprint(input.Lesson), fmt.Sprint(input.Chapter))
	if err != nil {
		return NavigateOutput{}, err
	}
	return navigateOutput(s.player.Back(ctx, cursor)), nil
}

func (s *Server) handleProgress(ctx context.Context, input ProgressInput) (player.ProgressView, error) {
	view, err := s.player.Progress(ctx, s.learner(input.LearnerID))
	if err != nil {
		return player.ProgressView{}, fmt.Errorf("failed to read progress: %w", err)
	}
	return view, nil
}

func (s *Server) learner(id string) string {
	if id != "" {
		return id
	}
	return s.learnerID
}

func navigateOutput(t navigation.Transition) NavigateOutput {
	return NavigateOutput{
		Moved:  t.Moved(),
		Kind:   string(t.Kind),
		Path:   t.Path,
		Reason: t.Reason,
	}
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
