// Package mcpserver exposes the translation pipeline as Model Context
// Protocol tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/valpere/peredoc/internal/document"
	"github.com/valpere/peredoc/internal/pipeline"
	"github.com/valpere/peredoc/internal/profile"
	"github.com/valpere/peredoc/internal/service"
)

const (
	ToolTranslate     = "translate_document"
	ToolTranslateFile = "translate_file"
	ToolListProfiles  = "list_profiles"
	ToolAskDocument   = "ask_document"
)

// New builds an MCP server with the translation tools registered.
func New(svc *service.Service, version string) *server.MCPServer {
	s := server.NewMCPServer("peredoc", version, server.WithToolCapabilities(true))
	h := &handlers{svc: svc}

	s.AddTool(mcp.NewToolWithRawSchema(ToolTranslate,
		"Translate a document through analysis, translation, quality review and enhancement. "+
			"Returns the translation with its analysis and quality review as JSON.",
		argsSchema(&translateArgs{}),
	), h.translate)

	s.AddTool(mcp.NewTool(ToolTranslateFile,
		mcp.WithDescription("Translate a local txt, md, docx or pdf file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the file to translate")),
		mcp.WithString("target_language", mcp.Description("Target language name or BCP 47 tag")),
		mcp.WithString("profile", mcp.Description("Translation profile")),
	), h.translateFile)

	s.AddTool(mcp.NewToolWithRawSchema(ToolAskDocument,
		"Answer a question about a document and its translation.",
		argsSchema(&askArgs{}),
	), h.ask)

	s.AddTool(mcp.NewTool(ToolListProfiles,
		mcp.WithDescription("List the available translation profiles."),
	), h.listProfiles)

	return s
}

// Serve runs s over stdin and stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

type handlers struct {
	svc *service.Service
}

type translateArgs struct {
	Text           string            `json:"text" jsonschema:"description=Document text to translate"`
	TargetLanguage string            `json:"target_language,omitempty" jsonschema:"description=Target language name or BCP 47 tag such as Quebec French or fr-CA"`
	Profile        string            `json:"profile,omitempty" jsonschema:"enum=generic,enum=quebec,enum=business"`
	CustomTerms    map[string]string `json:"custom_terms,omitempty" jsonschema:"description=Mandated renderings from source term to target term"`
}

// argsSchema reflects the JSON schema of a tool's argument struct. Fields
// without omitempty are required.
func argsSchema(args any) json.RawMessage {
	r := &jsonschema.Reflector{Anonymous: true, DoNotReference: true, ExpandedStruct: true}
	s := r.Reflect(args)
	s.Version = ""
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("mcpserver: schema for %T: %v", args, err))
	}
	return b
}

func (h *handlers) translate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args translateArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	return h.run(ctx, service.Request{
		Input: pipeline.Input{
			Text:           args.Text,
			TargetLanguage: args.TargetLanguage,
			CustomTerms:    args.CustomTerms,
		},
		Profile: args.Profile,
	})
}

type askArgs struct {
	Question       string `json:"question" jsonschema:"description=Question about the document"`
	OriginalText   string `json:"original_text,omitempty" jsonschema:"description=Source document text"`
	TranslatedText string `json:"translated_text,omitempty" jsonschema:"description=Translated document text"`
	TargetLanguage string `json:"target_language,omitempty" jsonschema:"description=Language of the translation"`
}

func (h *handlers) ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args askArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	answer, err := h.svc.Ask(ctx, service.AskRequest(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(answer), nil
}

type fileArgs struct {
	Path           string `json:"path"`
	TargetLanguage string `json:"target_language"`
	Profile        string `json:"profile"`
}

func (h *handlers) translateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args fileArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	text, err := document.ExtractFile(args.Path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.run(ctx, service.Request{
		Input:      pipeline.Input{Text: text, TargetLanguage: args.TargetLanguage},
		Profile:    args.Profile,
		SourceName: args.Path,
	})
}

// run translates req. Stage failures are tool errors that still carry the
// full result, so the client can see which stage stopped.
func (h *handlers) run(ctx context.Context, req service.Request) (*mcp.CallToolResult, error) {
	res, err := h.svc.Translate(ctx, req, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	js, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	if res.Failed() {
		return mcp.NewToolResultError(string(js)), nil
	}
	return mcp.NewToolResultText(string(js)), nil
}

func (h *handlers) listProfiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	for _, name := range profile.Names() {
		p, err := profile.Lookup(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s (default target: %s)\n", p.Name, p.Description, p.DefaultTarget)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
