// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes one study session's collections to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/aalifyx/internal/apperr"
	"github.com/starford/aalifyx/internal/collection"
	"github.com/starford/aalifyx/internal/document"
	"github.com/starford/aalifyx/internal/whiteboard"
)

const collectionsURI = "aalifyx://collections"

// Server wraps the MCP server with the study desk tools.
type Server struct {
	mcp         *server.MCPServer
	sessionID   string
	collections *collection.Store
	docs        *document.Service
	board       *whiteboard.Registry
}

// New creates an MCP server bound to sessionID. docs and board may be nil,
// in which case their tools are not registered.
func New(sessionID string, collections *collection.Store, docs *document.Service, board *whiteboard.Registry) *Server {
	s := &Server{sessionID: sessionID, collections: collections, docs: docs, board: board}

	s.mcp = server.NewMCPServer(
		"Aalifyx",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	kinds := make([]string, 0, len(collection.Kinds()))
	for _, k := range collection.Kinds() {
		kinds = append(kinds, string(k))
	}
	kindArg := mcp.WithString("kind", mcp.Required(),
		mcp.Enum(kinds...),
		mcp.Description("Collection name"))

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List every record of a collection in insertion order."),
		kindArg,
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("create_record",
		mcp.WithDescription("Append a record to a collection. Read the "+collectionsURI+
			" resource for the fields each collection requires."),
		kindArg,
		mcp.WithObject("fields", mcp.Required(), mcp.Description("Field values as strings")),
	), s.createRecord)

	s.mcp.AddTool(mcp.NewTool("update_record",
		mcp.WithDescription("Change the mutable fields (status) of a record. Flashcards cannot be updated."),
		kindArg,
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithObject("fields", mcp.Required(), mcp.Description("Field values as strings")),
	), s.updateRecord)

	s.mcp.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("Delete a record by id, or by zero-based position when no id is given."),
		kindArg,
		mcp.WithString("id", mcp.Description("Record id")),
		mcp.WithNumber("position", mcp.Description("Zero-based position in the listing")),
	), s.deleteRecord)

	if docs != nil {
		s.mcp.AddTool(mcp.NewTool("summarize_text",
			mcp.WithDescription("Summarize study text into key points and practice questions."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to summarize")),
			mcp.WithBoolean("save_flashcards", mcp.Description("Store the questions as flashcards")),
		), s.summarizeText)
	}

	if board != nil {
		s.mcp.AddTool(mcp.NewTool("save_whiteboard_image",
			mcp.WithDescription("Store an image on the shared whiteboard from a base64 data URL."),
			mcp.WithString("data_url", mcp.Required(),
				mcp.Description("data:image/png;base64,... (png, jpeg, gif or webp)")),
		), s.saveWhiteboardImage)
	}

	s.mcp.AddResource(
		mcp.NewResource(collectionsURI, "Collection Schemas",
			mcp.WithResourceDescription("Fields, defaults and allowed values of every collection."),
			mcp.WithMIMEType("application/json"),
		),
		s.readCollectionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, errResult := requireKind(req)
	if errResult != nil {
		return errResult, nil
	}
	records, err := s.collections.List(ctx, s.sessionID, kind)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(records)
}

func (s *Server) createRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, errResult := requireKind(req)
	if errResult != nil {
		return errResult, nil
	}
	fields, err := stringFields(req.GetArguments()["fields"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.collections.Create(ctx, s.sessionID, kind, fields)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rec)
}

func (s *Server) updateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, errResult := requireKind(req)
	if errResult != nil {
		return errResult, nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields, err := stringFields(req.GetArguments()["fields"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.collections.Update(ctx, s.sessionID, kind, collection.ByID(id), fields)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rec)
}

func (s *Server) deleteRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, errResult := requireKind(req)
	if errResult != nil {
		return errResult, nil
	}
	var sel collection.Selector
	if id := req.GetString("id", ""); id != "" {
		sel = collection.ByID(id)
	} else if pos, ok := req.GetArguments()["position"].(float64); ok {
		if pos != math.Trunc(pos) || math.Abs(pos) > math.MaxInt32 {
			return mcp.NewToolResultError(fmt.Sprintf("position must be a whole number, got %v", pos)), nil
		}
		sel = collection.ByPosition(int(pos))
	} else {
		return mcp.NewToolResultError("either id or position is required"), nil
	}

	removed, err := s.collections.Delete(ctx, s.sessionID, kind, sel)
	if err != nil {
		return toolError(err), nil
	}
	if !removed {
		return mcp.NewToolResultError(fmt.Sprintf("no %s record matches %s", kind, sel)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s %s", kind, sel)), nil
}

type summaryResult struct {
	*document.Result
	Flashcards []collection.Record `json:"flashcards,omitempty"`
}

func (s *Server) summarizeText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.docs.SummarizeText(ctx, text)
	if err != nil {
		return toolError(err), nil
	}
	out := summaryResult{Result: res}
	if save, _ := req.GetArguments()["save_flashcards"].(bool); save {
		for _, q := range res.Questions {
			rec, err := s.collections.Create(ctx, s.sessionID, collection.Flashcards,
				map[string]string{"front": q.Question, "back": q.Answer})
			if err != nil {
				return toolError(err), nil
			}
			out.Flashcards = append(out.Flashcards, rec)
		}
	}
	return jsonResult(out)
}

func (s *Server) saveWhiteboardImage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataURL, err := req.RequireString("data_url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	img, err := s.board.SaveDataURL(dataURL)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(img)
}

func (s *Server) readCollectionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.MarshalIndent(collection.Schemas(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      collectionsURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func requireKind(req mcp.CallToolRequest) (collection.Kind, *mcp.CallToolResult) {
	raw, err := req.RequireString("kind")
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	kind, err := collection.ParseKind(raw)
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	return kind, nil
}

// stringFields converts a JSON object argument to string field values.
func stringFields(v any) (map[string]string, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("fields must be an object")
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		switch val := val.(type) {
		case nil:
		case string:
			out[k] = val
		case float64, bool:
			out[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("field %q must be a scalar value", k)
		}
	}
	return out, nil
}

// toolError renders an application error as a tool error result.
func toolError(err error) *mcp.CallToolResult {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid fields %s: %v", strings.Join(verr.Fields, ", "), verr.Err))
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}
