package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/aalifyx/internal/collection"
	"github.com/starford/aalifyx/internal/document"
	"github.com/starford/aalifyx/internal/testutil"
	"github.com/starford/aalifyx/internal/whiteboard"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	store := collection.NewStore(testutil.SessionManager(t), nil)
	docs := document.NewService(document.NewPDFExtractor(0), document.NewFrequencySummarizer(3), nil)
	_, uploads := testutil.Uploads(t)
	return New("mcp-test", store, docs, whiteboard.New(uploads, nil))
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_records":
		result, err = srv.listRecords(ctx, req)
	case "create_record":
		result, err = srv.createRecord(ctx, req)
	case "update_record":
		result, err = srv.updateRecord(ctx, req)
	case "delete_record":
		result, err = srv.deleteRecord(ctx, req)
	case "summarize_text":
		result, err = srv.summarizeText(ctx, req)
	case "save_whiteboard_image":
		result, err = srv.saveWhiteboardImage(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func listFronts(t *testing.T, srv *Server) []string {
	t.Helper()
	r := callTool(t, srv, "list_records", map[string]any{"kind": "flashcards"})
	if r.IsError {
		t.Fatalf("list: %s", resultText(r))
	}
	var records []collection.Record
	if err := json.Unmarshal([]byte(resultText(r)), &records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Get("front")
	}
	return out
}

func TestCreateListDelete(t *testing.T) {
	srv := testServer(t)

	for _, q := range []string{"Q1", "Q2"} {
		r := callTool(t, srv, "create_record", map[string]any{
			"kind":   "flashcards",
			"fields": map[string]any{"front": q, "back": "A"},
		})
		if r.IsError {
			t.Fatalf("create %s: %s", q, resultText(r))
		}
	}

	r := callTool(t, srv, "delete_record", map[string]any{"kind": "flashcards", "id": "1"})
	if r.IsError || resultText(r) != "deleted: flashcards 1" {
		t.Errorf("delete result = %q", resultText(r))
	}

	fronts := listFronts(t, srv)
	if len(fronts) != 1 || fronts[0] != "Q2" {
		t.Errorf("fronts = %v", fronts)
	}

	for _, bad := range []float64{0.5, 1.7, -2.5, 1e300} {
		r = callTool(t, srv, "delete_record", map[string]any{"kind": "flashcards", "position": bad})
		if !r.IsError {
			t.Errorf("position %v: expected error", bad)
		}
	}
	if fronts := listFronts(t, srv); len(fronts) != 1 {
		t.Fatalf("fractional positions removed records: %v", fronts)
	}

	r = callTool(t, srv, "delete_record", map[string]any{"kind": "flashcards", "position": float64(0)})
	if r.IsError {
		t.Errorf("positional delete: %s", resultText(r))
	}
	if fronts := listFronts(t, srv); len(fronts) != 0 {
		t.Errorf("fronts after positional delete = %v", fronts)
	}

	r = callTool(t, srv, "delete_record", map[string]any{"kind": "flashcards", "id": "1"})
	if !r.IsError {
		t.Error("expected error deleting a missing record")
	}
	r = callTool(t, srv, "delete_record", map[string]any{"kind": "flashcards"})
	if !r.IsError {
		t.Error("expected error without id or position")
	}
}

func TestCreateValidation(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_record", map[string]any{
		"kind":   "goals",
		"fields": map[string]any{"title": "Finish essay"},
	})
	if !r.IsError || !strings.Contains(resultText(r), "type") {
		t.Errorf("result = %q, want error naming type", resultText(r))
	}

	r = callTool(t, srv, "create_record", map[string]any{"kind": "notes", "fields": map[string]any{}})
	if !r.IsError {
		t.Error("expected unknown collection error")
	}

	r = callTool(t, srv, "create_record", map[string]any{"kind": "goals", "fields": "title=x"})
	if !r.IsError {
		t.Error("expected error for non-object fields")
	}
}

func TestUpdateStatus(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "create_record", map[string]any{
		"kind":   "goals",
		"fields": map[string]any{"title": "Finish essay", "type": "short"},
	})

	r := callTool(t, srv, "update_record", map[string]any{
		"kind": "goals", "id": "1",
		"fields": map[string]any{"status": "completed"},
	})
	if r.IsError || !strings.Contains(resultText(r), `"status": "completed"`) {
		t.Errorf("update result = %q", resultText(r))
	}

	r = callTool(t, srv, "update_record", map[string]any{
		"kind": "goals", "id": "3",
		"fields": map[string]any{"status": "completed"},
	})
	if !r.IsError {
		t.Error("expected not found for goal 3")
	}

	r = callTool(t, srv, "update_record", map[string]any{
		"kind": "flashcards", "id": "1",
		"fields": map[string]any{"front": "x"},
	})
	if !r.IsError {
		t.Error("expected flashcards to reject updates")
	}
}

func TestSummarizeTextSavesFlashcards(t *testing.T) {
	srv := testServer(t)
	text := "Mitochondria produce energy for the cell. " +
		"The cell uses energy from mitochondria to grow. " +
		"Ribosomes build proteins inside the cell."

	r := callTool(t, srv, "summarize_text", map[string]any{"text": text, "save_flashcards": true})
	if r.IsError {
		t.Fatalf("summarize: %s", resultText(r))
	}
	var out struct {
		Points     []string            `json:"summary_points"`
		Questions  []document.Question `json:"questions"`
		Flashcards []collection.Record `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Points) == 0 {
		t.Error("no summary points")
	}
	if len(out.Flashcards) != len(out.Questions) {
		t.Errorf("flashcards = %d, questions = %d", len(out.Flashcards), len(out.Questions))
	}
	if got := len(listFronts(t, srv)); got != len(out.Questions) {
		t.Errorf("stored flashcards = %d", got)
	}

	r = callTool(t, srv, "summarize_text", map[string]any{"text": "  "})
	if !r.IsError {
		t.Error("expected error for blank text")
	}
}

func TestSaveWhiteboardImage(t *testing.T) {
	srv := testServer(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

	r := callTool(t, srv, "save_whiteboard_image", map[string]any{
		"data_url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
	if r.IsError || !strings.Contains(resultText(r), whiteboard.URLPrefix) {
		t.Errorf("result = %q", resultText(r))
	}

	r = callTool(t, srv, "save_whiteboard_image", map[string]any{"data_url": "data:text/plain;base64,aGk="})
	if !r.IsError {
		t.Error("expected error for non-image data")
	}
}

func TestCollectionsResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readCollectionsResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents = %T", contents[0])
	}
	var schemas []collection.Schema
	if err := json.Unmarshal([]byte(tc.Text), &schemas); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(schemas) != len(collection.Kinds()) {
		t.Errorf("schemas = %d", len(schemas))
	}
}
