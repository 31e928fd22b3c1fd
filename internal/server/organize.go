package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/apifoxmcp/internal/apifox"
	"github.com/localrivet/apifoxmcp/internal/document"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/report"
	"github.com/localrivet/apifoxmcp/internal/tools"
)

// handleListFolders handles the list_folders MCP tool call.
func (s *MCPApifoxToolServer) handleListFolders(ctx *server.Context, req tools.ListFoldersRequest) (tools.TextResponse, error) {
	slog.Info("Processing list_folders request")
	return s.readReport(tools.ToolListFolders, true, func(doc *openapi3.T) (string, error) {
		return report.FolderList(doc), nil
	}), nil
}

// handleCreateFolder handles the create_folder MCP tool call.
func (s *MCPApifoxToolServer) handleCreateFolder(ctx *server.Context, req tools.CreateFolderRequest) (tools.TextResponse, error) {
	start := time.Now()
	name := strings.TrimSpace(req.FolderName)
	slog.Info("Processing create_folder request", "folder", name)

	response := tools.TextResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolCreateFolder, start, response.Status) }()

	if err := s.platform.CheckConfig(); err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if name == "" {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ValidationError(errors.New("folder_name is empty"), "folder name is required"))
		return response, nil
	}

	lines := []string{
		"Folders are not created through the open API",
		rule,
		"Folder: " + name,
	}
	if req.Description != "" {
		lines = append(lines, "Description: "+req.Description)
	}
	lines = append(lines,
		"",
		"Either:",
		"   1. Create the folder in the Apifox client (right-click the API tree > New folder), or",
		fmt.Sprintf("   2. Pass tags: [%q] when creating endpoints; exports with folders-as-tags group them the same way", name))
	response.Status = tools.StatusWarning
	response.Report = strings.Join(lines, "\n")
	return response, nil
}

// handleDeleteFolder handles the delete_folder MCP tool call.
func (s *MCPApifoxToolServer) handleDeleteFolder(ctx *server.Context, req tools.DeleteFolderRequest) (tools.TextResponse, error) {
	start := time.Now()
	name := strings.TrimSpace(req.FolderName)
	slog.Info("Processing delete_folder request", "folder", name, "confirm", req.Confirm)

	response := tools.TextResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolDeleteFolder, start, response.Status) }()

	if err := s.platform.CheckConfig(); err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if !req.Confirm {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ValidationError(errors.New("confirm is false"),
			fmt.Sprintf("set confirm to true to delete folder %s", name)))
		return response, nil
	}

	doc, err := s.export(true)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	count := 0
	for _, tc := range report.TagCounts(doc, false) {
		if tc.Name == name {
			count = tc.Count
		}
	}

	response.Status = tools.StatusWarning
	response.Report = strings.Join([]string{
		"Folder deletion must be done in the Apifox client",
		rule,
		fmt.Sprintf("Folder: %s (%d endpoints)", name, count),
		"",
		"The open API cannot delete folders. To delete it:",
		"   1. Open the project in the Apifox client or web app",
		"   2. Right-click the folder in the API tree and choose Delete",
		"   3. Choose whether its endpoints move to the root or are deleted with it",
	}, "\n")
	return response, nil
}

// handleListTags handles the list_tags MCP tool call.
func (s *MCPApifoxToolServer) handleListTags(ctx *server.Context, req tools.ListTagsRequest) (tools.TextResponse, error) {
	slog.Info("Processing list_tags request")
	return s.readReport(tools.ToolListTags, false, func(doc *openapi3.T) (string, error) {
		return report.TagList(doc), nil
	}), nil
}

// handleGetAPIsByTag handles the get_apis_by_tag MCP tool call.
func (s *MCPApifoxToolServer) handleGetAPIsByTag(ctx *server.Context, req tools.TagRequest) (tools.TextResponse, error) {
	tag := strings.TrimSpace(req.Tag)
	slog.Info("Processing get_apis_by_tag request", "tag", tag)
	return s.readReport(tools.ToolGetAPIsByTag, false, func(doc *openapi3.T) (string, error) {
		if tag == "" {
			return "", errortypes.ValidationError(errors.New("tag is empty"), "tag is required")
		}
		return report.EndpointsByTag(doc, tag), nil
	}), nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// handleAddTagToAPI handles the add_tag_to_api MCP tool call.
func (s *MCPApifoxToolServer) handleAddTagToAPI(ctx *server.Context, req tools.AddTagRequest) (tools.WriteResponse, error) {
	start := time.Now()
	path := strings.TrimSpace(req.Path)
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	tags := cleanTags(req.Tags)
	slog.Info("Processing add_tag_to_api request", "path", path, "method", method, "tags", tags)

	response := tools.WriteResponse{Status: tools.StatusSuccess}
	defer func() { s.observe(tools.ToolAddTagToAPI, start, response.Status) }()

	if err := s.platform.CheckConfig(); err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	if len(tags) == 0 {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.ValidationError(errors.New("tags is empty"), "at least one tag is required"))
		return response, nil
	}

	existing, err := s.export(false)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	e, err := report.Find(existing, path, method)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}
	previous := e.Op.Tags

	doc, err := document.OperationFragment(existing, path, method, document.SetTags(tags))
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(errortypes.InternalError(err, "failed to copy endpoint"))
		return response, nil
	}

	opts := apifox.ImportOptions{
		EndpointBehavior: apifox.OverwriteExisting,
		SchemaBehavior:   apifox.OverwriteExisting,
	}
	counters, applied, err := s.importDocument(tools.ToolAddTagToAPI, method+" "+path, doc, opts, endpointsChanged)
	setCounters(&response, counters)
	if err != nil {
		response.Status = tools.StatusError
		response.Error = fail(err)
		return response, nil
	}

	lines := []string{
		"Tags updated: " + e.Title(),
		fmt.Sprintf("Path: %s %s", method, path),
		"Before: " + joinOrNone(previous),
		"After: " + strings.Join(tags, ", "),
		countersText(counters),
	}
	if !applied {
		response.Status = tools.StatusWarning
		lines = append(lines, "", "Warning: the platform reported no endpoint updated.")
	}
	response.Report = strings.Join(lines, "\n")
	return response, nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
