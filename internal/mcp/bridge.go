package mcpbridge

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"changrep/internal/config"
	"changrep/internal/service"
)

type Options struct {
	App           *service.App
	Config        config.Config
	Router        http.Handler
	DefaultAPIKey string
}

// Bridge exposes the REST surface as MCP tools. Tool calls are replayed
// through the router in process, so auth, rate limiting and error mapping
// behave exactly as they do over HTTP.
type Bridge struct {
	app           *service.App
	cfg           config.Config
	router        http.Handler
	defaultAPIKey string
	server        *mcpserver.MCPServer
}

type ToolSpec struct {
	Name        string
	Description string
	Method      string
	Path        string
	Args        []ArgSpec
}

// ArgSpec declares a string argument carried in the JSON request body.
type ArgSpec struct {
	Name        string
	Description string
	Required    bool
}

type apiEnvelope struct {
	OK    bool `json:"ok"`
	Data  any  `json:"data"`
	Error any  `json:"error"`
}

var routeParamPattern = regexp.MustCompile(`\{([^{}]+)\}`)

func New(opts Options) *Bridge {
	b := &Bridge{
		app:           opts.App,
		cfg:           opts.Config,
		router:        opts.Router,
		defaultAPIKey: strings.TrimSpace(opts.DefaultAPIKey),
	}
	b.server = mcpserver.NewMCPServer(
		"changrep",
		"dev",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithInstructions("Use changrep tools to search workspace channels by regular expression and to manage saved channel groups."),
	)
	b.registerTools()
	return b
}

func (b *Bridge) MCPServer() *mcpserver.MCPServer {
	return b.server
}

func (b *Bridge) ServeStdio() error {
	return mcpserver.ServeStdio(b.server)
}

func (b *Bridge) HTTPHandler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(
		b.server,
		mcpserver.WithEndpointPath(b.cfg.MCP.HTTP.Path),
	)
}

func (b *Bridge) registerTools() {
	for _, spec := range b.toolSpecs() {
		if strings.HasPrefix(spec.Name, "groups_") && !b.cfg.Groups.Enabled {
			continue
		}
		b.server.AddTool(spec.toTool(), b.makeToolHandler(spec))
	}
}

func (b *Bridge) toolSpecs() []ToolSpec {
	return []ToolSpec{
		{Name: "channels_list", Description: "List every channel visible to the bot", Method: http.MethodGet, Path: "/api/v1/channels"},
		{Name: "channels_grep", Description: "Filter channels by a regular expression matched against name, topic and purpose", Method: http.MethodPost, Path: "/api/v1/channels/grep",
			Args: []ArgSpec{
				{Name: "pattern", Description: "Regular expression to match", Required: true},
				{Name: "flags", Description: "Regex flags drawn from i, m, s, g (default i)"},
			}},
		{Name: "suggestions_list", Description: "List ready-made example patterns", Method: http.MethodGet, Path: "/api/v1/suggestions"},

		{Name: "groups_list", Description: "List the caller's saved channel groups", Method: http.MethodGet, Path: "/api/v1/groups"},
		{Name: "groups_save", Description: "Save a pattern under a group name", Method: http.MethodPut, Path: "/api/v1/groups/{name}",
			Args: []ArgSpec{
				{Name: "pattern", Description: "Regular expression to save", Required: true},
				{Name: "flags", Description: "Regex flags drawn from i, m, s, g (default i)"},
			}},
		{Name: "groups_delete", Description: "Delete a saved channel group", Method: http.MethodDelete, Path: "/api/v1/groups/{name}"},
		{Name: "groups_apply", Description: "Run a saved channel group against the current channel list", Method: http.MethodPost, Path: "/api/v1/groups/{name}/apply"},
	}
}

func (s ToolSpec) toTool() mcptypes.Tool {
	opts := []mcptypes.ToolOption{
		mcptypes.WithDescription(s.Description),
	}
	for _, param := range pathParams(s.Path) {
		opts = append(opts, mcptypes.WithString(param, mcptypes.Required(), mcptypes.Description("Path parameter: "+param)))
	}
	for _, arg := range s.Args {
		propOpts := []mcptypes.PropertyOption{mcptypes.Description(arg.Description)}
		if arg.Required {
			propOpts = append(propOpts, mcptypes.Required())
		}
		opts = append(opts, mcptypes.WithString(arg.Name, propOpts...))
	}
	return mcptypes.NewTool(s.Name, opts...)
}

func (b *Bridge) makeToolHandler(spec ToolSpec) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
		token := extractBearer(request.Header.Get("Authorization"))
		if token == "" {
			token = b.defaultAPIKey
		}
		if _, err := b.app.Authenticate(ctx, token); err != nil {
			if token == "" {
				return mcptypes.NewToolResultError("missing API key: provide an Authorization header or --api-key for stdio mode"), nil
			}
			return mcptypes.NewToolResultError("authentication failed"), nil
		}

		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		path, err := fillPath(spec.Path, args)
		if err != nil {
			return mcptypes.NewToolResultError(err.Error()), nil
		}

		var payload map[string]any
		if len(spec.Args) > 0 {
			payload = map[string]any{}
			for _, arg := range spec.Args {
				value := strings.TrimSpace(argString(args, arg.Name))
				if value == "" {
					if arg.Required {
						return mcptypes.NewToolResultError("missing required argument: " + arg.Name), nil
					}
					continue
				}
				payload[arg.Name] = value
			}
		}

		env, status, err := b.invokeREST(ctx, token, spec.Method, path, payload)
		if err != nil {
			return mcptypes.NewToolResultError(err.Error()), nil
		}
		if !env.OK {
			return mcptypes.NewToolResultError(apiErrorText(env.Error, status)), nil
		}

		return mcptypes.NewToolResultJSON(map[string]any{
			"status_code": status,
			"data":        env.Data,
		})
	}
}

func (b *Bridge) invokeREST(ctx context.Context, apiKey, method, path string, payload map[string]any) (apiEnvelope, int, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return apiEnvelope{}, 0, err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	rr := httptest.NewRecorder()
	b.router.ServeHTTP(rr, req)

	var env apiEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		return apiEnvelope{}, rr.Code, fmt.Errorf("invalid API response: %w", err)
	}
	return env, rr.Code, nil
}

func fillPath(path string, args map[string]any) (string, error) {
	out := path
	for _, key := range pathParams(path) {
		value := strings.TrimSpace(argString(args, key))
		if value == "" {
			return "", fmt.Errorf("missing required path argument: %s", key)
		}
		out = strings.ReplaceAll(out, "{"+key+"}", url.PathEscape(value))
	}
	return out, nil
}

func pathParams(path string) []string {
	matches := routeParamPattern.FindAllStringSubmatch(path, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) == 2 {
			out = append(out, m[1])
		}
	}
	return out
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func apiErrorText(apiErr any, status int) string {
	if m, ok := apiErr.(map[string]any); ok {
		code, _ := m["code"].(string)
		msg, _ := m["message"].(string)
		if code != "" && msg != "" {
			return code + ": " + msg
		}
		if msg != "" {
			return msg
		}
	}
	if apiErr != nil {
		return fmt.Sprint(apiErr)
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func extractBearer(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if strings.HasPrefix(strings.ToLower(h), strings.ToLower(prefix)) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return h
}
