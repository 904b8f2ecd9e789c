package api

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/KaiStephens/lockInRecorder/internal/api/models"
	"github.com/KaiStephens/lockInRecorder/internal/capture"
	"github.com/KaiStephens/lockInRecorder/internal/events"
	"github.com/KaiStephens/lockInRecorder/internal/led"
	"github.com/KaiStephens/lockInRecorder/internal/logging"
	"github.com/KaiStephens/lockInRecorder/internal/metrics"
	"github.com/KaiStephens/lockInRecorder/internal/recording"
	"github.com/KaiStephens/lockInRecorder/internal/recordings"
	"github.com/KaiStephens/lockInRecorder/internal/settings"
	"github.com/KaiStephens/lockInRecorder/internal/streaming"
	"github.com/KaiStephens/lockInRecorder/internal/version"
	"github.com/KaiStephens/lockInRecorder/ui"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

// RecordingService is the recording engine surface the API depends on.
type RecordingService interface {
	Start(ctx context.Context, opts recording.StartOptions) (recording.StartResult, error)
	Stop(ctx context.Context) (recording.StopResult, error)
	Status() recording.Status
	Busy() bool
}

// CameraSource reports the state of the capture device for status responses.
type CameraSource interface {
	Info() capture.CameraInfo
}

// Server is the Huma v2 API server over Go 1.22 native routing.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	recorder   RecordingService
	settings   *settings.Manager
	library    *recordings.Library
	camera     CameraSource
	feed       *streaming.Feed
	eventBus   *events.Bus
	options    *Options
	logger     *slog.Logger
}

// Options carries the wired engine pieces the server exposes.
type Options struct {
	AuthUsername string
	AuthPassword string

	Recorder RecordingService
	Settings *settings.Manager
	Library  *recordings.Library
	Camera   CameraSource
	Feed     *streaming.Feed
	EventBus *events.Bus

	LEDManager        *led.Manager // Optional LED control endpoints
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

var (
	errNoCredentials  = errors.New("authentication required")
	errBadAuthScheme  = errors.New("unsupported authorization scheme")
	errBadCredentials = errors.New("malformed credentials")
	errWrongPassword  = errors.New("invalid username or password")
)

// requestCredentials extracts the basic-auth pair from a request. The
// Authorization header wins; EventSource clients cannot set headers, so a
// base64 "auth" query parameter is accepted in its place.
func requestCredentials(ctx huma.Context) (user, pass string, err error) {
	encoded := ctx.Query("auth")
	if header := ctx.Header("Authorization"); header != "" {
		const prefix = "Basic "
		if !strings.HasPrefix(header, prefix) {
			return "", "", errBadAuthScheme
		}
		encoded = header[len(prefix):]
	}
	if encoded == "" {
		return "", "", errNoCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", errBadCredentials
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", errBadCredentials
	}
	return user, pass, nil
}

// deny rejects the request with a 401 and a basic-auth challenge.
func (s *Server) deny(ctx huma.Context, reason error) {
	ctx.SetHeader("WWW-Authenticate", `Basic realm="Lock In Recorder API"`)
	huma.WriteErr(s.api, ctx, http.StatusUnauthorized, reason.Error())
}

// basicAuthMiddleware guards every operation that declares a security
// requirement. Operations registered with an empty security list stay open.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		user, pass, err := requestCredentials(ctx)
		if err != nil {
			s.deny(ctx, err)
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username))
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password))
		if userOK&passOK != 1 {
			s.deny(ctx, errWrongPassword)
			return
		}

		next(ctx)
	}
}

// newAPIConfig builds the OpenAPI document settings shared by every route.
func newAPIConfig() huma.Config {
	config := huma.DefaultConfig("Lock In Recorder API", version.String())
	config.Info.Description = "Camera capture, timed recording, and one-minute retime API"
	// Relative server URLs keep the docs usable behind any host or proxy
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {Type: "http", Scheme: "basic"},
	}
	return config
}

// NewServer wires the engine pieces into a Huma v2 API over a plain ServeMux.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()
	cors := DefaultCORSConfig()
	AddCORSHandler(mux, cors)

	api := humago.New(mux, newAPIConfig())

	server := &Server{
		api:      api,
		mux:      mux,
		recorder: opts.Recorder,
		settings: opts.Settings,
		library:  opts.Library,
		camera:   opts.Camera,
		feed:     opts.Feed,
		eventBus: opts.EventBus,
		options:  opts,
		logger:   logging.GetLogger("api"),
	}

	// Middleware order matters: CORS first so even rejected requests carry
	// the headers, request logging next, auth last
	api.UseMiddleware(NewCORSMiddleware(cors))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	// Raw mux mounts bypass huma: the MJPEG stream and file downloads are
	// byte streams, not JSON resources
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}
	if opts.Feed != nil {
		mux.Handle("GET /video_feed", streaming.NewMJPEGHandler(opts.Feed, logging.GetLogger("http"), feedViewerHook))
	}
	if opts.Library != nil {
		mux.HandleFunc("GET /recordings/{filename}", server.serveRecording)
	}

	server.registerRoutes()

	// The embedded frontend answers every non-API path
	if frontendHandler, err := ui.Handler(); err == nil {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api") {
				http.NotFound(w, r)
				return
			}
			frontendHandler.ServeHTTP(w, r)
		})
	}

	return server
}

// feedViewerHook keeps the viewer gauge in sync with feed connections.
func feedViewerHook(connected bool) {
	if connected {
		metrics.IncFeedViewers()
	} else {
		metrics.DecFeedViewers()
	}
}

// GetMux exposes the ServeMux so callers can mount extra handlers or serve it.
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// Start serves the API on addr and blocks until the listener closes.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting Lock In Recorder API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	return s.httpServer.ListenAndServe()
}

// Stop shuts down the server.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	// Close rather than Shutdown: SSE and MJPEG connections never drain on
	// their own, so waiting for them would hang the teardown
	if s.httpServer != nil {
		return s.httpServer.Close()
	}

	return nil
}

// registerRoutes mounts every JSON endpoint on the huma API.
func (s *Server) registerRoutes() {
	// Health and version stay open so probes work without credentials
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Liveness check",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Build and runtime version details",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerRecordingRoutes()
	s.registerSettingsRoutes()
	s.registerRecordingsRoutes()
	s.registerOptionsRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
	s.registerLEDRoutes()
}

// withAuth marks an operation as requiring basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
