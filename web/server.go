package web

import (
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/anthonyesau/blender-custom-tools/scene"
	"github.com/anthonyesau/blender-custom-tools/status"
)

type Options struct {
	// directory with static files served on /, empty to disable
	WebPath string
	// per frame logging of the keyframe converter
	ConversionLog bool
	Logger        *log.Logger
	// access log, os.Stdout when nil
	AccessLog io.Writer
}

// Server holds one scene. Every handler takes the lock, operators and
// uploads never run concurrently.
type Server struct {
	lock  sync.Mutex
	scene *scene.Scene
	hub   *status.Hub
	opts  Options
}

func NewServer(s *scene.Scene, opts Options) *Server {
	if s == nil {
		s = scene.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stdout
	}
	return &Server{scene: s, hub: status.NewHub(), opts: opts}
}

// Scene must not be used while the server handles requests
func (srv *Server) Scene() *scene.Scene {
	return srv.scene
}

func (srv *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/action/{operator}", srv.HandlerAction).Methods(http.MethodPost)
	r.HandleFunc("/json/scene", srv.HandlerJsonScene).Methods(http.MethodGet)
	r.HandleFunc("/json/select", srv.HandlerJsonSelect).Methods(http.MethodPost)
	r.HandleFunc("/json/operators", srv.HandlerJsonOperators).Methods(http.MethodGet)
	r.HandleFunc("/dump/scene/{format}", srv.HandlerDumpScene).Methods(http.MethodGet)
	r.HandleFunc("/upload/scene", srv.HandlerUploadScene).Methods(http.MethodPost)
	r.Handle("/ws/status", srv.hub)

	if srv.opts.WebPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(srv.opts.WebPath)))
	}
	return r
}

func (srv *Server) Handler() http.Handler {
	h := handlers.RecoveryHandler()(srv.Router())
	return handlers.LoggingHandler(srv.opts.AccessLog, h)
}

func StartServer(addr string, srv *Server) error {
	srv.opts.Logger.Info("[web] Starting server", "addr", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
