// Package app wires configuration, storage, services and the HTTP layer into
// a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/evote/internal/auth"
	"github.com/abrezinsky/evote/internal/config"
	"github.com/abrezinsky/evote/internal/handlers"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/media"
	"github.com/abrezinsky/evote/internal/notify"
	"github.com/abrezinsky/evote/internal/repository"
	"github.com/abrezinsky/evote/internal/services"
	"github.com/abrezinsky/evote/internal/websocket"
	"github.com/abrezinsky/evote/pkg/facerec"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests
const ShutdownTimeout = 10 * time.Second

// App holds all application dependencies
type App struct {
	cfg      *config.Config
	log      logger.Logger
	repo     *repository.Repository
	hub      *websocket.Hub
	handlers *handlers.Handlers

	// credentials actually in use, generated when not configured
	adminPassword string
	jwtSecret     string
}

// Option overrides a collaborator, mainly for tests
type Option func(*options)

type options struct {
	recognizer facerec.Recognizer
	mailer     services.Mailer
}

// WithRecognizer replaces the face recognition program
func WithRecognizer(r facerec.Recognizer) Option {
	return func(o *options) { o.recognizer = r }
}

// WithMailer replaces the SMTP or no-op mailer
func WithMailer(m services.Mailer) Option {
	return func(o *options) { o.mailer = m }
}

// New opens the database and builds every service
func New(cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	repo, err := repository.Open(repository.Dialect(cfg.DBType), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBType, err)
	}

	a := &App{cfg: cfg, log: log, repo: repo, adminPassword: cfg.AdminPassword, jwtSecret: cfg.JWTSecret}
	if a.adminPassword == "" {
		a.adminPassword = auth.GeneratePassword()
	}
	if a.jwtSecret == "" {
		a.jwtSecret = auth.GenerateSecret()
		log.Warn("JWT_SECRET not set, tokens will not survive a restart")
	}
	tokens, err := auth.New(a.jwtSecret, a.adminPassword)
	if err != nil {
		repo.Close()
		return nil, err
	}

	mailer := o.mailer
	if mailer == nil {
		mailer = a.newMailer()
	}
	recognizer := o.recognizer
	if recognizer == nil {
		recognizer = facerec.NewProcessRecognizer(facerec.Config{
			Python:   cfg.FacePython,
			Script:   cfg.FaceScript,
			FacesDir: cfg.FacesDir,
			Timeout:  cfg.FaceTimeout,
		}, log.With("component", "facerec"))
	}

	policy := services.PhasePolicyPermissive
	if cfg.StrictPhases {
		policy = services.PhasePolicyStrict
	}

	elections := services.NewElectionService(log, repo, policy)
	voting := services.NewVotingService(log, repo, policy)
	feedback := services.NewFeedbackService(log, repo)
	users := services.NewUserService(log, repo, media.New(cfg.FacesDir), mailer, tokens)
	candidates := services.NewCandidateService(log, repo, media.New(cfg.PublicDir))
	identity := services.NewIdentityService(log, repo, recognizer, tokens)

	a.hub = websocket.New(log, elections)
	elections.SetBroadcaster(a.hub)
	voting.SetBroadcaster(a.hub)
	feedback.SetBroadcaster(a.hub)

	var static http.Handler
	if cfg.StaticDir != "" {
		static = http.FileServer(http.Dir(cfg.StaticDir))
	}

	a.handlers = handlers.New(handlers.Deps{
		Elections:      elections,
		Voting:         voting,
		Feedback:       feedback,
		Users:          users,
		Candidates:     candidates,
		Identity:       identity,
		Auth:           tokens,
		Hub:            a.hub,
		Health:         repo,
		Log:            log,
		PublicDir:      cfg.PublicDir,
		Static:         static,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	log.Info("Application initialized",
		"db_type", cfg.DBType,
		"phase_policy", policy,
		"mail", cfg.MailEnabled(),
	)
	return a, nil
}

func (a *App) newMailer() services.Mailer {
	if !a.cfg.MailEnabled() {
		a.log.Info("SMTP not configured, outgoing mail is logged only")
		return notify.NewNoop(a.log)
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     a.cfg.SMTPHost,
		Port:     a.cfg.SMTPPort,
		Username: a.cfg.SMTPUser,
		Password: a.cfg.SMTPPassword,
		From:     a.cfg.MailFrom,
	}, a.log.With("component", "mail"))
}

// AdminPassword returns the admin password in use
func (a *App) AdminPassword() string {
	return a.adminPassword
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close releases the database
func (a *App) Close() error {
	return a.repo.Close()
}

// Run serves HTTP on the configured port until ctx is cancelled, then shuts
// the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Port))
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	a.hub.Start(hubCtx)

	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	baseURL := fmt.Sprintf("http://%s:%d", lanAddress(systemInterfaces{}), listenPort(ln))
	a.log.Info("Server starting", "url", baseURL)
	a.log.Info("Admin password", "password", a.adminPassword)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func listenPort(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
