package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sasilab/medbot/internal/config"
	"github.com/sasilab/medbot/internal/domain/agent"
	"github.com/sasilab/medbot/internal/domain/audit"
	"github.com/sasilab/medbot/internal/domain/chat"
	"github.com/sasilab/medbot/internal/domain/corpus"
	"github.com/sasilab/medbot/internal/domain/policy"
	"github.com/sasilab/medbot/internal/platform/auth"
	"github.com/sasilab/medbot/internal/platform/llm"
	mw "github.com/sasilab/medbot/internal/platform/middleware"
	"github.com/sasilab/medbot/internal/platform/vectorstore"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medbot",
		Short: "Role-gated hospital records assistant",
	}

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// deps bundles everything a session needs, built once at startup.
type deps struct {
	cfg      *config.Config
	logger   zerolog.Logger
	users    *auth.UserStore
	store    *vectorstore.Store
	gen      llm.Generator
	auditLog *audit.Log
	pool     *pgxpool.Pool
}

func (d *deps) close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

// buildDeps loads the patient corpus, indexes it, and wires the shared
// collaborators.
func buildDeps(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*deps, error) {
	users, err := auth.LoadUserStore(cfg.UsersFile)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("data_dir", cfg.DataDir).Msg("loading patient records")
	tables, err := corpus.LoadTables(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	docs := corpus.Combine(tables)
	logger.Info().Int("patients", len(docs)).Msg("patient documents built")

	embedder := vectorstore.NewHTTPEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.LLMTimeout)
	store := vectorstore.NewStore(embedder)
	indexDocs := make([]vectorstore.Document, len(docs))
	for i, d := range docs {
		indexDocs[i] = vectorstore.Document{ID: d.PatientID, Content: d.Content}
	}
	if err := store.Index(ctx, indexDocs); err != nil {
		return nil, fmt.Errorf("index patient documents: %w", err)
	}
	logger.Info().Int("documents", store.Len()).Msg("vector index ready")

	auditLog := audit.NewLog(logger)
	d := &deps{
		cfg:      cfg,
		logger:   logger,
		users:    users,
		store:    store,
		gen:      llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel, cfg.LLMTimeout, logger),
		auditLog: auditLog,
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect audit database: %w", err)
		}
		recorder := audit.NewPGRecorder(pool)
		if err := recorder.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		auditLog.SetRecorder(recorder)
		d.pool = pool
		logger.Info().Msg("audit events mirrored to database")
	}

	return d, nil
}

// newAgent builds a session agent bound to the user's role.
func (d *deps) newAgent(username string, role policy.Role) (*agent.Agent, error) {
	return agent.New(agent.Config{
		Username:          username,
		Role:              role,
		Generator:         d.gen,
		Tool:              agent.NewRetrievalTool(d.store, role, d.cfg.TopK),
		Audit:             d.auditLog,
		Logger:            d.logger,
		MaxToolIterations: d.cfg.MaxToolIterations,
		CallTimeout:       d.cfg.LLMTimeout,
	})
}

// ---------------------------------------------------------------------------
// chat command
// ---------------------------------------------------------------------------

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [username password]",
		Short: "Interactive terminal session",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			d, err := buildDeps(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer d.close()

			return runInteractive(cmd.Context(), d, args)
		},
	}
}

// runInteractive drives the terminal loop: login, then one agent turn per
// line until exit.
func runInteractive(ctx context.Context, d *deps, args []string) error {
	in := bufio.NewScanner(os.Stdin)

	username, role, err := loginLoop(in, d.users, args)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s). Type 'exit' to quit.\n", username, role)

	a, err := d.newAgent(username, role)
	if err != nil {
		return err
	}

	for {
		fmt.Print("You: ")
		if !in.Scan() {
			return in.Err()
		}
		input := strings.TrimSpace(in.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			fmt.Println("Bye!")
			return nil
		}

		reply, err := a.HandleInput(ctx, input)
		if err != nil {
			// Collaborator failures end the turn, never the session.
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("Assistant: %s\n", reply)
	}
}

// loginLoop authenticates, reprompting indefinitely on failure. Credentials
// may also come from argv for scripted runs; that path fails fast instead of
// reprompting, since a scripted caller has no way to answer a prompt.
func loginLoop(in *bufio.Scanner, users *auth.UserStore, args []string) (string, policy.Role, error) {
	if len(args) == 2 {
		role, err := users.Authenticate(args[0], args[1])
		if err != nil {
			return "", "", err
		}
		return args[0], role, nil
	}

	for {
		fmt.Print("Username: ")
		if !in.Scan() {
			return "", "", errors.New("input closed during login")
		}
		username := strings.TrimSpace(in.Text())

		fmt.Print("Password: ")
		if !in.Scan() {
			return "", "", errors.New("input closed during login")
		}
		password := strings.TrimSpace(in.Text())

		role, err := users.Authenticate(username, password)
		if err != nil {
			fmt.Println("Invalid username or password. Try again.")
			continue
		}
		return username, role, nil
	}
}

// ---------------------------------------------------------------------------
// serve command
// ---------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			logger := newLogger(cfg)

			d, err := buildDeps(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer d.close()

			issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
			if err != nil {
				return err
			}
			sessions := chat.NewManager(d.newAgent)
			handler := chat.NewHandler(d.users, issuer, sessions, d.auditLog)

			e := echo.New()
			e.HideBanner = true
			e.Use(mw.RequestID())
			e.Use(mw.Logger(logger))

			e.GET("/healthz", func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
			})
			handler.RegisterRoutes(e.Group("/api/v1"))

			errCh := make(chan error, 1)
			go func() {
				errCh <- e.Start(":" + cfg.Port)
			}()
			logger.Info().Str("port", cfg.Port).Msg("medbot API listening")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-quit:
				logger.Info().Msg("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := e.Shutdown(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
