package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v2"

	"github.com/penciled/penciled/internal/calendar"
	"github.com/penciled/penciled/internal/config"
	"github.com/penciled/penciled/internal/ics"
	"github.com/penciled/penciled/internal/llm"
	"github.com/penciled/penciled/internal/logger"
	"github.com/penciled/penciled/internal/mcpserver"
	"github.com/penciled/penciled/internal/scheduler"
	"github.com/penciled/penciled/internal/web"
)

const version = "1.0.0"

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "penciled",
		Usage:   "Schedule calendar appointments from natural-language descriptions.",
		Version: version,
		Commands: []*cli.Command{
			authCommand(),
			scheduleCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.L.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)
	if cfg.History.Path != "" && os.Getenv("HISTORY_DB_PATH") == "" {
		os.Setenv("HISTORY_DB_PATH", cfg.History.Path)
	}
	return cfg, nil
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Run the Google OAuth desktop flow and save the token file.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			oauthCfg, err := calendar.LoadOAuthConfig(cfg.Google.CredentialsFile)
			if err != nil {
				return err
			}

			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", calendar.AuthCodeURL(oauthCfg))

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := calendar.Exchange(c.Context, oauthCfg, authCode)
			if err != nil {
				return err
			}

			if err := calendar.SaveToken(cfg.Google.TokenFile, token); err != nil {
				return err
			}

			logger.L.Info("successfully authenticated and saved token", "file", cfg.Google.TokenFile)
			return nil
		},
	}
}

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "schedule",
		Usage:     "Schedule one appointment from a free-text description.",
		ArgsUsage: "<description...>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Resolve the slot but do not create the event."},
			&cli.StringFlag{Name: "ics", Usage: "Also export the appointment to this .ics file."},
			&cli.StringSliceFlag{Name: "attendee", Usage: "Attendee email address. Repeatable."},
		},
		Action: func(c *cli.Context) error {
			sentence := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if sentence == "" {
				return fmt.Errorf("please describe the appointment, e.g.: penciled schedule meeting with John tomorrow at 3 PM")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := buildScheduler(c.Context, cfg, c.Bool("dry-run"))
			if err != nil {
				return err
			}

			conf, err := s.Process(c.Context, scheduler.Request{
				Sentence:  sentence,
				Attendees: c.StringSlice("attendee"),
				DryRun:    c.Bool("dry-run"),
			})
			if err != nil {
				return err
			}

			fmt.Print(conf.Summary())

			if path := c.String("ics"); path != "" {
				err := ics.WriteFile(path, ics.Event{
					UID:         conf.RequestID,
					Title:       conf.Title,
					Description: conf.RawAnalysis,
					Start:       conf.Start,
					End:         conf.End,
					Attendees:   c.StringSlice("attendee"),
				})
				if err != nil {
					return err
				}
				fmt.Printf("Exported:  %s\n", path)
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the scheduling API over HTTP.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := buildScheduler(c.Context, cfg, false)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
			logger.L.Info("starting server", "address", addr)
			return http.ListenAndServe(addr, web.NewMux(s))
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the schedule_appointment MCP tool over stdio.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := buildScheduler(c.Context, cfg, false)
			if err != nil {
				return err
			}

			return server.ServeStdio(mcpserver.New(s, version))
		},
	}
}

// buildScheduler wires the LLM client and, unless dry-running, the
// Google Calendar client into a scheduler.
func buildScheduler(ctx context.Context, cfg *config.Config, dryRun bool) (*scheduler.Scheduler, error) {
	llmClient := llm.NewClient(cfg.LLM)

	var inserter scheduler.Inserter
	if !dryRun {
		calClient, err := calendar.NewClient(ctx, cfg.Google)
		if err != nil {
			return nil, err
		}
		inserter = calClient
	}

	return scheduler.New(llmClient, inserter, *cfg)
}
