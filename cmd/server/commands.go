package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/notesnap/internal/buildinfo"
	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/server"
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// appRunner is what the commands need from server.App.
type appRunner interface {
	Run(ctx context.Context) error
	Migrate(ctx context.Context) error
	CreateUser(ctx context.Context, name, email, password string) (*models.User, error)
	Close() error
}

// newApp is a seam for tests.
var newApp = func(cfg *config.Config) (appRunner, error) {
	app, err := server.NewApp(cfg)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// readPassword reads a password without echo when stdin is a terminal.
var readPassword = func(in io.Reader) ([]byte, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return term.ReadPassword(int(f.Fd()))
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// newRootCmd builds the CLI. Server settings (-a, -d, -c, ...) are parsed by
// config.LoadConfig from args, so serve and migrate leave flag parsing to it.
func newRootCmd(args []string) *cobra.Command {
	loadApp := func() (appRunner, error) {
		cfg, err := config.LoadConfig(args)
		if err != nil {
			return nil, err
		}
		return newApp(cfg)
	}

	serve := &cobra.Command{
		Use:                "serve",
		Short:              "Run the HTTP API and gRPC health servers",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(cmd.Context())
		},
	}

	root := &cobra.Command{
		Use:           "notesnap",
		Short:         "NoteSnap account service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		// With no subcommand the server is started.
		DisableFlagParsing: true,
		RunE:               serve.RunE,
	}

	migrate := &cobra.Command{
		Use:                "migrate",
		Short:              "Apply database migrations and exit",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}

	var name, email string
	createUser := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user with a verified email",
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}

			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			password, err := readPassword(cmd.InOrStdin())
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)
			if len(password) < 8 {
				return errors.New("password must be at least 8 characters")
			}

			app, err := loadApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Migrate(cmd.Context()); err != nil {
				return err
			}
			u, err := app.CreateUser(cmd.Context(), name, email, string(password))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	createUser.Flags().StringVar(&email, "email", "", "email address")
	createUser.Flags().StringVar(&name, "name", "", "display name")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}

	root.AddCommand(serve, migrate, createUser, version)
	root.SetArgs(args)
	return root
}
