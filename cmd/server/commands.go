package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hospital-portal/internal/auth"
	"hospital-portal/internal/core"
	"hospital-portal/internal/db"
	"hospital-portal/internal/widget"
	"hospital-portal/pkg"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL must be set")
			}
			conn, err := openDB(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.Migrate(cmd.Context(), conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL must be set")
			}
			f := core.RegisterForm{Name: name, Email: email, Password: password, PasswordConfirmation: password}
			if errs := f.Validate(); errs.Any() {
				return errs
			}
			log, err := cfg.Logger()
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			svc := auth.NewService(b.Accounts, auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL))
			u, err := svc.CreateUser(cmd.Context(), strings.TrimSpace(name), core.NormalizeEmail(email), password, pkg.RoleAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "sign-in email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// watchCmd prints the content changes other server instances announce.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print content change notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL must be set")
			}
			log, err := cfg.Logger()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, err := openDB(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()
			changes, err := db.NewNotifier(conn, cfg.NotifyChannel, log).Listen(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			log.WithField("channel", cfg.NotifyChannel).Info("watching for changes")
			for c := range changes {
				log.WithField("entity", c.Entity).WithField("id", c.ID).Info("content changed")
			}
			return nil
		},
	}
}

// chatCmd talks to a running server's assistant from the terminal.
func chatCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return chatLoop(ctx, widget.New(widget.NewHTTPEndpoint(baseURL)), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the website")
	return cmd
}

func chatLoop(ctx context.Context, w *widget.Widget, in io.Reader, out io.Writer) error {
	defer w.Close()
	go func() {
		<-ctx.Done()
		w.Close()
	}()

	fmt.Fprintln(out, "Type a question, or an empty line to quit.")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		if strings.TrimSpace(sc.Text()) == "" {
			return nil
		}
		w.SetInput(sc.Text())
		if !w.Submit() {
			return ctx.Err()
		}
		w.Wait()
		msgs := w.Transcript()
		if n := len(msgs); n > 0 && msgs[n-1].FromBot {
			fmt.Fprintln(out, msgs[n-1].Text)
		}
	}
}
