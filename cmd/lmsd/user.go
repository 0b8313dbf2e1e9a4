package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/librarydesk/lms/internal/library"
	"github.com/librarydesk/lms/internal/repo"
	"github.com/librarydesk/lms/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserCreateCmd(opts))
	return cmd
}

func newUserCreateCmd(opts *rootOptions) *cobra.Command {
	in := library.RegisterInput{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account, including librarian accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				password, err := readPassword(fmt.Sprintf("Password for %s: ", in.Username))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				in.Password = password
			}

			cfg := opts.load()
			log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
			defer log.Sync()

			database, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close()

			profiles := library.NewProfileService(repo.NewUserRepository(database, log), log)
			user, err := profiles.Register(context.Background(), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s '%s' with ID %d\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "account username")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&in.Role, "role", library.RoleUser, "account role: librarian or user")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// readPassword reads a password from the terminal without echo
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(os.Stderr)
	return trimLineEnding(raw), nil
}

// trimLineEnding drops a trailing newline; other whitespace is part of the password
func trimLineEnding(raw []byte) string {
	return strings.TrimRight(string(raw), "\r\n")
}
