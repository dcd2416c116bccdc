package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/resolve"
	"github.com/erazemk/najdeno/internal/store"
)

func (c *cli) initCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and optionally a first account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			database, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			version, err := db.Version(ctx, database)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Database ready: %s (schema version %d)\n", c.cfg.DBPath, version)

			if email == "" {
				return nil
			}

			password, err := generatePassword(16)
			if err != nil {
				return fmt.Errorf("generating password: %w", err)
			}
			user, err := createUser(ctx, database, email, "", password)
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Account created:")
			fmt.Fprintf(out, "  Email:    %s\n", user.Email)
			fmt.Fprintf(out, "  Password: %s\n", password)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Save this password, it cannot be recovered.")
			fmt.Fprintln(out, "It can be changed after logging in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "create an account with a generated password")
	return cmd
}

func (c *cli) useraddCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Create an account, prompting for its password",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			password, err := promptPassword(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}

			database, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			user, err := createUser(ctx, database, email, name, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", user.ID, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name (default: part of the email before @)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			database, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			users, err := store.ListUsers(ctx, database)
			if err != nil {
				return err
			}
			return printUsers(cmd.OutOrStdout(), users)
		},
	}
}

func printUsers(w io.Writer, users []model.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.DisplayName, u.CreatedAt.Local().Format("2006-01-02"))
	}
	return tw.Flush()
}

func (c *cli) reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute every item's status from its claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			database, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			n, err := resolve.New(database).ReconcileAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Repaired %d item(s)\n", n)
			return nil
		},
	}
}

// createUser adds an account with a hashed password.
func createUser(ctx context.Context, database *sql.DB, email, name, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q", email)
	}

	existing, err := store.GetUserByEmail(ctx, database, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("user %s already exists", email)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name == "" {
		name = model.DefaultDisplayName(email)
	}
	return store.CreateUser(ctx, database, email, name, hash)
}

// promptPassword reads a new password twice. On a terminal the input is not
// echoed; otherwise a single line is read from in.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		first, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		fmt.Fprint(out, "Repeat password: ")
		second, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", errors.New("passwords do not match")
		}
		return string(first), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
