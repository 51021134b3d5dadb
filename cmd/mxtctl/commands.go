package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	interaction "github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
	interactionStore "github.com/ItsLhuis/mxt-sub001/internal/interaction/store"
	jwttoken "github.com/ItsLhuis/mxt-sub001/internal/jwt_token"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/postgres"
	userService "github.com/ItsLhuis/mxt-sub001/internal/user/service"
	userStore "github.com/ItsLhuis/mxt-sub001/internal/user/store"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/sentinel"
)

func openDB(ctx context.Context) (*sql.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return postgres.Open(ctx, cfg.Database)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "user <username>",
		Short: "Create a user, or print it when it already exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := userService.New(userStore.NewPostgres(db), slog.New(slog.NewTextHandler(io.Discard, nil)))
			user, err := svc.EnsureUser(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}
	cmd.Flags().StringVar(&role, "role", string(domain.RoleEmployee), "admin, manager or employee")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		username string
		userID   string
		role     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user",
		Long: "Mint an access token. With --username the user is read from the database;\n" +
			"with --user-id and --role the claims are taken as given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, r, err := resolveSubject(cmd.Context(), username, userID, role)
			if err != nil {
				return err
			}
			svc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
			token, err := svc.GenerateAccessToken(id, r, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "look the subject up by username")
	cmd.Flags().StringVar(&userID, "user-id", "", "subject id")
	cmd.Flags().StringVar(&role, "role", "", "subject role")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	cmd.MarkFlagsMutuallyExclusive("username", "user-id")
	return cmd
}

func resolveSubject(ctx context.Context, username, userID, role string) (uuid.UUID, domain.Role, error) {
	if username == "" {
		id, err := uuid.Parse(userID)
		if err != nil {
			return uuid.Nil, "", fmt.Errorf("--user-id: %w", err)
		}
		r := domain.ParseRole(role)
		if r.IsZero() {
			return uuid.Nil, "", errors.New("--role is required with --user-id")
		}
		return id, r, nil
	}

	db, err := openDB(ctx)
	if err != nil {
		return uuid.Nil, "", err
	}
	defer db.Close()
	user, err := userStore.NewPostgres(db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return uuid.Nil, "", fmt.Errorf("user %q not found", username)
		}
		return uuid.Nil, "", err
	}
	return user.ID, user.Role, nil
}

type verifyOutput struct {
	EntityType interaction.EntityType `json:"entity_type"`
	EntityID   uuid.UUID              `json:"entity_id"`
	Records    int                    `json:"records"`
	Valid      bool                   `json:"valid"`
	Problem    string                 `json:"problem,omitempty"`
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <entity-type> <entity-id>",
		Short: "Check the hash chain of one entity's interactions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			et := interaction.EntityType(args[0])
			if !et.IsValid() {
				return fmt.Errorf("unknown entity type %q", args[0])
			}
			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("entity id: %w", err)
			}

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := interactionStore.NewPostgres(db).Chain(cmd.Context(), et, id)
			if err != nil {
				return err
			}
			out := verifyOutput{EntityType: et, EntityID: id, Records: len(records), Valid: true}
			if err := interactionStore.VerifyChain(records); err != nil {
				if !errors.Is(err, sentinel.ErrChainBroken) {
					return err
				}
				out.Valid = false
				out.Problem = err.Error()
			}
			if err := printJSON(cmd, out); err != nil {
				return err
			}
			if !out.Valid {
				return errors.New("chain broken")
			}
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
