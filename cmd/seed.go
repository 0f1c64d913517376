package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/stratumhq/stratum/db"
	"github.com/stratumhq/stratum/internal/oplog"
	"github.com/stratumhq/stratum/internal/storage"
	"github.com/stratumhq/stratum/internal/tenant"
)

var (
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

var seedCmd = &cobra.Command{
	Use:   "seed <org-handle>",
	Short: "Create an organization with the given tenant handle",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 || args[0] == "" {
			fmt.Fprintln(os.Stderr, errStyle.Render("usage: stratum seed <org-handle>"))
			fail()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := db.Migrate(cfg.PostgresURL()); err != nil {
			return err
		}

		ctx := cmd.Context()
		pool, err := storage.Open(ctx, cfg.PostgresConnectionString())
		if err != nil {
			return err
		}
		defer pool.Close()

		store := tenant.New(pool, nil)
		org, err := store.CreateOrganization(ctx, args[0])
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				// One line, no stack trace.
				fmt.Fprintln(os.Stderr, errStyle.Render(
					fmt.Sprintf("organization %q already exists", args[0])))
				fail()
			}
			return err
		}

		logs := oplog.New(pool, nil)
		if _, err := logs.RecordAudit(ctx, oplog.AuditEntry{
			OrganizationID: &org.ID,
			TransactionID:  oplog.NewTransactionID(),
			Action:         "organization.create",
			Status:         "success",
		}); err != nil {
			slog.Warn("failed to record audit entry for seed", "error", err)
		}

		fmt.Println(okStyle.Render(fmt.Sprintf("created organization %q", org.ResID)))
		fmt.Printf("  id:         %d\n", org.ID)
		fmt.Printf("  res_id:     %s\n", org.ResID)
		fmt.Printf("  created_at: %s\n", org.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
