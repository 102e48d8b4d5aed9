package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"dirsync/core/config"
	"dirsync/core/connector"
	"dirsync/core/database"
	"dirsync/core/directory"
	"dirsync/core/logger"
	"dirsync/core/reconcile"
	"dirsync/core/script"
	"dirsync/core/storage"
	"dirsync/core/syncoptions"
	"dirsync/feature/audit"
	"dirsync/feature/source"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the reconcile command
	sourceFile  string
	destFile    string
	applyPlan   bool
	dryRunPlan  bool
	cleanPlan   bool
	auditPlan   bool
	yesConfirm  bool
	sampleLimit int
)

// reconcileCmd plans and optionally applies a synchronization task.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile <task>",
	Short: "Reconcile a task's source into its destination (report + optionally apply)",
	Long: `Reconcile the entries of a task's source into the destination directory.

The source is the configured SQL database, or a JSON file of beans with
--source-file. The destination is the configured LDAP directory, or a JSON file
with --dest-file.

Examples:
  # Report only
  reconcile people

  # Also delete destination entries without a source
  reconcile people --clean

  # Apply with interactive confirmation
  reconcile people --apply

  # Apply with auto-confirm and an LDIF audit log in storage
  reconcile people --apply --yes --audit

  # Offline planning between two files
  reconcile people --source-file people.json --dest-file directory.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&sourceFile, "source-file", "", "Read source entries from a JSON file instead of the database")
	reconcileCmd.Flags().StringVar(&destFile, "dest-file", "", "Use a JSON file as destination instead of the LDAP directory")
	reconcileCmd.Flags().BoolVar(&applyPlan, "apply", false, "Apply the planned operations")
	reconcileCmd.Flags().BoolVar(&dryRunPlan, "dry-run", false, "Force dry-run (no mutations even with --apply --yes)")
	reconcileCmd.Flags().BoolVar(&cleanPlan, "clean", false, "Delete destination entries without a source")
	reconcileCmd.Flags().BoolVar(&auditPlan, "audit", false, "Store an LDIF audit log of applied operations")
	reconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	reconcileCmd.Flags().IntVar(&sampleLimit, "samples", 5, "Number of sample operations to report")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	name := args[0]

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	l = logger.WithTask(l, name)

	store, err := newTaskStore(cfg)
	if err != nil {
		return err
	}
	task, err := store.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}

	src, err := openSource(cfg, task)
	if err != nil {
		return err
	}
	dst, closeDst, err := openDestination(cfg, task, l)
	if err != nil {
		return err
	}
	defer closeDst()

	l.Info("Starting reconciliation", zap.Strings("pivot", task.Pivot))
	pairs, err := connector.Pairs(ctx, src, dst, task.Pivot)
	if err != nil {
		return fmt.Errorf("failed to pair entries: %w", err)
	}

	willApply := applyPlan && !dryRunPlan
	reconciler := reconcile.New(script.NewCUE(), l, reconcile.WithPeopleContainer(cfg.Sync.PeopleContainer))
	plan, err := reconciler.ReconcileWithPlan(ctx, task.Options(), pairs, reconcile.PlanOptions{
		Condition: willApply,
		Clean:     cleanPlan,
	})
	if err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}

	printReconcileReport(l, plan)

	if !applyPlan {
		l.Info("No actions requested. Use --apply to write the planned operations.")
		return nil
	}
	if dryRunPlan {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if len(plan.Operations) == 0 {
		l.Info("No actions required.")
		return nil
	}
	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	l.Info("Applying operations...")
	applied, applyErr := reconcile.ApplyPlan(ctx, dst, plan, reconcile.ApplyOptions{Confirmed: true})
	if auditPlan && applied > 0 {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			l.Error("Failed to connect to storage for audit", zap.Error(err))
		} else {
			w := audit.NewWriter(client, cfg.Storage.Bucket, cfg.Sync.AuditPrefix, l)
			if _, err := w.Write(ctx, task.Name, plan.Operations[:applied]); err != nil {
				l.Error("Failed to write audit log", zap.Error(err))
			}
		}
	}
	if applyErr != nil {
		return fmt.Errorf("failed to apply plan after %d operations: %w", applied, applyErr)
	}

	l.Info("Successfully applied operations", zap.Int("count", applied))
	return nil
}

func openSource(cfg *config.Config, task *syncoptions.Task) (connector.Source, error) {
	if sourceFile != "" {
		return source.NewFileSource(sourceFile), nil
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return source.NewSQLSource(db, task)
}

func openDestination(cfg *config.Config, task *syncoptions.Task, l *zap.Logger) (connector.Destination, func(), error) {
	if destFile != "" {
		return directory.NewFileDestination(destFile), func() {}, nil
	}
	dir, err := directory.Dial(cfg.Directory, l, directory.WithBinaryAttributes(task.BinaryAttributes...))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to directory: %w", err)
	}
	return dir, dir.Close, nil
}

// printReconcileReport prints a formatted reconciliation report using logger.
func printReconcileReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary

	l.Info("Reconciliation report",
		zap.Int("total_entries", s.TotalEntries),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("skipped", s.Skipped),
	)

	if len(plan.Operations) == 0 {
		return
	}
	l.Info("Planned operations",
		zap.Int("adds", s.Adds),
		zap.Int("modifies", s.Modifies),
		zap.Int("renames", s.Renames),
		zap.Int("deletes", s.Deletes),
		zap.Int("dependencies", s.Dependencies),
		zap.Int("total_operations", len(plan.Operations)),
	)

	maxShow := max(0, min(sampleLimit, len(plan.Operations)))
	for _, op := range plan.Operations[:maxShow] {
		fields := []zap.Field{
			zap.String("kind", string(op.Kind)),
			zap.String("dn", op.DN),
		}
		if op.NewDN != "" {
			fields = append(fields, zap.String("new_dn", op.NewDN))
		}
		attrs := make([]string, 0, len(op.Changes))
		for _, change := range op.Changes {
			attrs = append(attrs, string(change.Type)+":"+change.Attribute.Name)
		}
		if len(attrs) > 0 {
			fields = append(fields, zap.Strings("changes", attrs))
		}
		l.Info("Sample operation", fields...)
	}
	if len(plan.Operations) > maxShow {
		l.Info("Additional operations not shown", zap.Int("count", len(plan.Operations)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm changes to the destination: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
