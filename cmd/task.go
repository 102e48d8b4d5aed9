package cmd

import (
	"fmt"
	"os"

	"dirsync/core/config"
	"dirsync/core/storage"
	"dirsync/core/syncoptions"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// taskCmd prints task policies.
var taskCmd = &cobra.Command{
	Use:   "task [name]",
	Short: "List tasks or print the resolved policy of a task",
	Long: `Without arguments, lists the available tasks.
With a task name, prints the task policy with defaults applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		store, err := newTaskStore(cfg)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			names, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}

		task, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(task)
	},
}

// newTaskStore builds the task store described by the sync configuration.
func newTaskStore(cfg *config.Config) (*syncoptions.Store, error) {
	var client storage.Client
	if cfg.Sync.TaskSource == syncoptions.TaskSourceStorage {
		c, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		client = c
	}
	loader, err := cfg.Sync.NewLoader(client, cfg.Storage.Bucket)
	if err != nil {
		return nil, err
	}
	if dl, ok := loader.(syncoptions.DirLoader); ok {
		if _, err := os.Stat(dl.Dir); err != nil {
			return nil, fmt.Errorf("task directory: %w", err)
		}
	}
	return syncoptions.NewStore(loader, cfg.Sync.CacheTTL()), nil
}

func init() {
	RootCmd.AddCommand(taskCmd)
}
