package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"matchpet-workers/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and maintain the activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		problems := reg.Validate()
		w := cmd.OutOrStdout()
		for _, p := range problems {
			fmt.Fprintf(w, "  - %v\n", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("registry validation failed with %d problem(s)", len(problems))
		}
		fmt.Fprintf(w, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		return printResult(cmd.OutOrStdout(), reg.Activities, func(w io.Writer) {
			for _, a := range reg.Activities {
				fmt.Fprintf(w, "%-32s %-14s %-12s %s\n", a.TaskType, a.Category, a.ImplementationStatus, a.Timeout)
			}
		})
	},
}

var (
	updateID    string
	updateField string
	updateValue string
)

var registryUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update one field of a registered activity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := updateActivity(registryPath, updateID, updateField, updateValue); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", updateID, updateField, updateValue)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryValidateCmd, registryListCmd, registryUpdateCmd)
	registryCmd.PersistentFlags().StringVarP(&registryPath, "path", "p", "configs/activity-registry.json", "path to registry file")

	registryUpdateCmd.Flags().StringVar(&updateID, "id", "", "activity ID to update")
	registryUpdateCmd.Flags().StringVar(&updateField, "field", "", "field to update (status, version, timeout, retries, ...)")
	registryUpdateCmd.Flags().StringVar(&updateValue, "value", "", "new value for the field")
	_ = registryUpdateCmd.MarkFlagRequired("id")
	_ = registryUpdateCmd.MarkFlagRequired("field")
	_ = registryUpdateCmd.MarkFlagRequired("value")
}

// updateActivity rewrites one field and refuses to save a registry that no longer validates.
func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var activity *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			activity = &reg.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		activity.ImplementationStatus = value
	case "version":
		activity.Version = value
	case "displayName":
		activity.DisplayName = value
	case "description":
		activity.Description = value
	case "category":
		activity.Category = value
	case "timeout":
		activity.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	if problems := reg.Validate(); len(problems) > 0 {
		return fmt.Errorf("update rejected: %v", problems[0])
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
