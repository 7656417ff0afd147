// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"agri-credit-workers/internal/common/validation"
	"agri-credit-workers/pkg/registry"
)

var registryPath string

var rootCmd = &cobra.Command{
	Use:          "registry-updater",
	Short:        "Maintain the activity registry the workers load their input schemas from",
	SilenceUsage: true,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new activity to the registry",
	Example: `  registry-updater add --id score-cooperative --displayName "Score Cooperative" \
    --description "Scores a cooperative group loan" --category credit --taskType score-cooperative`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		id, _ := f.GetString("id")
		displayName, _ := f.GetString("displayName")
		description, _ := f.GetString("description")
		category, _ := f.GetString("category")
		taskType, _ := f.GetString("taskType")
		version, _ := f.GetString("version")
		status, _ := f.GetString("status")
		schemaFile, _ := f.GetString("input-schema")

		activity := registry.Activity{
			ID:                   id,
			DisplayName:          displayName,
			Description:          description,
			Category:             category,
			Version:              version,
			TaskType:             taskType,
			ImplementationStatus: status,
			InputSchema:          map[string]interface{}{},
			OutputSchema:         map[string]interface{}{},
			ErrorCodes:           []string{},
			Timeout:              "30s",
			Retries:              3,
			Workflows:            []string{},
			Tags:                 []string{},
		}
		if schemaFile != "" {
			data, err := os.ReadFile(filepath.Clean(schemaFile))
			if err != nil {
				return fmt.Errorf("read input schema: %w", err)
			}
			if err := json.Unmarshal(data, &activity.InputSchema); err != nil {
				return fmt.Errorf("parse input schema: %w", err)
			}
		}

		if err := addActivity(registryPath, &activity); err != nil {
			return fmt.Errorf("add activity: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", id)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Update a field of an existing activity",
	Example: `  registry-updater update --id assess-credit-risk --field timeout --value 45s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		field, _ := cmd.Flags().GetString("field")
		value, _ := cmd.Flags().GetString("value")

		if err := updateActivity(registryPath, id, field, value); err != nil {
			return fmt.Errorf("update activity: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry, including every input schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		if err := validateRegistry(reg); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		return listActivities(cmd.OutOrStdout(), reg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryPath, "path", "configs/activity-registry.json", "path to the registry file")

	f := addCmd.Flags()
	f.String("id", "", "activity ID (e.g. assess-credit-risk)")
	f.String("displayName", "", "display name")
	f.String("description", "", "description")
	f.String("category", "", "category (e.g. credit)")
	f.String("taskType", "", "Zeebe task type")
	f.String("version", "1.0.0", "version")
	f.String("status", "planned", "implementation status (planned, in-progress, completed, verified)")
	f.String("input-schema", "", "JSON schema file for the job variables")
	for _, name := range []string{"id", "displayName", "description", "category", "taskType"} {
		_ = addCmd.MarkFlagRequired(name)
	}

	f = updateCmd.Flags()
	f.String("id", "", "activity ID to update")
	f.String("field", "", "field to update (status, version, displayName, description, category, taskType, timeout, retries)")
	f.String("value", "", "new value for the field")
	for _, name := range []string{"id", "field", "value"} {
		_ = updateCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(addCmd, updateCmd, validateCmd, listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addActivity(path string, activity *registry.Activity) error {
	if err := validation.ValidateActivityNaming(activity.ID); err != nil {
		return err
	}

	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{
			Version:    "1.0.0",
			Activities: []registry.Activity{},
		}
	}

	for _, existing := range reg.Activities {
		if existing.ID == activity.ID {
			return fmt.Errorf("activity with ID %s already exists", activity.ID)
		}
		if existing.TaskType == activity.TaskType {
			return fmt.Errorf("task type %s is already served by %s", activity.TaskType, existing.ID)
		}
	}

	reg.Activities = append(reg.Activities, *activity)
	if err := validateRegistry(reg); err != nil {
		return err
	}
	return saveRegistry(reg, path)
}

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
	case "taskType":
		activity.TaskType = value
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

	if err := validateRegistry(reg); err != nil {
		return err
	}
	return saveRegistry(reg, path)
}

// validateRegistry checks required fields, uniqueness of IDs and task types,
// timeouts, and that every input schema compiles.
func validateRegistry(reg *registry.ActivityRegistry) error {
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]string)
	for _, activity := range reg.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
		if other, ok := taskTypes[activity.TaskType]; ok {
			return fmt.Errorf("activities %s and %s share task type %s", other, activity.ID, activity.TaskType)
		}
		taskTypes[activity.TaskType] = activity.ID

		if activity.Timeout != "" {
			if _, err := time.ParseDuration(activity.Timeout); err != nil {
				return fmt.Errorf("activity %s has invalid timeout %q", activity.ID, activity.Timeout)
			}
		}
		if activity.Retries < 0 {
			return fmt.Errorf("activity %s has negative retries", activity.ID)
		}
		if _, err := reg.InputSchema(activity.TaskType); err != nil {
			return err
		}
	}
	return nil
}

func listActivities(w io.Writer, reg *registry.ActivityRegistry) error {
	activities := append([]registry.Activity(nil), reg.Activities...)
	sort.Slice(activities, func(i, j int) bool { return activities[i].ID < activities[j].ID })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTASK TYPE\tCATEGORY\tSTATUS\tTIMEOUT\tRETRIES\tSCHEMA")
	for _, a := range activities {
		schema := "-"
		if len(a.InputSchema) > 0 {
			schema = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			a.ID, a.TaskType, a.Category, a.ImplementationStatus, a.Timeout, a.Retries, schema)
	}
	return tw.Flush()
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
