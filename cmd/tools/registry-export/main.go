// cmd/tools/registry-export/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/validation"
	em "clinic-workers/internal/workers/membership/evaluate-membership"
	nm "clinic-workers/internal/workers/membership/notify-membership"
	sml "clinic-workers/internal/workers/membership/search-membership-logs"
	umc "clinic-workers/internal/workers/membership/upsert-membership-catalog"
	vm "clinic-workers/internal/workers/membership/validate-membership"
	"clinic-workers/pkg/registry"
)

const registryVersion = "1.0.0"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportPath := exportCmd.String("path", "configs/activity-registry.json", "Path to write the registry to")

	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		reg := buildRegistry(time.Now())
		if err := reg.Validate(); err != nil {
			fmt.Printf("Built registry is invalid: %v\n", err)
			os.Exit(1)
		}
		if err := registry.Save(reg, *exportPath); err != nil {
			fmt.Printf("Error writing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d activities to %s\n", len(reg.Activities), *exportPath)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateFile(*validatePath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Registry validation passed.")

	case "list":
		for _, a := range buildRegistry(time.Now()).Activities {
			fmt.Printf("%-28s %-28s %s\n", a.ID, a.TaskType, a.Timeout)
		}

	default:
		help()
	}
}

// validateFile checks the registry on disk and that it still matches the workers.
func validateFile(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	for _, want := range buildRegistry(time.Now()).Activities {
		got, ok := reg.Find(want.ID)
		if !ok {
			return fmt.Errorf("activity %s is missing; re-run export", want.ID)
		}
		if got.TaskType != want.TaskType {
			return fmt.Errorf("activity %s has task type %s, worker uses %s", want.ID, got.TaskType, want.TaskType)
		}
	}
	return nil
}

func buildRegistry(now time.Time) *registry.ActivityRegistry {
	membershipErrors := codes(
		errors.ErrCodeValidationFailed,
		errors.ErrCodeInvalidTier,
		errors.ErrCodeNotFound,
		errors.ErrCodeRemoteStore,
		errors.ErrCodeNetwork,
	)

	return &registry.ActivityRegistry{
		Version:     registryVersion,
		LastUpdated: now.UTC().Format(time.RFC3339),
		Activities: []registry.Activity{
			activity(em.WorkerName, em.TaskType, em.GetInputSchema(), em.DefaultConfig().Timeout, registry.Activity{
				DisplayName: "Evaluate Membership",
				Description: "Creates or renews a Basic, Pro or Promo membership and appends the activity log entry",
				Outputs:     []string{"membershipId", "customerId", "action", "tier", "coverage", "price", "expireDate", "noExpiration", "logRecorded"},
				ErrorCodes:  membershipErrors,
				Requires:    []string{"clinic_api", "redis"},
				Tags:        []string{"membership", "lifecycle"},
			}),
			activity(vm.WorkerName, vm.TaskType, vm.GetInputSchema(), vm.DefaultConfig().Timeout, registry.Activity{
				DisplayName: "Validate Membership",
				Description: "Reports the customer's current membership, read through the Redis cache",
				Outputs:     []string{"customerId", "hasMembership", "isActive", "membershipId", "tier", "coverage", "expireDate", "noExpiration"},
				ErrorCodes:  append(membershipErrors, string(errors.ErrCodeMembershipExpired)),
				Requires:    []string{"clinic_api", "redis"},
				Tags:        []string{"membership", "check-in"},
			}),
			activity(umc.WorkerName, umc.TaskType, umc.GetInputSchema(), umc.DefaultConfig().Timeout, registry.Activity{
				DisplayName: "Upsert Membership Catalog",
				Description: "Creates or updates a catalog definition, allowing one current active Basic and Pro",
				Outputs:     []string{"catalogId", "created", "tier", "active"},
				ErrorCodes: codes(
					errors.ErrCodeValidationFailed,
					errors.ErrCodeInvalidTier,
					errors.ErrCodeDuplicateActiveTier,
					errors.ErrCodeNotFound,
					errors.ErrCodeQueryExecutionFailed,
					errors.ErrCodeDatabaseInsertFailed,
				),
				Retries:  errors.GetRetryCount(errors.ErrCodeDatabaseInsertFailed),
				Requires: []string{"postgres"},
				Tags:     []string{"membership", "catalog"},
			}),
			activity(nm.WorkerName, nm.TaskType, nm.GetInputSchema(), nm.DefaultConfig().Timeout, registry.Activity{
				DisplayName: "Notify Membership",
				Description: "Sends the membership receipt by email (SES) and SMS (SNS)",
				Outputs:     []string{"emailSent", "smsSent", "emailMessageId", "smsMessageId"},
				ErrorCodes:  codes(errors.ErrCodeValidationFailed, errors.ErrCodeNotFound, errors.ErrCodeNotificationSendFailed),
				Retries:     errors.GetRetryCount(errors.ErrCodeNotificationSendFailed),
				Requires:    []string{"aws"},
				Tags:        []string{"membership", "notification"},
			}),
			activity(sml.WorkerName, sml.TaskType, sml.GetInputSchema(), sml.DefaultConfig().Timeout, registry.Activity{
				DisplayName: "Search Membership Logs",
				Description: "Searches the Elasticsearch mirror of the membership activity log",
				Outputs:     []string{"data", "totalHits", "took"},
				ErrorCodes: codes(
					errors.ErrCodeValidationFailed,
					errors.ErrCodeInvalidTier,
					errors.ErrCodeSearchQueryFailed,
					errors.ErrCodeSearchTimeout,
					errors.ErrCodeIndexNotFound,
				),
				Retries:  errors.GetRetryCount(errors.ErrCodeSearchQueryFailed),
				Requires: []string{"elasticsearch"},
				Tags:     []string{"membership", "audit"},
			}),
		},
	}
}

func activity(id, taskType string, schema validation.JSONSchema, timeout time.Duration, a registry.Activity) registry.Activity {
	a.ID = id
	a.TaskType = taskType
	a.Category = "membership"
	a.Version = registryVersion
	a.InputSchema = schema.ToMap()
	a.Timeout = timeout.String()
	return a
}

func codes(cs ...errors.ErrorCode) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func help() {
	fmt.Println(`
Usage: registry-export <command> [flags]

Commands:
  export    Write the activity registry built from the membership workers
  validate  Validate a registry file against the workers
  list      Print the registered job types

Examples:
  registry-export export -path configs/activity-registry.json
  registry-export validate -path configs/activity-registry.json`)
}
