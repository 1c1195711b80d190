package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/config"
	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/notify"
	"github.com/manav03panchal/tickwatch/internal/output"
	"github.com/manav03panchal/tickwatch/internal/validate"
)

// Webhook command flags.
var (
	webhookAddFlagType     string
	webhookAddFlagTemplate string
	webhookAddFlagHeaders  []string
	webhookTestFlagAll     bool
)

// webhookCmd represents the webhook command.
var webhookCmd = &cobra.Command{
	Use:     "webhook [command]",
	Aliases: []string{"wh", "hook"},
	Short:   "Configure expiry notifications",
	Long: `Configure webhooks for Discord, Slack, Teams, or custom endpoints.

Each enabled webhook is told when a timer goes off, and when its action
could not be launched. Webhooks are kept in the config file.

Examples:
  tickwatch webhook add discord https://discord.com/api/webhooks/...
  tickwatch webhook add ops https://example.com/hook --type generic
  tickwatch webhook list
  tickwatch webhook test discord
  tickwatch webhook disable discord
  tickwatch webhook remove discord`,
	RunE: runWebhookList,
}

// webhookAddCmd adds a new webhook.
var webhookAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add a webhook",
	Long: `Add a webhook to the config file.

The webhook type is auto-detected from the URL:
  - Discord: discord.com/api/webhooks/...
  - Slack:   hooks.slack.com/services/...
  - Teams:   outlook.office.com/webhook/...
  - Generic: Any other URL

Examples:
  tickwatch webhook add discord https://discord.com/api/webhooks/123/abc
  tickwatch webhook add ops https://example.com/hook -H "Authorization=Bearer x"`,
	Args: cobra.ExactArgs(2),
	RunE: runWebhookAdd,
}

var webhookListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List webhooks",
	Args:    cobra.NoArgs,
	RunE:    runWebhookList,
}

var webhookTestCmd = &cobra.Command{
	Use:   "test [NAME]",
	Short: "Send a test notification",
	Long: `Send a test notification to verify a webhook.

Examples:
  tickwatch webhook test discord
  tickwatch webhook test --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWebhookTest,
}

var webhookRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a webhook",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editWebhook(args[0], "removed", func(hooks []model.Webhook, i int) []model.Webhook {
			return append(hooks[:i], hooks[i+1:]...)
		})
	},
}

var webhookEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Enable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editWebhook(args[0], "enabled", func(hooks []model.Webhook, i int) []model.Webhook {
			hooks[i].Disabled = false
			return hooks
		})
	},
}

var webhookDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Disable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editWebhook(args[0], "disabled", func(hooks []model.Webhook, i int) []model.Webhook {
			hooks[i].Disabled = true
			return hooks
		})
	},
}

func init() {
	webhookAddCmd.Flags().StringVarP(&webhookAddFlagType, "type", "t", "",
		"Webhook type: discord, slack, teams, generic (auto-detected from URL if not specified)")
	webhookAddCmd.Flags().StringVar(&webhookAddFlagTemplate, "template", "",
		"Payload template for generic webhooks")
	webhookAddCmd.Flags().StringArrayVarP(&webhookAddFlagHeaders, "header", "H", nil,
		"Extra request header as KEY=VALUE (repeatable)")
	webhookAddCmd.RegisterFlagCompletionFunc("type", cobra.FixedCompletions(
		model.ValidWebhookTypes(), cobra.ShellCompDirectiveNoFileComp))

	webhookTestCmd.Flags().BoolVarP(&webhookTestFlagAll, "all", "a", false,
		"Test all enabled webhooks")

	webhookTestCmd.ValidArgsFunction = completeWebhookArgs
	webhookRemoveCmd.ValidArgsFunction = completeWebhookArgs
	webhookEnableCmd.ValidArgsFunction = completeWebhookArgs
	webhookDisableCmd.ValidArgsFunction = completeWebhookArgs

	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookTestCmd)
	webhookCmd.AddCommand(webhookRemoveCmd)
	webhookCmd.AddCommand(webhookEnableCmd)
	webhookCmd.AddCommand(webhookDisableCmd)

	rootCmd.AddCommand(webhookCmd)
}

// completeWebhookArgs completes webhook names from the config file.
func completeWebhookArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, wh := range cfg.Notify.Webhooks {
		if strings.HasPrefix(wh.Name, toComplete) {
			names = append(names, wh.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// updateConfig applies fn to the config file and writes it back.
func updateConfig(fn func(cfg *config.RuntimeConfig) error) (*config.RuntimeConfig, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	if err := fn(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrInvalidInput, "webhook", "", err.Error())
	}
	if err := config.Save(afero.NewOsFs(), configPath(), cfg); err != nil {
		return nil, err
	}
	config.Global = cfg
	ctx.Config = cfg
	return cfg, nil
}

func findWebhook(hooks []model.Webhook, name string) int {
	for i, wh := range hooks {
		if wh.Name == name {
			return i
		}
	}
	return -1
}

func runWebhookAdd(cmd *cobra.Command, args []string) error {
	name, webhookURL := args[0], args[1]

	if err := validate.URL(webhookURL); err != nil {
		return err
	}

	webhookType := webhookAddFlagType
	if webhookType == "" {
		webhookType = model.DetectWebhookType(webhookURL)
	}
	if !model.IsValidWebhookType(webhookType) {
		return errors.NewValidationError(errors.ErrInvalidInput, "type", webhookType,
			"webhook type must be one of "+strings.Join(model.ValidWebhookTypes(), ", "))
	}

	headers, err := parseHeaders(webhookAddFlagHeaders)
	if err != nil {
		return err
	}

	webhook := model.Webhook{
		Name:     name,
		Type:     webhookType,
		URL:      webhookURL,
		Template: webhookAddFlagTemplate,
		Headers:  headers,
	}
	_, err = updateConfig(func(cfg *config.RuntimeConfig) error {
		if findWebhook(cfg.Notify.Webhooks, name) >= 0 {
			return errors.NewValidationError(errors.ErrDuplicateName, "name", name,
				fmt.Sprintf("webhook %q already exists", name))
		}
		cfg.Notify.Webhooks = append(cfg.Notify.Webhooks, webhook)
		return nil
	})
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status": "added",
			"name":   webhook.Name,
			"type":   webhook.Type,
			"url":    logging.MaskURL(webhook.URL),
		})
	}

	ctx.CLIFormatter().Success("Added webhook " + name)
	ctx.Formatter.Printf("  Type: %s\n", webhook.Type)
	ctx.Formatter.Printf("  URL: %s\n", logging.MaskURL(webhook.URL))
	ctx.Formatter.Println("")
	ctx.Formatter.Printf("Test with: tickwatch webhook test %s\n", name)
	return nil
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		key, value, ok := strings.Cut(h, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.NewValidationError(errors.ErrInvalidInput, "header", h,
				"header must be KEY=VALUE")
		}
		headers[key] = value
	}
	return headers, nil
}

// editWebhook applies fn to the named webhook and saves the config.
func editWebhook(name, status string, fn func(hooks []model.Webhook, i int) []model.Webhook) error {
	_, err := updateConfig(func(cfg *config.RuntimeConfig) error {
		i := findWebhook(cfg.Notify.Webhooks, name)
		if i < 0 {
			return fmt.Errorf("%w: %s", errors.ErrWebhookNotFound, name)
		}
		cfg.Notify.Webhooks = fn(cfg.Notify.Webhooks, i)
		return nil
	})
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status":  status,
			"webhook": name,
		})
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Webhook %s %s", name, status))
	return nil
}

func runWebhookList(cmd *cobra.Command, args []string) error {
	webhooks := ctx.Config.Notify.Webhooks

	if ctx.IsJSON() {
		masked := make([]model.Webhook, len(webhooks))
		for i, wh := range webhooks {
			wh.URL = logging.MaskURL(wh.URL)
			wh.Headers = logging.MaskHeaders(wh.Headers)
			masked[i] = wh
		}
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"webhooks": masked,
			"count":    len(webhooks),
		})
	}

	if len(webhooks) == 0 {
		ctx.Formatter.Println("No webhooks configured.")
		ctx.Formatter.Println("")
		ctx.Formatter.Println("Add one with: tickwatch webhook add discord <url>")
		return nil
	}

	cli := ctx.CLIFormatter()
	cli.Title("Webhooks")
	rows := make([]output.TableRow, 0, len(webhooks))
	for _, wh := range webhooks {
		status := "enabled"
		if !wh.IsEnabled() {
			status = "disabled"
		}
		rows = append(rows, output.TableRow{Columns: []string{
			wh.Name, wh.ResolvedType(), status, logging.MaskURL(wh.URL),
		}})
	}
	cli.PrintTable([]string{"NAME", "TYPE", "STATUS", "URL"}, rows)
	return nil
}

func runWebhookTest(cmd *cobra.Command, args []string) error {
	notifier := ctx.Notifier()
	c, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var names []string
	switch {
	case webhookTestFlagAll:
		for _, wh := range notifier.Webhooks() {
			names = append(names, wh.Name)
		}
		if len(names) == 0 {
			return errors.NewValidationError(errors.ErrInvalidInput, "all", "", "no enabled webhooks to test")
		}
	case len(args) == 1:
		names = args
	default:
		return errors.NewValidationError(errors.ErrInvalidInput, "name", "", "webhook name required (or use --all)")
	}

	results := make([]notify.Result, 0, len(names))
	for _, name := range names {
		results = append(results, notifier.TestWebhook(c, name))
	}

	if ctx.IsJSON() {
		out := make([]map[string]interface{}, len(results))
		for i, r := range results {
			out[i] = map[string]interface{}{
				"webhook":     r.WebhookName,
				"success":     r.Success,
				"status_code": r.StatusCode,
				"attempts":    r.Attempts,
				"duration_ms": r.Duration.Milliseconds(),
				"error":       errorString(r.Error),
			}
		}
		return ctx.Formatter.PrintJSON(map[string]interface{}{"results": out})
	}

	cli := ctx.CLIFormatter()
	failed := 0
	for _, r := range results {
		if r.Success {
			cli.Success(fmt.Sprintf("%s: delivered in %dms", r.WebhookName, r.Duration.Milliseconds()))
			continue
		}
		failed++
		cli.Error(fmt.Sprintf("%s: %s", r.WebhookName, errorString(r.Error)))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d webhook test(s) failed", failed, len(results))
	}
	return nil
}

// errorString returns the error message or empty string if nil.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
