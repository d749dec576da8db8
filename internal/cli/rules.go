package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"comfyui-deps/internal/app"
	"comfyui-deps/internal/types"
)

func newRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective version rules grouped by tier",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRules()
		},
	}
}

func runRules() error {
	service := newAppService()
	result, err := service.Rules(app.RulesRequest{ConfigPath: configPath()})
	if err != nil {
		return err
	}
	for _, group := range result.Groups {
		fmt.Printf("%s (%d)\n", group.Tier, len(group.Rules))
		for _, rule := range group.Rules {
			fmt.Printf("- %s%s\n", rule.Package, describeRule(rule))
		}
	}
	names := make([]string, 0, len(result.SourceTrust))
	for name := range result.SourceTrust {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("source trust (default %d):\n", result.DefaultTrust)
	for _, name := range names {
		fmt.Printf("- %s: %d\n", name, result.SourceTrust[name])
	}
	return nil
}

func describeRule(rule types.PackageVersionRule) string {
	var parts []string
	if rule.PreferredVersion != "" {
		parts = append(parts, "preferred "+rule.PreferredVersion)
	}
	if rule.MinVersion != "" {
		parts = append(parts, ">="+rule.MinVersion)
	}
	if rule.MaxVersion != "" {
		parts = append(parts, "<="+rule.MaxVersion)
	}
	if len(rule.ExcludedVersions) > 0 {
		parts = append(parts, "not "+strings.Join(rule.ExcludedVersions, ","))
	}
	if rule.IndexURL != "" {
		parts = append(parts, "index "+rule.IndexURL)
	}
	out := ""
	if len(parts) > 0 {
		out = " [" + strings.Join(parts, " ") + "]"
	}
	if rule.Reason != "" {
		out += " " + rule.Reason
	}
	return out
}
