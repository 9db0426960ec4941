package main

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/tidy/pkg/tidy/naming"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template"},
	Short:   "Manage naming templates",
	Long: `Templates are placeholder patterns that produce a file's new name.

Placeholders: {original} {name} {ext} {category} {date} {date:YYYYMMDD}
{year} {month} {day} {camera} {cameraMake} {cameraModel} {lens} {width}
{height} {title} {author} {subject} {pages} and any metadata field path
such as {image.iso} or {pdf.creator}.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	Args:  cobra.NoArgs,
	RunE:  runTemplatesList,
}

var templatesAddCmd = &cobra.Command{
	Use:   "add <name> <pattern>",
	Short: "Add a template",
	Long: `Add a naming template.

Examples:
  tidy templates add "Photo by camera" "{date}_{camera}_{original}"
  tidy templates add Invoice "{date:YYYY-MM}_{title}" --types pdf,docx --default`,
	Args: cobra.ExactArgs(2),
	RunE: runTemplatesAdd,
}

var templatesRemoveCmd = &cobra.Command{
	Use:     "remove <template>",
	Aliases: []string{"rm"},
	Short:   "Remove a template by ID or name",
	Args:    cobra.ExactArgs(1),
	RunE:    runTemplatesRemove,
}

func init() {
	templatesAddCmd.Flags().String("types", "", "file extensions the template is meant for (comma-separated)")
	templatesAddCmd.Flags().Bool("default", false, "make this the default template")

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesAddCmd)
	templatesCmd.AddCommand(templatesRemoveCmd)
	rootCmd.AddCommand(templatesCmd)
}

func runTemplatesList(cmd *cobra.Command, _ []string) error {
	def, _ := cfg.DefaultTemplate()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEFAULT\tNAME\tPATTERN\tTYPES\tID")
	for _, t := range cfg.Templates {
		mark := ""
		if t.ID == def.ID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, t.Name, t.Pattern, strings.Join(t.FileTypes, ","), t.ID)
	}
	return tw.Flush()
}

func runTemplatesAdd(cmd *cobra.Command, args []string) error {
	name, pattern := strings.TrimSpace(args[0]), args[1]
	for _, t := range cfg.Templates {
		if strings.EqualFold(t.Name, name) {
			return fmt.Errorf("template %q already exists", t.Name)
		}
	}

	for _, token := range unknownPlaceholders(pattern) {
		printInfo("Warning: unknown placeholder {%s} will leave files with missing data", token)
	}

	typesFlag, _ := cmd.Flags().GetString("types")
	makeDefault, _ := cmd.Flags().GetBool("default")

	now := time.Now()
	t := types.Template{
		ID:        uuid.NewString(),
		Name:      name,
		Pattern:   pattern,
		FileTypes: parseCommaSeparated(strings.ToLower(typesFlag)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	cfg.Templates = append(slices.Clone(cfg.Templates), t)
	if makeDefault {
		cfg.Preferences.DefaultTemplateID = t.ID
	}
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Added template %q (%s)", t.Name, t.ID)
	return nil
}

func runTemplatesRemove(_ *cobra.Command, args []string) error {
	t, err := findTemplate(cfg.Templates, args[0])
	if err != nil {
		return err
	}
	var users []string
	for _, r := range cfg.Rules {
		if r.TemplateID == t.ID {
			users = append(users, r.Name)
		}
	}
	for _, r := range cfg.FilenameRules {
		if r.TemplateID == t.ID {
			users = append(users, r.Name)
		}
	}
	if len(users) > 0 {
		printInfo("Warning: rules %s reference this template and will fall back to the default", strings.Join(users, ", "))
	}

	if len(cfg.Templates) == 1 {
		return fmt.Errorf("cannot remove %q: at least one template is required", t.Name)
	}
	cfg.Templates = slices.DeleteFunc(slices.Clone(cfg.Templates), func(x types.Template) bool {
		return x.ID == t.ID
	})
	if cfg.Preferences.DefaultTemplateID == t.ID {
		cfg.Preferences.DefaultTemplateID = ""
	}
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Removed template %q", t.Name)
	return nil
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// unknownPlaceholders lists the placeholders in pattern that do not resolve.
func unknownPlaceholders(pattern string) []string {
	var out []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(pattern, -1) {
		if !naming.Known(m[1]) && !slices.Contains(out, m[1]) {
			out = append(out, m[1])
		}
	}
	return out
}
