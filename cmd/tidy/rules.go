package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/rules"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage metadata and filename rules",
	Long: `Rules pick the template (and optionally the folder structure) for a file.

Metadata rules match extracted metadata such as EXIF camera make or PDF
author. Filename rules match a glob against the file name. Higher
priority wins; see 'tidy rules unified' for the combined order.`,
}

var metadataRulesCmd = &cobra.Command{
	Use:     "metadata",
	Aliases: []string{"meta"},
	Short:   "Manage metadata rules",
}

var filenameRulesCmd = &cobra.Command{
	Use:     "filename",
	Aliases: []string{"file"},
	Short:   "Manage filename rules",
}

var unifiedRulesCmd = &cobra.Command{
	Use:   "unified",
	Short: "Show both rule kinds in evaluation order",
	Args:  cobra.NoArgs,
	RunE:  runUnifiedList,
}

var unifiedReorderCmd = &cobra.Command{
	Use:   "reorder <rule>...",
	Short: "Set the order of rules across both kinds",
	Long: `Give the listed rules descending priorities in the order given.
Rules not listed drop below every listed rule.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUnifiedReorder,
}

var unifiedPriorityCmd = &cobra.Command{
	Use:   "priority <rule> <priority>",
	Short: "Set the priority of a rule of either kind",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnifiedPriority,
}

var addMetadataRuleCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a metadata rule",
	Long: `Add a metadata rule. Conditions are written field:operator[:value].

Operators: equals, contains, startsWith, endsWith, regex, exists, notExists.

Examples:
  tidy rules metadata add --name iPhone --template photo-date \
      -c image.cameraMake:equals:Apple
  tidy rules metadata add --name Invoices --template invoice --match any \
      -c pdf.title:contains:invoice -c office.title:contains:invoice`,
	Args: cobra.NoArgs,
	RunE: runAddMetadataRule,
}

var addFilenameRuleCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a filename rule",
	Long: `Add a filename rule matching a glob against the full file name.

Examples:
  tidy rules filename add --name Screenshots --pattern 'Screenshot*.png' --template screenshot
  tidy rules filename add --name Scans --pattern 'scan_*.{pdf,jpg}' --template scan`,
	Args: cobra.NoArgs,
	RunE: runAddFilenameRule,
}

// ruleKind binds one rule collection of the configuration to the shared
// list/remove/enable/disable/priority/reorder subcommands.
type ruleKind[R any, P interface {
	*R
	Header() *types.RuleHeader
}] struct {
	label    string
	get      func(*config.Config) []R
	set      func(*config.Config, []R)
	describe func(R) string
}

var metadataKind = ruleKind[types.MetadataPatternRule, *types.MetadataPatternRule]{
	label:    "metadata",
	get:      func(c *config.Config) []types.MetadataPatternRule { return c.Rules },
	set:      func(c *config.Config, r []types.MetadataPatternRule) { c.Rules = r },
	describe: describeConditions,
}

var filenameKind = ruleKind[types.FilenamePatternRule, *types.FilenamePatternRule]{
	label: "filename",
	get:   func(c *config.Config) []types.FilenamePatternRule { return c.FilenameRules },
	set:   func(c *config.Config, r []types.FilenamePatternRule) { c.FilenameRules = r },
	describe: func(r types.FilenamePatternRule) string {
		if r.CaseSensitive {
			return r.Pattern + " (case-sensitive)"
		}
		return r.Pattern
	},
}

func init() {
	af := addMetadataRuleCmd.Flags()
	af.String("name", "", "rule name (required)")
	af.String("description", "", "rule description")
	af.StringArrayP("condition", "c", nil, "condition field:operator[:value] (repeatable)")
	af.String("match", string(types.MatchAll), "combine conditions with all or any")
	af.Bool("case-sensitive", false, "compare condition values case-sensitively")
	addRuleHeaderFlags(addMetadataRuleCmd)
	_ = addMetadataRuleCmd.MarkFlagRequired("name")
	_ = addMetadataRuleCmd.MarkFlagRequired("condition")

	ff := addFilenameRuleCmd.Flags()
	ff.String("name", "", "rule name (required)")
	ff.String("description", "", "rule description")
	ff.String("pattern", "", "glob matched against the full file name (required)")
	ff.Bool("case-sensitive", false, "match the pattern case-sensitively")
	addRuleHeaderFlags(addFilenameRuleCmd)
	_ = addFilenameRuleCmd.MarkFlagRequired("name")
	_ = addFilenameRuleCmd.MarkFlagRequired("pattern")

	metadataRulesCmd.AddCommand(addMetadataRuleCmd)
	metadataRulesCmd.AddCommand(metadataKind.commands()...)
	filenameRulesCmd.AddCommand(addFilenameRuleCmd)
	filenameRulesCmd.AddCommand(filenameKind.commands()...)

	unifiedRulesCmd.Flags().String("mode", "", "priority mode: combined, metadata-first, filename-first (default: config)")
	unifiedRulesCmd.AddCommand(unifiedReorderCmd)
	unifiedRulesCmd.AddCommand(unifiedPriorityCmd)

	rulesCmd.AddCommand(metadataRulesCmd)
	rulesCmd.AddCommand(filenameRulesCmd)
	rulesCmd.AddCommand(unifiedRulesCmd)
	rootCmd.AddCommand(rulesCmd)
}

func addRuleHeaderFlags(cmd *cobra.Command) {
	cmd.Flags().String("template", "", "template ID or name (required)")
	cmd.Flags().String("folder-structure", "", "folder structure ID or name")
	cmd.Flags().Int("priority", 0, "priority, higher wins")
	cmd.Flags().Bool("disabled", false, "create the rule disabled")
	_ = cmd.MarkFlagRequired("template")
}

// headerFlags reads the flags added by addRuleHeaderFlags.
func headerFlags(cmd *cobra.Command) (templateID, folderID string, priority int, enabled bool, err error) {
	flags := cmd.Flags()
	ref, _ := flags.GetString("template")
	t, err := findTemplate(cfg.Templates, ref)
	if err != nil {
		return "", "", 0, false, err
	}
	if ref, _ := flags.GetString("folder-structure"); ref != "" {
		fs, err := findFolderStructure(cfg.FolderStructures, ref)
		if err != nil {
			return "", "", 0, false, err
		}
		folderID = fs.ID
	}
	priority, _ = flags.GetInt("priority")
	disabled, _ := flags.GetBool("disabled")
	return t.ID, folderID, priority, !disabled, nil
}

func runAddMetadataRule(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	name, _ := flags.GetString("name")
	description, _ := flags.GetString("description")
	raw, _ := flags.GetStringArray("condition")
	match, _ := flags.GetString("match")
	caseSensitive, _ := flags.GetBool("case-sensitive")

	conditions := make([]types.RuleCondition, 0, len(raw))
	for _, s := range raw {
		c, err := parseCondition(s)
		if err != nil {
			return err
		}
		c.CaseSensitive = caseSensitive
		conditions = append(conditions, c)
	}

	templateID, folderID, priority, enabled, err := headerFlags(cmd)
	if err != nil {
		return err
	}

	updated, rule, err := rules.CreateMetadataRule(cfg.Rules, rules.MetadataRuleInput{
		Name:              name,
		Description:       description,
		Conditions:        conditions,
		MatchMode:         types.MatchMode(strings.ToLower(match)),
		TemplateID:        templateID,
		FolderStructureID: folderID,
		Priority:          priority,
		Enabled:           &enabled,
	}, cfg.Templates)
	if err != nil {
		return err
	}
	cfg.Rules = updated
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Added metadata rule %q (%s)", rule.Name, rule.ID)
	return nil
}

func runAddFilenameRule(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	name, _ := flags.GetString("name")
	description, _ := flags.GetString("description")
	pattern, _ := flags.GetString("pattern")
	caseSensitive, _ := flags.GetBool("case-sensitive")

	templateID, folderID, priority, enabled, err := headerFlags(cmd)
	if err != nil {
		return err
	}

	updated, rule, err := rules.CreateFilenameRule(cfg.FilenameRules, rules.FilenameRuleInput{
		Name:              name,
		Description:       description,
		Pattern:           pattern,
		CaseSensitive:     caseSensitive,
		TemplateID:        templateID,
		FolderStructureID: folderID,
		Priority:          priority,
		Enabled:           &enabled,
	}, cfg.Templates)
	if err != nil {
		return err
	}
	cfg.FilenameRules = updated
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Added filename rule %q (%s)", rule.Name, rule.ID)
	return nil
}

// parseCondition parses field:operator[:value]. The value keeps any
// further colons.
func parseCondition(s string) (types.RuleCondition, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return types.RuleCondition{}, fmt.Errorf("invalid condition %q: want field:operator[:value]", s)
	}
	c := types.RuleCondition{
		Field:    strings.TrimSpace(parts[0]),
		Operator: types.Operator(strings.TrimSpace(parts[1])),
	}
	if len(parts) == 3 {
		c.Value = parts[2]
	}
	return c, nil
}

func describeConditions(r types.MetadataPatternRule) string {
	parts := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		if c.Operator.NeedsValue() {
			parts[i] = fmt.Sprintf("%s %s %q", c.Field, c.Operator, c.Value)
		} else {
			parts[i] = fmt.Sprintf("%s %s", c.Field, c.Operator)
		}
	}
	sep := " AND "
	if r.MatchMode == types.MatchAny {
		sep = " OR "
	}
	return strings.Join(parts, sep)
}

// commands builds the subcommands shared by both rule kinds.
func (k ruleKind[R, P]) commands() []*cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List " + k.label + " rules by priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return k.list(cmd.OutOrStdout())
		},
	}
	remove := &cobra.Command{
		Use:     "remove <rule>",
		Aliases: []string{"rm"},
		Short:   "Remove a " + k.label + " rule by ID or name",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return k.remove(args[0])
		},
	}
	enable := &cobra.Command{
		Use:   "enable <rule>",
		Short: "Enable a " + k.label + " rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return k.setEnabled(args[0], true)
		},
	}
	disable := &cobra.Command{
		Use:   "disable <rule>",
		Short: "Disable a " + k.label + " rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return k.setEnabled(args[0], false)
		},
	}
	priority := &cobra.Command{
		Use:   "priority <rule> <priority>",
		Short: "Set the priority of a " + k.label + " rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid priority %q: %w", args[1], err)
			}
			return k.setPriority(args[0], p)
		},
	}
	reorder := &cobra.Command{
		Use:   "reorder <rule>...",
		Short: "Order " + k.label + " rules, highest priority first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return k.reorder(args)
		},
	}
	return []*cobra.Command{list, remove, enable, disable, priority, reorder}
}

// resolve finds a rule by ID, then by name.
func (k ruleKind[R, P]) resolve(ref string) (R, error) {
	all := k.get(cfg)
	if r, err := rules.Get[R, P](all, ref); err == nil {
		return r, nil
	}
	return rules.GetByName[R, P](all, ref)
}

func (k ruleKind[R, P]) list(w io.Writer) error {
	all := rules.List[R, P](k.get(cfg))
	if len(all) == 0 {
		fmt.Fprintf(w, "No %s rules configured.\n", k.label)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tENABLED\tNAME\tTEMPLATE\tMATCH\tID")
	for _, r := range all {
		h := P(&r).Header()
		fmt.Fprintf(tw, "%d\t%t\t%s\t%s\t%s\t%s\n",
			h.Priority, h.Enabled, h.Name, templateName(h.TemplateID), k.describe(r), h.ID)
	}
	return tw.Flush()
}

func (k ruleKind[R, P]) remove(ref string) error {
	r, err := k.resolve(ref)
	if err != nil {
		return err
	}
	h := P(&r).Header()
	updated, err := rules.Delete[R, P](k.get(cfg), h.ID)
	if err != nil {
		return err
	}
	k.set(cfg, updated)
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Removed %s rule %q", k.label, h.Name)
	return nil
}

func (k ruleKind[R, P]) setEnabled(ref string, enabled bool) error {
	r, err := k.resolve(ref)
	if err != nil {
		return err
	}
	h := P(&r).Header()
	if h.Enabled == enabled {
		printInfo("Rule %q is already %s", h.Name, enabledWord(enabled))
		return nil
	}
	updated, err := rules.ToggleEnabled[R, P](k.get(cfg), h.ID)
	if err != nil {
		return err
	}
	k.set(cfg, updated)
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Rule %q %s", h.Name, enabledWord(enabled))
	return nil
}

func (k ruleKind[R, P]) setPriority(ref string, priority int) error {
	r, err := k.resolve(ref)
	if err != nil {
		return err
	}
	h := P(&r).Header()
	updated, err := rules.SetPriority[R, P](k.get(cfg), h.ID, priority)
	if err != nil {
		return err
	}
	k.set(cfg, updated)
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Rule %q priority set to %d", h.Name, priority)
	return nil
}

func (k ruleKind[R, P]) reorder(refs []string) error {
	ids := make([]string, len(refs))
	for i, ref := range refs {
		r, err := k.resolve(ref)
		if err != nil {
			return err
		}
		ids[i] = P(&r).Header().ID
	}
	updated, err := rules.Reorder[R, P](k.get(cfg), ids)
	if err != nil {
		return err
	}
	k.set(cfg, updated)
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Reordered %d %s rules", len(ids), k.label)
	return nil
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func templateName(id string) string {
	if t, ok := types.FindTemplate(cfg.Templates, id); ok {
		return t.Name
	}
	return id + " (missing)"
}

func runUnifiedList(cmd *cobra.Command, _ []string) error {
	mode := cfg.Preferences.RulePriorityMode
	if s, _ := cmd.Flags().GetString("mode"); s != "" {
		m, err := types.ParsePriorityMode(s)
		if err != nil {
			return err
		}
		mode = m
	}

	ordered := rules.UnifiedPriorities(cfg.Rules, cfg.FilenameRules, mode)
	w := cmd.OutOrStdout()
	if len(ordered) == 0 {
		fmt.Fprintln(w, "No rules configured.")
		return nil
	}

	fmt.Fprintf(w, "Mode: %s\n\n", mode)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tPRIORITY\tENABLED\tNAME\tTEMPLATE\tID")
	for i, u := range ordered {
		h := u.Header()
		fmt.Fprintf(tw, "%d\t%s\t%d\t%t\t%s\t%s\t%s\n",
			i+1, u.Type, h.Priority, h.Enabled, h.Name, templateName(h.TemplateID), h.ID)
	}
	return tw.Flush()
}

// resolveUnified finds a rule of either kind by ID or name.
func resolveUnified(ref string) (types.RuleHeader, error) {
	if r, err := metadataKind.resolve(ref); err == nil {
		return r.RuleHeader, nil
	}
	r, err := filenameKind.resolve(ref)
	if err != nil {
		return types.RuleHeader{}, err
	}
	return r.RuleHeader, nil
}

func runUnifiedReorder(_ *cobra.Command, args []string) error {
	ids := make([]string, len(args))
	for i, ref := range args {
		h, err := resolveUnified(ref)
		if err != nil {
			return err
		}
		ids[i] = h.ID
	}
	meta, filename, err := rules.ReorderUnified(cfg.Rules, cfg.FilenameRules, ids)
	if err != nil {
		return err
	}
	cfg.Rules, cfg.FilenameRules = meta, filename
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Reordered %d rules", len(ids))
	return nil
}

func runUnifiedPriority(_ *cobra.Command, args []string) error {
	priority, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid priority %q: %w", args[1], err)
	}
	h, err := resolveUnified(args[0])
	if err != nil {
		return err
	}
	meta, filename, err := rules.SetUnifiedPriority(cfg.Rules, cfg.FilenameRules, h.ID, priority)
	if err != nil {
		return err
	}
	cfg.Rules, cfg.FilenameRules = meta, filename
	if err := saveConfig(); err != nil {
		return err
	}
	printInfo("Rule %q priority set to %d", h.Name, priority)
	return nil
}

// configSavePath is the file changes are written to: --config, else the
// file that was loaded, else the default location.
func configSavePath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			return used, nil
		}
	}
	return config.ConfigPath()
}

// saveConfig validates and persists cfg.
func saveConfig() error {
	if cfg == nil {
		return errors.New("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	path, err := configSavePath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	printVerbose("Saved configuration to %s", path)
	return nil
}
