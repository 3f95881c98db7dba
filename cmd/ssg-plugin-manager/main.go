package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ssg-plugin-manager/pkg/manager"
)

var (
	flagConfig string
	flagSite   string
	flagBin    string
)

func main() {
	root := &cobra.Command{
		Use:           "ssg-plugin-manager",
		Short:         "Terminal UI for a static site's plugins, settings, and layout",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to the configuration document")
	root.PersistentFlags().StringVarP(&flagSite, "site", "s", "", "site root directory")
	root.PersistentFlags().StringVar(&flagBin, "bin", "ssg", "site generator binary used for plugin operations")

	root.AddCommand(newListCmd(), newGetCmd(), newSetCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal; use the list/get/set subcommands instead")
	}
	// A missing document is fine here: the TUI offers first-run setup at the
	// path a new document would be created at.
	store, err := openStore()
	if err != nil && !errors.Is(err, manager.ErrDocumentNotFound) {
		return err
	}
	ops := &manager.ExecPluginOps{Bin: flagBin, Dir: flagSite}
	return manager.RunTUI(store, ops, manager.UIOptions{SiteDir: flagSite})
}

// openStore builds a store over the discovered document path. A missing
// document returns the (unloaded) store alongside ErrDocumentNotFound.
func openStore() (*manager.DocumentStore, error) {
	path, found := manager.FindDocumentPath(flagConfig, flagSite)
	siteDir := flagSite
	if siteDir == "" {
		siteDir = filepath.Dir(path)
	}
	state := manager.NewDirPluginState(filepath.Join(siteDir, "plugins"))
	store := manager.NewDocumentStore(&manager.FilePersistence{Path: path}, state)
	if !found {
		return store, manager.ErrDocumentNotFound
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func requireStore() (*manager.DocumentStore, error) {
	store, err := openStore()
	if errors.Is(err, manager.ErrDocumentNotFound) {
		return nil, errors.New("no configuration document found; run the TUI to create one")
	}
	return store, err
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireStore()
			if err != nil {
				return err
			}
			for _, e := range store.Enriched() {
				mark := "x"
				if !e.Entry.Enabled {
					mark = " "
				}
				line := fmt.Sprintf("[%s] %-24s %s", mark, e.Name, e.Entry.Source)
				if !e.Installed {
					line += "  (not installed)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print a configuration value by dotted path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireStore()
			if err != nil {
				return err
			}
			path := manager.SplitPath(args[0])
			v, ok := store.GetAtPath(path)
			if !ok {
				return fmt.Errorf("no value at %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Set a configuration value by dotted path",
		Long: "Set a configuration value by dotted path. The value is parsed as JSON\n" +
			"when valid (true, 42, [\"a\",\"b\"]) and treated as a string otherwise.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireStore()
			if err != nil {
				return err
			}
			path := manager.SplitPath(args[0])
			if kind, _ := manager.ResolveGlobalFieldKind(path); kind == manager.FieldColor {
				if !manager.ValidColor(args[1]) {
					return fmt.Errorf("%q is not a valid color", args[1])
				}
			}
			v := manager.ParseScalarText(args[1])
			if err := store.SetAtPath(path, v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", strings.Join(path, "."), v.String())
			return nil
		},
	}
}
