// Package main is a command-line tool for trying out catalogs.
//
// Metadata persists in the chosen store, so repeated "next" and
// "dismiss" commands behave like a client would.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Comcast/nudge/core"
	"github.com/Comcast/nudge/interpreters"
	"github.com/Comcast/nudge/sio"
	"github.com/Comcast/nudge/storage"
	"github.com/Comcast/nudge/tools"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger *zap.Logger

	catalogFile string
	storeKind   string
	storePath   string
	interpreter string
	attributes  string
	verbose     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Select in-app messages from a catalog",
	Long: `Load a message catalog, evaluate triggers against custom attributes,
and pick the message a client would show.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger = zap.NewNop()
		}
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available messages in priority order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next message and count the display",
	Args:  cobra.NoArgs,
	RunE:  runNext,
}

var actionCmd = &cobra.Command{
	Use:   "action ID",
	Short: "Resolve a message's action",
	Args:  cobra.ExactArgs(1),
	RunE:  runAction,
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss ID",
	Short: "Dismiss a message",
	Args:  cobra.ExactArgs(1),
	RunE:  runDismiss,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report catalog problems as YAML",
	Args:  cobra.NoArgs,
	RunE:  runAnalyze,
}

var htmlCmd = &cobra.Command{
	Use:   "html",
	Short: "Render the catalog as an HTML page",
	Args:  cobra.NoArgs,
	RunE:  runHTML,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&catalogFile, "catalog", "c", "catalog.yaml", "Catalog filename (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "json", "Metadata store: mem, json, bolt, or pebble")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "metadata.json", "Metadata store file or directory")
	rootCmd.PersistentFlags().StringVarP(&interpreter, "interpreter", "i", interpreters.DefaultName, "Trigger interpreter")
	rootCmd.PersistentFlags().StringVarP(&attributes, "attributes", "a", "", "Custom attributes as a JSON object")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(htmlCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openMessaging assembles a Messaging from the flags.  Call the
// returned func to close the store.
func openMessaging(ctx context.Context) (*core.Messaging, func(), error) {
	cat, err := sio.ReadCatalog(catalogFile)
	if err != nil {
		return nil, nil, err
	}

	p, have := interpreters.Standard()[interpreter]
	if !have {
		return nil, nil, fmt.Errorf("unknown interpreter '%s'", interpreter)
	}

	var attrs map[string]interface{}
	if attributes != "" {
		if err = json.Unmarshal([]byte(attributes), &attrs); err != nil {
			return nil, nil, fmt.Errorf("bad attributes: %w", err)
		}
	}

	store, err := storage.Open(ctx, storeKind, storePath)
	if err != nil {
		return nil, nil, err
	}

	m := core.NewMessaging(&core.StaticCatalog{C: cat}, store, p, &sio.LoggingExposures{Logger: logger})
	m.Logger = logger
	m.Attributes = func(context.Context) map[string]interface{} {
		return attrs
	}

	closer := func() {
		if err := store.Close(ctx); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}

	return m, closer, nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m, closer, err := openMessaging(ctx)
	if err != nil {
		return err
	}
	defer closer()

	ms, err := m.ListEligibleMessages(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, msg := range ms {
		fmt.Fprintf(out, "%s\tpriority=%d\tdisplayed=%d/%d\n",
			msg.Id, msg.Priority(), msg.Metadata.DisplayCount, msg.MaxDisplayCount())
	}
	return nil
}

func runNext(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m, closer, err := openMessaging(ctx)
	if err != nil {
		return err
	}
	defer closer()

	ms, err := m.ListEligibleMessages(ctx)
	if err != nil {
		return err
	}
	msg, err := m.GetNextMessage(ctx, ms)
	if err != nil {
		return err
	}
	if msg == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no message")
		return nil
	}
	if _, err = m.OnMessageDisplayed(ctx, msg); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), viewMessage(msg), true)
}

func runAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m, closer, err := openMessaging(ctx)
	if err != nil {
		return err
	}
	defer closer()

	msg, err := m.FindMessage(ctx, args[0])
	if err != nil {
		return err
	}
	action, err := m.GetMessageAction(ctx, msg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), action)
	return nil
}

func runDismiss(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m, closer, err := openMessaging(ctx)
	if err != nil {
		return err
	}
	defer closer()

	msg, err := m.FindMessage(ctx, args[0])
	if err != nil {
		return err
	}
	md, err := m.OnMessageDismissed(ctx, msg)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), md, false)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cat, err := sio.ReadCatalog(catalogFile)
	if err != nil {
		return err
	}
	a, err := tools.Analyze(cat)
	if err != nil {
		return err
	}
	return tools.WriteAnalysisYAML(a, cmd.OutOrStdout())
}

func runHTML(cmd *cobra.Command, args []string) error {
	return tools.ReadAndRenderCatalogPage(catalogFile, nil, cmd.OutOrStdout())
}
