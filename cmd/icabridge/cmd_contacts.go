package main

import (
	"fmt"
	"strings"
	"time"

	"icabridge/internal/config"
	"icabridge/internal/store"

	"github.com/spf13/cobra"
)

// contactsCmd manages the saved contact selection
var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Show or change the contacts analyzers run against",
}

var contactsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the selected contacts",
	Args:  cobra.NoArgs,
	RunE:  contactsGet,
}

var contactsSetCmd = &cobra.Command{
	Use:   "set <contact>...",
	Short: "Replace the selected contacts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  contactsSet,
}

var contactsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the selected contacts",
	Args:  cobra.NoArgs,
	RunE:  contactsClear,
}

var contactsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the selected contacts whenever another process changes them",
	Long: `Watches the settings file and prints the selection after every change.
Only the file backend can be watched.`,
	Args: cobra.NoArgs,
	RunE: contactsWatch,
}

func init() {
	contactsCmd.AddCommand(contactsGetCmd)
	contactsCmd.AddCommand(contactsSetCmd)
	contactsCmd.AddCommand(contactsClearCmd)
	contactsCmd.AddCommand(contactsWatchCmd)
}

func printContacts(cmd *cobra.Command, selected []string) {
	if len(selected) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no contacts selected)")
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(selected, "\n"))
}

func contactsGet(cmd *cobra.Command, args []string) error {
	selected, kv, err := openContacts()
	if err != nil {
		return err
	}
	defer kv.Close()

	list, err := selected.Selected(cmd.Context())
	if err != nil {
		return err
	}
	printContacts(cmd, list)
	return nil
}

func contactsSet(cmd *cobra.Command, args []string) error {
	selected, kv, err := openContacts()
	if err != nil {
		return err
	}
	defer kv.Close()

	list, err := selected.Set(cmd.Context(), args)
	if err != nil {
		return err
	}
	printContacts(cmd, list)
	return nil
}

func contactsClear(cmd *cobra.Command, args []string) error {
	selected, kv, err := openContacts()
	if err != nil {
		return err
	}
	defer kv.Close()

	if err := selected.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cleared selected contacts")
	return nil
}

func contactsWatch(cmd *cobra.Command, args []string) error {
	if cfg.Store.Backend == config.BackendSQLite {
		return fmt.Errorf("contacts watch needs the file backend (configured: %s)", cfg.Store.Backend)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	changed := make(chan struct{}, 1)
	w, err := store.NewWatcher(cfg.Store.Path, 200*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.Store.Path, err)
	}

	show := func() error {
		// The file is replaced on every save, so reopen it each time.
		selected, kv, err := openContacts()
		if err != nil {
			return err
		}
		defer kv.Close()
		list, err := selected.Selected(ctx)
		if err != nil {
			return err
		}
		printContacts(cmd, list)
		return nil
	}

	if err := show(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			fmt.Fprintln(cmd.OutOrStdout(), "--")
			if err := show(); err != nil {
				logger.Sugar().Warnf("failed to reload contacts: %v", err)
			}
		}
	}
}
