package main

import (
	"errors"
	"fmt"

	"icabridge/internal/analyzers"
	"icabridge/internal/argv"
	"icabridge/internal/contacts"
	"icabridge/internal/ica"
	"icabridge/internal/sidecar"
	"icabridge/internal/store"
)

// newExecutor builds the sidecar executor. Tests replace it.
var newExecutor = func() sidecar.Executor {
	return sidecar.NewExecExecutor(cfg)
}

// registry is the analyzer registry used by every command.
var registry = analyzers.DefaultRegistry()

// openContacts opens the configured settings backend and wraps it in a
// contacts store. The caller closes the returned KV.
func openContacts() (*contacts.Store, store.KV, error) {
	kv, err := store.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	return contacts.New(kv), kv, nil
}

// newClient returns a client and a cleanup func. Explicit contacts bypass
// the settings store entirely.
func newClient(explicit []string) (*ica.Client, func(), error) {
	if len(explicit) > 0 {
		return ica.NewClient(newExecutor(), ica.StaticContacts(explicit)), func() {}, nil
	}
	selected, kv, err := openContacts()
	if err != nil {
		return nil, nil, err
	}
	return ica.NewClient(newExecutor(), selected), func() { _ = kv.Close() }, nil
}

// buildArgs assembles the analyzer arguments from the positional form
// (analyzer followed by tool args) or the --line form.
func buildArgs(line string, positional []string) (argv.Args, error) {
	if line != "" {
		if len(positional) > 0 {
			return nil, errors.New("--line cannot be combined with positional arguments")
		}
		return argv.Line(line), nil
	}
	if len(positional) == 0 {
		return nil, errors.New("an analyzer name or --line is required")
	}

	a, err := registry.Resolve(positional[0])
	if err != nil {
		return nil, err
	}
	list := append(argv.List{a.Arg()}, positional[1:]...)
	return list, nil
}
