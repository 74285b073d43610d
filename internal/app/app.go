// Package app wires the thingscout components together.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/tbeke/thingscout/internal/browse"
	"github.com/tbeke/thingscout/internal/config"
	"github.com/tbeke/thingscout/internal/prefs"
	"github.com/tbeke/thingscout/internal/sink"
	"github.com/tbeke/thingscout/internal/thingiverse"
	"github.com/tbeke/thingscout/internal/ui"
)

// Options configure the thingscout application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/thingscout/prefs.toml
}

// hostFileTypes is the stand-in for a host application's importable
// format list. A real host would report its mesh readers here.
type hostFileTypes struct{}

func (hostFileTypes) SupportedExtensions() []string {
	return []string{"stl", "obj", "3mf", "ply"}
}

// Run boots the thingscout TUI until the context is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return fmt.Errorf("no API token configured; set THINGIVERSE_TOKEN")
	}

	client, err := thingiverse.NewClient(thingiverse.Options{
		RootURL:    cfg.RootURL,
		MessageURL: cfg.MessageURL,
		Token:      cfg.Token,
		PageSize:   cfg.PageSize,
	})
	if err != nil {
		return fmt.Errorf("init thingiverse client: %w", err)
	}

	store, err := prefs.NewStore(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("init preferences: %w", err)
	}

	fileSink := sink.New(afero.NewOsFs(), os.TempDir(), func(path string) error {
		// Stand-in for handing the file to a host application's importer.
		log.Printf("downloaded file ready: %s", path)
		return nil
	})

	service := browse.New(ctx, client, store, fileSink, hostFileTypes{})

	// Same startup sequence the plugin window runs: refresh importable
	// types, seed the listing, fetch the announcement banner.
	service.RefreshSupportedTypes()
	service.Search("ultimaker")
	service.LoadMessage()

	return ui.Run(ui.Options{Service: service})
}
