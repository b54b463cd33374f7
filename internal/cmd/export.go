package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"LiveChartBoard/internal/broadcast"
	"LiveChartBoard/internal/config"
	"LiveChartBoard/internal/export"
	"LiveChartBoard/internal/state"
)

func init() {
	exportCmd.Flags().String("input", "", "snapshot json file to render instead of joining a session")
	exportCmd.Flags().String("out", "", "output file, .pdf or .png")
	exportCmd.Flags().String("save-json", "", "also write the snapshot as json to this file")
	exportCmd.Flags().Duration("wait", 5*time.Second, "how long to wait for the host snapshot")
	exportCmd.Flags().String("transport", "", "broadcast transport: memory, websocket or redis")
	exportCmd.Flags().String("url", "", "relay websocket url")
	exportCmd.Flags().String("session", "", "session id to join")
	RootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [share-link]",
	Short: "render the annotations of a session or a saved snapshot to pdf or png",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags(), map[string]string{
			"session":   "session.id",
			"transport": "transport.kind",
			"url":       "transport.url",
		}); err != nil {
			return err
		}

		c, err := loadConfig()
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return errors.New("--out is required")
		}
		if _, err := export.FormatFromPath(out); err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var snapshot state.Snapshot
		input, _ := cmd.Flags().GetString("input")
		if input != "" {
			snapshot, err = readSnapshotFile(input)
		} else {
			wait, _ := cmd.Flags().GetDuration("wait")
			snapshot, err = fetchSnapshot(ctx, c, args, wait)
		}
		if err != nil {
			return err
		}

		if saveJSON, _ := cmd.Flags().GetString("save-json"); saveJSON != "" {
			if err := writeSnapshotFile(saveJSON, snapshot); err != nil {
				return err
			}
		}

		if err := export.WriteFile(out, export.NewFrame(snapshot, c.Viewport())); err != nil {
			return err
		}
		log.Infof("exported %d lines, %d paths, %d fibonacci drawings and %d stickers to %s",
			len(snapshot.Lines), len(snapshot.Paths), len(snapshot.FibDrawings), len(snapshot.EmojiDrawings), out)
		return nil
	},
}

func readSnapshotFile(path string) (state.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return state.Snapshot{}, errors.Wrapf(err, "unable to open snapshot %s", path)
	}
	defer f.Close()
	return export.ReadSnapshot(f)
}

func writeSnapshotFile(path string, snapshot state.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	if err := export.WriteSnapshot(f, snapshot); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// fetchSnapshot joins the session as a viewer, asks the host for its state and
// waits for the first snapshot to arrive.
func fetchSnapshot(ctx context.Context, c *config.Config, args []string, wait time.Duration) (state.Snapshot, error) {
	if err := resolveSession(ctx, c, args, wait); err != nil {
		return state.Snapshot{}, err
	}

	transport, err := newTransport(ctx, c)
	if err != nil {
		return state.Snapshot{}, err
	}
	defer transport.Close()

	syncer := broadcast.NewSyncer(transport, c.Session.ID, false, broadcast.WithReplayOnJoin(true))
	received := make(chan struct{}, 1)
	syncer.OnApplied(func() {
		select {
		case received <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if err := syncer.Start(ctx); err != nil {
		return state.Snapshot{}, err
	}
	defer syncer.Close()

	select {
	case <-received:
		return syncer.Mirror().Snapshot(), nil
	case <-ctx.Done():
		return state.Snapshot{}, errors.Errorf("no snapshot from session %s within %s", c.Session.ID, wait)
	}
}
