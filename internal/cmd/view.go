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
	boardnet "LiveChartBoard/internal/net"
	"LiveChartBoard/internal/session"
	"LiveChartBoard/internal/ui"
)

func init() {
	viewCmd.Flags().String("session", "", "session id to join")
	viewCmd.Flags().Bool("replay", false, "request the current state when joining")
	viewCmd.Flags().String("transport", "", "broadcast transport: memory, websocket or redis")
	viewCmd.Flags().String("url", "", "relay websocket url")
	viewCmd.Flags().Duration("browse", 3*time.Second, "how long to look for sessions on the local network")
	RootCmd.AddCommand(viewCmd)
}

var viewCmd = &cobra.Command{
	Use:   "view [share-link]",
	Short: "join a hosted session as a read only viewer",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags(), map[string]string{
			"session":   "session.id",
			"replay":    "session.replayOnJoin",
			"transport": "transport.kind",
			"url":       "transport.url",
		}); err != nil {
			return err
		}

		c, err := loadConfig()
		if err != nil {
			return err
		}
		c.Session.Host = false

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		browse, _ := cmd.Flags().GetDuration("browse")
		if err := resolveSession(ctx, c, args, browse); err != nil {
			return err
		}

		transport, err := newTransport(ctx, c)
		if err != nil {
			return err
		}
		defer transport.Close()

		syncer := broadcast.NewSyncer(transport, c.Session.ID, false, broadcast.WithReplayOnJoin(c.Session.ReplayOnJoin))
		sess := session.New(ctx, session.Options{
			ID:       c.Session.ID,
			Viewport: c.Viewport(),
		}, syncer)
		defer sess.Close()

		app := ui.New(sess, ui.Options{
			Title:         "LiveChartBoard - viewing " + c.Session.ID,
			FPS:           c.Render.FPS,
			SkipUnchanged: c.Render.SkipUnchanged,
		})
		if err := sess.Start(); err != nil {
			return err
		}
		app.SetStatus("Connected to " + syncer.Channel())

		app.Run(ctx)
		return nil
	},
}

// resolveSession fills the session id and relay url from a share link, or from
// the first session found on the local network when neither is configured.
func resolveSession(ctx context.Context, c *config.Config, args []string, browse time.Duration) error {
	if len(args) == 1 {
		url, id, err := boardnet.ParseShareLink(args[0])
		if err != nil {
			return err
		}
		c.Session.ID = id
		if c.Transport.Kind == config.TransportWebsocket {
			c.Transport.URL = url
		}
		return nil
	}

	if c.Session.ID != "" {
		return nil
	}
	if !c.MDNS.Enabled {
		return errors.New("no session to join: pass a share link or --session")
	}

	found, err := discover(ctx, browse)
	if err != nil {
		return err
	}
	log.Infof("joining session %s found at %s", found.SessionID, found.Addr)
	c.Session.ID = found.SessionID
	if c.Transport.Kind == config.TransportWebsocket {
		c.Transport.URL = found.RelayURL()
	}
	return nil
}

func discover(ctx context.Context, timeout time.Duration) (boardnet.Discovered, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	foundC := make(chan boardnet.Discovered, 1)
	go func() {
		err := boardnet.Browse(ctx, timeout, func(d boardnet.Discovered) {
			select {
			case foundC <- d:
			default:
			}
		})
		if err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("session discovery failed")
		}
	}()

	select {
	case d := <-foundC:
		return d, nil
	case <-ctx.Done():
		return boardnet.Discovered{}, errors.New("no session found on the local network")
	}
}
