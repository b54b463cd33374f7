package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"LiveChartBoard/internal/broadcast"
	"LiveChartBoard/internal/config"
	boardnet "LiveChartBoard/internal/net"
	"LiveChartBoard/internal/session"
	"LiveChartBoard/internal/state"
	"LiveChartBoard/internal/ui"
)

func init() {
	hostCmd.Flags().String("session", "", "session id, generated when empty")
	hostCmd.Flags().Bool("replay", false, "answer the snapshot request of joining viewers")
	hostCmd.Flags().String("transport", "", "broadcast transport: memory, websocket or redis")
	hostCmd.Flags().String("url", "", "relay websocket url")
	hostCmd.Flags().Int("relay-port", 0, "port of the embedded relay")
	hostCmd.Flags().Bool("serve-relay", true, "run the websocket relay inside the host process")
	RootCmd.AddCommand(hostCmd)
}

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "host a chart session and broadcast its annotations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags(), map[string]string{
			"session":    "session.id",
			"replay":     "session.replayOnJoin",
			"transport":  "transport.kind",
			"url":        "transport.url",
			"relay-port": "relay.port",
		}); err != nil {
			return err
		}

		c, err := loadConfig()
		if err != nil {
			return err
		}
		c.Session.Host = true
		if c.Session.ID == "" {
			c.Session.ID = state.NewSessionID()
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		serveRelay, _ := cmd.Flags().GetBool("serve-relay")
		if serveRelay && c.Transport.Kind == config.TransportWebsocket {
			relay := boardnet.NewRelay()
			go func() {
				if err := relay.Run(ctx, c.Relay.Port); err != nil {
					log.WithError(err).Error("embedded relay stopped")
				}
			}()
			c.Transport.URL = boardnet.RelayURL(fmt.Sprintf("127.0.0.1:%d", c.Relay.Port))
		}

		transport, err := newTransport(ctx, c)
		if err != nil {
			return err
		}
		defer transport.Close()

		syncer := broadcast.NewSyncer(transport, c.Session.ID, true, broadcast.WithReplayOnJoin(c.Session.ReplayOnJoin))
		sess := session.New(ctx, session.Options{
			ID:        c.Session.ID,
			IsHost:    true,
			Viewport:  c.Viewport(),
			Period:    c.Chart.Period,
			ChartType: c.Chart.ChartType,
		}, syncer)
		defer sess.Close()

		shareLink := boardnet.ShareLink(boardnet.OutgoingIP(), c.Relay.Port, c.Session.ID)
		log.Infof("share link: %s", shareLink)

		if c.MDNS.Enabled {
			server, err := boardnet.Advertise(c.Session.ID, c.Relay.Port)
			if err != nil {
				log.WithError(err).Warn("session will not be discoverable on the local network")
			} else {
				defer server.Shutdown()
			}
		}

		app := ui.New(sess, ui.Options{
			Title:         "LiveChartBoard - " + c.Session.ID,
			ShareLink:     shareLink,
			FPS:           c.Render.FPS,
			SkipUnchanged: c.Render.SkipUnchanged,
		})
		if err := sess.Start(); err != nil {
			return err
		}

		app.Run(ctx)
		return nil
	},
}
