package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	boardnet "LiveChartBoard/internal/net"
)

func init() {
	relayCmd.Flags().Int("port", 0, "listen port")
	RootCmd.AddCommand(relayCmd)
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "run a standalone websocket relay for hosts and viewers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags(), map[string]string{"port": "relay.port"}); err != nil {
			return err
		}

		c, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return boardnet.NewRelay().Run(ctx, c.Relay.Port)
	},
}
