package cmd

import (
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/gateway"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/market"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/task"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the marketplace node with the public REST gateway",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := market.NewController(conf)
		if err != nil {
			return
		}

		gatewayServer := gateway.NewServer(conf).
			WithLedger(controller.Ledger).
			WithMonitor(controller.Monitor)

		main := task.NewTask(conf, "main").
			WithSubtask(controller.Task).
			WithSubtask(gatewayServer.Task)

		err = main.Start()
		if err != nil {
			return
		}

		<-ctx.Done()

		main.StopWait()

		return
	},
}
