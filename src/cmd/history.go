package cmd

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/reconcile"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/eth"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/model"
	monitor_market "github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/monitoring/market"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <buyer address>",
	Short: "Reconcile a buyer's purchase history with the event log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("history-cmd")

		if !common.IsHexAddress(args[0]) {
			return errors.New("malformed buyer address")
		}
		buyer := common.HexToAddress(args[0])

		db, err := model.NewConnection(ctx, conf, "indexer")
		if err != nil {
			return
		}

		monitor := monitor_market.NewMonitor()

		records := reconcile.NewDatabaseSource(db).
			WithMonitor(monitor)

		var logs reconcile.LogSource = records
		if conf.Indexer.LogSource == "chain" {
			client, err := eth.GetEthClient(log, conf.Indexer.RpcProviderUrl)
			if err != nil {
				return err
			}
			logs = reconcile.NewChainSource(conf, client).
				WithMonitor(monitor)
		}

		indexer := reconcile.NewIndexer(conf).
			WithRecordSource(records).
			WithLogSource(logs).
			WithMonitor(monitor)

		entries, err := indexer.Reconcile(ctx, buyer)
		if err != nil {
			return
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	},
}
