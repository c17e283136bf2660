package cmd

import (
	"log"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var memo string
var remove bool

var txCmd = &cobra.Command{
	Use:   "tx [from to amount]",
	Short: "Print the pending transactions or add one.",
	Args:  cobra.MatchAll(cobra.RangeArgs(0, 3), noPartialTx),
	Run:   txRun,
}

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.Flags().StringVarP(&memo, "memo", "m", "", "Memo to attach to the transaction.")
	txCmd.Flags().BoolVarP(&remove, "remove", "r", false, "Remove the transaction instead.")
}

func noPartialTx(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 3 {
		return cobra.ExactArgs(3)(cmd, args)
	}
	return nil
}

func txRun(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		var v any
		if err := send(http.MethodGet, "/v1/tx/list", nil, &v); err != nil {
			log.Fatal(err)
		}
		printJSON(v)
		return
	}

	amount, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		log.Fatal(err)
	}

	tx := struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount uint64 `json:"amount"`
		Memo   string `json:"memo,omitempty"`
	}{
		From:   args[0],
		To:     args[1],
		Amount: amount,
		Memo:   memo,
	}

	path := "/v1/tx/add"
	if remove {
		path = "/v1/tx/remove"
	}

	var v any
	if err := send(http.MethodPost, path, tx, &v); err != nil {
		log.Fatal(err)
	}
	printJSON(v)
}
