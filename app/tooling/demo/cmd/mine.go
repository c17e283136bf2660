package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var pending bool

var mineCmd = &cobra.Command{
	Use:   "mine <peer> [data]",
	Short: "Mine a new block on a peer's chain.",
	Args:  cobra.RangeArgs(1, 2),
	Run:   mineRun,
}

var tamperCmd = &cobra.Command{
	Use:   "tamper <peer> <index> <data>",
	Short: "Change the data of a block in a peer's chain.",
	Args:  cobra.ExactArgs(3),
	Run:   tamperRun,
}

var remineCmd = &cobra.Command{
	Use:   "remine <peer> <index>",
	Short: "Search for a new solution for a block in a peer's chain.",
	Args:  cobra.ExactArgs(2),
	Run:   remineRun,
}

var validateCmd = &cobra.Command{
	Use:   "validate <peer>",
	Short: "Print the validity of every block in a peer's chain.",
	Args:  cobra.ExactArgs(1),
	Run:   validateRun,
}

func init() {
	rootCmd.AddCommand(mineCmd, tamperCmd, remineCmd, validateCmd)
	mineCmd.Flags().BoolVarP(&pending, "pending", "p", false, "Mine the pending transactions.")
}

func mineRun(cmd *cobra.Command, args []string) {
	path := "/v1/peers/" + args[0] + "/mine"

	var body any
	switch {
	case pending:
		path += "/pending"
	default:
		var data string
		if len(args) == 2 {
			data = args[1]
		}
		body = map[string]string{"data": data}
	}

	var v any
	if err := send(http.MethodPost, path, body, &v); err != nil {
		log.Fatal(err)
	}
	printJSON(v)
}

func tamperRun(cmd *cobra.Command, args []string) {
	path := fmt.Sprintf("/v1/peers/%s/blocks/%s/data", args[0], args[1])

	var v any
	if err := send(http.MethodPut, path, map[string]string{"data": args[2]}, &v); err != nil {
		log.Fatal(err)
	}
	printJSON(v)
}

func remineRun(cmd *cobra.Command, args []string) {
	path := fmt.Sprintf("/v1/peers/%s/blocks/%s/remine", args[0], args[1])

	var v any
	if err := send(http.MethodPost, path, nil, &v); err != nil {
		log.Fatal(err)
	}
	printJSON(v)
}

func validateRun(cmd *cobra.Command, args []string) {
	var v struct {
		Peer   string `json:"peer"`
		Valid  bool   `json:"valid"`
		Blocks []struct {
			Index  uint64 `json:"index"`
			Hash   string `json:"hash"`
			Solved bool   `json:"solved"`
			Valid  bool   `json:"valid"`
		} `json:"blocks"`
	}
	if err := send(http.MethodGet, "/v1/peers/"+args[0]+"/validate", nil, &v); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s valid: %t\n", v.Peer, v.Valid)
	for _, b := range v.Blocks {
		mark := "✓"
		if !b.Valid {
			mark = "✗"
		}
		fmt.Printf("  %s #%d %s solved:%t\n", mark, b.Index, b.Hash, b.Solved)
	}
}
