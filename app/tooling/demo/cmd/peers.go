package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var peersCmd = &cobra.Command{
	Use:   "peers [name]",
	Short: "Print every peer or a single peer.",
	Args:  cobra.MaximumNArgs(1),
	Run:   peersRun,
}

var addPeerCmd = &cobra.Command{
	Use:   "add-peer [name]",
	Short: "Add a peer, a name is generated when none is given.",
	Args:  cobra.MaximumNArgs(1),
	Run:   addPeerRun,
}

var removePeerCmd = &cobra.Command{
	Use:   "remove-peer <name>",
	Short: "Remove a peer from the network.",
	Args:  cobra.ExactArgs(1),
	Run:   removePeerRun,
}

var disconnect bool

var connectCmd = &cobra.Command{
	Use:   "connect <from> <to>",
	Short: "Link one peer to another.",
	Args:  cobra.ExactArgs(2),
	Run:   connectRun,
}

var messageCmd = &cobra.Command{
	Use:   "message <from> <to> <text>",
	Short: "Send a text message between connected peers.",
	Args:  cobra.ExactArgs(3),
	Run:   messageRun,
}

func init() {
	rootCmd.AddCommand(peersCmd, addPeerCmd, removePeerCmd, connectCmd, messageCmd)
	connectCmd.Flags().BoolVarP(&disconnect, "disconnect", "d", false, "Remove the link instead.")
}

func peersRun(cmd *cobra.Command, args []string) {
	path := "/v1/peers"
	if len(args) == 1 {
		path += "/" + args[0]
	}

	var v any
	if err := send(http.MethodGet, path, nil, &v); err != nil {
		log.Fatal(err)
	}
	printJSON(v)
}

func addPeerRun(cmd *cobra.Command, args []string) {
	var body any
	if len(args) == 1 {
		body = map[string]string{"name": args[0]}
	}

	var v any
	if err := send(http.MethodPost, "/v1/peers", body, &v); err != nil {
		log.Fatal(err)
	}
	printJSON(v)
}

func removePeerRun(cmd *cobra.Command, args []string) {
	if err := send(http.MethodDelete, "/v1/peers/"+args[0], nil, nil); err != nil {
		log.Fatal(err)
	}
}

func connectRun(cmd *cobra.Command, args []string) {
	from, to := args[0], args[1]

	var err error
	switch {
	case disconnect:
		err = send(http.MethodDelete, "/v1/peers/"+from+"/connect/"+to, nil, nil)
	default:
		err = send(http.MethodPost, "/v1/peers/"+from+"/connect", map[string]string{"to": to}, nil)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func messageRun(cmd *cobra.Command, args []string) {
	body := map[string]string{"to": args[1], "text": args[2]}
	if err := send(http.MethodPost, "/v1/peers/"+args[0]+"/messages", body, nil); err != nil {
		log.Fatal(err)
	}
}
