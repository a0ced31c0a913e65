package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eznet/eznet/internal/ports"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the built-in common-port set",
	Long:  `Print the ports probed by "--port common" together with their service labels.`,
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, p := range ports.Common() {
			fmt.Fprintf(w, "%d\t%s\n", p, ports.ServiceName(p))
		}
		_ = w.Flush()
	},
}
