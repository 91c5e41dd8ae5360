package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List configured roles with their indexes",
	Run: func(_ *cobra.Command, _ []string) {
		listRoles()
	},
}

func init() {
	rootCmd.AddCommand(rolesCmd)
}

func listRoles() {
	_, config := setup()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tIDS")
	for i, role := range config.Roles {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, role.Name, strings.Join(role.IDs, ","))
	}
	w.Flush()
}
