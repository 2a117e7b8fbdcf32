// Command assistant runs the bilingual insurance support assistant:
// an HTTP server, a catalog indexing job and an interactive console.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Bilingual insurance product support assistant",
	Long: `Assistant answers insurance and healthcare product questions in
English and Roman Urdu, backed by a product catalog and a vector store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env is fine; the environment may already be set.
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
