// Command reglink seals and opens the phone tokens carried by registration
// links, so operators can hand out links without the web tooling.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/markdave123-py/alemana-chat/internal/core/reglink"
)

var secret string

var rootCmd = &cobra.Command{
	Use:           "reglink",
	Short:         "Seal and open registration link tokens",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var sealCmd = &cobra.Command{
	Use:   "seal <phone>",
	Short: "Seal a phone number into a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sealer()
		if err != nil {
			return err
		}
		token, err := s.Seal(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <token>",
	Short: "Print the phone number inside a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sealer()
		if err != nil {
			return err
		}
		phone, err := s.Open(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), phone)
		return nil
	},
}

var linkCmd = &cobra.Command{
	Use:   "link <base-url> <phone>",
	Short: "Build a registration link for a phone number",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sealer()
		if err != nil {
			return err
		}
		link, err := s.Link(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&secret, "secret", "", "sealing secret (defaults to REGLINK_KEY)")
	rootCmd.AddCommand(sealCmd, openCmd, linkCmd)
}

func sealer() (*reglink.Sealer, error) {
	if secret == "" {
		secret = os.Getenv("REGLINK_KEY")
	}
	return reglink.NewSealer(secret)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
