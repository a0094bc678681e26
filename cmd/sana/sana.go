// Package sanacmder
package sanacmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/sanahealth/sana/cmd/sana/config"
	servecmder "github.com/sanahealth/sana/cmd/sana/serve"
	versioncmder "github.com/sanahealth/sana/cmd/version"
)

const sanaLongDesc string = `Sana is a voice-first medical consultation service.

Run the service using:
  sana serve           Run the consultation API server

Manage configuration using:
  sana config set <key> <value>
  sana config get <key>
  sana config list`

const sanaShortDesc string = "Sana - Medical Consultation Service"

func NewSanaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sana",
		Short: sanaShortDesc,
		Long:  sanaLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: .sana/)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
