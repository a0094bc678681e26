// Package configcmder provides the config command for managing persistent
// sana configuration stored in the .sana/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent sana configuration.

Configuration is stored as config.toml in the .sana/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen,
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  llm.model, llm.base_url,
  speech.stt_model, speech.tts_model, speech.tts_voice,
  conversation.max_window, pipeline.max_upload_bytes,
  events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  sana config set <key> <value>    Set a configuration value
  sana config get <key>            Get a configuration value
  sana config list                 List all configuration values

Examples:
  sana config set storage.driver sqlite
  sana config set storage.sqlite_path sana.db
  sana config get llm.model
  sana config list`

const configShortDesc string = "Manage persistent sana configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
