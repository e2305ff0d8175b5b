package util

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacentio/dine/sink/dynamosink"
)

// Wrap is the column at which flag help text is wrapped.
const Wrap = 60

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupTableFlags adds the DynamoDB connection flags to a command
func SetupTableFlags(cmd *cobra.Command) {
	defaults := dynamosink.DefaultConfig()

	cmd.PersistentFlags().String("table", defaults.Table, WrapString("DynamoDB table holding the feature items"))
	cmd.PersistentFlags().String("key-attribute", defaults.KeyAttribute, WrapString("binary partition key attribute of the table"))
	cmd.PersistentFlags().String("region", "", WrapString("AWS region, defaults to the region of the loaded AWS configuration"))
	cmd.PersistentFlags().String("endpoint", "", WrapString("DynamoDB endpoint override, e.g. http://localhost:8000 for DynamoDB Local"))
	cmd.PersistentFlags().Int("concurrency", defaults.Concurrency, WrapString("number of items deleted in parallel"))
}

// InitConfig loads .env files and binds DINE_ environment variables.
func InitConfig() {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("dine")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds the flags of cmd to viper keys of the same name.
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetSinkConfig builds a dynamosink configuration from the bound flags and environment.
func GetSinkConfig() dynamosink.Config {
	cfg := dynamosink.DefaultConfig()
	if v := viper.GetString("table"); v != "" {
		cfg.Table = v
	}
	if v := viper.GetString("key-attribute"); v != "" {
		cfg.KeyAttribute = v
	}
	if v := viper.GetInt("concurrency"); v > 0 {
		cfg.Concurrency = v
	}
	cfg.Region = viper.GetString("region")
	cfg.Endpoint = viper.GetString("endpoint")
	return cfg
}
