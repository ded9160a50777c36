package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ValentinKolb/dShop/lib/shipping"
	"github.com/ValentinKolb/dShop/lib/shop"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// SetupFlags adds the global configuration flags to cmd
func SetupFlags(cmd *cobra.Command) {
	addConfigFlags(cmd.PersistentFlags())
}

func addConfigFlags(flags *pflag.FlagSet) {

	key := "config"
	flags.String(key, "", WrapString("Optional config file (yaml, json or toml) with the same keys as the flags"))

	key = "data-file"
	flags.String(key, "dshop.db", WrapString("Snapshot file holding the shop data (empty for memory only)"))

	key = "codec"
	flags.String(key, "json", WrapString("Encoding of the table slots (json, gob)"))

	key = "key-prefix"
	flags.String(key, shop.DefaultKeyPrefix, WrapString("Prefix of every storage key"))

	key = "stock-policy"
	flags.String(key, string(shop.StockAllowNegative), WrapString("What orders do with insufficient stock (allow-negative, reject, clamp)"))

	key = "lock-timeout"
	flags.Uint64(key, shop.DefaultLockTimeout, WrapString("Lifetime of a table lock in lock store writes"))

	key = "shards"
	flags.Int(key, 0, WrapString("Number of database shards (0 = number of CPUs)"))

	key = "log-level"
	flags.String(key, "warn", WrapString("Log level (debug, info, warn, error)"))

	key = "shipping-delay"
	flags.Duration(key, shipping.DefaultDelay, WrapString("Simulated latency of the shipping carrier"))

	key = "shipping-strict"
	flags.Bool(key, true, WrapString("Reject malformed postal codes instead of returning no shipping options"))

	key = "shipping-retries"
	flags.Int(key, 2, WrapString("Extra attempts when the shipping carrier is unavailable"))
}

// InitConfig loads .env files, the optional config file and the DSHOP_
// environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dshop")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", file, err)
			os.Exit(1)
		}
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// Config is the resolved configuration of a command
type Config struct {
	DataFile        string
	Codec           string
	KeyPrefix       string
	StockPolicy     string
	LockTimeout     uint64
	Shards          int
	LogLevel        string
	ShippingDelay   time.Duration
	ShippingStrict  bool
	ShippingRetries int
}

// GetConfig reads the configuration from viper
func GetConfig() *Config {
	return &Config{
		DataFile:        viper.GetString("data-file"),
		Codec:           viper.GetString("codec"),
		KeyPrefix:       viper.GetString("key-prefix"),
		StockPolicy:     viper.GetString("stock-policy"),
		LockTimeout:     viper.GetUint64("lock-timeout"),
		Shards:          viper.GetInt("shards"),
		LogLevel:        viper.GetString("log-level"),
		ShippingDelay:   viper.GetDuration("shipping-delay"),
		ShippingStrict:  viper.GetBool("shipping-strict"),
		ShippingRetries: viper.GetInt("shipping-retries"),
	}
}

func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	dataFile := c.DataFile
	if dataFile == "" {
		dataFile = "(memory only)"
	}

	addSection("Storage")
	addField("Data File", dataFile)
	addField("Codec", c.Codec)
	addField("Key Prefix", c.KeyPrefix)
	addField("Shards", fmt.Sprintf("%d", c.Shards))

	addSection("Orders")
	addField("Stock Policy", c.StockPolicy)
	addField("Lock Timeout", fmt.Sprintf("%d writes", c.LockTimeout))

	addSection("Shipping")
	addField("Carrier Delay", c.ShippingDelay.String())
	addField("Strict Postal Codes", fmt.Sprintf("%t", c.ShippingStrict))
	addField("Retries", fmt.Sprintf("%d", c.ShippingRetries))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// ShopConfig converts the configuration for shop.Open
func (c *Config) ShopConfig() shop.Config {
	return shop.Config{
		DataFile:    c.DataFile,
		Shards:      c.Shards,
		Codec:       c.Codec,
		KeyPrefix:   c.KeyPrefix,
		StockPolicy: shop.StockPolicy(c.StockPolicy),
		LockTimeout: c.LockTimeout,
	}
}

// Estimator builds the shipping estimator chain
func (c *Config) Estimator() shipping.IEstimator {
	return shipping.New(shipping.Config{
		Delay:   c.ShippingDelay,
		Strict:  c.ShippingStrict,
		Retries: c.ShippingRetries,
	})
}

// --------------------------------------------------------------------------
// Command helpers
// --------------------------------------------------------------------------

// ShopRunE opens the shop, seeds absent slots, runs fn and closes the shop
// again. The context is canceled on interrupt.
func ShopRunE(fn func(ctx context.Context, cmd *cobra.Command, args []string, s *shop.Shop) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		s, err := shop.Open(GetConfig().ShopConfig())
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := s.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		if _, err := s.Seed(ctx); err != nil {
			return err
		}
		return fn(ctx, cmd, args, s)
	}
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
