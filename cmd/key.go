package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nikogura/resumeforge/pkg/config"
	"github.com/nikogura/resumeforge/pkg/llm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// keyCheckTimeout bounds the credential round trip.
const keyCheckTimeout = 30 * time.Second

//nolint:gochecknoglobals // Cobra boilerplate
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Save or check the AI service API key",
	Long: `Save or check the API key for the configured provider.

A key in the config file or environment (GEMINI_API_KEY, ANTHROPIC_API_KEY)
takes precedence over one saved with 'key set'.`,
}

//nolint:gochecknoglobals // Cobra boilerplate
var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Save an API key (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKeySet,
}

//nolint:gochecknoglobals // Cobra boilerplate
var keyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the API key is accepted",
	Args:  cobra.NoArgs,
	RunE:  runKeyTest,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyTestCmd)
}

func runKeySet(cmd *cobra.Command, args []string) (err error) {
	var key string
	if len(args) > 0 {
		key = args[0]
	} else {
		fmt.Print("API key: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			key = scanner.Text()
		}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		err = errors.New("no API key provided")
		return err
	}

	var cfg *config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	err = st.SetAPIKey(ctx, key)
	if err != nil {
		err = errors.Wrap(err, "failed to save API key")
		return err
	}

	fmt.Println("API key saved.")
	if cfg.APIKey() != "" {
		fmt.Println("Note: the key from your config or environment still takes precedence.")
	}

	return err
}

func runKeyTest(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), keyCheckTimeout)
	defer cancel()

	var cfg *config.Config
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var key string
	key, err = resolveAPIKey(ctx, cfg, st)
	if err != nil {
		return err
	}

	var client *llm.Client
	client, err = newLLMClient(ctx, cfg, key, cfg.GetTailorModel())
	if err != nil {
		return err
	}

	err = withSpinner(fmt.Sprintf("Checking %s API key...", titleCase(cfg.Provider)), func() (err error) {
		err = client.CheckCredential(ctx)
		return err
	})
	if err != nil {
		if errors.Is(err, llm.ErrInvalidCredential) {
			err = errors.Wrapf(err, "the %s API rejected the key", cfg.Provider)
		}
		return err
	}

	fmt.Println("API key is valid.")
	return err
}
