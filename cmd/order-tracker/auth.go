package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/source/gmail"
)

var authCmd = &cobra.Command{
	Use:   "auth <source>",
	Short: "Run the OAuth consent flow for a Gmail source",
	Long: "auth looks up the named Gmail source, prints its consent URL, and\n" +
		"exchanges the pasted authorization code for a token stored in the\n" +
		"system keyring. Run it after adding a Gmail source, or again when\n" +
		"a token can no longer be refreshed.",
	Args: cobra.ExactArgs(1),
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	_, s, cleanup, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer cleanup()

	sources, err := s.GetSources(cmd.Context())
	if err != nil {
		return err
	}

	src, err := findSource(sources, args[0])
	if err != nil {
		return err
	}
	if src.Type != string(model.SourceTypeGmail) {
		return fmt.Errorf("source %q is %s; only gmail sources use OAuth", src.Name, src.Type)
	}

	credsPath := src.ConfigValue(model.ConfigKeyCredentialsFile)
	if credsPath == "" {
		return fmt.Errorf("source %q has no credentials file configured", src.Name)
	}

	err = gmail.Authorize(cmd.Context(), credsPath, src.ID, gmail.KeyringTokenStore{}, promptAuthCode)
	if err != nil {
		return err
	}

	fmt.Printf("authorized %q; token stored in the system keyring\n", src.Name)
	return nil
}

// promptAuthCode prints the consent URL and reads the resulting code
// from stdin.
func promptAuthCode(authURL string) (string, error) {
	fmt.Printf("Open the following URL in your browser:\n\n  %s\n\n", authURL)
	fmt.Print("Paste the authorization code: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}

// findSource matches a stored source by name or ID.
func findSource(sources []model.SourceConfig, nameOrID string) (model.SourceConfig, error) {
	for _, s := range sources {
		if s.ID == nameOrID || s.Name == nameOrID {
			return s, nil
		}
	}
	return model.SourceConfig{}, fmt.Errorf("no source named %q", nameOrID)
}
