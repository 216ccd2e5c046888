package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the stored api key and grading policy",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the model provider api key",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, "api key: ")
		key, err := readSecret()
		if err != nil {
			return err
		}
		if key == "" {
			return errors.New("api key must not be empty")
		}
		if err := store.SetAPIKey(key); err != nil {
			return err
		}
		fmt.Printf("api key stored in %s\n", store.Path())
		return nil
	},
}

var setPolicyCmd = &cobra.Command{
	Use:   "set-policy [file]",
	Short: "Store the grading policy text, from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return err
		}
		policy := strings.TrimSpace(string(data))
		if policy == "" {
			return errors.New("policy must not be empty")
		}
		if err := store.SetPolicy(policy); err != nil {
			return err
		}
		fmt.Printf("policy stored in %s\n", store.Path())
		return nil
	},
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		key := "(not set)"
		if store.APIKey() != "" {
			key = maskKey(store.APIKey())
		}
		policy := "(not set)"
		if store.Policy() != "" {
			policy = fmt.Sprintf("%d characters", len(store.Policy()))
		}
		fmt.Printf("store:   %s\napi key: %s\npolicy:  %s\n", store.Path(), key, policy)
		return nil
	},
}

func readSecret() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func init() {
	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(setPolicyCmd)
	configCmd.AddCommand(showConfigCmd)
}
