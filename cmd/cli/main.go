package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	baseURL string
	timeout time.Duration
	token   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "digibank-cli",
		Short: "DigiBank CLI tool",
		Long:  `A command line interface for interacting with the DigiBank API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the DigiBank API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("DIGIBANK_TOKEN"), "Bearer token (defaults to DIGIBANK_TOKEN)")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check that account balances agree with the transaction log",
		Run: func(cmd *cobra.Command, args []string) {
			reconcile()
		},
	}

	ledgerCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(ledgerCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check API health",
		Run: func(cmd *cobra.Command, args []string) {
			health()
		},
	}
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// bcryptGenerate is a variable for test substitution.
var bcryptGenerate = bcrypt.GenerateFromPassword

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Hash a password for ADMIN_PASSWORD-style seeding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			fmt.Println(string(hashed))
			return nil
		},
	}
}

func get(path string) (int, []byte) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func reconcile() {
	status, body := get("/api/v1/admin/reconciliation")

	if status != http.StatusOK {
		fmt.Printf("Reconciliation FAILED (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if balanced, ok := result["balanced"].(bool); ok && balanced {
		fmt.Println("Reconciliation PASSED")
	} else {
		fmt.Printf("Reconciliation DRIFT detected: %v\n", result["drift"])
		os.Exit(1)
	}

	fmt.Printf("Total balances:    %v\n", result["total_balances"])
	fmt.Printf("Total deposits:    %v\n", result["total_deposits"])
	fmt.Printf("Total withdrawals: %v\n", result["total_withdrawals"])
}

func health() {
	status, body := get("/ready")

	if status != http.StatusOK {
		fmt.Printf("Health check FAILED (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	fmt.Printf("Health check PASSED\n%s\n", string(body))
}
