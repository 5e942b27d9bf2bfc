package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/itchyny/gojq"

	"github.com/mahdiidarabi/wallet-signature-verify/pkg/walletverify"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

type verifyOutput struct {
	Wallet            string  `json:"wallet"`
	Provider          string  `json:"provider"`
	ExpectedAddress   string  `json:"expected_address"`
	ExpectedChallenge *string `json:"expected_challenge"`
	IsValid           bool    `json:"is_valid"`
	*walletverify.VerificationResult
}

type batchOutput struct {
	Index   int                              `json:"index"`
	Wallet  string                           `json:"wallet"`
	IsValid bool                             `json:"is_valid"`
	Result  *walletverify.VerificationResult `json:"result,omitempty"`
	Error   string                           `json:"error,omitempty"`
}

func newBatchOutput(r walletverify.BatchResult) batchOutput {
	out := batchOutput{Index: r.Index, Wallet: r.Wallet, Result: r.Result}
	if r.Err != nil {
		out.Error = r.Err.Error()
	} else if r.Result != nil {
		out.IsValid = r.Result.IsValid()
	}
	return out
}

type walletOutput struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// writeJSON prints v as indented JSON, or the results of filter applied to
// it when filter is set.
func writeJSON(w io.Writer, v interface{}, filter string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if filter == "" {
		return enc.Encode(v)
	}

	query, err := gojq.Parse(filter)
	if err != nil {
		return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}

	// gojq works on plain maps and slices.
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	iter := code.Run(doc)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := out.(error); isErr {
			return fmt.Errorf("jq filter failed: %w", err)
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
}

func mark(ok bool, yes, no string) string {
	if ok {
		return "✓ " + yes
	}
	return "✗ " + no
}

// printResult prints a verification result for humans.
func printResult(w io.Writer, provider walletverify.WalletProvider, result *walletverify.VerificationResult, input walletverify.VerificationInput) {
	fmt.Fprintf(w, "\nVerifying with: %s\n", provider.Name())
	fmt.Fprintf(w, "   %s\n\n", provider.Description())
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "\n[*] Address")
	fmt.Fprintf(w, "    Derived:  %s\n", orNone(result.DerivedAddress))
	fmt.Fprintf(w, "    Expected: %s\n", input.ExpectedAddress)
	fmt.Fprintf(w, "    Status:   %s\n", mark(result.AddressValid, "MATCH", "MISMATCH"))

	if expected, ok := input.ChallengeText(); ok {
		fmt.Fprintln(w, "\n[*] Challenge")
		if result.FoundChallenge != nil {
			fmt.Fprintf(w, "    Found:    %s\n", *result.FoundChallenge)
		} else {
			fmt.Fprintln(w, "    Found:    (no challenge in signed data)")
		}
		fmt.Fprintf(w, "    Expected: %s\n", expected)
		fmt.Fprintf(w, "    Status:   %s\n", mark(result.ChallengeValid, "MATCH", "MISMATCH"))
	} else {
		fmt.Fprintln(w, "\n[*] Challenge check skipped (not provided)")
	}

	fmt.Fprintln(w, "\n[*] Signature")
	fmt.Fprintf(w, "    Status:   %s\n\n", mark(result.SignatureValid, "VALID", "INVALID"))
	fmt.Fprintln(w, rule)

	if result.IsValid() {
		fmt.Fprintln(w, "[+] AUTHENTICATION SUCCESSFUL")
		fmt.Fprintf(w, "    The holder of %s signed this challenge.\n", input.ExpectedAddress)
		return
	}

	fmt.Fprintln(w, "[-] AUTHENTICATION FAILED")
	if !result.AddressValid {
		fmt.Fprintln(w, "    ✗ Address mismatch: wrong public key")
	}
	if !result.ChallengeValid {
		fmt.Fprintln(w, "    ✗ Challenge mismatch: possible replay attack")
	}
	if !result.SignatureValid {
		fmt.Fprintln(w, "    ✗ Cryptographic signature invalid")
	}
}

// printBatch prints one line per batch item and a summary.
func printBatch(w io.Writer, results []walletverify.BatchResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tWALLET\tSTATUS\tDETAIL")

	var valid, invalid, failed int
	for _, r := range results {
		var status, detail string
		switch {
		case r.Err != nil:
			failed++
			status, detail = "ERROR", r.Err.Error()
		case !r.Result.IsValid():
			invalid++
			status, detail = "INVALID", failedChecks(r.Result)
		default:
			valid++
			status, detail = "VALID", r.Result.DerivedAddress
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Index, r.Wallet, status, detail)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d verified: %d valid, %d invalid, %d errors\n", len(results), valid, invalid, failed)
}

func failedChecks(r *walletverify.VerificationResult) string {
	var failed []string
	if !r.AddressValid {
		failed = append(failed, "address")
	}
	if !r.ChallengeValid {
		failed = append(failed, "challenge")
	}
	if !r.SignatureValid {
		failed = append(failed, "signature")
	}
	return "failed: " + strings.Join(failed, ", ")
}

func printWallets(w io.Writer, wallets []walletOutput) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tDESCRIPTION")
	for _, wallet := range wallets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", wallet.Type, wallet.Name, wallet.Description)
	}
	tw.Flush()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
