package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mahdiidarabi/wallet-signature-verify/pkg/walletverify"
)

// outputFlags are shared by commands that can print JSON.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output in JSON format",
		},
		&cli.StringFlag{
			Name:  "jq",
			Usage: "jq filter applied to the JSON output (implies --json)",
		},
	}
}

func wantJSON(c *cli.Context) bool {
	return c.Bool("json") || c.String("jq") != ""
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify one signed challenge",
		Description: `Checks that the signature was produced by the key behind --address and,
when --challenge is given, that it covers exactly that challenge.

Examples:
  # Xaman (signed SignIn blob; the challenge is read from its memo)
  walletverify verify -w xaman -s <hex_blob> -a r... -c <challenge>

  # Web3Auth (DER signature over the challenge)
  walletverify verify -w web3auth -s <der_hex> -a r... -c <challenge>

  # WalletConnect / Bifrost (personal_sign)
  walletverify verify -w wallet_connect -s 0x<sig> -a 0x<addr> -c <challenge>`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "wallet",
				Aliases:  []string{"w"},
				Usage:    "Wallet type (xaman, web3auth, wallet_connect, bifrost, solana)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "signature",
				Aliases:  []string{"s"},
				Usage:    "Signature data (hex blob for Xaman, DER hex for Web3Auth, 0x hex for EVM, base58 for Solana)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Aliases:  []string{"a"},
				Usage:    "Expected wallet address",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "challenge",
				Aliases: []string{"c"},
				Usage:   "Challenge string (optional for Xaman, required otherwise)",
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			client, logger, err := newClient(c, "warn")
			if err != nil {
				return err
			}
			defer logger.Sync()

			walletType, provider, err := client.Registry().Lookup(c.String("wallet"))
			if err != nil {
				return cli.Exit(err.Error(), exitUsage)
			}

			input := walletverify.VerificationInput{
				SignatureData:   c.String("signature"),
				ExpectedAddress: c.String("address"),
			}
			if c.IsSet("challenge") {
				challenge := c.String("challenge")
				input.Challenge = &challenge
			}

			result, err := client.Verify(c.Context, walletType, input)
			if err != nil {
				return cli.Exit(fmt.Sprintf("verification failed: %v", err), exitUsage)
			}

			if wantJSON(c) {
				out := verifyOutput{
					Wallet:             walletType.String(),
					Provider:           provider.Name(),
					ExpectedAddress:    input.ExpectedAddress,
					ExpectedChallenge:  input.Challenge,
					IsValid:            result.IsValid(),
					VerificationResult: result,
				}
				if err := writeJSON(c.App.Writer, out, c.String("jq")); err != nil {
					return cli.Exit(err.Error(), exitUsage)
				}
			} else {
				printResult(c.App.Writer, provider, result, input)
			}

			if !result.IsValid() {
				return cli.Exit("", exitInvalid)
			}
			return nil
		},
	}
}

func verifyBatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify-batch",
		Usage:     "Verify many signed challenges from a JSON or CSV file",
		ArgsUsage: "FILE (or - for stdin)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Input format: json or csv (default: from the file extension)",
			},
			&cli.StringFlag{
				Name:  "default-wallet",
				Usage: "Wallet type for rows that do not name one",
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Number of parallel workers (0 = number of CPUs)",
				EnvVars: []string{"WALLETVERIFY_BATCH_WORKERS"},
			},
			&cli.BoolFlag{
				Name:  "stop-on-error",
				Usage: "Stop at the first malformed request",
			},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one input file is required", exitUsage)
			}
			source := c.Args().First()

			parser, err := batchParser(source, c.String("format"), c.String("default-wallet"))
			if err != nil {
				return cli.Exit(err.Error(), exitUsage)
			}

			client, logger, err := newClient(c, "warn")
			if err != nil {
				return err
			}
			defer logger.Sync()

			client = client.WithParser(parser).WithBatchConfig(walletverify.BatchConfig{
				NumWorkers:  c.Int("workers"),
				StopOnError: c.Bool("stop-on-error"),
			})

			results, err := client.VerifySource(c.Context, source)
			if err != nil {
				return cli.Exit(err.Error(), exitUsage)
			}

			if wantJSON(c) {
				out := make([]batchOutput, 0, len(results))
				for _, r := range results {
					out = append(out, newBatchOutput(r))
				}
				if err := writeJSON(c.App.Writer, out, c.String("jq")); err != nil {
					return cli.Exit(err.Error(), exitUsage)
				}
			} else {
				printBatch(c.App.Writer, results)
			}

			for _, r := range results {
				if r.Err != nil || !r.Result.IsValid() {
					return cli.Exit("", exitInvalid)
				}
			}
			return nil
		},
	}
}

// batchParser picks a parser from the explicit format or the file extension.
func batchParser(source, format, defaultWallet string) (walletverify.InputParser, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(source)) {
		case ".csv":
			format = "csv"
		default:
			format = "json"
		}
	}
	switch strings.ToLower(format) {
	case "json":
		return &walletverify.JSONParser{DefaultWallet: defaultWallet}, nil
	case "csv":
		return &walletverify.CSVParser{DefaultWallet: defaultWallet}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (expected json or csv)", format)
	}
}

func walletsCommand() *cli.Command {
	return &cli.Command{
		Name:  "wallets",
		Usage: "List the enabled wallet types",
		Flags: outputFlags(),
		Action: func(c *cli.Context) error {
			client, logger, err := newClient(c, "warn")
			if err != nil {
				return err
			}
			defer logger.Sync()

			registry := client.Registry()
			wallets := make([]walletOutput, 0)
			for _, t := range registry.Enabled() {
				p, err := registry.Provider(t)
				if err != nil {
					continue
				}
				wallets = append(wallets, walletOutput{Type: t.String(), Name: p.Name(), Description: p.Description()})
			}

			if wantJSON(c) {
				if err := writeJSON(c.App.Writer, wallets, c.String("jq")); err != nil {
					return cli.Exit(err.Error(), exitUsage)
				}
				return nil
			}
			printWallets(c.App.Writer, wallets)
			return nil
		},
	}
}
