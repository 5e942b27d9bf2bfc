package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mahdiidarabi/wallet-signature-verify/pkg/challenge"
)

type challengeOutput struct {
	Challenge string    `json:"challenge"`
	Domain    string    `json:"domain"`
	IssuedAt  time.Time `json:"issued_at"`
	Nonce     string    `json:"nonce"`
	Action    string    `json:"action"`
	Address   string    `json:"address"`
	Expired   *bool     `json:"expired,omitempty"`
}

func newChallengeOutput(ch *challenge.Challenge) challengeOutput {
	return challengeOutput{
		Challenge: ch.String(),
		Domain:    ch.Domain,
		IssuedAt:  ch.IssuedAt.UTC(),
		Nonce:     ch.Nonce.String(),
		Action:    ch.Action,
		Address:   ch.Address,
	}
}

func challengeCommands() *cli.Command {
	return &cli.Command{
		Name:  "challenge",
		Usage: "Create and inspect login challenges",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "Create a challenge for a wallet to sign",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "domain",
						Aliases:  []string{"d"},
						Usage:    "Domain requesting the signature",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "action",
						Usage: "Action being authorized",
						Value: "login",
					},
					&cli.StringFlag{
						Name:     "address",
						Aliases:  []string{"a"},
						Usage:    "Wallet address that will sign",
						Required: true,
					},
				}, outputFlags()...),
				Action: func(c *cli.Context) error {
					ch, err := challenge.New(c.String("domain"), c.String("action"), c.String("address"))
					if err != nil {
						return cli.Exit(err.Error(), exitUsage)
					}
					if wantJSON(c) {
						if err := writeJSON(c.App.Writer, newChallengeOutput(ch), c.String("jq")); err != nil {
							return cli.Exit(err.Error(), exitUsage)
						}
						return nil
					}
					fmt.Fprintln(c.App.Writer, ch.String())
					return nil
				},
			},
			{
				Name:      "parse",
				Usage:     "Show the fields of a challenge and whether it has expired",
				ArgsUsage: "CHALLENGE",
				Flags: append([]cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Maximum challenge age",
						Value: 5 * time.Minute,
					},
				}, outputFlags()...),
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one challenge is required", exitUsage)
					}
					ch, err := challenge.Parse(c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), exitUsage)
					}

					expired := ch.Expired(time.Now(), c.Duration("ttl"))
					if wantJSON(c) {
						out := newChallengeOutput(ch)
						out.Expired = &expired
						if err := writeJSON(c.App.Writer, out, c.String("jq")); err != nil {
							return cli.Exit(err.Error(), exitUsage)
						}
					} else {
						w := c.App.Writer
						fmt.Fprintf(w, "Domain:    %s\n", ch.Domain)
						fmt.Fprintf(w, "Issued at: %s\n", ch.IssuedAt.UTC().Format(time.RFC3339))
						fmt.Fprintf(w, "Nonce:     %s\n", ch.Nonce)
						fmt.Fprintf(w, "Action:    %s\n", ch.Action)
						fmt.Fprintf(w, "Address:   %s\n", ch.Address)
						fmt.Fprintf(w, "Status:    %s\n", mark(!expired, "FRESH", "EXPIRED"))
					}

					if expired {
						return cli.Exit("", exitInvalid)
					}
					return nil
				},
			},
		},
	}
}
