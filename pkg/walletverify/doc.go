// Package walletverify proves that a wallet address signed a specific
// anti-replay challenge, across several wallet signing conventions.
//
// Supported wallets:
//
//   - xaman: signed XRPL SignIn blob carrying key, signature and challenge memo
//   - web3auth: raw secp256k1 DER signature over SHA-512-half of the challenge
//   - wallet_connect, bifrost: Ethereum personal_sign (EIP-191)
//   - solana: Ed25519 signature over the challenge, base58 address
//
// # Quick Start
//
//	import "github.com/mahdiidarabi/wallet-signature-verify/pkg/walletverify"
//
//	client := walletverify.NewClient()
//
//	input := walletverify.NewInput(signedBlobHex, "rnyBzMHbmJMzzhk4NoyyuqKzsahfHFiARa", challenge)
//	result, err := client.Verify(ctx, walletverify.Xaman, input)
//	if err != nil {
//	    log.Fatal(err) // malformed input, unsupported wallet, replayed challenge
//	}
//
//	if result.IsValid() {
//	    fmt.Println("authenticated")
//	}
//
// Errors are reserved for input that cannot be verified at all. A signature
// that does not verify, an address that does not match or a wrong challenge
// is reported through the result's AddressValid, ChallengeValid and
// SignatureValid fields.
//
// # Restricting wallets
//
//	client := walletverify.NewClient().
//	    WithLogger(logger).
//	    WithEnabledWallets(walletverify.Xaman, walletverify.Solana)
//
// # Batches
//
// VerifyBatch verifies many requests on a worker pool. VerifySource reads
// them from a JSON or CSV file first:
//
//	client := walletverify.NewClient().WithParser(&walletverify.CSVParser{})
//	results, err := client.VerifySource(ctx, "requests.csv")
package walletverify
