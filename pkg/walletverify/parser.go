package walletverify

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// InputParser defines the interface for reading verification batches from
// various sources.
type InputParser interface {
	// ParseInputs parses verification requests from a source.
	ParseInputs(source string) ([]BatchItem, error)
}

// JSONParser parses verification requests from JSON files.
type JSONParser struct {
	WalletField    string // Field name for wallet (default: "wallet")
	SignatureField string // Field name for signature (default: "signature")
	AddressField   string // Field name for address (default: "address")
	ChallengeField string // Field name for challenge (default: "challenge")
	DefaultWallet  string // Wallet used when an item has none
}

// ParseInputs parses verification requests from a JSON file, or stdin when
// source is "-".
//
// Expected format:
// [
//   {"wallet": "xaman", "signature": "7321...", "address": "r...", "challenge": "..."},
//   {"wallet": "solana", "signature": "5Ke...", "address": "9xQ...", "challenge": "..."}
// ]
func (p *JSONParser) ParseInputs(source string) ([]BatchItem, error) {
	r, closeFn, err := openSource(source)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return p.Decode(r)
}

// Decode parses verification requests from r.
func (p *JSONParser) Decode(r io.Reader) ([]BatchItem, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var rows []map[string]interface{}
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	walletField := orDefault(p.WalletField, "wallet")
	signatureField := orDefault(p.SignatureField, "signature")
	addressField := orDefault(p.AddressField, "address")
	challengeField := orDefault(p.ChallengeField, "challenge")

	items := make([]BatchItem, 0, len(rows))
	for i, row := range rows {
		item := BatchItem{Wallet: p.DefaultWallet}

		if v, ok, err := stringField(row, walletField); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		} else if ok {
			item.Wallet = v
		}
		if item.Wallet == "" {
			return nil, fmt.Errorf("item %d: missing %s field", i, walletField)
		}

		sig, ok, err := stringField(row, signatureField)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if !ok {
			return nil, fmt.Errorf("item %d: missing %s field", i, signatureField)
		}
		item.SignatureData = sig

		addr, ok, err := stringField(row, addressField)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if !ok {
			return nil, fmt.Errorf("item %d: missing %s field", i, addressField)
		}
		item.ExpectedAddress = addr

		challenge, ok, err := stringField(row, challengeField)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if ok {
			item.Challenge = &challenge
		}

		items = append(items, item)
	}
	return items, nil
}

// CSVParser parses verification requests from CSV files with a header row.
type CSVParser struct {
	WalletCol     string // Column name for wallet (default: "wallet")
	SignatureCol  string // Column name for signature (default: "signature")
	AddressCol    string // Column name for address (default: "address")
	ChallengeCol  string // Column name for challenge (default: "challenge")
	DefaultWallet string // Wallet used when the wallet column is absent or empty
}

// ParseInputs parses verification requests from a CSV file, or stdin when
// source is "-". An empty challenge cell means no challenge.
func (p *CSVParser) ParseInputs(source string) ([]BatchItem, error) {
	r, closeFn, err := openSource(source)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return p.Decode(r)
}

// Decode parses verification requests from r.
func (p *CSVParser) Decode(r io.Reader) ([]BatchItem, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	walletIdx := indexOf(header, orDefault(p.WalletCol, "wallet"))
	sigIdx := indexOf(header, orDefault(p.SignatureCol, "signature"))
	addrIdx := indexOf(header, orDefault(p.AddressCol, "address"))
	challengeIdx := indexOf(header, orDefault(p.ChallengeCol, "challenge"))

	if sigIdx == -1 || addrIdx == -1 {
		return nil, fmt.Errorf("missing required columns: signature or address")
	}
	if walletIdx == -1 && p.DefaultWallet == "" {
		return nil, fmt.Errorf("missing wallet column and no default wallet")
	}

	items := make([]BatchItem, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		item := BatchItem{Wallet: p.DefaultWallet}
		if v := cell(record, walletIdx); v != "" {
			item.Wallet = v
		}
		if item.Wallet == "" {
			return nil, fmt.Errorf("line %d: empty wallet", line)
		}
		item.SignatureData = cell(record, sigIdx)
		item.ExpectedAddress = cell(record, addrIdx)
		if v := cell(record, challengeIdx); v != "" {
			item.Challenge = &v
		}

		items = append(items, item)
	}
	return items, nil
}

func openSource(source string) (io.Reader, func(), error) {
	if source == "-" {
		return os.Stdin, func() {}, nil
	}
	file, err := os.Open(source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, func() { file.Close() }, nil
}

// stringField reads a string field. A missing or null field reports false.
func stringField(row map[string]interface{}, name string) (string, bool, error) {
	v, ok := row[name]
	if !ok || v == nil {
		return "", false, nil
	}
	switch val := v.(type) {
	case string:
		return val, true, nil
	case json.Number:
		return string(val), true, nil
	default:
		return "", false, fmt.Errorf("field %s must be a string, got %T", name, v)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func indexOf(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
